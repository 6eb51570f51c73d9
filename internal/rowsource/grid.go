package rowsource

import (
	"context"

	"github.com/alexivanou/cityweather/internal/model"
)

// GetRowsParams is the infinite-scroll contract of the grid widget:
// exactly one of Success or Fail is called per request.
type GetRowsParams struct {
	StartRow int
	EndRow   int
	Success  func(rows []model.CityRecord, lastRowKnown bool, total int)
	Fail     func(err error)
}

// GetRowsWith serves one grid request through callbacks.
// lastRowKnown stays false while the gateway reports more hits past EndRow.
func (s *Source) GetRowsWith(ctx context.Context, p GetRowsParams) {
	page, err := s.GetRows(ctx, model.RowWindow{StartRow: p.StartRow, EndRow: p.EndRow})
	if err != nil {
		if p.Fail != nil {
			p.Fail(err)
		}
		return
	}
	if p.Success != nil {
		p.Success(page.Rows, !page.HasMore, page.Total)
	}
}

// GridResponse is the JSON shape handed to a browser grid
type GridResponse struct {
	Rows         []model.CityRecord `json:"rows"`
	LastRowKnown bool               `json:"lastRowKnown"`
	// LastRow is the total row count once known, -1 before that
	LastRow int    `json:"lastRow"`
	Total   int    `json:"total"`
	Failed  bool   `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// Serve answers one grid window as a GridResponse
func (s *Source) Serve(ctx context.Context, w model.RowWindow) GridResponse {
	var resp GridResponse
	s.GetRowsWith(ctx, GetRowsParams{
		StartRow: w.StartRow,
		EndRow:   w.EndRow,
		Success: func(rows []model.CityRecord, lastRowKnown bool, total int) {
			if rows == nil {
				rows = []model.CityRecord{}
			}
			resp = GridResponse{
				Rows:         rows,
				LastRowKnown: lastRowKnown,
				LastRow:      -1,
				Total:        total,
			}
			if lastRowKnown {
				resp.LastRow = total
			}
		},
		Fail: func(err error) {
			resp = GridResponse{
				Rows:    []model.CityRecord{},
				LastRow: -1,
				Failed:  true,
				Error:   err.Error(),
			}
		},
	})
	return resp
}
