package rowsource

import (
	"context"
	"errors"
	"testing"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSource_GetRowsWith(t *testing.T) {
	src := New(newLondonDataset(23), "Lon", 1)

	t.Run("more pages pending", func(t *testing.T) {
		var gotRows []model.CityRecord
		lastRowKnown := true
		src.GetRowsWith(context.Background(), GetRowsParams{
			StartRow: 0,
			EndRow:   10,
			Success: func(rows []model.CityRecord, known bool, total int) {
				gotRows = rows
				lastRowKnown = known
			},
			Fail: func(err error) { t.Fatalf("unexpected failure: %v", err) },
		})
		assert.Len(t, gotRows, 10)
		assert.False(t, lastRowKnown)
	})

	t.Run("total reached", func(t *testing.T) {
		lastRowKnown := false
		src.GetRowsWith(context.Background(), GetRowsParams{
			StartRow: 20,
			EndRow:   30,
			Success:  func(_ []model.CityRecord, known bool, _ int) { lastRowKnown = known },
			Fail:     func(err error) { t.Fatalf("unexpected failure: %v", err) },
		})
		assert.True(t, lastRowKnown)
	})
}

func TestSource_GetRowsWith_FailSignal(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, gateway.ErrNetworkFailure)

	var failed error
	succeeded := false
	New(searcher, "Lon", 1).GetRowsWith(context.Background(), GetRowsParams{
		StartRow: 0,
		EndRow:   10,
		Success:  func([]model.CityRecord, bool, int) { succeeded = true },
		Fail:     func(err error) { failed = err },
	})

	assert.False(t, succeeded)
	require.Error(t, failed)
	assert.True(t, errors.Is(failed, gateway.ErrNetworkFailure))
}

func TestSource_Serve(t *testing.T) {
	src := New(newLondonDataset(23), "Lon", 1)

	open := src.Serve(context.Background(), model.RowWindow{StartRow: 0, EndRow: 10})
	assert.False(t, open.Failed)
	assert.False(t, open.LastRowKnown)
	assert.Equal(t, -1, open.LastRow)
	assert.Equal(t, 23, open.Total)

	closed := src.Serve(context.Background(), model.RowWindow{StartRow: 20, EndRow: 30})
	assert.True(t, closed.LastRowKnown)
	assert.Equal(t, 23, closed.LastRow)
	assert.Len(t, closed.Rows, 3)

	empty := New(newLondonDataset(0), "zzz", 1).Serve(context.Background(), model.RowWindow{StartRow: 0, EndRow: 10})
	assert.NotNil(t, empty.Rows)
	assert.Empty(t, empty.Rows)
	assert.True(t, empty.LastRowKnown)
	assert.Equal(t, 0, empty.LastRow)
}

func TestSource_Serve_Failure(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, gateway.ErrParseFailure)

	resp := New(searcher, "Lon", 1).Serve(context.Background(), model.RowWindow{StartRow: 0, EndRow: 10})
	assert.True(t, resp.Failed)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, -1, resp.LastRow)
}
