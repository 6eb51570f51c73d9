package rowsource

import (
	"context"
	"fmt"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
)

const (
	// PageSize is the number of records fetched per gateway call
	PageSize = model.MaxWindowSize
	// SortField keeps re-fetched windows reproducible under an unchanged query
	SortField = "name"
)

// Searcher is the part of the search gateway the row source needs
type Searcher interface {
	Search(ctx context.Context, params gateway.SearchParams) (*gateway.SearchResult, error)
}

// FetchFailure is the explicit fail signal for one window
type FetchFailure struct {
	Query  string
	Window model.RowWindow
	Err    error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("failed to fetch rows %d-%d for query %q: %v", e.Window.StartRow, e.Window.EndRow, e.Query, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// Source serves row windows for one query. A new query needs a new Source;
// the generation lets the owner recognize rows fetched under an older query.
type Source struct {
	searcher   Searcher
	query      string
	generation uint64
	onTotal    func(generation uint64, total int)
}

// Option configures a Source
type Option func(*Source)

// WithTotalListener publishes the gateway hit count after every successful page
func WithTotalListener(fn func(generation uint64, total int)) Option {
	return func(s *Source) {
		s.onTotal = fn
	}
}

// New creates a row source bound to query and generation
func New(searcher Searcher, query string, generation uint64, opts ...Option) *Source {
	s := &Source{
		searcher:   searcher,
		query:      query,
		generation: generation,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the query this source is keyed by
func (s *Source) Query() string {
	return s.query
}

// Generation returns the generation this source was created for
func (s *Source) Generation() uint64 {
	return s.generation
}

// GetRows fetches one window. Rows beyond the window width are dropped so
// that disjoint windows never overlap.
func (s *Source) GetRows(ctx context.Context, w model.RowWindow) (model.PageResult, error) {
	if err := w.Validate(); err != nil {
		return model.PageResult{}, err
	}

	res, err := s.searcher.Search(ctx, gateway.SearchParams{
		Query: s.query,
		Start: w.StartRow,
		Rows:  PageSize,
		Sort:  SortField,
	})
	if err != nil {
		return model.PageResult{}, &FetchFailure{Query: s.query, Window: w, Err: err}
	}

	rows := res.Records
	if len(rows) > w.Size() {
		rows = rows[:w.Size()]
	}

	if s.onTotal != nil {
		s.onTotal(s.generation, res.NHits)
	}

	return model.PageResult{
		Rows:    rows,
		HasMore: res.NHits > w.EndRow,
		Total:   res.NHits,
	}, nil
}

// Result is the outcome of an asynchronous window request
type Result struct {
	Query      string
	Generation uint64
	Window     model.RowWindow
	Page       model.PageResult
	Err        error
}

// Request fetches a window in the background. The channel yields exactly one
// Result and is then closed.
func (s *Source) Request(ctx context.Context, w model.RowWindow) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		page, err := s.GetRows(ctx, w)
		out <- Result{
			Query:      s.query,
			Generation: s.generation,
			Window:     w,
			Page:       page,
			Err:        err,
		}
	}()
	return out
}
