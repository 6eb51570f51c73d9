package rowsource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSearcher is a mock implementation of Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, params gateway.SearchParams) (*gateway.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SearchResult), args.Error(1)
}

// fakeDataset filters and pages an in-memory city list the way the gateway does
type fakeDataset struct {
	names []string
}

func newLondonDataset(n int) *fakeDataset {
	names := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		names = append(names, fmt.Sprintf("London %02d", i))
	}
	return &fakeDataset{names: names}
}

func (d *fakeDataset) Search(_ context.Context, params gateway.SearchParams) (*gateway.SearchResult, error) {
	var matched []string
	for _, name := range d.names {
		if strings.Contains(strings.ToLower(name), strings.ToLower(params.Query)) {
			matched = append(matched, name)
		}
	}
	if params.Sort == "name" {
		sort.Strings(matched)
	}

	res := &gateway.SearchResult{NHits: len(matched)}
	for i := params.Start; i < len(matched) && i < params.Start+params.Rows; i++ {
		res.Records = append(res.Records, model.CityRecord{ID: fmt.Sprintf("id-%d", i), Name: matched[i]})
	}
	return res, nil
}

func TestSource_GetRows_GridWindowScenario(t *testing.T) {
	src := New(newLondonDataset(23), "Lon", 1)
	ctx := context.Background()

	first, err := src.GetRows(ctx, model.RowWindow{StartRow: 0, EndRow: 10})
	require.NoError(t, err)
	assert.Len(t, first.Rows, 10)
	assert.True(t, first.HasMore)
	assert.Equal(t, 23, first.Total)

	last, err := src.GetRows(ctx, model.RowWindow{StartRow: 20, EndRow: 30})
	require.NoError(t, err)
	assert.Len(t, last.Rows, 3)
	assert.False(t, last.HasMore)
}

func TestSource_GetRows_DisjointWindowsKeepOrder(t *testing.T) {
	src := New(newLondonDataset(23), "lon", 1)
	ctx := context.Background()

	var all []model.CityRecord
	for start := 0; start < 30; start += PageSize {
		page, err := src.GetRows(ctx, model.RowWindow{StartRow: start, EndRow: start + PageSize})
		require.NoError(t, err)
		all = append(all, page.Rows...)
	}

	require.Len(t, all, 23)
	seen := make(map[string]bool)
	for i, row := range all {
		assert.False(t, seen[row.ID], "row %s returned twice", row.ID)
		seen[row.ID] = true
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].Name, row.Name)
		}
	}
}

func TestSource_GetRows_RequestShape(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, gateway.SearchParams{Query: "Ber", Start: 30, Rows: PageSize, Sort: "name"}).
		Return(&gateway.SearchResult{NHits: 40}, nil)

	var published []int
	src := New(searcher, "Ber", 7, WithTotalListener(func(gen uint64, total int) {
		assert.Equal(t, uint64(7), gen)
		published = append(published, total)
	}))

	page, err := src.GetRows(context.Background(), model.RowWindow{StartRow: 30, EndRow: 40})
	require.NoError(t, err)
	assert.False(t, page.HasMore, "nhits == endRow means no more rows")
	assert.Empty(t, page.Rows)
	assert.Equal(t, []int{40}, published)
	searcher.AssertExpectations(t)
}

func TestSource_GetRows_HasMoreBoundary(t *testing.T) {
	tests := []struct {
		name     string
		nhits    int
		endRow   int
		expected bool
	}{
		{name: "more hits than window end", nhits: 11, endRow: 10, expected: true},
		{name: "hits equal window end", nhits: 10, endRow: 10, expected: false},
		{name: "fewer hits than window end", nhits: 3, endRow: 10, expected: false},
		{name: "empty result", nhits: 0, endRow: 10, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(MockSearcher)
			searcher.On("Search", mock.Anything, mock.Anything).Return(&gateway.SearchResult{NHits: tt.nhits}, nil)

			page, err := New(searcher, "", 1).GetRows(context.Background(), model.RowWindow{StartRow: tt.endRow - 10, EndRow: tt.endRow})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, page.HasMore)
		})
	}
}

func TestSource_GetRows_TrimsToWindow(t *testing.T) {
	src := New(newLondonDataset(23), "", 1)

	page, err := src.GetRows(context.Background(), model.RowWindow{StartRow: 0, EndRow: 4})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 4)
	assert.True(t, page.HasMore)
}

func TestSource_GetRows_RejectsWindowWiderThanPage(t *testing.T) {
	searcher := new(MockSearcher)
	src := New(searcher, "Lon", 1)

	_, err := src.GetRows(context.Background(), model.RowWindow{StartRow: 0, EndRow: 30})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 10")

	resp := src.Serve(context.Background(), model.RowWindow{StartRow: 0, EndRow: PageSize + 1})
	assert.True(t, resp.Failed)
	assert.False(t, resp.LastRowKnown)
	assert.Empty(t, resp.Rows)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSource_GetRows_Failure(t *testing.T) {
	gatewayErr := &gateway.StatusError{StatusCode: 503, Status: "Service Unavailable"}
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, gatewayErr)

	var published bool
	src := New(searcher, "Lon", 1, WithTotalListener(func(uint64, int) { published = true }))
	_, err := src.GetRows(context.Background(), model.RowWindow{StartRow: 0, EndRow: 10})

	var failure *FetchFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Lon", failure.Query)
	assert.Equal(t, model.RowWindow{StartRow: 0, EndRow: 10}, failure.Window)
	assert.ErrorIs(t, err, gatewayErr)
	assert.False(t, published)
}

func TestSource_GetRows_InvalidWindow(t *testing.T) {
	searcher := new(MockSearcher)
	src := New(searcher, "", 1)

	for _, w := range []model.RowWindow{{StartRow: -1, EndRow: 10}, {StartRow: 10, EndRow: 10}, {StartRow: 10, EndRow: 5}} {
		_, err := src.GetRows(context.Background(), w)
		assert.Error(t, err)
	}
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSource_Request(t *testing.T) {
	src := New(newLondonDataset(23), "Lon", 3)

	res, ok := <-src.Request(context.Background(), model.RowWindow{StartRow: 10, EndRow: 20})
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(3), res.Generation)
	assert.Equal(t, "Lon", res.Query)
	assert.Equal(t, model.RowWindow{StartRow: 10, EndRow: 20}, res.Window)
	assert.Len(t, res.Page.Rows, 10)
}
