package suggest

import (
	"context"
	"strings"

	"github.com/alexivanou/cityweather/internal/gateway"
	"go.uber.org/zap"
)

// Limit is the number of suggestions requested per keystroke
const Limit = 5

// Searcher is the part of the search gateway the fetcher needs
type Searcher interface {
	Search(ctx context.Context, params gateway.SearchParams) (*gateway.SearchResult, error)
}

// Fetcher turns a partial query into up to Limit city names
type Fetcher struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewFetcher creates a new suggestion fetcher
func NewFetcher(searcher Searcher, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{searcher: searcher, logger: logger}
}

// Fetch returns suggestion names in gateway order. An empty query returns
// an empty list without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}

	res, err := f.searcher.Search(ctx, gateway.SearchParams{Query: query, Rows: Limit})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if len(names) == Limit {
			break
		}
		names = append(names, rec.Name)
	}
	return names, nil
}

// FetchBestEffort never fails: errors are logged and yield an empty list
func (f *Fetcher) FetchBestEffort(ctx context.Context, query string) []string {
	names, err := f.Fetch(ctx, query)
	if err != nil {
		f.logger.Warn("Error fetching suggestions",
			zap.String("query", query),
			zap.String("outcome", string(gateway.Classify(err))),
			zap.Error(err),
		)
		return []string{}
	}
	return names
}
