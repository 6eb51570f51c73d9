package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/rowsource"
	"go.uber.org/zap"
)

const (
	defaultCallsLimit = 20
	maxCallsLimit     = 200
)

// ErrUnknownGateway is returned when filtering calls by a gateway that does not exist
var ErrUnknownGateway = errors.New("unknown gateway")

// Rows serves one grid window. Each HTTP request is stateless, so the row
// source is rebuilt per request; the sort order keeps windows consistent.
func (s *Service) Rows(ctx context.Context, query string, window model.RowWindow) rowsource.GridResponse {
	resp := rowsource.New(s.searcher, query, 0).Serve(ctx, window)
	if resp.Failed {
		s.logger.Warn("Error fetching rows",
			zap.String("query", query),
			zap.Int("startRow", window.StartRow),
			zap.Int("endRow", window.EndRow),
			zap.String("error", resp.Error))
	}
	return resp
}

// Suggest returns up to five city names; failures yield an empty list
func (s *Service) Suggest(ctx context.Context, query string) []string {
	return s.fetcher.FetchBestEffort(ctx, query)
}

// Weather loads the weather view for a raw route parameter
func (s *Service) Weather(ctx context.Context, param string) (detail.View, error) {
	return detail.Load(ctx, s.weather, param)
}

// RecentCalls lists the newest journal entries, optionally for one gateway
func (s *Service) RecentCalls(ctx context.Context, gw string, limit int) ([]model.GatewayCall, error) {
	switch gw {
	case "", gateway.GatewaySearch, gateway.GatewayWeather:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, gw)
	}

	if limit <= 0 {
		limit = defaultCallsLimit
	}
	if limit > maxCallsLimit {
		limit = maxCallsLimit
	}

	calls, err := s.callRepo.RecentCalls(ctx, gw, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateway calls: %w", err)
	}
	return calls, nil
}
