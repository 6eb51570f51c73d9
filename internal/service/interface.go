package service

import (
	"context"

	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/rowsource"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	Rows(ctx context.Context, query string, window model.RowWindow) rowsource.GridResponse
	Suggest(ctx context.Context, query string) []string
	Weather(ctx context.Context, param string) (detail.View, error)
	RecentCalls(ctx context.Context, gateway string, limit int) ([]model.GatewayCall, error)
}
