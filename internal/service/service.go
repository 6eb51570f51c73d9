package service

import (
	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/repository"
	"github.com/alexivanou/cityweather/internal/rowsource"
	"github.com/alexivanou/cityweather/internal/suggest"
	"go.uber.org/zap"
)

// Service provides the city search and weather operations for the API
type Service struct {
	searcher rowsource.Searcher
	fetcher  *suggest.Fetcher
	weather  detail.WeatherFetcher
	callRepo repository.CallRepository
	logger   *zap.Logger
}

// NewService creates a new service instance
func NewService(
	searcher rowsource.Searcher,
	weather detail.WeatherFetcher,
	callRepo repository.CallRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher: searcher,
		fetcher:  suggest.NewFetcher(searcher, logger),
		weather:  weather,
		callRepo: callRepo,
		logger:   logger,
	}
}
