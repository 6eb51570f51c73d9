package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/alexivanou/cityweather/internal/config"
	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/metrics"
	"github.com/alexivanou/cityweather/internal/suggest"
	"github.com/alexivanou/cityweather/internal/tui"
	"github.com/alexivanou/cityweather/internal/view"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// the terminal belongs to the UI, so logs only go to a file when asked for
	logger := zap.NewNop()
	if path := os.Getenv("TUI_LOG_FILE"); path != "" {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
		if logger, err = zcfg.Build(); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}
	defer logger.Sync()

	units, err := gateway.ParseUnits(cfg.Gateway.WeatherUnits)
	if err != nil {
		log.Fatalf("Invalid WEATHER_UNITS: %v", err)
	}

	breaker := gateway.BreakerSettings{
		MaxRequests:         uint32(cfg.Gateway.BreakerMaxRequests),
		Interval:            cfg.Gateway.BreakerInterval,
		Timeout:             cfg.Gateway.BreakerTimeout,
		ConsecutiveFailures: uint32(cfg.Gateway.BreakerConsecutiveFailures),
	}
	httpClient := &http.Client{Timeout: cfg.Gateway.HTTPTimeout}
	appMetrics := metrics.New()

	search := gateway.NewSearchClient(httpClient, gateway.SearchConfig{
		BaseURL: cfg.Gateway.SearchBaseURL,
		Dataset: cfg.Gateway.SearchDataset,
		Breaker: breaker,
	}, appMetrics, logger)
	weather := gateway.NewWeatherClient(httpClient, gateway.WeatherConfig{
		BaseURL: cfg.Gateway.WeatherBaseURL,
		APIKey:  cfg.Gateway.WeatherAPIKey,
		Units:   units,
		Breaker: breaker,
	}, appMetrics, logger)

	if addr := os.Getenv("TUI_METRICS_ADDR"); addr != "" {
		go func() {
			if err := http.ListenAndServe(addr, appMetrics.Handler()); err != nil {
				logger.Error("Metrics listener failed", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	home := view.NewHome(search, suggest.NewFetcher(search, logger), logger, appMetrics.StaleDiscarded)
	loader := detail.NewLoader(weather, logger, appMetrics.StaleHook(view.SlotWeather))

	model := tui.New(ctx, home, loader)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("TUI exited with error", zap.Error(err))
		log.Fatalf("TUI failed: %v", err)
	}
}
