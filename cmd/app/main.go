package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/cityweather/internal/api"
	"github.com/alexivanou/cityweather/internal/config"
	"github.com/alexivanou/cityweather/internal/database"
	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/journal"
	"github.com/alexivanou/cityweather/internal/metrics"
	"github.com/alexivanou/cityweather/internal/repository"
	"github.com/alexivanou/cityweather/internal/service"
	"github.com/alexivanou/cityweather/internal/stats"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := runMigrations(db, cfg); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)
	appMetrics := metrics.New()
	observer := gateway.Observers{appMetrics, journal.NewRecorder(repos.Call, logger)}

	search, weather, err := newGateways(cfg.Gateway, observer, logger)
	if err != nil {
		logger.Fatal("Failed to configure gateways", zap.Error(err))
	}
	if cfg.Gateway.WeatherAPIKey == "" {
		logger.Warn("WEATHER_API_KEY is not set; weather lookups will fail")
	}

	pruner := journal.NewPruner(repos.Call, cfg.Journal.MaxAge, cfg.Journal.PruneInterval, logger)
	if err := pruner.Start(); err != nil {
		logger.Fatal("Failed to start journal pruner", zap.Error(err))
	}
	defer pruner.Stop()

	svc := service.NewService(search, weather, repos.Call, logger)
	statsCollector := stats.NewCollector(db, cfg.DB, repos.Call, 0)
	router := api.NewRouter(svc, statsCollector, appMetrics, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newGateways(cfg config.GatewayConfig, observer gateway.Observer, logger *zap.Logger) (*gateway.SearchClient, *gateway.WeatherClient, error) {
	units, err := gateway.ParseUnits(cfg.WeatherUnits)
	if err != nil {
		return nil, nil, err
	}

	breaker := gateway.BreakerSettings{
		MaxRequests:         uint32(cfg.BreakerMaxRequests),
		Interval:            cfg.BreakerInterval,
		Timeout:             cfg.BreakerTimeout,
		ConsecutiveFailures: uint32(cfg.BreakerConsecutiveFailures),
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	search := gateway.NewSearchClient(httpClient, gateway.SearchConfig{
		BaseURL: cfg.SearchBaseURL,
		Dataset: cfg.SearchDataset,
		Breaker: breaker,
	}, observer, logger)

	weather := gateway.NewWeatherClient(httpClient, gateway.WeatherConfig{
		BaseURL: cfg.WeatherBaseURL,
		APIKey:  cfg.WeatherAPIKey,
		Units:   units,
		Breaker: breaker,
	}, observer, logger)

	return search, weather, nil
}

func runMigrations(db *sqlx.DB, cfg *config.Config) error {
	var m *migrate.Migrate
	var err error

	// Choose migration source based on DB type
	sourcePath := "file://migrations/postgres"

	if cfg.DB.IsMemory() {
		sourcePath = "file://migrations/sqlite"
		// Use driver instance directly to avoid DSN parsing issues with in-memory SQLite
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("could not create sqlite driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance(
			sourcePath,
			"sqlite3",
			driver,
		)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		// For Postgres, standard connection string works fine
		m, err = migrate.New(sourcePath, cfg.DB.DSN())
		if err != nil {
			return err
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
