package main

import (
	"flag"
	"log"

	"github.com/alexivanou/cityweather/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, steps, or version")
		steps   = flag.Int("n", 0, "Number of steps for the steps command; negative rolls back")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	sourceURL, databaseURL := migrationURLs(cfg.DB)
	logger.Info("Preparing migrations", zap.String("source", sourceURL), zap.String("db_type", string(cfg.DB.Type)))

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}
	defer m.Close()

	switch *command {
	case "up":
		logger.Info("Running migrations UP")
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Migration up failed", zap.Error(err))
		}
	case "down":
		logger.Info("Running migrations DOWN")
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Migration down failed", zap.Error(err))
		}
	case "steps":
		if *steps == 0 {
			logger.Fatal("steps command needs a non-zero -n")
		}
		logger.Info("Running migration steps", zap.Int("n", *steps))
		if err := m.Steps(*steps); err != nil && err != migrate.ErrNoChange {
			logger.Fatal("Migration steps failed", zap.Error(err))
		}
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			logger.Fatal("Failed to get version", zap.Error(err))
		}
		logger.Info("Migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		logger.Fatal("Unknown command", zap.String("command", *command))
	}

	logger.Info("Migration command completed successfully")
}

// migrationURLs picks the schema folder and database URL for the configured backend.
// A memory database only lives inside one process, so migrating it here is a dry run.
func migrationURLs(cfg config.DBConfig) (string, string) {
	if cfg.IsMemory() {
		return "file://migrations/sqlite", "sqlite3://" + cfg.DSN()
	}
	return "file://migrations/postgres", cfg.DSN()
}
