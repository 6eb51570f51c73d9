package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Gateway GatewayConfig
	Journal JournalConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

const defaultDBName = "cityweather"

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != defaultDBName {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	// PostgreSQL connection string
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// GatewayConfig holds the remote search and weather gateway settings
type GatewayConfig struct {
	SearchBaseURL  string
	SearchDataset  string
	WeatherBaseURL string
	WeatherAPIKey  string
	WeatherUnits   string
	HTTPTimeout    time.Duration

	BreakerMaxRequests         int
	BreakerInterval            time.Duration
	BreakerTimeout             time.Duration
	BreakerConsecutiveFailures int
}

// JournalConfig holds gateway call journal retention settings
type JournalConfig struct {
	MaxAge        time.Duration
	PruneInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "cityweather"),
			Password: getEnv("DB_PASSWORD", "cityweather_password"),
			Name:     getEnv("DB_NAME", defaultDBName),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
		},
		Gateway: GatewayConfig{
			SearchBaseURL:  getEnv("SEARCH_BASE_URL", "https://public.opendatasoft.com"),
			SearchDataset:  getEnv("SEARCH_DATASET", "geonames-all-cities-with-a-population-1000"),
			WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org"),
			WeatherAPIKey:  getEnv("WEATHER_API_KEY", ""),
			WeatherUnits:   getEnv("WEATHER_UNITS", "metric"),
			HTTPTimeout:    getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),

			BreakerMaxRequests:         getEnvAsInt("BREAKER_MAX_REQUESTS", 1),
			BreakerInterval:            getEnvAsDuration("BREAKER_INTERVAL", time.Minute),
			BreakerTimeout:             getEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second),
			BreakerConsecutiveFailures: getEnvAsInt("BREAKER_CONSECUTIVE_FAILURES", 5),
		},
		Journal: JournalConfig{
			MaxAge:        getEnvAsDuration("JOURNAL_MAX_AGE", 7*24*time.Hour),
			PruneInterval: getEnvAsDuration("JOURNAL_PRUNE_INTERVAL", time.Hour),
		},
	}

	if config.Gateway.BreakerConsecutiveFailures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_CONSECUTIVE_FAILURES: %d", config.Gateway.BreakerConsecutiveFailures)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
