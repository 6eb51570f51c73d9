package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alexivanou/cityweather/internal/config"
	"github.com/alexivanou/cityweather/internal/database"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/repository"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: "stats_" + uuid.NewString()}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite",
		"sqlite3",
		driver,
	)
	require.NoError(t, err)
	err = m.Up()
	require.NoError(t, err)

	return db, cfg
}

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	repos := repository.NewRepositories(db, cfg.Type)

	now := time.Now().UTC()
	for _, c := range []model.GatewayCall{
		{ID: uuid.NewString(), Gateway: "search", Outcome: "ok", DurationMS: 30, CreatedAt: now},
		{ID: uuid.NewString(), Gateway: "search", Outcome: "ok", DurationMS: 50, CreatedAt: now},
		{ID: uuid.NewString(), Gateway: "weather", Outcome: "network", DurationMS: 10, CreatedAt: now},
		{ID: uuid.NewString(), Gateway: "weather", Outcome: "ok", CreatedAt: now.Add(-48 * time.Hour)},
	} {
		require.NoError(t, repos.Call.InsertCall(ctx, c))
	}

	collector := NewCollector(db, cfg, repos.Call, 0)

	stats, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", stats.Database.Type)
	assert.Greater(t, stats.Database.TotalRecords, int64(0))

	var callsCount int64
	for _, ts := range stats.Database.TableStats {
		if ts.Name == "gateway_calls" {
			callsCount = ts.RowCount
		}
	}
	assert.Equal(t, int64(4), callsCount)

	// the 48h old call is outside the default window
	assert.Equal(t, int64(86400), stats.Gateways.WindowSeconds)
	assert.Equal(t, int64(3), stats.Gateways.TotalCalls)
	assert.Equal(t, int64(1), stats.Gateways.FailedCalls)
	require.Len(t, stats.Gateways.Summaries, 2)
	assert.Equal(t, "search", stats.Gateways.Summaries[0].Gateway)
	assert.InDelta(t, 40.0, stats.Gateways.Summaries[0].AvgDurationMS, 0.001)

	assert.Greater(t, stats.Memory.Alloc, uint64(0))
	assert.GreaterOrEqual(t, stats.Runtime.NumGoroutines, 1)

	stats2, err := collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Memory.Alloc, stats2.Memory.Alloc)
}

func TestCollector_EmptyDB(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	collector := NewCollector(db, cfg, repository.NewRepositories(db, cfg.Type).Call, time.Hour)

	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)

	var callsCount int64 = -1
	for _, ts := range stats.Database.TableStats {
		if ts.Name == "gateway_calls" {
			callsCount = ts.RowCount
		}
	}
	assert.Equal(t, int64(0), callsCount)
	assert.Equal(t, int64(0), stats.Gateways.TotalCalls)
	assert.Empty(t, stats.Gateways.Summaries)
}
