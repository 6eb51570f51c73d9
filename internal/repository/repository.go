package repository

import (
	"context"
	"time"

	"github.com/alexivanou/cityweather/internal/config"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/jmoiron/sqlx"
)

// CallRepository defines operations for the gateway call journal
type CallRepository interface {
	InsertCall(ctx context.Context, call model.GatewayCall) error
	RecentCalls(ctx context.Context, gateway string, limit int) ([]model.GatewayCall, error)
	SummarizeCalls(ctx context.Context, since time.Time) ([]model.CallSummary, error)
	DeleteCallsBefore(ctx context.Context, before time.Time) (int64, error)
	CountCalls(ctx context.Context) (int64, error)
}

// Container holds all repositories
type Container struct {
	Call CallRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			Call: &pgCallRepository{db: db},
		}
	}

	// Default to SQLite
	return &Container{
		Call: &sqliteCallRepository{db: db},
	}
}
