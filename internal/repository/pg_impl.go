package repository

import (
	"context"
	"time"

	"github.com/alexivanou/cityweather/internal/model"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

type pgCallRepository struct {
	db *sqlx.DB
}

func (r *pgCallRepository) InsertCall(ctx context.Context, call model.GatewayCall) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO gateway_calls (id, gateway, query, start_row, row_count, outcome, status_code, hits, duration_ms, created_at)
		VALUES (:id, :gateway, :query, :start_row, :row_count, :outcome, :status_code, :hits, :duration_ms, :created_at)`,
		call)
	return err
}

func (r *pgCallRepository) RecentCalls(ctx context.Context, gateway string, limit int) ([]model.GatewayCall, error) {
	q := `
		SELECT id::text AS id, gateway, query, start_row, row_count, outcome, status_code, hits, duration_ms, created_at
		FROM gateway_calls
		WHERE $1 = '' OR gateway = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	calls := []model.GatewayCall{}
	if err := r.db.SelectContext(ctx, &calls, q, gateway, limit); err != nil {
		return nil, err
	}
	return calls, nil
}

func (r *pgCallRepository) SummarizeCalls(ctx context.Context, since time.Time) ([]model.CallSummary, error) {
	q := `
		SELECT
			gateway,
			outcome,
			COUNT(*) AS calls,
			COALESCE(AVG(duration_ms), 0)::float8 AS avg_duration_ms
		FROM gateway_calls
		WHERE created_at >= $1
		GROUP BY gateway, outcome
		ORDER BY gateway, outcome
	`
	summaries := []model.CallSummary{}
	if err := r.db.SelectContext(ctx, &summaries, q, since); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *pgCallRepository) DeleteCallsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gateway_calls WHERE created_at < $1", before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *pgCallRepository) CountCalls(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM gateway_calls"); err != nil {
		return 0, err
	}
	return count, nil
}
