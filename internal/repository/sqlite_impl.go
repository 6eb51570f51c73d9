package repository

import (
	"context"
	"time"

	"github.com/alexivanou/cityweather/internal/model"
	"github.com/jmoiron/sqlx"
)

type sqliteCallRepository struct {
	db *sqlx.DB
}

func (r *sqliteCallRepository) InsertCall(ctx context.Context, call model.GatewayCall) error {
	call.CreatedAt = call.CreatedAt.UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO gateway_calls (id, gateway, query, start_row, row_count, outcome, status_code, hits, duration_ms, created_at)
		VALUES (:id, :gateway, :query, :start_row, :row_count, :outcome, :status_code, :hits, :duration_ms, :created_at)`,
		call)
	return err
}

func (r *sqliteCallRepository) RecentCalls(ctx context.Context, gateway string, limit int) ([]model.GatewayCall, error) {
	q := `
		SELECT * FROM gateway_calls
		WHERE ? = '' OR gateway = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	calls := []model.GatewayCall{}
	if err := r.db.SelectContext(ctx, &calls, q, gateway, gateway, limit); err != nil {
		return nil, err
	}
	return calls, nil
}

func (r *sqliteCallRepository) SummarizeCalls(ctx context.Context, since time.Time) ([]model.CallSummary, error) {
	q := `
		SELECT
			gateway,
			outcome,
			COUNT(*) AS calls,
			COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
		FROM gateway_calls
		WHERE created_at >= ?
		GROUP BY gateway, outcome
		ORDER BY gateway, outcome
	`
	summaries := []model.CallSummary{}
	if err := r.db.SelectContext(ctx, &summaries, q, since.UTC()); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *sqliteCallRepository) DeleteCallsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gateway_calls WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqliteCallRepository) CountCalls(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM gateway_calls"); err != nil {
		return 0, err
	}
	return count, nil
}
