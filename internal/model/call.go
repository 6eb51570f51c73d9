package model

import "time"

// GatewayCall is one journaled remote gateway request
type GatewayCall struct {
	ID         string    `db:"id" json:"id"`
	Gateway    string    `db:"gateway" json:"gateway"`
	Query      string    `db:"query" json:"query"`
	StartRow   int       `db:"start_row" json:"start_row"`
	Rows       int       `db:"row_count" json:"rows"`
	Outcome    string    `db:"outcome" json:"outcome"`
	StatusCode int       `db:"status_code" json:"status_code"`
	Hits       int       `db:"hits" json:"hits"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CallSummary aggregates journaled calls per gateway and outcome
type CallSummary struct {
	Gateway       string  `db:"gateway" json:"gateway"`
	Outcome       string  `db:"outcome" json:"outcome"`
	Calls         int64   `db:"calls" json:"calls"`
	AvgDurationMS float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
}
