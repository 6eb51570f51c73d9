package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexivanou/cityweather/internal/stats"
	"go.uber.org/zap"
)

// StatsCollector is the part of the stats collector the handler needs
type StatsCollector interface {
	Collect(ctx context.Context) (*stats.Stats, error)
}

// StatsHandler handles statistics requests
type StatsHandler struct {
	collector StatsCollector
	logger    *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collector StatsCollector, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{collector: collector, logger: logger}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collector.Collect(r.Context())
	if err != nil {
		h.logger.Error("Error collecting statistics", zap.Error(err))
		http.Error(w, "failed to collect statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("Error encoding statistics", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
