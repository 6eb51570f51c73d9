package journal

import (
	"context"
	"time"

	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// Recorder writes every finished gateway call to the journal
type Recorder struct {
	repo   repository.CallRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a new journal recorder
func NewRecorder(repo repository.CallRepository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// ObserveCall implements gateway.Observer. A failed write is logged and
// never reaches the caller of the gateway.
func (r *Recorder) ObserveCall(ctx context.Context, call gateway.Call) {
	// the journal entry outlives a cancelled request
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	entry := model.GatewayCall{
		ID:         uuid.NewString(),
		Gateway:    call.Gateway,
		Query:      call.Query,
		StartRow:   call.Start,
		Rows:       call.Rows,
		Outcome:    string(call.Outcome),
		StatusCode: call.StatusCode,
		Hits:       call.Hits,
		DurationMS: call.Duration.Milliseconds(),
		CreatedAt:  r.now().UTC(),
	}
	if err := r.repo.InsertCall(ctx, entry); err != nil {
		r.logger.Warn("Failed to journal gateway call",
			zap.String("gateway", call.Gateway),
			zap.String("outcome", string(call.Outcome)),
			zap.Error(err))
	}
}
