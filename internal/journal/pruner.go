package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/alexivanou/cityweather/internal/repository"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Pruner periodically deletes journal entries older than the retention window
type Pruner struct {
	scheduler *gocron.Scheduler
	repo      repository.CallRepository
	maxAge    time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewPruner creates a new Pruner
func NewPruner(repo repository.CallRepository, maxAge, interval time.Duration, logger *zap.Logger) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pruner{
		scheduler: gocron.NewScheduler(time.UTC),
		repo:      repo,
		maxAge:    maxAge,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// PruneOnce deletes every entry older than maxAge and returns how many went
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().UTC().Add(-p.maxAge)
	deleted, err := p.repo.DeleteCallsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune gateway calls: %w", err)
	}
	return deleted, nil
}

// Start schedules the prune job and starts the underlying scheduler
func (p *Pruner) Start() error {
	if p.maxAge <= 0 {
		p.logger.Info("Journal retention disabled; nothing to schedule")
		return nil
	}

	interval := p.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := p.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deleted, err := p.PruneOnce(ctx)
		if err != nil {
			p.logger.Error("Journal prune failed", zap.Error(err))
			return
		}
		p.logger.Info("Journal pruned", zap.Int64("deleted", deleted))
	})
	if err != nil {
		return err
	}

	p.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs
func (p *Pruner) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}
