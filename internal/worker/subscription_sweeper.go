package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// SweepResult summarizes one pass over the user store
type SweepResult struct {
	Checked int
	Changed int
	Failed  int
}

// SubscriptionSweeper periodically downgrades expired subscriptions and rolls
// usage into the current month, so idle accounts are reconciled without
// waiting for their next request.
type SubscriptionSweeper struct {
	store    user.Store
	gate     gate.Service
	schedule string
	logger   *logger.Logger
}

// NewSubscriptionSweeper creates a sweeper running on a standard cron
// schedule such as "@hourly" or "*/15 * * * *"
func NewSubscriptionSweeper(store user.Store, g gate.Service, schedule string, log *logger.Logger) (*SubscriptionSweeper, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return &SubscriptionSweeper{
		store:    store,
		gate:     g,
		schedule: schedule,
		logger:   log,
	}, nil
}

// Start runs an initial sweep, then sweeps on schedule until ctx is done
func (s *SubscriptionSweeper) Start(ctx context.Context) {
	s.logger.WithFields(map[string]interface{}{
		"schedule": s.schedule,
	}).Info("Starting subscription sweeper")

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		s.logger.ErrorWithErr(err, "Failed to schedule subscription sweep")
		return
	}

	s.Sweep(ctx)
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	s.logger.Info("Subscription sweeper stopped")
}

// Sweep reconciles every stored user once. Failures are logged per user and
// do not stop the pass.
func (s *SubscriptionSweeper) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	var res SweepResult
	defer func() { metrics.RecordSweep(time.Since(start)) }()

	ids, err := s.store.List(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list users for subscription sweep")
		return res
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res.Checked++
		changed, err := s.gate.Reconcile(ctx, id)
		if err != nil {
			res.Failed++
			s.logger.WithFields(map[string]interface{}{
				"user_id": id,
			}).ErrorWithErr(err, "Failed to reconcile subscription")
			continue
		}
		if changed {
			res.Changed++
		}
	}

	s.logger.Event("sweep.completed").WithFields(map[string]interface{}{
		"checked":     res.Checked,
		"changed":     res.Changed,
		"failed":      res.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Subscription sweep completed")

	return res
}
