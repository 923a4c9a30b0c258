// Package sweep runs the background maintenance loop for alert delivery:
// it periodically re-enqueues failed alerts that still have retry budget
// and purges sent alerts past the retention window.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/events"
	"boosterbeacon/internal/metrics"
)

// Store is the subset of the database used by the sweeper.
type Store interface {
	GetRetryableAlerts(ctx context.Context, maxRetries, limit int) ([]*database.Alert, error)
	MarkAsPending(ctx context.Context, alertID string) error
	MarkAsFailed(ctx context.Context, alertID, reason string, countRetry bool) error
	DeleteSentOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// Publisher re-emits alert pending events for re-delivery.
type Publisher interface {
	Publish(ctx context.Context, pending *events.AlertPending) error
}

// Options configures the sweep cadence and limits.
type Options struct {
	Interval      time.Duration
	BatchSize     int
	MaxRetries    int
	RetentionDays int
}

// Sweeper owns the retry and retention loop.
type Sweeper struct {
	store     Store
	publisher Publisher
	metrics   metrics.Recorder
	opts      Options
}

// NewSweeper creates a sweeper. The recorder may be nil.
func NewSweeper(store Store, publisher Publisher, recorder metrics.Recorder, opts Options) *Sweeper {
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	if opts.MaxRetries > database.MaxRetryCount {
		opts.MaxRetries = database.MaxRetryCount
	}
	return &Sweeper{
		store:     store,
		publisher: publisher,
		metrics:   recorder,
		opts:      opts,
	}
}

// Start begins the sweep loop in a background goroutine. The goroutine
// exits when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("Starting alert sweeper",
		"interval", s.opts.Interval,
		"batch_size", s.opts.BatchSize,
		"max_retries", s.opts.MaxRetries,
		"retention_days", s.opts.RetentionDays,
	)
	go s.loop(ctx)
}

func (s *Sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Alert sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				slog.Error("Retry sweep failed", "error", err)
			}
			if err := s.PurgeOnce(ctx); err != nil {
				slog.Error("Retention purge failed", "error", err)
			}
		}
	}
}

// SweepOnce re-enqueues one batch of failed alerts, oldest first. Each
// alert is flipped back to pending before its event is re-published so a
// crash between the two leaves it visible as pending rather than silently
// dropped.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	alerts, err := s.store.GetRetryableAlerts(ctx, s.opts.MaxRetries, s.opts.BatchSize)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	requeued := 0
	for _, alert := range alerts {
		if err := s.store.MarkAsPending(ctx, alert.ID); err != nil {
			slog.Error("Failed to mark alert pending for retry",
				"alert_id", alert.ID,
				"error", err,
			)
			continue
		}

		if err := s.publisher.Publish(ctx, events.FromAlert(alert)); err != nil {
			slog.Error("Failed to republish alert",
				"alert_id", alert.ID,
				"retry_count", alert.RetryCount,
				"error", err,
			)
			// Put it back in the failed pool without charging a retry;
			// the publish failure is ours, not the channel's.
			if markErr := s.store.MarkAsFailed(ctx, alert.ID, "sweep republish failed: "+err.Error(), false); markErr != nil {
				slog.Error("Failed to restore failed status after republish error",
					"alert_id", alert.ID,
					"error", markErr,
				)
			}
			continue
		}

		requeued++
		s.metrics.IncrementCustom("sweep_requeued")
	}

	slog.Info("Retry sweep completed",
		"candidates", len(alerts),
		"requeued", requeued,
	)
	return nil
}

// PurgeOnce deletes sent alerts older than the retention window.
func (s *Sweeper) PurgeOnce(ctx context.Context) error {
	purged, err := s.store.DeleteSentOlderThan(ctx, s.opts.RetentionDays)
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.Info("Purged sent alerts past retention",
			"purged", purged,
			"retention_days", s.opts.RetentionDays,
		)
		s.metrics.IncrementCustom("sweep_purged")
	}
	return nil
}
