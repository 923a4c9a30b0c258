package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"boosterbeacon/internal/consumer"
	"boosterbeacon/internal/database"
	"boosterbeacon/internal/delivery"
	"boosterbeacon/internal/events"
	"boosterbeacon/internal/metrics"
)

const workerCount = 10

// work represents a unit of work for the worker pool.
type work struct {
	pending *events.AlertPending
	msg     *kafka.Message
}

// processorDeps holds all dependencies needed for alert delivery processing.
type processorDeps struct {
	consumer   *consumer.Consumer
	db         *database.DB
	dispatcher *delivery.Dispatcher
	metrics    metrics.Recorder
}

// processAlerts reads alert.pending events from Kafka and delivers them
// concurrently. The dispatcher settles each alert's status; this loop only
// decides what to commit.
func processAlerts(ctx context.Context, alertConsumer *consumer.Consumer, db *database.DB, dispatcher *delivery.Dispatcher, m metrics.Recorder) error {
	slog.Info("Starting alert delivery loop", "workers", workerCount)

	deps := &processorDeps{
		consumer:   alertConsumer,
		db:         db,
		dispatcher: dispatcher,
		metrics:    m,
	}

	jobs := make(chan work, workerCount*2)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go runWorker(ctx, deps, jobs, &wg)
	}

	dispatchMessages(ctx, deps, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Alert delivery loop stopped")
	return nil
}

// runWorker processes jobs from the channel until it's closed.
func runWorker(ctx context.Context, deps *processorDeps, jobs <-chan work, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		processOne(ctx, deps, job.pending, job.msg)
	}
}

// dispatchMessages reads messages from Kafka and dispatches them to workers.
func dispatchMessages(ctx context.Context, deps *processorDeps, jobs chan<- work) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			pending, msg, err := deps.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Failed to read alert pending event", "error", err)
				if msg != nil {
					// Undecodable record; commit past it rather than loop.
					commitOffset(ctx, deps.consumer, msg)
				}
				continue
			}
			deps.metrics.RecordReceived()
			jobs <- work{pending: pending, msg: msg}
		}
	}
}

// processOne handles a single alert: fetch, dispatch, commit.
func processOne(ctx context.Context, deps *processorDeps, pending *events.AlertPending, msg *kafka.Message) {
	startTime := time.Now()

	alert, err := deps.db.GetAlert(ctx, pending.AlertID)
	if err != nil {
		var notFound *database.NotFoundError
		if errors.As(err, &notFound) {
			// Deleted since it was enqueued; nothing left to deliver.
			slog.Warn("Alert no longer exists, skipping", "alert_id", pending.AlertID)
			commitOffset(ctx, deps.consumer, msg)
			return
		}
		slog.Error("Failed to fetch alert",
			"alert_id", pending.AlertID,
			"error", err,
		)
		deps.metrics.RecordFailure()
		// Don't commit - will retry on redelivery
		return
	}

	// Idempotency: a redelivered event for an already-sent alert is a no-op.
	if alert.Status == database.StatusSent {
		slog.Debug("Alert already sent, skipping", "alert_id", alert.ID)
		commitOffset(ctx, deps.consumer, msg)
		return
	}

	if !deliveryDue(alert, time.Now()) {
		slog.Debug("Alert not yet due, deferring",
			"alert_id", alert.ID,
			"scheduled_for", alert.ScheduledFor,
		)
		// Leave the offset uncommitted; redelivery brings it back once due.
		return
	}

	results, err := deps.dispatcher.Dispatch(ctx, alert)
	if err != nil {
		slog.Error("Failed to dispatch alert",
			"alert_id", alert.ID,
			"error", err,
		)
		deps.metrics.RecordFailure()
		// Don't commit - status was not settled, redelivery will retry
		return
	}

	delivered := false
	for _, res := range results {
		if res.Success {
			delivered = true
			break
		}
	}
	if delivered {
		deps.metrics.RecordDelivered(time.Since(startTime))
		slog.Info("Alert delivered",
			"alert_id", alert.ID,
			"user_id", alert.UserID,
			"channels", len(results),
		)
	} else {
		deps.metrics.RecordFailure()
		slog.Warn("Alert delivery failed on all channels",
			"alert_id", alert.ID,
			"retry_count", alert.RetryCount,
		)
	}

	// Status is settled either way (sent or failed); the sweep owns retries.
	commitOffset(ctx, deps.consumer, msg)
}

// deliveryDue reports whether the alert's scheduled time, if any, has
// arrived. Alerts without a schedule are always due.
func deliveryDue(alert *database.Alert, now time.Time) bool {
	return alert.ScheduledFor == nil || !alert.ScheduledFor.After(now)
}

// commitOffset commits the Kafka offset for the given message.
func commitOffset(ctx context.Context, c *consumer.Consumer, msg *kafka.Message) {
	if err := c.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit offset", "error", err)
	}
}
