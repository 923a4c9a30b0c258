package handlers

import (
	"context"
	"time"

	"boosterbeacon/internal/breaker"
	"boosterbeacon/internal/dashboard"
	"boosterbeacon/internal/database"
	"boosterbeacon/internal/events"
	"boosterbeacon/internal/insights"
	"boosterbeacon/internal/metrics"
)

// Repository defines the database surface the handlers consume. This allows
// handlers to be tested without a real database.
type Repository interface {
	// Alert operations
	CreateAlert(ctx context.Context, alert *database.Alert) (*database.Alert, error)
	GetAlert(ctx context.Context, alertID string) (*database.Alert, error)
	ListAlertsByUser(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error)
	MarkAsRead(ctx context.Context, userID, alertID string) error
	MarkAsClicked(ctx context.Context, userID, alertID string) error

	// Push subscription operations
	UpsertPushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (*database.PushSubscription, error)
	RemovePushSubscription(ctx context.Context, userID, endpoint string) error

	// Aggregates
	GetSystemStats(ctx context.Context) (*database.SystemStats, error)
}

// DashboardService assembles the dashboard read-models.
type DashboardService interface {
	GetDashboardData(ctx context.Context, userID string) (*dashboard.Data, error)
	GetConsolidatedDashboardData(ctx context.Context, userID string, productIDs []string) (*dashboard.ConsolidatedData, error)
	GetPredictiveInsights(ctx context.Context, userID string, productIDs []string) ([]*insights.Insight, error)
	GetDashboardUpdates(ctx context.Context, userID string, since time.Time) (*dashboard.Updates, error)
	GetPortfolio(ctx context.Context, userID string) (*dashboard.Portfolio, error)
}

// AlertPublisher publishes accepted alerts to the delivery pipeline.
type AlertPublisher interface {
	Publish(ctx context.Context, pending *events.AlertPending) error
	Close() error
}

// BreakerMetrics exposes circuit breaker state for the metrics endpoint.
type BreakerMetrics interface {
	Metrics() map[string]breaker.Metrics
}

// ServiceMetricsReader reads per-service counters for the fleet view.
type ServiceMetricsReader interface {
	GetAll(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}
