package handlers

import (
	"context"
	"time"

	"boosterbeacon/internal/dashboard"
	"boosterbeacon/internal/database"
	"boosterbeacon/internal/events"
	"boosterbeacon/internal/insights"
)

// mockRepository implements Repository with overridable callbacks.
type mockRepository struct {
	CreateAlertFn            func(ctx context.Context, alert *database.Alert) (*database.Alert, error)
	GetAlertFn               func(ctx context.Context, alertID string) (*database.Alert, error)
	ListAlertsByUserFn       func(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error)
	MarkAsReadFn             func(ctx context.Context, userID, alertID string) error
	MarkAsClickedFn          func(ctx context.Context, userID, alertID string) error
	UpsertPushSubscriptionFn func(ctx context.Context, userID, endpoint, p256dh, auth string) (*database.PushSubscription, error)
	RemovePushSubscriptionFn func(ctx context.Context, userID, endpoint string) error
	GetSystemStatsFn         func(ctx context.Context) (*database.SystemStats, error)
}

func (m *mockRepository) CreateAlert(ctx context.Context, alert *database.Alert) (*database.Alert, error) {
	return m.CreateAlertFn(ctx, alert)
}

func (m *mockRepository) GetAlert(ctx context.Context, alertID string) (*database.Alert, error) {
	return m.GetAlertFn(ctx, alertID)
}

func (m *mockRepository) ListAlertsByUser(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error) {
	return m.ListAlertsByUserFn(ctx, userID, limit, offset)
}

func (m *mockRepository) MarkAsRead(ctx context.Context, userID, alertID string) error {
	return m.MarkAsReadFn(ctx, userID, alertID)
}

func (m *mockRepository) MarkAsClicked(ctx context.Context, userID, alertID string) error {
	return m.MarkAsClickedFn(ctx, userID, alertID)
}

func (m *mockRepository) UpsertPushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (*database.PushSubscription, error) {
	return m.UpsertPushSubscriptionFn(ctx, userID, endpoint, p256dh, auth)
}

func (m *mockRepository) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	return m.RemovePushSubscriptionFn(ctx, userID, endpoint)
}

func (m *mockRepository) GetSystemStats(ctx context.Context) (*database.SystemStats, error) {
	return m.GetSystemStatsFn(ctx)
}

// mockDashboard implements DashboardService with overridable callbacks.
type mockDashboard struct {
	GetDashboardDataFn             func(ctx context.Context, userID string) (*dashboard.Data, error)
	GetConsolidatedDashboardDataFn func(ctx context.Context, userID string, productIDs []string) (*dashboard.ConsolidatedData, error)
	GetPredictiveInsightsFn        func(ctx context.Context, userID string, productIDs []string) ([]*insights.Insight, error)
	GetDashboardUpdatesFn          func(ctx context.Context, userID string, since time.Time) (*dashboard.Updates, error)
	GetPortfolioFn                 func(ctx context.Context, userID string) (*dashboard.Portfolio, error)
}

func (m *mockDashboard) GetDashboardData(ctx context.Context, userID string) (*dashboard.Data, error) {
	return m.GetDashboardDataFn(ctx, userID)
}

func (m *mockDashboard) GetConsolidatedDashboardData(ctx context.Context, userID string, productIDs []string) (*dashboard.ConsolidatedData, error) {
	return m.GetConsolidatedDashboardDataFn(ctx, userID, productIDs)
}

func (m *mockDashboard) GetPredictiveInsights(ctx context.Context, userID string, productIDs []string) ([]*insights.Insight, error) {
	return m.GetPredictiveInsightsFn(ctx, userID, productIDs)
}

func (m *mockDashboard) GetDashboardUpdates(ctx context.Context, userID string, since time.Time) (*dashboard.Updates, error) {
	return m.GetDashboardUpdatesFn(ctx, userID, since)
}

func (m *mockDashboard) GetPortfolio(ctx context.Context, userID string) (*dashboard.Portfolio, error) {
	return m.GetPortfolioFn(ctx, userID)
}

// mockPublisher records published events.
type mockPublisher struct {
	published []*events.AlertPending
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, pending *events.AlertPending) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, pending)
	return nil
}

func (m *mockPublisher) Close() error { return nil }
