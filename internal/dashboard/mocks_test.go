package dashboard

import (
	"context"
	"time"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/insights"
)

// mockRepository implements Repository with overridable callbacks.
type mockRepository struct {
	GetUserAlertStatsFn      func(ctx context.Context, userID string, recentWindowDays int) (*database.UserAlertStats, error)
	ListAlertsByUserFn       func(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error)
	GetAlertsSinceFn         func(ctx context.Context, userID string, since time.Time) ([]*database.Alert, error)
	GetWatchStatsFn          func(ctx context.Context, userID string, topN int) (*database.WatchStats, error)
	GetWatchedProductIDsFn   func(ctx context.Context, userID string, limit int) ([]string, error)
	GetWatchesUpdatedSinceFn func(ctx context.Context, userID string, since time.Time) ([]*database.Watch, error)
	GetProductSignalsFn      func(ctx context.Context, productID string, recentWindowDays, lookbackDays int) (*database.ProductSignals, error)
}

func (m *mockRepository) GetUserAlertStats(ctx context.Context, userID string, recentWindowDays int) (*database.UserAlertStats, error) {
	return m.GetUserAlertStatsFn(ctx, userID, recentWindowDays)
}

func (m *mockRepository) ListAlertsByUser(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error) {
	return m.ListAlertsByUserFn(ctx, userID, limit, offset)
}

func (m *mockRepository) GetAlertsSince(ctx context.Context, userID string, since time.Time) ([]*database.Alert, error) {
	return m.GetAlertsSinceFn(ctx, userID, since)
}

func (m *mockRepository) GetWatchStats(ctx context.Context, userID string, topN int) (*database.WatchStats, error) {
	return m.GetWatchStatsFn(ctx, userID, topN)
}

func (m *mockRepository) GetWatchedProductIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	return m.GetWatchedProductIDsFn(ctx, userID, limit)
}

func (m *mockRepository) GetWatchesUpdatedSince(ctx context.Context, userID string, since time.Time) ([]*database.Watch, error) {
	return m.GetWatchesUpdatedSinceFn(ctx, userID, since)
}

func (m *mockRepository) GetProductSignals(ctx context.Context, productID string, recentWindowDays, lookbackDays int) (*database.ProductSignals, error) {
	return m.GetProductSignalsFn(ctx, productID, recentWindowDays, lookbackDays)
}

// newHealthyRepo returns a mock where every fetch succeeds with fixed data.
func newHealthyRepo() *mockRepository {
	return &mockRepository{
		GetUserAlertStatsFn: func(ctx context.Context, userID string, recentWindowDays int) (*database.UserAlertStats, error) {
			return &database.UserAlertStats{Total: 12, Unread: 3}, nil
		},
		ListAlertsByUserFn: func(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error) {
			return &database.AlertListResult{
				Alerts: []*database.Alert{{ID: "alert-1", UserID: userID}},
				Total:  1,
			}, nil
		},
		GetAlertsSinceFn: func(ctx context.Context, userID string, since time.Time) ([]*database.Alert, error) {
			return []*database.Alert{{ID: "alert-new", UserID: userID}}, nil
		},
		GetWatchStatsFn: func(ctx context.Context, userID string, topN int) (*database.WatchStats, error) {
			return &database.WatchStats{
				TotalWatches:  4,
				ActiveWatches: 3,
				TopProducts: []*database.WatchedProduct{
					{ProductID: "prod-1", ProductName: "Booster Box Alpha", AlertCount: 6},
				},
			}, nil
		},
		GetWatchedProductIDsFn: func(ctx context.Context, userID string, limit int) ([]string, error) {
			return []string{"prod-1"}, nil
		},
		GetWatchesUpdatedSinceFn: func(ctx context.Context, userID string, since time.Time) ([]*database.Watch, error) {
			return []*database.Watch{{ID: "watch-1", UserID: userID, ProductID: "prod-1"}}, nil
		},
		GetProductSignalsFn: func(ctx context.Context, productID string, recentWindowDays, lookbackDays int) (*database.ProductSignals, error) {
			return &database.ProductSignals{
				Product: &database.Product{
					ID:         productID,
					Name:       "Booster Box Alpha",
					MSRP:       150,
					Popularity: 0.8,
				},
				RecentAlertCount: 6,
				AvgPaidPrice:     120,
				PriceHistory: []database.PricePoint{
					{Price: 110, RecordedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
				},
			}, nil
		},
	}
}

// fixedEngine returns a canned insight keyed by product id.
type fixedEngine struct{}

func (fixedEngine) Compute(signals *database.ProductSignals) *insights.Insight {
	return &insights.Insight{
		ProductID:   signals.Product.ID,
		ProductName: signals.Product.Name,
	}
}
