// Package dashboard assembles the consolidated dashboard read-model from
// the alert store, watch stats, and the insight engine. One endpoint call
// replaces what used to take the client three round trips.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/insights"
)

// Defaults for the read-model shape. The windows are injected through
// Options; these bound the fan-out sizes.
const (
	defaultRecentAlerts  = 10
	defaultTopWatched    = 5
	maxInsightWatched    = 20
	maxInsightProducts   = 50
	defaultUpdatesWindow = 5 * time.Minute
)

// productIDPattern is the identifier shape accepted for explicit insight
// requests.
var productIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// Repository is the storage surface the dashboard service consumes.
type Repository interface {
	GetUserAlertStats(ctx context.Context, userID string, recentWindowDays int) (*database.UserAlertStats, error)
	ListAlertsByUser(ctx context.Context, userID string, limit, offset int) (*database.AlertListResult, error)
	GetAlertsSince(ctx context.Context, userID string, since time.Time) ([]*database.Alert, error)
	GetWatchStats(ctx context.Context, userID string, topN int) (*database.WatchStats, error)
	GetWatchedProductIDs(ctx context.Context, userID string, limit int) ([]string, error)
	GetWatchesUpdatedSince(ctx context.Context, userID string, since time.Time) ([]*database.Watch, error)
	GetProductSignals(ctx context.Context, productID string, recentWindowDays, lookbackDays int) (*database.ProductSignals, error)
}

// InsightEngine computes the heuristic read-model for one product.
type InsightEngine interface {
	Compute(signals *database.ProductSignals) *insights.Insight
}

// ValidationError reports caller input rejected before any computation ran.
type ValidationError struct {
	Field      string
	InvalidIDs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.InvalidIDs, ", "))
}

// Options tunes the windows the service queries with.
type Options struct {
	RecentWindowDays  int
	PriceLookbackDays int
}

// Service assembles dashboard read-models.
type Service struct {
	repo   Repository
	engine InsightEngine
	opts   Options
	now    func() time.Time
}

// NewService creates a dashboard service.
func NewService(repo Repository, engine InsightEngine, opts Options) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		opts:   opts,
		now:    time.Now,
	}
}

// Stats pairs the two per-user stat families.
type Stats struct {
	Alerts  *database.UserAlertStats `json:"alerts"`
	Watches *database.WatchStats     `json:"watches"`
}

// Data is the full dashboard read-model.
type Data struct {
	Stats           Stats                       `json:"stats"`
	RecentAlerts    []*database.Alert           `json:"recentAlerts"`
	WatchedProducts []*database.WatchedProduct  `json:"watchedProducts"`
	Insights        []*insights.Insight         `json:"insights"`
}

// ConsolidatedData adds portfolio and explicit insights to the dashboard in
// the same parallel batch.
type ConsolidatedData struct {
	Dashboard *Data               `json:"dashboard"`
	Portfolio *Portfolio          `json:"portfolio"`
	Insights  []*insights.Insight `json:"insights"`
	Timestamp time.Time           `json:"timestamp"`
}

// Updates is the delta read-model since a client-supplied timestamp.
type Updates struct {
	NewAlerts    []*database.Alert `json:"newAlerts"`
	WatchUpdates []*database.Watch `json:"watchUpdates"`
	Timestamp    time.Time         `json:"timestamp"`
}

// GetDashboardData assembles the dashboard read-model in two phases: the
// four core fetches run concurrently and are fail-fast (any one failing
// aborts the whole response), then the per-product insight loop runs over
// the watched ids the first phase returned, best-effort.
func (s *Service) GetDashboardData(ctx context.Context, userID string) (*Data, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, database.ErrInvalidUserID
	}

	var (
		alertStats   *database.UserAlertStats
		watchStats   *database.WatchStats
		recentAlerts *database.AlertListResult
		productIDs   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		alertStats, err = s.repo.GetUserAlertStats(gctx, userID, s.opts.RecentWindowDays)
		return err
	})
	g.Go(func() error {
		var err error
		watchStats, err = s.repo.GetWatchStats(gctx, userID, defaultTopWatched)
		return err
	})
	g.Go(func() error {
		var err error
		recentAlerts, err = s.repo.ListAlertsByUser(gctx, userID, defaultRecentAlerts, 0)
		return err
	})
	g.Go(func() error {
		var err error
		productIDs, err = s.repo.GetWatchedProductIDs(gctx, userID, maxInsightWatched)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Data{
		Stats:           Stats{Alerts: alertStats, Watches: watchStats},
		RecentAlerts:    recentAlerts.Alerts,
		WatchedProducts: watchStats.TopProducts,
		Insights:        s.computeInsights(ctx, productIDs),
	}, nil
}

// GetConsolidatedDashboardData assembles dashboard, portfolio, and insights
// in one parallel batch. The dashboard and insights fields match what the
// individual calls would return at the same point in time.
func (s *Service) GetConsolidatedDashboardData(ctx context.Context, userID string, productIDs []string) (*ConsolidatedData, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, database.ErrInvalidUserID
	}
	// Validate before launching any work.
	if err := validateProductIDs(productIDs); err != nil {
		return nil, err
	}

	var (
		data      *Data
		portfolio *Portfolio
		batch     []*insights.Insight
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = s.GetDashboardData(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		portfolio, err = s.GetPortfolio(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		batch, err = s.GetPredictiveInsights(gctx, userID, productIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ConsolidatedData{
		Dashboard: data,
		Portfolio: portfolio,
		Insights:  batch,
		Timestamp: s.now().UTC(),
	}, nil
}

// GetPredictiveInsights computes heuristic insights for the requested
// products, or for the user's watched set (capped) when none are given.
// Explicit ids are validated first; a validation failure lists every
// offending id and no insight computation runs at all. Individual product
// failures are logged and omitted, never fatal to the batch.
func (s *Service) GetPredictiveInsights(ctx context.Context, userID string, productIDs []string) ([]*insights.Insight, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, database.ErrInvalidUserID
	}

	if len(productIDs) > 0 {
		if err := validateProductIDs(productIDs); err != nil {
			return nil, err
		}
		if len(productIDs) > maxInsightProducts {
			productIDs = productIDs[:maxInsightProducts]
		}
	} else {
		var err error
		productIDs, err = s.repo.GetWatchedProductIDs(ctx, userID, maxInsightProducts)
		if err != nil {
			return nil, err
		}
	}

	return s.computeInsights(ctx, productIDs), nil
}

// computeInsights runs the per-product insight loop with settle-all
// semantics: a failed lookup drops that product from the result.
func (s *Service) computeInsights(ctx context.Context, productIDs []string) []*insights.Insight {
	results := make([]*insights.Insight, len(productIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, productID := range productIDs {
		i, productID := i, productID
		g.Go(func() error {
			signals, err := s.repo.GetProductSignals(gctx, productID, s.opts.RecentWindowDays, s.opts.PriceLookbackDays)
			if err != nil {
				slog.Warn("Skipping product insight",
					"product_id", productID,
					"error", err,
				)
				return nil
			}
			results[i] = s.engine.Compute(signals)
			return nil
		})
	}
	g.Wait()

	// Compact while preserving request order.
	out := make([]*insights.Insight, 0, len(results))
	for _, insight := range results {
		if insight != nil {
			out = append(out, insight)
		}
	}
	return out
}

// GetDashboardUpdates returns alerts and watch changes strictly newer than
// since (exclusive lower bound). A zero since defaults to the trailing
// update window.
func (s *Service) GetDashboardUpdates(ctx context.Context, userID string, since time.Time) (*Updates, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, database.ErrInvalidUserID
	}
	if since.IsZero() {
		since = s.now().Add(-defaultUpdatesWindow)
	}

	var (
		newAlerts    []*database.Alert
		watchUpdates []*database.Watch
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		newAlerts, err = s.repo.GetAlertsSince(gctx, userID, since)
		return err
	})
	g.Go(func() error {
		var err error
		watchUpdates, err = s.repo.GetWatchesUpdatedSince(gctx, userID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Updates{
		NewAlerts:    newAlerts,
		WatchUpdates: watchUpdates,
		Timestamp:    s.now().UTC(),
	}, nil
}

// validateProductIDs rejects ids that fail the identifier pattern,
// listing every offender.
func validateProductIDs(productIDs []string) error {
	var invalid []string
	for _, id := range productIDs {
		if !productIDPattern.MatchString(id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Field: "productIds", InvalidIDs: invalid}
	}
	return nil
}
