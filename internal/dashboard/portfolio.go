package dashboard

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"boosterbeacon/internal/database"
)

// maxPortfolioHoldings bounds the per-user valuation fan-out.
const maxPortfolioHoldings = 50

// Holding is the valuation of one watched product.
type Holding struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	CurrentValue float64 `json:"current_value"`
	MSRP         float64 `json:"msrp"`
	ChangePct    float64 `json:"change_pct"`
}

// Portfolio is the aggregate valuation of a user's watched products.
type Portfolio struct {
	TotalProducts int       `json:"total_products"`
	TotalValue    float64   `json:"total_value"`
	TotalMSRP     float64   `json:"total_msrp"`
	ChangePct     float64   `json:"change_pct"`
	TopHoldings   []Holding `json:"top_holdings"`
	Timestamp     time.Time `json:"timestamp"`
}

// GetPortfolio values the user's watched products against MSRP. Products
// whose signals cannot be fetched are skipped with a warning; the valuation
// covers whatever resolved.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*Portfolio, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, database.ErrInvalidUserID
	}

	productIDs, err := s.repo.GetWatchedProductIDs(ctx, userID, maxPortfolioHoldings)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, len(productIDs))
	resolved := make([]bool, len(productIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, productID := range productIDs {
		i, productID := i, productID
		g.Go(func() error {
			signals, err := s.repo.GetProductSignals(gctx, productID, s.opts.RecentWindowDays, s.opts.PriceLookbackDays)
			if err != nil {
				slog.Warn("Skipping portfolio holding",
					"product_id", productID,
					"error", err,
				)
				return nil
			}
			holdings[i] = valueHolding(signals)
			resolved[i] = true
			return nil
		})
	}
	g.Wait()

	portfolio := &Portfolio{Timestamp: s.now().UTC()}
	for i, holding := range holdings {
		if !resolved[i] {
			continue
		}
		portfolio.TotalProducts++
		portfolio.TotalValue += holding.CurrentValue
		portfolio.TotalMSRP += holding.MSRP
		portfolio.TopHoldings = append(portfolio.TopHoldings, holding)
	}
	if portfolio.TotalMSRP > 0 {
		portfolio.ChangePct = round2((portfolio.TotalValue - portfolio.TotalMSRP) / portfolio.TotalMSRP * 100)
	}
	portfolio.TotalValue = round2(portfolio.TotalValue)
	portfolio.TotalMSRP = round2(portfolio.TotalMSRP)

	sort.SliceStable(portfolio.TopHoldings, func(i, j int) bool {
		return portfolio.TopHoldings[i].CurrentValue > portfolio.TopHoldings[j].CurrentValue
	})
	return portfolio, nil
}

// valueHolding prices one product: latest recorded price, falling back to
// average paid price, then MSRP.
func valueHolding(signals *database.ProductSignals) Holding {
	product := signals.Product
	value := product.MSRP
	if signals.AvgPaidPrice > 0 {
		value = signals.AvgPaidPrice
	}
	if n := len(signals.PriceHistory); n > 0 {
		value = signals.PriceHistory[n-1].Price
	}

	changePct := 0.0
	if product.MSRP > 0 {
		changePct = round2((value - product.MSRP) / product.MSRP * 100)
	}
	return Holding{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentValue: round2(value),
		MSRP:         product.MSRP,
		ChangePct:    changePct,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
