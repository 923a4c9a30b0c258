// Package insights computes deterministic, rule-based estimates of price
// trend, sellout risk, ROI, and hype for a product. Every score is a pure
// function of the aggregate inputs: identical inputs always produce
// identical outputs.
package insights

import (
	"math"
	"time"

	"boosterbeacon/internal/database"
)

// Confidence clamp bounds. These are contract constants, not tunables:
// estimates derived from partial data are never reported as certain (1.0)
// or worthless (0.0).
const (
	forecastConfMin = 0.30
	forecastConfMax = 0.95
	riskConfMin     = 0.35
	riskConfMax     = 0.90
	roiConfMin      = 0.30
	roiConfMax      = 0.85
	hypeConfMin     = 0.40
	hypeConfMax     = 0.90
)

// movingAvgWindow is the width of each comparison window in the price trend
// computation: the trailing window against the one immediately before it.
const movingAvgWindow = 7 * 24 * time.Hour

// PriceForecast projects near-term prices from the moving-average trend.
type PriceForecast struct {
	NextWeek   float64 `json:"next_week"`
	NextMonth  float64 `json:"next_month"`
	TrendPct   float64 `json:"trend_pct"`
	Confidence float64 `json:"confidence"`
}

// Score is one bounded heuristic value with its confidence.
type Score struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Insight is the full heuristic read-model for one product.
type Insight struct {
	ProductID     string        `json:"product_id"`
	ProductName   string        `json:"product_name"`
	PriceForecast PriceForecast `json:"price_forecast"`
	SelloutRisk   Score         `json:"sellout_risk"`
	ROIEstimate   Score         `json:"roi_estimate"`
	HypeScore     Score         `json:"hype_score"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// Engine computes insights from product signals.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an insight engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Compute derives the full insight for one product from its signals.
func (e *Engine) Compute(signals *database.ProductSignals) *Insight {
	product := signals.Product
	forecast := e.priceForecast(signals)
	velocity := alertVelocity(signals.RecentAlertCount)

	return &Insight{
		ProductID:     product.ID,
		ProductName:   product.Name,
		PriceForecast: forecast,
		SelloutRisk:   e.selloutRisk(signals, velocity),
		ROIEstimate:   e.roiEstimate(signals, forecast),
		HypeScore:     e.hypeScore(product.Popularity, velocity),
		ComputedAt:    e.now().UTC(),
	}
}

// priceForecast compares the trailing 7-day average against the prior
// 7-day average, anchored at the newest history point so the result does
// not drift with wall-clock time. With no history it falls back to MSRP or
// the average paid price at minimum confidence.
func (e *Engine) priceForecast(signals *database.ProductSignals) PriceForecast {
	history := signals.PriceHistory
	if len(history) == 0 {
		base := signals.Product.MSRP
		if base == 0 {
			base = signals.AvgPaidPrice
		}
		return PriceForecast{
			NextWeek:   round2(base),
			NextMonth:  round2(base),
			TrendPct:   0,
			Confidence: forecastConfMin,
		}
	}

	anchor := history[len(history)-1].RecordedAt
	var recentSum, priorSum float64
	var recentN, priorN int
	for _, point := range history {
		age := anchor.Sub(point.RecordedAt)
		switch {
		case age < movingAvgWindow:
			recentSum += point.Price
			recentN++
		case age < 2*movingAvgWindow:
			priorSum += point.Price
			priorN++
		}
	}

	recentAvg := recentSum / float64(recentN)
	trendPct := 0.0
	if priorN > 0 && priorSum > 0 {
		priorAvg := priorSum / float64(priorN)
		trendPct = (recentAvg - priorAvg) / priorAvg * 100
	}

	confidence := clamp(forecastConfMin+float64(len(history))/40, forecastConfMin, forecastConfMax)
	return PriceForecast{
		NextWeek:   round2(recentAvg * (1 + trendPct/100)),
		NextMonth:  round2(recentAvg * (1 + 4*trendPct/100)),
		TrendPct:   round2(trendPct),
		Confidence: round2(confidence),
	}
}

// selloutRisk blends recent alert velocity with normalized popularity,
// nudged upward when historical purchase lead times are short.
func (e *Engine) selloutRisk(signals *database.ProductSignals, velocity float64) Score {
	base := 100 * (0.55*velocity + 0.45*signals.Product.Popularity)

	switch lead := signals.AvgLeadTimeDays; {
	case lead > 0 && lead <= 3:
		base += 10
	case lead > 3 && lead <= 7:
		base += 5
	}

	confidence := clamp(riskConfMin+0.30*velocity+0.20*signals.Product.Popularity, riskConfMin, riskConfMax)
	return Score{
		Value:      round2(clamp(base, 0, 100)),
		Confidence: round2(confidence),
	}
}

// roiEstimate adds the price trend to the current discount against MSRP.
func (e *Engine) roiEstimate(signals *database.ProductSignals, forecast PriceForecast) Score {
	discountPct := 0.0
	if msrp := signals.Product.MSRP; msrp > 0 && len(signals.PriceHistory) > 0 {
		current := signals.PriceHistory[len(signals.PriceHistory)-1].Price
		discountPct = (msrp - current) / msrp * 100
	}

	confidence := clamp(roiConfMin+float64(len(signals.PriceHistory))/50, roiConfMin, roiConfMax)
	return Score{
		Value:      round2(forecast.TrendPct + discountPct),
		Confidence: round2(confidence),
	}
}

// hypeScore is a weighted blend of popularity and alert velocity.
func (e *Engine) hypeScore(popularity, velocity float64) Score {
	confidence := clamp(hypeConfMin+0.25*popularity+0.25*velocity, hypeConfMin, hypeConfMax)
	return Score{
		Value:      round2(100 * (0.6*popularity + 0.4*velocity)),
		Confidence: round2(confidence),
	}
}

// alertVelocity normalizes the recent alert count into [0,1]; ten or more
// alerts in the window saturates the signal.
func alertVelocity(recentAlerts int64) float64 {
	return clamp(float64(recentAlerts)/10, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round2 rounds to two decimals with half-away-from-zero semantics.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
