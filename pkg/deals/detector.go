package deals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/quotes"
)

// Deal classifications, from weakest to strongest
const (
	DealClassGood      = "good"
	DealClassGreat     = "great"
	DealClassAmazing   = "amazing"
	DealClassErrorFare = "error_fare"
)

// PriceHistory returns past prices for a route, newest history first or in any order
type PriceHistory interface {
	RoutePrices(ctx context.Context, origin, destination string, tripLength int, since time.Time) ([]float64, error)
}

// Baseline summarises historical prices for one route
type Baseline struct {
	SampleCount int     `json:"sample_count"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	P10         float64 `json:"p10"`
	P90         float64 `json:"p90"`
}

// Deal is a quote priced well below its route baseline
type Deal struct {
	Origin          string             `json:"origin"`
	Record          quotes.QuoteRecord `json:"record"`
	Baseline        Baseline           `json:"baseline"`
	DiscountPercent float64            `json:"discount_percent"`
	Classification  string             `json:"classification"`
	Score           int                `json:"score"`
}

// DealDetector identifies flight deals from price data
type DealDetector struct {
	history PriceHistory
	config  config.DealConfig
	now     func() time.Time
}

// NewDealDetector creates a new deal detector instance. Zero thresholds and
// windows in cfg take their DefaultDealConfig values.
func NewDealDetector(history PriceHistory, cfg config.DealConfig) *DealDetector {
	return &DealDetector{
		history: history,
		config:  withDefaults(cfg),
		now:     time.Now,
	}
}

// DefaultDealConfig returns default deal detection configuration
func DefaultDealConfig() config.DealConfig {
	return config.DealConfig{
		GoodDealThreshold:    0.20,
		GreatDealThreshold:   0.35,
		AmazingDealThreshold: 0.50,
		ErrorFareThreshold:   0.70,
		BaselineWindowDays:   90,
		BaselineMinSamples:   10,
	}
}

func withDefaults(cfg config.DealConfig) config.DealConfig {
	def := DefaultDealConfig()
	if cfg.GoodDealThreshold <= 0 {
		cfg.GoodDealThreshold = def.GoodDealThreshold
	}
	if cfg.GreatDealThreshold <= 0 {
		cfg.GreatDealThreshold = def.GreatDealThreshold
	}
	if cfg.AmazingDealThreshold <= 0 {
		cfg.AmazingDealThreshold = def.AmazingDealThreshold
	}
	if cfg.ErrorFareThreshold <= 0 {
		cfg.ErrorFareThreshold = def.ErrorFareThreshold
	}
	if cfg.BaselineWindowDays <= 0 {
		cfg.BaselineWindowDays = def.BaselineWindowDays
	}
	if cfg.BaselineMinSamples <= 0 {
		cfg.BaselineMinSamples = def.BaselineMinSamples
	}
	return cfg
}

// Detect compares each record with its destination's baseline and returns the deals,
// best discount first. Call it before the run's own quotes are added to history.
func (d *DealDetector) Detect(ctx context.Context, origin string, tripLength int, records []quotes.QuoteRecord) ([]Deal, error) {
	baselines := map[string]*Baseline{}
	var deals []Deal

	for _, rec := range records {
		baseline, seen := baselines[rec.Destination]
		if !seen {
			var err error
			baseline, err = d.Baseline(ctx, origin, rec.Destination, tripLength)
			if err != nil {
				return nil, fmt.Errorf("failed to get baseline: %w", err)
			}
			baselines[rec.Destination] = baseline
		}
		if baseline == nil || baseline.Median <= 0 || rec.Price <= 0 {
			continue
		}

		discount := (baseline.Median - float64(rec.Price)) / baseline.Median
		class := d.classifyDeal(discount)
		if class == "" {
			continue
		}

		deals = append(deals, Deal{
			Origin:          origin,
			Record:          rec,
			Baseline:        *baseline,
			DiscountPercent: math.Round(discount*1000) / 10,
			Classification:  class,
			Score:           d.calculateScore(discount, rec, *baseline),
		})
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].DiscountPercent > deals[j].DiscountPercent
	})
	return deals, nil
}

// Baseline computes route statistics over the configured window. It returns nil
// when there are fewer than BaselineMinSamples prices.
func (d *DealDetector) Baseline(ctx context.Context, origin, destination string, tripLength int) (*Baseline, error) {
	var since time.Time
	if d.config.BaselineWindowDays > 0 {
		since = d.now().AddDate(0, 0, -d.config.BaselineWindowDays)
	}

	prices, err := d.history.RoutePrices(ctx, origin, destination, tripLength, since)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 || len(prices) < d.config.BaselineMinSamples {
		return nil, nil
	}

	sort.Float64s(prices)
	return &Baseline{
		SampleCount: len(prices),
		Mean:        mean(prices),
		Median:      median(prices),
		Min:         prices[0],
		Max:         prices[len(prices)-1],
		P10:         percentile(prices, 10),
		P90:         percentile(prices, 90),
	}, nil
}

// classifyDeal determines the deal classification based on discount percentage
func (d *DealDetector) classifyDeal(discountPercent float64) string {
	switch {
	case discountPercent >= d.config.ErrorFareThreshold:
		return DealClassErrorFare
	case discountPercent >= d.config.AmazingDealThreshold:
		return DealClassAmazing
	case discountPercent >= d.config.GreatDealThreshold:
		return DealClassGreat
	case discountPercent >= d.config.GoodDealThreshold:
		return DealClassGood
	default:
		return ""
	}
}

// calculateScore computes a composite 0-100 score for the deal
func (d *DealDetector) calculateScore(discountPercent float64, rec quotes.QuoteRecord, baseline Baseline) int {
	// Discount component (0-60 points)
	score := math.Min(discountPercent*100, 60)

	if rec.IsDirect {
		score += 20
	}
	// Cheaper than anything seen in the window
	if float64(rec.Price) < baseline.Min {
		score += 20
	} else if float64(rec.Price) <= baseline.P10 {
		score += 10
	}

	return int(math.Min(score, 100))
}

// Helper functions for statistics

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}

func percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * float64(p) / 100)
	return values[idx]
}
