package engines

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// Elasticity bounds. Fitted coefficients are clamped into [MinElasticity,
// MaxElasticity]; pairs with unusable history get DefaultElasticity.
const (
	DefaultElasticity = 1.5
	MinElasticity     = 0.5
	MaxElasticity     = 3.0
)

// diminishingReturnsFactor bends the uplift curve downward as discounts grow.
const diminishingReturnsFactor = 0.3

// UpliftEngine fits elasticity coefficients from promo vs non-promo history.
type UpliftEngine struct {
	sales SalesDataSource
}

func NewUpliftEngine(sales SalesDataSource) *UpliftEngine {
	return &UpliftEngine{sales: sales}
}

type pairStats struct {
	promoSales    float64
	promoDays     int
	nonPromoSales float64
	nonPromoDays  int
	discountSum   float64
}

// BuildUpliftModel fits one elasticity coefficient per (department, channel)
// pair observed in the lookback window. A pair needs both promo and non-promo
// days and a positive mean discount to be fitted; otherwise it keeps the
// default coefficient.
func (e *UpliftEngine) BuildUpliftModel(ctx context.Context, window models.DateRange) (*models.UpliftModel, error) {
	grain := []string{"date", "department", "channel", "promo_flag"}
	rows, err := e.sales.GetAggregatedSales(ctx, window, grain, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, window)
	}

	stats := make(map[models.CoefficientKey]*pairStats)
	for _, row := range rows {
		key := models.NewCoefficientKey(row.Department, row.Channel)
		s, ok := stats[key]
		if !ok {
			s = &pairStats{}
			stats[key] = s
		}
		if row.PromoFlag {
			s.promoSales += row.SalesValue
			s.promoDays++
			s.discountSum += row.DiscountPct
		} else {
			s.nonPromoSales += row.SalesValue
			s.nonPromoDays++
		}
	}

	coefficients := make(map[models.CoefficientKey]float64, len(stats))
	for key, s := range stats {
		coefficients[key] = fitElasticity(s)
	}

	now := time.Now().UTC()
	return &models.UpliftModel{
		Coefficients: coefficients,
		Version:      fmt.Sprintf("uplift-%s", now.Format("20060102T150405Z")),
		LastUpdated:  now,
	}, nil
}

func fitElasticity(s *pairStats) float64 {
	if s.promoDays == 0 || s.nonPromoDays == 0 {
		return DefaultElasticity
	}
	promoMean := s.promoSales / float64(s.promoDays)
	nonPromoMean := s.nonPromoSales / float64(s.nonPromoDays)
	meanDiscount := s.discountSum / float64(s.promoDays) / 100
	if nonPromoMean <= 0 || meanDiscount <= 0 {
		return DefaultElasticity
	}
	elasticity := ((promoMean - nonPromoMean) / nonPromoMean) / meanDiscount
	return math.Min(MaxElasticity, math.Max(MinElasticity, elasticity))
}

// EstimateUplift returns the fractional sales increase expected from a
// discount (as a fraction of 1) for a department/channel pair. The curve has
// diminishing returns in discount depth, deep-discount bands are dampened,
// and context multiplies in weather and event effects. Never negative.
func EstimateUplift(model *models.UpliftModel, department, channel string, discount float64, promoCtx *models.PromoContext) float64 {
	elasticity, ok := model.Elasticity(department, channel)
	if !ok {
		elasticity = DefaultElasticity
	}

	uplift := discount * elasticity * (1 - discount*diminishingReturnsFactor)

	// Deep discounts convert progressively worse; the steepest band wins.
	// The 0.9 band is closed at 0.2: a plain 20% promo already converts
	// below the shallow-discount curve.
	switch {
	case discount > 0.3:
		uplift *= 0.8
	case discount >= 0.2:
		uplift *= 0.9
	}

	if promoCtx != nil {
		if promoCtx.WeatherImpact > 0 {
			uplift *= promoCtx.WeatherImpact
		}
		if n := len(promoCtx.Events); n > 0 {
			uplift *= 1 + math.Min(0.05*float64(n), 0.2)
		}
	}

	return math.Max(0, uplift)
}

// ModelCache holds the process-wide uplift model snapshot. Refreshes swap the
// reference atomically so concurrent evaluations always read a consistent
// model, never a half-updated one.
type ModelCache struct {
	current atomic.Pointer[models.UpliftModel]
}

func NewModelCache() *ModelCache {
	return &ModelCache{}
}

// Load returns the current snapshot, or nil if no model was built yet.
func (c *ModelCache) Load() *models.UpliftModel {
	return c.current.Load()
}

// Store replaces the snapshot.
func (c *ModelCache) Store(m *models.UpliftModel) {
	c.current.Store(m)
}

// Refresh rebuilds the model over the default trailing window ending at ref
// and swaps it in. On error the previous snapshot stays in place.
func (c *ModelCache) Refresh(ctx context.Context, engine *UpliftEngine, ref time.Time) (*models.UpliftModel, error) {
	model, err := engine.BuildUpliftModel(ctx, trailingWindow(ref, DefaultLookbackDays))
	if err != nil {
		return nil, err
	}
	c.current.Store(model)
	return model, nil
}
