package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// DefaultLookbackDays is the trailing history window used when the caller does
// not supply one, for both baseline projection and uplift model fitting.
const DefaultLookbackDays = 90

// SalesDataSource is the read-only view of historical sales the engines
// depend on. Implementations must return ErrDataUnavailable (wrapped or not)
// when a requested window has no rows, never an empty result interpreted as
// zero sales.
type SalesDataSource interface {
	// GetDailySales returns one row per day with sales summed across all
	// departments and channels. Channel and department filters are optional
	// ("" = no filter).
	GetDailySales(ctx context.Context, window models.DateRange, channel, department string) ([]models.DailySalesRow, error)

	// GetAggregatedSales returns rows aggregated at the requested grain, a
	// subset of {date, channel, department, promo_flag}. Measures are summed
	// per group except discount_pct, which is averaged.
	GetAggregatedSales(ctx context.Context, window models.DateRange, grain []string, filters map[string]string) ([]models.HistoricalRecord, error)
}

// ForecastEngine projects baseline (no-promo) sales from day-of-week history.
type ForecastEngine struct {
	sales SalesDataSource
}

func NewForecastEngine(sales SalesDataSource) *ForecastEngine {
	return &ForecastEngine{sales: sales}
}

// CalculateBaseline projects day-by-day sales, margin and units for dateRange
// from historical daily patterns. Each calendar day gets the mean of the
// matching day-of-week in history, falling back to the overall mean for
// weekdays never observed. window overrides the default trailing lookback.
func (e *ForecastEngine) CalculateBaseline(ctx context.Context, dateRange models.DateRange, window *models.DateRange) (*models.BaselineForecast, error) {
	if !dateRange.Valid() {
		return nil, fmt.Errorf("%w: start date %s after end date %s", ErrInvalidScenario,
			dateRange.StartDate.Format(models.DateKeyFormat), dateRange.EndDate.Format(models.DateKeyFormat))
	}

	lookback := trailingWindow(dateRange.StartDate, DefaultLookbackDays)
	if window != nil {
		lookback = *window
	}

	rows, err := e.sales.GetDailySales(ctx, lookback, "", "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, lookback)
	}

	byWeekday := make(map[time.Weekday]*models.DailyProjection)
	counts := make(map[time.Weekday]int)
	var overall models.DailyProjection
	for _, row := range rows {
		wd := row.Date.Weekday()
		p, ok := byWeekday[wd]
		if !ok {
			p = &models.DailyProjection{}
			byWeekday[wd] = p
		}
		p.Sales += row.SalesValue
		p.Margin += row.MarginValue
		p.Units += row.Units
		counts[wd]++
		overall.Sales += row.SalesValue
		overall.Margin += row.MarginValue
		overall.Units += row.Units
	}
	for wd, p := range byWeekday {
		n := float64(counts[wd])
		p.Sales /= n
		p.Margin /= n
		p.Units /= n
	}
	n := float64(len(rows))
	overall.Sales /= n
	overall.Margin /= n
	overall.Units /= n

	forecast := &models.BaselineForecast{
		DateRange:        dateRange,
		DailyProjections: make(map[string]models.DailyProjection, dateRange.Days()),
	}
	dateRange.EachDay(func(day time.Time) {
		proj := overall
		if p, ok := byWeekday[day.Weekday()]; ok {
			proj = *p
		}
		forecast.DailyProjections[day.Format(models.DateKeyFormat)] = proj
		forecast.TotalSales += proj.Sales
		forecast.TotalMargin += proj.Margin
		forecast.TotalUnits += proj.Units
	})
	return forecast, nil
}

// CalculateGapVsTargets compares baseline totals against monthly targets. A
// zero or absent target contributes a zero gap; the margin gap compares
// ratios, using 0 for the baseline ratio when baseline sales are 0.
func CalculateGapVsTargets(baseline *models.BaselineForecast, targets models.Targets) models.GapAnalysis {
	var gap models.GapAnalysis
	if targets.SalesTarget != 0 {
		gap.SalesGap = baseline.TotalSales - targets.SalesTarget
	}
	if targets.MarginTarget != 0 {
		ratio := 0.0
		if baseline.TotalSales != 0 {
			ratio = baseline.TotalMargin / baseline.TotalSales
		}
		gap.MarginGap = ratio - targets.MarginTarget
	}
	if targets.UnitsTarget != nil {
		gap.UnitsGap = baseline.TotalUnits - *targets.UnitsTarget
	}
	return gap
}

// trailingWindow is the n days immediately before start.
func trailingWindow(start time.Time, days int) models.DateRange {
	return models.DateRange{
		StartDate: start.AddDate(0, 0, -days),
		EndDate:   start.AddDate(0, 0, -1),
	}
}
