package engines

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// ContextEngine assembles the planning context for a region and date range
// from static calendars. Live weather sourcing is the host's job; estimates
// consume whatever impact factor the caller materialized into the context.
type ContextEngine struct {
	holidays    map[string][]models.Event
	seasonality map[string]*models.SeasonalityProfile
}

func NewContextEngine() *ContextEngine {
	return &ContextEngine{
		holidays:    defaultHolidayCalendar(),
		seasonality: defaultSeasonalityProfiles(),
	}
}

// BuildContext returns the context for a geo and date range: events falling
// inside the range, the geo's seasonality profile, and weekend patterns.
func (e *ContextEngine) BuildContext(geo string, dateRange models.DateRange) models.PromoContext {
	promoCtx := models.PromoContext{
		Geo:             geo,
		DateRange:       dateRange,
		Events:          []models.Event{},
		WeekendPatterns: defaultWeekendPatterns(),
	}
	for _, ev := range e.holidays[geo] {
		if !ev.Date.Before(dateRange.StartDate) && !ev.Date.After(dateRange.EndDate) {
			promoCtx.Events = append(promoCtx.Events, ev)
		}
	}
	if profile, ok := e.seasonality[geo]; ok {
		promoCtx.Seasonality = profile
	}
	return promoCtx
}

// IdentifyOpportunities turns a negative gap vs targets into prioritized,
// department-level promotional opportunities. Departments are assumed to
// contribute equally to closing the gap, matching the evaluator's allocation.
func IdentifyOpportunities(baseline *models.BaselineForecast, targets models.Targets, geo string, departments []string) []models.PromoOpportunity {
	gap := CalculateGapVsTargets(baseline, targets)
	if gap.SalesGap >= 0 || len(departments) == 0 {
		return []models.PromoOpportunity{}
	}

	shortfall := -gap.SalesGap
	perDept := shortfall / float64(len(departments))
	opportunities := make([]models.PromoOpportunity, 0, len(departments))
	for _, dept := range departments {
		opportunities = append(opportunities, models.PromoOpportunity{
			ID:                 uuid.NewString(),
			Department:         dept,
			Channel:            "online",
			DateRange:          baseline.DateRange,
			EstimatedPotential: perDept,
			Rationale: fmt.Sprintf("baseline for %s trails the %s sales target by %.0f overall; a promotion in %s could close ~%.0f of it",
				geo, targets.Month, shortfall, dept, perDept),
		})
	}
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].EstimatedPotential > opportunities[j].EstimatedPotential
	})
	for i := range opportunities {
		opportunities[i].Priority = i + 1
	}
	return opportunities
}

func defaultWeekendPatterns() map[string]float64 {
	return map[string]float64{
		time.Friday.String():   1.15,
		time.Saturday.String(): 1.25,
		time.Sunday.String():   0.85,
	}
}

// defaultHolidayCalendar covers the launch regions. Dates are fixed-date
// holidays only; movable feasts come from the host's event feed.
func defaultHolidayCalendar() map[string][]models.Event {
	year := time.Now().Year()
	day := func(month time.Month, d int) time.Time {
		return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	}
	return map[string][]models.Event{
		"DE": {
			{Name: "Tag der Deutschen Einheit", Date: day(time.October, 3), Type: "holiday", Impact: "high"},
			{Name: "Nikolaustag", Date: day(time.December, 6), Type: "seasonal", Impact: "medium"},
			{Name: "Heiligabend", Date: day(time.December, 24), Type: "holiday", Impact: "high"},
		},
		"UA": {
			{Name: "Independence Day", Date: day(time.August, 24), Type: "holiday", Impact: "high"},
			{Name: "St. Nicholas Day", Date: day(time.December, 6), Type: "seasonal", Impact: "medium"},
		},
	}
}

func defaultSeasonalityProfiles() map[string]*models.SeasonalityProfile {
	factors := map[int]float64{
		1: 0.85, 2: 0.85, 3: 0.95, 4: 1.0, 5: 1.0, 6: 0.95,
		7: 0.9, 8: 0.9, 9: 1.0, 10: 1.05, 11: 1.15, 12: 1.4,
	}
	profiles := make(map[string]*models.SeasonalityProfile)
	for _, geo := range []string{"DE", "UA"} {
		profiles[geo] = &models.SeasonalityProfile{
			Geo:            geo,
			MonthlyFactors: factors,
			WeeklyPatterns: defaultWeekendPatterns(),
		}
	}
	return profiles
}
