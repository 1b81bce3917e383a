package models

import (
	"fmt"
	"strings"
	"time"
)

// DateKeyFormat is how daily projection maps are keyed.
const DateKeyFormat = "2006-01-02"

// DateRange is an inclusive calendar interval.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Valid reports whether the range is not inverted.
func (r DateRange) Valid() bool {
	return !r.EndDate.Before(r.StartDate)
}

// Days returns the number of calendar days covered by the range, inclusive.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	start := r.StartDate.Truncate(24 * time.Hour)
	end := r.EndDate.Truncate(24 * time.Hour)
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay calls fn for every calendar day in the range, in order.
func (r DateRange) EachDay(fn func(day time.Time)) {
	for day := r.StartDate; !day.After(r.EndDate); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.StartDate.Format(DateKeyFormat), r.EndDate.Format(DateKeyFormat))
}

// HistoricalRecord is one row of past sales, at whatever grain it was aggregated.
type HistoricalRecord struct {
	Date        time.Time `json:"date"`
	Channel     string    `json:"channel"`
	Department  string    `json:"department"`
	PromoFlag   bool      `json:"promoFlag"`
	DiscountPct float64   `json:"discountPct"`
	SalesValue  float64   `json:"salesValue"`
	MarginValue float64   `json:"marginValue"`
	Units       float64   `json:"units"`
}

// DailySalesRow is one day of sales totals across all departments and channels.
type DailySalesRow struct {
	Date        time.Time `json:"date"`
	SalesValue  float64   `json:"salesValue"`
	MarginValue float64   `json:"marginValue"`
	Units       float64   `json:"units"`
}

// DailyProjection is a single projected day inside a baseline forecast.
type DailyProjection struct {
	Sales  float64 `json:"sales"`
	Margin float64 `json:"margin"`
	Units  float64 `json:"units"`
}

// GapAnalysis is the difference between a baseline forecast and targets.
// MarginGap compares margin ratios, not absolute values.
type GapAnalysis struct {
	SalesGap  float64 `json:"salesGap"`
	MarginGap float64 `json:"marginGap"`
	UnitsGap  float64 `json:"unitsGap"`
}

// BaselineForecast projects sales without any promotion. Immutable after creation.
type BaselineForecast struct {
	DateRange        DateRange                  `json:"dateRange"`
	DailyProjections map[string]DailyProjection `json:"dailyProjections"`
	TotalSales       float64                    `json:"totalSales"`
	TotalMargin      float64                    `json:"totalMargin"`
	TotalUnits       float64                    `json:"totalUnits"`
	GapVsTarget      *GapAnalysis               `json:"gapVsTarget,omitempty"`
}

// ProjectionFor returns the projection for a calendar day, if the day is covered.
func (b *BaselineForecast) ProjectionFor(day time.Time) (DailyProjection, bool) {
	p, ok := b.DailyProjections[day.Format(DateKeyFormat)]
	return p, ok
}

// CoefficientKey identifies one elasticity coefficient. Department is stored
// upper-cased and channel lower-cased so that lookups are case-stable.
type CoefficientKey struct {
	Department string
	Channel    string
}

// NewCoefficientKey normalizes a (department, channel) pair into a lookup key.
func NewCoefficientKey(department, channel string) CoefficientKey {
	return CoefficientKey{
		Department: strings.ToUpper(strings.TrimSpace(department)),
		Channel:    strings.ToLower(strings.TrimSpace(channel)),
	}
}

// MarshalText encodes the key as "DEPARTMENT|channel" so the coefficient map
// serializes as a flat JSON object.
func (k CoefficientKey) MarshalText() ([]byte, error) {
	return []byte(k.Department + "|" + k.Channel), nil
}

// UnmarshalText parses the "DEPARTMENT|channel" form.
func (k *CoefficientKey) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), "|", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid coefficient key %q", string(text))
	}
	*k = NewCoefficientKey(parts[0], parts[1])
	return nil
}

// UpliftModel is a versioned snapshot of elasticity coefficients. It is never
// mutated after construction; refreshes produce a new value.
type UpliftModel struct {
	Coefficients map[CoefficientKey]float64 `json:"coefficients"`
	Version      string                     `json:"version"`
	LastUpdated  time.Time                  `json:"lastUpdated"`
}

// Elasticity looks up the coefficient for a (department, channel) pair. The
// second return value is false when the pair was not observed in history, in
// which case the caller applies its default.
func (m *UpliftModel) Elasticity(department, channel string) (float64, bool) {
	if m == nil || m.Coefficients == nil {
		return 0, false
	}
	e, ok := m.Coefficients[NewCoefficientKey(department, channel)]
	return e, ok
}

// PromoScenario is a candidate promotional campaign.
type PromoScenario struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	DateRange          DateRange              `json:"dateRange"`
	Departments        []string               `json:"departments"`
	Channels           []string               `json:"channels"`
	DiscountPercentage float64                `json:"discountPercentage"`
	Segments           []string               `json:"segments,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// KPIBreakdown holds the per-dimension slice of a scenario's KPIs.
type KPIBreakdown struct {
	Sales  float64 `json:"sales"`
	Margin float64 `json:"margin"`
	Units  float64 `json:"units"`
	EBIT   float64 `json:"ebit"`
}

// BaselineComparison is the delta of a scenario's KPIs vs the baseline totals.
type BaselineComparison struct {
	SalesDelta      float64 `json:"salesDelta"`
	MarginDelta     float64 `json:"marginDelta"`
	UnitsDelta      float64 `json:"unitsDelta"`
	SalesPctChange  float64 `json:"salesPctChange"`
	MarginPctChange float64 `json:"marginPctChange"`
}

// ScenarioKPI is the evaluated outcome of a scenario. Recomputed on every
// evaluation call, never persisted.
type ScenarioKPI struct {
	ScenarioID            string                  `json:"scenarioId"`
	TotalSales            float64                 `json:"totalSales"`
	TotalMargin           float64                 `json:"totalMargin"`
	TotalEBIT             float64                 `json:"totalEbit"`
	TotalUnits            float64                 `json:"totalUnits"`
	BreakdownByChannel    map[string]KPIBreakdown `json:"breakdownByChannel"`
	BreakdownByDepartment map[string]KPIBreakdown `json:"breakdownByDepartment"`
	BreakdownBySegment    map[string]KPIBreakdown `json:"breakdownBySegment,omitempty"`
	ComparisonVsBaseline  BaselineComparison      `json:"comparisonVsBaseline"`
}

// ValidationReport is the outcome of business-rule validation. A failed check
// is reported data, not an error.
type ValidationReport struct {
	ScenarioID   string          `json:"scenarioId"`
	IsValid      bool            `json:"isValid"`
	Issues       []string        `json:"issues"`
	Fixes        []string        `json:"fixes"`
	ChecksPassed map[string]bool `json:"checksPassed"`
}

// Targets are the business targets for one month. Optional targets are
// pointers; a nil target contributes a zero gap.
type Targets struct {
	Month        string   `json:"month"`
	SalesTarget  float64  `json:"salesTarget"`
	MarginTarget float64  `json:"marginTarget"`
	EBITTarget   *float64 `json:"ebitTarget,omitempty"`
	UnitsTarget  *float64 `json:"unitsTarget,omitempty"`
}

// Constraints are the promotional guardrails. MaxDiscount and MinMargin are
// ratios in [0,1].
type Constraints struct {
	MaxDiscount          float64  `json:"maxDiscount"`
	MinMargin            float64  `json:"minMargin"`
	BudgetLimit          *float64 `json:"budgetLimit,omitempty"`
	CategoryRestrictions []string `json:"categoryRestrictions,omitempty"`
}

// BrandRules are brand-compliance requirements for campaign material.
type BrandRules struct {
	ToneGuidelines    []string `json:"toneGuidelines,omitempty"`
	StyleRequirements []string `json:"styleRequirements,omitempty"`
	MandatoryElements []string `json:"mandatoryElements,omitempty"`
	ProhibitedContent []string `json:"prohibitedContent,omitempty"`
}

// Event is a holiday or local event that can lift demand.
type Event struct {
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
	Type   string    `json:"type"` // holiday, local_event, seasonal
	Impact string    `json:"impact,omitempty"`
}

// SeasonalityProfile describes a region's demand seasonality.
type SeasonalityProfile struct {
	Geo            string             `json:"geo"`
	MonthlyFactors map[int]float64    `json:"monthlyFactors"`
	WeeklyPatterns map[string]float64 `json:"weeklyPatterns"`
}

// PromoContext carries the external context for uplift estimation. All fields
// are materialized before the core is invoked; the core never fetches them.
type PromoContext struct {
	Geo             string              `json:"geo"`
	DateRange       DateRange           `json:"dateRange"`
	Events          []Event             `json:"events"`
	WeatherImpact   float64             `json:"weatherImpact,omitempty"` // multiplicative factor, 0 = unknown
	Seasonality     *SeasonalityProfile `json:"seasonality,omitempty"`
	WeekendPatterns map[string]float64  `json:"weekendPatterns,omitempty"`
}

// PromoOpportunity is a gap-driven suggestion surfaced by discovery.
type PromoOpportunity struct {
	ID                 string    `json:"id"`
	Department         string    `json:"department"`
	Channel            string    `json:"channel"`
	DateRange          DateRange `json:"dateRange"`
	EstimatedPotential float64   `json:"estimatedPotential"`
	Priority           int       `json:"priority"`
	Rationale          string    `json:"rationale"`
}

// ScenarioBrief is the structured request the optimizer generates candidates
// from. Free-text brief parsing happens upstream and is out of scope here.
type ScenarioBrief struct {
	Objective   string    `json:"objective,omitempty"`
	DateRange   DateRange `json:"dateRange"`
	Departments []string  `json:"departments"`
	Channels    []string  `json:"channels"`
}

// ScenarioWithKPI pairs a scenario with its evaluated KPIs.
type ScenarioWithKPI struct {
	Scenario PromoScenario `json:"scenario"`
	KPI      ScenarioKPI   `json:"kpi"`
}

// FrontierPoint is one (sales, margin) coordinate on the trade-off plane.
type FrontierPoint struct {
	Sales  float64 `json:"sales"`
	Margin float64 `json:"margin"`
}

// FrontierData is the efficient-frontier view over a set of evaluated
// scenarios. ParetoOptimal[i] refers to Scenarios[i] and Coordinates[i].
type FrontierData struct {
	Scenarios     []PromoScenario `json:"scenarios"`
	Coordinates   []FrontierPoint `json:"coordinates"`
	ParetoOptimal []bool          `json:"paretoOptimal"`
}

// RankedScenario pairs a scenario with its weighted-objective score.
type RankedScenario struct {
	Scenario PromoScenario `json:"scenario"`
	Score    float64       `json:"score"`
}

// ComparisonReport is a side-by-side view of several evaluated scenarios.
type ComparisonReport struct {
	Scenarios       []PromoScenario      `json:"scenarios"`
	KPIs            []ScenarioKPI        `json:"kpis"`
	ComparisonTable map[string][]float64 `json:"comparisonTable"`
	Recommendations []string             `json:"recommendations"`
}
