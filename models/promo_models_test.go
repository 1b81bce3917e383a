package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	dateRange := DateRange{
		StartDate: time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.October, 13, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, dateRange.Valid())
	assert.Equal(t, 7, dateRange.Days())
	assert.Equal(t, "2024-10-07..2024-10-13", dateRange.String())

	var days []time.Time
	dateRange.EachDay(func(d time.Time) { days = append(days, d) })
	require.Len(t, days, 7)
	assert.Equal(t, dateRange.StartDate, days[0])
	assert.Equal(t, dateRange.EndDate, days[6])

	inverted := DateRange{StartDate: dateRange.EndDate, EndDate: dateRange.StartDate}
	assert.False(t, inverted.Valid())
	assert.Equal(t, 0, inverted.Days())
	inverted.EachDay(func(time.Time) { t.Fatal("should not visit any day") })
}

func TestDateRangeSingleDay(t *testing.T) {
	d := time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC)
	dateRange := DateRange{StartDate: d, EndDate: d}
	assert.True(t, dateRange.Valid())
	assert.Equal(t, 1, dateRange.Days())
}

func TestCoefficientKeyNormalization(t *testing.T) {
	key := NewCoefficientKey(" tv ", " ONLINE ")
	assert.Equal(t, CoefficientKey{Department: "TV", Channel: "online"}, key)
	assert.Equal(t, key, NewCoefficientKey("TV", "online"))
}

func TestCoefficientKeyTextRoundTrip(t *testing.T) {
	key := NewCoefficientKey("TV", "online")

	text, err := key.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "TV|online", string(text))

	var parsed CoefficientKey
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, key, parsed)

	assert.Error(t, parsed.UnmarshalText([]byte("no-separator")))
}

func TestUpliftModelJSONRoundTrip(t *testing.T) {
	model := UpliftModel{
		Coefficients: map[CoefficientKey]float64{
			NewCoefficientKey("TV", "online"):     1.5,
			NewCoefficientKey("AUDIO", "offline"): 2.0,
		},
		Version:     "uplift-20241007T000000Z",
		LastUpdated: time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(model)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"TV|online":1.5`)

	var decoded UpliftModel
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, model.Coefficients, decoded.Coefficients)
	assert.Equal(t, model.Version, decoded.Version)
}

func TestUpliftModelElasticity(t *testing.T) {
	model := &UpliftModel{
		Coefficients: map[CoefficientKey]float64{NewCoefficientKey("TV", "online"): 1.5},
	}

	e, ok := model.Elasticity("tv", "ONLINE")
	require.True(t, ok)
	assert.InDelta(t, 1.5, e, 1e-9)

	_, ok = model.Elasticity("GAMING", "online")
	assert.False(t, ok)

	var nilModel *UpliftModel
	_, ok = nilModel.Elasticity("TV", "online")
	assert.False(t, ok)
}

func TestBaselineForecastProjectionFor(t *testing.T) {
	baseline := &BaselineForecast{
		DailyProjections: map[string]DailyProjection{
			"2024-10-07": {Sales: 100, Margin: 25, Units: 10},
		},
	}

	p, ok := baseline.ProjectionFor(time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 100, p.Sales, 1e-9)

	_, ok = baseline.ProjectionFor(time.Date(2024, time.October, 8, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
