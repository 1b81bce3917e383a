package utils

import (
	"fmt"
	"time"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// ParseDate accepts the date formats clients actually send.
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Truncate(24 * time.Hour), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// ParseDateRange builds an inclusive range from two date strings.
func ParseDateRange(startStr, endStr string) (models.DateRange, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
	}
	return models.DateRange{StartDate: start, EndDate: end}, nil
}

// TrailingDays is the n-day window ending yesterday.
func TrailingDays(days int) models.DateRange {
	today := time.Now().Truncate(24 * time.Hour)
	return models.DateRange{
		StartDate: today.AddDate(0, 0, -days),
		EndDate:   today.AddDate(0, 0, -1),
	}
}

// MonthRange expands a "2006-01" month identifier into its full calendar
// range.
func MonthRange(month string) (models.DateRange, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return models.DateRange{
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
	}, nil
}
