package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Iemelianov/mms-promo-intelligence/engines"
	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// Querier is the slice of pgxpool.Pool the sales tool needs; tests supply
// their own implementation.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SalesDataTool reads historical sales from the historical_sales table. It
// implements engines.SalesDataSource and is strictly read-only.
type SalesDataTool struct {
	db Querier
}

func NewSalesDataTool(db Querier) *SalesDataTool {
	return &SalesDataTool{db: db}
}

// GetDailySales returns per-day totals for the window, optionally filtered by
// channel and department. A window with no rows is an explicit
// ErrDataUnavailable, never an empty result.
func (t *SalesDataTool) GetDailySales(ctx context.Context, window models.DateRange, channel, department string) ([]models.DailySalesRow, error) {
	query := `
        SELECT date, SUM(sales_value), SUM(margin_value), SUM(units)
        FROM historical_sales
        WHERE date BETWEEN $1 AND $2
    `
	args := []any{window.StartDate, window.EndDate}
	if channel != "" {
		args = append(args, channel)
		query += fmt.Sprintf(" AND channel = $%d", len(args))
	}
	if department != "" {
		args = append(args, department)
		query += fmt.Sprintf(" AND department = $%d", len(args))
	}
	query += " GROUP BY date ORDER BY date"

	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily sales: %w", err)
	}
	defer rows.Close()

	var result []models.DailySalesRow
	for rows.Next() {
		var row models.DailySalesRow
		if err := rows.Scan(&row.Date, &row.SalesValue, &row.MarginValue, &row.Units); err != nil {
			return nil, fmt.Errorf("scanning daily sales row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading daily sales rows: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", engines.ErrDataUnavailable, window)
	}
	return result, nil
}

// grainColumns whitelists the dimensions a caller may aggregate by.
var grainColumns = map[string]bool{
	"date":       true,
	"channel":    true,
	"department": true,
	"promo_flag": true,
}

// ValidGrainDimension reports whether a grain dimension is one the tool can
// aggregate by.
func ValidGrainDimension(g string) bool {
	return grainColumns[g]
}

// GetAggregatedSales returns rows grouped by the requested grain. Measures
// are summed per group except discount_pct, which is averaged. Dimensions
// outside the grain are left at their zero value in the result.
func (t *SalesDataTool) GetAggregatedSales(ctx context.Context, window models.DateRange, grain []string, filters map[string]string) ([]models.HistoricalRecord, error) {
	if len(grain) == 0 {
		return nil, fmt.Errorf("empty grain")
	}
	for _, g := range grain {
		if !grainColumns[g] {
			return nil, fmt.Errorf("unknown grain dimension %q", g)
		}
	}

	query := fmt.Sprintf(`
        SELECT %s, SUM(sales_value), SUM(margin_value), SUM(units), AVG(discount_pct)
        FROM historical_sales
        WHERE date BETWEEN $1 AND $2
    `, strings.Join(grain, ", "))
	args := []any{window.StartDate, window.EndDate}
	for _, col := range []string{"channel", "department"} {
		if v, ok := filters[col]; ok && v != "" {
			args = append(args, v)
			query += fmt.Sprintf(" AND %s = $%d", col, len(args))
		}
	}
	query += " GROUP BY " + strings.Join(grain, ", ")

	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying aggregated sales: %w", err)
	}
	defer rows.Close()

	var result []models.HistoricalRecord
	for rows.Next() {
		var rec models.HistoricalRecord
		dests := make([]any, 0, len(grain)+4)
		for _, g := range grain {
			switch g {
			case "date":
				dests = append(dests, &rec.Date)
			case "channel":
				dests = append(dests, &rec.Channel)
			case "department":
				dests = append(dests, &rec.Department)
			case "promo_flag":
				dests = append(dests, &rec.PromoFlag)
			}
		}
		dests = append(dests, &rec.SalesValue, &rec.MarginValue, &rec.Units, &rec.DiscountPct)
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scanning aggregated sales row: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading aggregated sales rows: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", engines.ErrDataUnavailable, window)
	}
	return result, nil
}
