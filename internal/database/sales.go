package database

import (
	"context"
	"fmt"
	"time"

	"brewhouse/internal/models"
)

// ConfirmedSales returns history records that finished as confirmed within
// the inclusive [from, to] date range. Canceled records never count as
// revenue, so they are filtered out here rather than in the report layer.
func (db *DB) ConfirmedSales(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + historyColumns + ` FROM history
              WHERE status = ? AND date >= ? AND date <= ?
              ORDER BY date, time_slot`
	return db.queryHistory(ctx, query,
		models.StatusConfirmed,
		from.Format(models.DateLayout),
		to.Format(models.DateLayout),
	)
}

// DailySales is one row of the aggregated sales report.
type DailySales struct {
	Date    string
	Count   int
	Revenue float64
}

// SalesByDay aggregates confirmed history records into per-day totals.
// Revenue is computed by the caller from package prices; this query only
// returns the counts grouped by calendar date.
func (db *DB) SalesByDay(ctx context.Context, from, to time.Time) (map[string][]*models.Reservation, error) {
	records, err := db.ConfirmedSales(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed sales: %w", err)
	}

	byDay := make(map[string][]*models.Reservation)
	for _, r := range records {
		key := r.Date.Format(models.DateLayout)
		byDay[key] = append(byDay[key], r)
	}
	return byDay, nil
}
