package services

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"lobbycast/internal/models"
)

// RevenueService manages revenue figures, monthly trends and segment proportions
type RevenueService struct {
	database *sql.DB
}

// NewRevenueService creates a new revenue service
func NewRevenueService(database *sql.DB) *RevenueService {
	return &RevenueService{
		database: database,
	}
}

// validAmount rejects NaN, infinity and negatives before they reach the database
func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// GetRevenue returns the current headline revenue, or nil when none is set
func (rs *RevenueService) GetRevenue() (*models.Revenue, error) {
	var r models.Revenue
	err := rs.database.QueryRow(`
		SELECT id, total_amount, percentage_change, last_updated
		FROM revenue ORDER BY last_updated DESC LIMIT 1`,
	).Scan(&r.ID, &r.TotalAmount, &r.PercentageChange, &r.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}
	return &r, nil
}

// SetRevenue updates the headline revenue figure, inserting the first row if
// none exists. NaN and infinite percentage changes collapse to zero.
func (rs *RevenueService) SetRevenue(totalAmount, percentageChange float64) (*models.Revenue, error) {
	if !validAmount(totalAmount) {
		return nil, fmt.Errorf("total_amount must be a finite non-negative number")
	}
	if math.IsNaN(percentageChange) || math.IsInf(percentageChange, 0) {
		percentageChange = 0
	}

	now := time.Now()
	existing, err := rs.GetRevenue()
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, err = rs.database.Exec(`
			UPDATE revenue SET total_amount = ?, percentage_change = ?, last_updated = ? WHERE id = ?`,
			totalAmount, percentageChange, now, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update revenue: %w", err)
		}
		existing.TotalAmount = totalAmount
		existing.PercentageChange = percentageChange
		existing.LastUpdated = now
		return existing, nil
	}

	result, err := rs.database.Exec(`
		INSERT INTO revenue (total_amount, percentage_change, last_updated) VALUES (?, ?, ?)`,
		totalAmount, percentageChange, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert revenue: %w", err)
	}
	r := &models.Revenue{TotalAmount: totalAmount, PercentageChange: percentageChange, LastUpdated: now}
	r.ID, _ = result.LastInsertId()
	log.Printf("Revenue set: total=%.2f, change=%.2f%%", totalAmount, percentageChange)
	return r, nil
}

// ImportWorkbook applies a parsed revenue workbook: the headline figure when
// one was found, a full trend replacement for the year when the workbook
// carried trend rows, and per-segment proportion upserts. Sections absent from
// the workbook leave the existing data untouched.
func (rs *RevenueService) ImportWorkbook(year int, wb *RevenueWorkbook) error {
	if wb.TotalAmount != nil {
		if _, err := rs.SetRevenue(*wb.TotalAmount, wb.PercentageChange); err != nil {
			return err
		}
	}
	if len(wb.Trends) > 0 {
		if err := rs.ReplaceTrendsForYear(year, wb.Trends); err != nil {
			return err
		}
	}
	for _, p := range wb.Proportions {
		if p.Color == "" {
			p.Color = "#981239"
		}
		if err := rs.UpsertProportion(p); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceTrendsForYear clears and rewrites the trend rows for one year
func (rs *RevenueService) ReplaceTrendsForYear(year int, trends []*models.RevenueTrend) error {
	tx, err := rs.database.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM revenue_trends WHERE year = ?`, year); err != nil {
		return fmt.Errorf("failed to clear revenue trends: %w", err)
	}
	for _, t := range trends {
		if !validAmount(t.Value) {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO revenue_trends (month, value, highlight, year) VALUES (?, ?, ?, ?)`,
			t.Month, t.Value, t.Highlight, year,
		); err != nil {
			return fmt.Errorf("failed to insert revenue trend: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revenue trends: %w", err)
	}
	log.Printf("Revenue trends replaced: year=%d, months=%d", year, len(trends))
	return nil
}

// ListTrends returns trend rows for a year in insertion order
func (rs *RevenueService) ListTrends(year int) ([]*models.RevenueTrend, error) {
	rows, err := rs.database.Query(`
		SELECT id, month, value, highlight, year FROM revenue_trends WHERE year = ? ORDER BY id`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue trends: %w", err)
	}
	defer rows.Close()

	var trends []*models.RevenueTrend
	for rows.Next() {
		var t models.RevenueTrend
		if err := rows.Scan(&t.ID, &t.Month, &t.Value, &t.Highlight, &t.Year); err != nil {
			return nil, fmt.Errorf("failed to scan revenue trend: %w", err)
		}
		trends = append(trends, &t)
	}
	return trends, rows.Err()
}

// UpsertProportion creates or updates one segment of the revenue breakdown
func (rs *RevenueService) UpsertProportion(p *models.RevenueProportion) error {
	if p.Segment == "" {
		return fmt.Errorf("segment is required")
	}
	if !validAmount(p.Percentage) {
		return fmt.Errorf("percentage must be a finite non-negative number")
	}

	_, err := rs.database.Exec(`
		INSERT INTO revenue_proportions (segment, percentage, color) VALUES (?, ?, ?)
		ON CONFLICT(segment) DO UPDATE SET
			percentage = excluded.percentage,
			color = excluded.color`,
		p.Segment, p.Percentage, p.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert revenue proportion: %w", err)
	}
	return nil
}

// DeleteProportion removes one segment
func (rs *RevenueService) DeleteProportion(segment string) error {
	result, err := rs.database.Exec(`DELETE FROM revenue_proportions WHERE segment = ?`, segment)
	if err != nil {
		return fmt.Errorf("failed to delete revenue proportion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("revenue proportion not found: %s", segment)
	}
	return nil
}

// ListProportions returns all segments ordered by share, largest first
func (rs *RevenueService) ListProportions() ([]*models.RevenueProportion, error) {
	rows, err := rs.database.Query(`
		SELECT id, segment, percentage, color FROM revenue_proportions ORDER BY percentage DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue proportions: %w", err)
	}
	defer rows.Close()

	var proportions []*models.RevenueProportion
	for rows.Next() {
		var p models.RevenueProportion
		if err := rows.Scan(&p.ID, &p.Segment, &p.Percentage, &p.Color); err != nil {
			return nil, fmt.Errorf("failed to scan revenue proportion: %w", err)
		}
		proportions = append(proportions, &p)
	}
	return proportions, rows.Err()
}
