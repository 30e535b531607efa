package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// ReportRepository computes time-entry aggregations. All queries are
// read-only and side-effect free.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type reportTotals struct {
	TotalMinutes int `db:"total_minutes"`
	OrdersCount  int `db:"orders_count"`
}

// Totals sums labour minutes and counts distinct orders with activity inside
// the filter window. Nil date bounds mean all time.
func (r *ReportRepository) Totals(ctx context.Context, workshopID string, filter models.ReportFilter) (totalMinutes, ordersCount int, err error) {
	base := `FROM time_entries te
        JOIN repair_orders ro ON ro.id = te.repair_order_id
        JOIN mechanics m ON m.id = te.mechanic_id`
	conditions, args := reportConditions(workshopID, filter)

	query := fmt.Sprintf(`SELECT COALESCE(SUM(te.duration_minutes), 0) AS total_minutes, COUNT(DISTINCT te.repair_order_id) AS orders_count
        %s WHERE %s`, base, strings.Join(conditions, " AND "))

	var totals reportTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return 0, 0, fmt.Errorf("report totals: %w", err)
	}
	return totals.TotalMinutes, totals.OrdersCount, nil
}

// MechanicBreakdown groups labour per mechanic for the team view, ordered
// alphabetically so charts are stable.
func (r *ReportRepository) MechanicBreakdown(ctx context.Context, workshopID string, filter models.ReportFilter) ([]models.MechanicReportRow, error) {
	base := `FROM time_entries te
        JOIN repair_orders ro ON ro.id = te.repair_order_id
        JOIN mechanics m ON m.id = te.mechanic_id`
	conditions, args := reportConditions(workshopID, filter)

	query := fmt.Sprintf(`SELECT m.id AS mechanic_id, m.first_name, m.last_name,
        COALESCE(SUM(te.duration_minutes), 0) AS total_minutes, COUNT(DISTINCT te.repair_order_id) AS orders_count
        %s WHERE %s
        GROUP BY m.id, m.first_name, m.last_name
        ORDER BY m.last_name ASC, m.first_name ASC`, base, strings.Join(conditions, " AND "))

	var rows []models.MechanicReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("report breakdown: %w", err)
	}
	for i := range rows {
		rows[i].TotalHours = models.RoundHours(rows[i].TotalMinutes)
	}
	return rows, nil
}

func reportConditions(workshopID string, filter models.ReportFilter) ([]string, []interface{}) {
	conditions := []string{"ro.workshop_id = $1"}
	args := []interface{}{workshopID}

	if filter.MechanicID != "" {
		conditions = append(conditions, fmt.Sprintf("te.mechanic_id = $%d", len(args)+1))
		args = append(args, filter.MechanicID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("te.created_at >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("te.created_at <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	return conditions, args
}
