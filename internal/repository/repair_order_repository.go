package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// RepairOrderRepository manages persistence for repair orders.
type RepairOrderRepository struct {
	db *sqlx.DB
}

// NewRepairOrderRepository constructs a RepairOrderRepository.
func NewRepairOrderRepository(db *sqlx.DB) *RepairOrderRepository {
	return &RepairOrderRepository{db: db}
}

const repairOrderSelectColumns = `ro.id, ro.workshop_id, ro.vehicle_id, ro.status, ro.problem_description, ro.started_at, ro.finished_at, ro.created_at, ro.updated_at, ro.deleted_at,
        v.make AS vehicle_make, v.model AS vehicle_model, v.registration_number, v.client_id,
        c.first_name AS client_first_name, c.last_name AS client_last_name,
        COALESCE((SELECT SUM(te.duration_minutes) FROM time_entries te WHERE te.repair_order_id = ro.id), 0) AS total_time_minutes`

// List returns repair orders of the workshop with vehicle/client context and
// the derived labour total.
func (r *RepairOrderRepository) List(ctx context.Context, workshopID string, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, int, error) {
	base := "FROM repair_orders ro JOIN vehicles v ON v.id = ro.vehicle_id JOIN clients c ON c.id = v.client_id"
	args := []interface{}{workshopID}
	conditions := []string{"ro.workshop_id = $1", "ro.deleted_at IS NULL"}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("ro.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.ExcludeClosed {
		conditions = append(conditions, fmt.Sprintf("ro.status <> $%d", len(args)+1))
		args = append(args, models.StatusClosed)
	}
	if filter.VehicleID != "" {
		conditions = append(conditions, fmt.Sprintf("ro.vehicle_id = $%d", len(args)+1))
		args = append(args, filter.VehicleID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(ro.problem_description) LIKE $%d OR LOWER(v.make) LIKE $%d OR LOWER(v.model) LIKE $%d OR LOWER(c.first_name) LIKE $%d OR LOWER(c.last_name) LIKE $%d)", idx, idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column, ok := models.RepairOrderSortColumns[filter.SortBy]
	if !ok {
		column = "ro.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", repairOrderSelectColumns, base, column, order, size, offset)

	var orders []models.RepairOrderDetail
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list repair orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count repair orders: %w", err)
	}
	return orders, total, nil
}

// FindByID fetches a repair order of the workshop by ID.
func (r *RepairOrderRepository) FindByID(ctx context.Context, workshopID, id string) (*models.RepairOrderDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM repair_orders ro JOIN vehicles v ON v.id = ro.vehicle_id JOIN clients c ON c.id = v.client_id
        WHERE ro.id = $1 AND ro.workshop_id = $2 AND ro.deleted_at IS NULL`, repairOrderSelectColumns)
	var detail models.RepairOrderDetail
	if err := r.db.GetContext(ctx, &detail, query, id, workshopID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountTimeEntries counts labour records on the order. Used as a deletion
// guard.
func (r *RepairOrderRepository) CountTimeEntries(ctx context.Context, workshopID, orderID string) (int, error) {
	const query = `SELECT COUNT(*) FROM time_entries te JOIN repair_orders ro ON ro.id = te.repair_order_id
        WHERE ro.workshop_id = $1 AND te.repair_order_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, workshopID, orderID); err != nil {
		return 0, fmt.Errorf("count time entries: %w", err)
	}
	return count, nil
}

// Create inserts a new repair order.
func (r *RepairOrderRepository) Create(ctx context.Context, order *models.RepairOrder) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	const query = `INSERT INTO repair_orders (id, workshop_id, vehicle_id, status, problem_description, started_at, finished_at, created_at, updated_at)
        VALUES (:id, :workshop_id, :vehicle_id, :status, :problem_description, :started_at, :finished_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create repair order: %w", translateDBError(err))
	}
	return nil
}

// Update modifies an existing repair order.
func (r *RepairOrderRepository) Update(ctx context.Context, order *models.RepairOrder) error {
	order.UpdatedAt = time.Now().UTC()
	const query = `UPDATE repair_orders SET vehicle_id = :vehicle_id, status = :status, problem_description = :problem_description, started_at = :started_at, finished_at = :finished_at, updated_at = :updated_at
        WHERE id = :id AND workshop_id = :workshop_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("update repair order: %w", translateDBError(err))
	}
	return nil
}

// SoftDelete marks the repair order deleted.
func (r *RepairOrderRepository) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	const query = `UPDATE repair_orders SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, workshopID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("delete repair order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete repair order: %w", err)
	}
	return affected > 0, nil
}
