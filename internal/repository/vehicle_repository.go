package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// VehicleRepository manages persistence for vehicles.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns vehicles of the workshop with owner context.
func (r *VehicleRepository) List(ctx context.Context, workshopID string, filter models.VehicleFilter) ([]models.VehicleDetail, int, error) {
	base := "FROM vehicles v JOIN clients c ON c.id = v.client_id"
	args := []interface{}{workshopID}
	conditions := []string{"v.workshop_id = $1", "v.deleted_at IS NULL"}

	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("v.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(v.make) LIKE $%d OR LOWER(v.model) LIKE $%d OR LOWER(v.registration_number) LIKE $%d OR LOWER(v.vin) LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column, ok := models.VehicleSortColumns[filter.SortBy]
	if !ok {
		column = "v.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT v.id, v.workshop_id, v.client_id, v.make, v.model, v.year, v.vin, v.registration_number, v.created_at, v.updated_at, v.deleted_at,
        c.first_name AS client_first_name, c.last_name AS client_last_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var vehicles []models.VehicleDetail
	if err := r.db.SelectContext(ctx, &vehicles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}
	return vehicles, total, nil
}

// FindByID fetches a vehicle of the workshop by ID.
func (r *VehicleRepository) FindByID(ctx context.Context, workshopID, id string) (*models.VehicleDetail, error) {
	const query = `SELECT v.id, v.workshop_id, v.client_id, v.make, v.model, v.year, v.vin, v.registration_number, v.created_at, v.updated_at, v.deleted_at,
        c.first_name AS client_first_name, c.last_name AS client_last_name
        FROM vehicles v JOIN clients c ON c.id = v.client_id
        WHERE v.id = $1 AND v.workshop_id = $2 AND v.deleted_at IS NULL`
	var detail models.VehicleDetail
	if err := r.db.GetContext(ctx, &detail, query, id, workshopID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByVIN checks per-workshop VIN uniqueness, optionally excluding an ID.
func (r *VehicleRepository) ExistsByVIN(ctx context.Context, workshopID, vin, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vehicles WHERE workshop_id = $1 AND LOWER(vin) = LOWER($2) AND deleted_at IS NULL"
	args := []interface{}{workshopID, vin}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check vin: %w", err)
	}
	return true, nil
}

// CountOpenRepairOrders counts non-closed repair orders on the vehicle. Used
// as a deletion guard.
func (r *VehicleRepository) CountOpenRepairOrders(ctx context.Context, workshopID, vehicleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM repair_orders WHERE workshop_id = $1 AND vehicle_id = $2 AND status <> $3 AND deleted_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, workshopID, vehicleID, models.StatusClosed); err != nil {
		return 0, fmt.Errorf("count open repair orders: %w", err)
	}
	return count, nil
}

// Create inserts a new vehicle record.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = now
	}
	vehicle.UpdatedAt = now
	const query = `INSERT INTO vehicles (id, workshop_id, client_id, make, model, year, vin, registration_number, created_at, updated_at)
        VALUES (:id, :workshop_id, :client_id, :make, :model, :year, :vin, :registration_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("create vehicle: %w", translateDBError(err))
	}
	return nil
}

// Update modifies an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vehicles SET client_id = :client_id, make = :make, model = :model, year = :year, vin = :vin, registration_number = :registration_number, updated_at = :updated_at
        WHERE id = :id AND workshop_id = :workshop_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("update vehicle: %w", translateDBError(err))
	}
	return nil
}

// SoftDelete marks the vehicle deleted.
func (r *VehicleRepository) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	const query = `UPDATE vehicles SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, workshopID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("delete vehicle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete vehicle: %w", err)
	}
	return affected > 0, nil
}
