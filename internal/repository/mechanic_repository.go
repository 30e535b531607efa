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

// MechanicRepository manages persistence for mechanics.
type MechanicRepository struct {
	db *sqlx.DB
}

// NewMechanicRepository constructs a MechanicRepository.
func NewMechanicRepository(db *sqlx.DB) *MechanicRepository {
	return &MechanicRepository{db: db}
}

// List returns mechanics of the workshop. Default order is alphabetical by
// last name then first name so listings are deterministic.
func (r *MechanicRepository) List(ctx context.Context, workshopID string, filter models.MechanicFilter) ([]models.Mechanic, int, error) {
	base := "FROM mechanics m"
	args := []interface{}{workshopID}
	conditions := []string{"m.workshop_id = $1", "m.deleted_at IS NULL"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("m.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(m.first_name) LIKE $%d OR LOWER(m.last_name) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column, ok := models.MechanicSortColumns[filter.SortBy]
	if !ok {
		column = "m.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT m.id, m.workshop_id, m.first_name, m.last_name, m.active, m.created_at, m.updated_at, m.deleted_at
        %s ORDER BY %s %s, m.first_name ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var mechanics []models.Mechanic
	if err := r.db.SelectContext(ctx, &mechanics, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list mechanics: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count mechanics: %w", err)
	}
	return mechanics, total, nil
}

// FindByID fetches a mechanic of the workshop by ID.
func (r *MechanicRepository) FindByID(ctx context.Context, workshopID, id string) (*models.Mechanic, error) {
	const query = `SELECT id, workshop_id, first_name, last_name, active, created_at, updated_at, deleted_at
        FROM mechanics WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	var mechanic models.Mechanic
	if err := r.db.GetContext(ctx, &mechanic, query, id, workshopID); err != nil {
		return nil, err
	}
	return &mechanic, nil
}

// CountTimeEntries counts labour records by the mechanic. Used as a deletion
// guard.
func (r *MechanicRepository) CountTimeEntries(ctx context.Context, workshopID, mechanicID string) (int, error) {
	const query = `SELECT COUNT(*) FROM time_entries te JOIN mechanics m ON m.id = te.mechanic_id
        WHERE m.workshop_id = $1 AND te.mechanic_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, workshopID, mechanicID); err != nil {
		return 0, fmt.Errorf("count time entries: %w", err)
	}
	return count, nil
}

// Create inserts a new mechanic record.
func (r *MechanicRepository) Create(ctx context.Context, mechanic *models.Mechanic) error {
	if mechanic.ID == "" {
		mechanic.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mechanic.CreatedAt.IsZero() {
		mechanic.CreatedAt = now
	}
	mechanic.UpdatedAt = now
	const query = `INSERT INTO mechanics (id, workshop_id, first_name, last_name, active, created_at, updated_at)
        VALUES (:id, :workshop_id, :first_name, :last_name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mechanic); err != nil {
		return fmt.Errorf("create mechanic: %w", err)
	}
	return nil
}

// Update modifies an existing mechanic.
func (r *MechanicRepository) Update(ctx context.Context, mechanic *models.Mechanic) error {
	mechanic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE mechanics SET first_name = :first_name, last_name = :last_name, active = :active, updated_at = :updated_at
        WHERE id = :id AND workshop_id = :workshop_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, mechanic); err != nil {
		return fmt.Errorf("update mechanic: %w", err)
	}
	return nil
}

// SoftDelete marks the mechanic deleted.
func (r *MechanicRepository) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	const query = `UPDATE mechanics SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, workshopID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("delete mechanic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mechanic: %w", err)
	}
	return affected > 0, nil
}
