package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// TimeEntryRepository manages persistence for labour records. Tenant scoping
// goes through the owning repair order.
type TimeEntryRepository struct {
	db *sqlx.DB
}

// NewTimeEntryRepository constructs a TimeEntryRepository.
func NewTimeEntryRepository(db *sqlx.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// ListByRepairOrder returns all labour records on an order, newest first.
func (r *TimeEntryRepository) ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.TimeEntryDetail, error) {
	const query = `SELECT te.id, ro.workshop_id, te.repair_order_id, te.mechanic_id, te.duration_minutes, te.description, te.created_at, te.updated_at,
        m.first_name AS mechanic_first_name, m.last_name AS mechanic_last_name
        FROM time_entries te
        JOIN repair_orders ro ON ro.id = te.repair_order_id
        JOIN mechanics m ON m.id = te.mechanic_id
        WHERE ro.workshop_id = $1 AND te.repair_order_id = $2
        ORDER BY te.created_at DESC`
	var entries []models.TimeEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, workshopID, orderID); err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	for i := range entries {
		entries[i].DurationHours = entries[i].TimeEntry.DurationHours()
	}
	return entries, nil
}

// FindByID fetches a labour record scoped through its repair order.
func (r *TimeEntryRepository) FindByID(ctx context.Context, workshopID, id string) (*models.TimeEntry, error) {
	const query = `SELECT te.id, ro.workshop_id, te.repair_order_id, te.mechanic_id, te.duration_minutes, te.description, te.created_at, te.updated_at
        FROM time_entries te JOIN repair_orders ro ON ro.id = te.repair_order_id
        WHERE te.id = $1 AND ro.workshop_id = $2`
	var entry models.TimeEntry
	if err := r.db.GetContext(ctx, &entry, query, id, workshopID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a new labour record.
func (r *TimeEntryRepository) Create(ctx context.Context, entry *models.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO time_entries (id, repair_order_id, mechanic_id, duration_minutes, description, created_at, updated_at)
        VALUES (:id, :repair_order_id, :mechanic_id, :duration_minutes, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create time entry: %w", translateDBError(err))
	}
	return nil
}

// Update modifies an existing labour record.
func (r *TimeEntryRepository) Update(ctx context.Context, entry *models.TimeEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_entries SET mechanic_id = :mechanic_id, duration_minutes = :duration_minutes, description = :description, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update time entry: %w", translateDBError(err))
	}
	return nil
}

// Delete removes a labour record. Time entries are hard-deleted; the caller
// re-verifies tenant ownership first via FindByID.
func (r *TimeEntryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete time entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete time entry: %w", err)
	}
	return affected > 0, nil
}
