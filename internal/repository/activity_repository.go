package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// ActivityRepository appends and reads dirty-field diff records. The table
// is append-only; there is no update or delete path.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append records a diff entry.
func (r *ActivityRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_log (id, workshop_id, entity_type, entity_id, user_id, changes, created_at)
        VALUES (:id, :workshop_id, :entity_type, :entity_id, :user_id, :changes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

// ListByEntity returns diff entries for one entity, newest first.
func (r *ActivityRepository) ListByEntity(ctx context.Context, workshopID, entityType, entityID string) ([]models.ActivityLog, error) {
	const query = `SELECT id, workshop_id, entity_type, entity_id, user_id, changes, created_at
        FROM activity_log WHERE workshop_id = $1 AND entity_type = $2 AND entity_id = $3
        ORDER BY created_at DESC`
	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, workshopID, entityType, entityID); err != nil {
		return nil, fmt.Errorf("list activity log: %w", err)
	}
	return entries, nil
}
