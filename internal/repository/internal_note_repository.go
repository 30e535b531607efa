package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// InternalNoteRepository manages persistence for repair-order notes. Notes
// are hard-deleted; there is no soft-delete lifecycle.
type InternalNoteRepository struct {
	db *sqlx.DB
}

// NewInternalNoteRepository constructs an InternalNoteRepository.
func NewInternalNoteRepository(db *sqlx.DB) *InternalNoteRepository {
	return &InternalNoteRepository{db: db}
}

// ListByRepairOrder returns notes on an order with resolved author names,
// newest first. The author join dispatches on the {type, id} pair.
func (r *InternalNoteRepository) ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.InternalNoteDetail, error) {
	const query = `SELECT n.id, n.workshop_id, n.repair_order_id, n.author_type, n.author_id, n.content, n.created_at, n.updated_at,
        COALESCE(u.first_name, m.first_name, '') AS author_first_name,
        COALESCE(u.last_name, m.last_name, '') AS author_last_name
        FROM internal_notes n
        LEFT JOIN users u ON n.author_type = $3 AND u.id = n.author_id
        LEFT JOIN mechanics m ON n.author_type = $4 AND m.id = n.author_id
        WHERE n.workshop_id = $1 AND n.repair_order_id = $2
        ORDER BY n.created_at DESC`
	var notes []models.InternalNoteDetail
	if err := r.db.SelectContext(ctx, &notes, query, workshopID, orderID, models.NoteAuthorUser, models.NoteAuthorMechanic); err != nil {
		return nil, fmt.Errorf("list internal notes: %w", err)
	}
	return notes, nil
}

// FindByID fetches a note of the workshop by ID.
func (r *InternalNoteRepository) FindByID(ctx context.Context, workshopID, id string) (*models.InternalNote, error) {
	const query = `SELECT id, workshop_id, repair_order_id, author_type, author_id, content, created_at, updated_at
        FROM internal_notes WHERE id = $1 AND workshop_id = $2`
	var note models.InternalNote
	if err := r.db.GetContext(ctx, &note, query, id, workshopID); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a new note.
func (r *InternalNoteRepository) Create(ctx context.Context, note *models.InternalNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	const query = `INSERT INTO internal_notes (id, workshop_id, repair_order_id, author_type, author_id, content, created_at, updated_at)
        VALUES (:id, :workshop_id, :repair_order_id, :author_type, :author_id, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create internal note: %w", translateDBError(err))
	}
	return nil
}

// Update modifies a note's content.
func (r *InternalNoteRepository) Update(ctx context.Context, note *models.InternalNote) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE internal_notes SET content = :content, updated_at = :updated_at
        WHERE id = :id AND workshop_id = :workshop_id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update internal note: %w", translateDBError(err))
	}
	return nil
}

// Delete hard-deletes a note.
func (r *InternalNoteRepository) Delete(ctx context.Context, workshopID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM internal_notes WHERE id = $1 AND workshop_id = $2`, id, workshopID)
	if err != nil {
		return false, fmt.Errorf("delete internal note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete internal note: %w", err)
	}
	return affected > 0, nil
}
