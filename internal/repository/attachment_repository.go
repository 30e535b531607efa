package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// AttachmentRepository manages stored file references on repair orders.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs an AttachmentRepository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// ListByRepairOrder returns attachment references for an order.
func (r *AttachmentRepository) ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.Attachment, error) {
	const query = `SELECT id, workshop_id, repair_order_id, name, path, size_bytes, created_at
        FROM attachments WHERE workshop_id = $1 AND repair_order_id = $2 ORDER BY created_at DESC`
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, workshopID, orderID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// FindByID fetches an attachment reference of the workshop by ID.
func (r *AttachmentRepository) FindByID(ctx context.Context, workshopID, id string) (*models.Attachment, error) {
	const query = `SELECT id, workshop_id, repair_order_id, name, path, size_bytes, created_at
        FROM attachments WHERE id = $1 AND workshop_id = $2`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id, workshopID); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Create inserts a new attachment reference.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attachments (id, workshop_id, repair_order_id, name, path, size_bytes, created_at)
        VALUES (:id, :workshop_id, :repair_order_id, :name, :path, :size_bytes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// Delete removes an attachment reference.
func (r *AttachmentRepository) Delete(ctx context.Context, workshopID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1 AND workshop_id = $2`, id, workshopID)
	if err != nil {
		return false, fmt.Errorf("delete attachment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete attachment: %w", err)
	}
	return affected > 0, nil
}
