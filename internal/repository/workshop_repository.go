package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/motoserwis/warsztat-api/internal/models"
)

// WorkshopRepository manages the tenant root records. Workshops are created
// at provisioning time and never transition state afterwards.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs a WorkshopRepository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// FindByID fetches a workshop by ID.
func (r *WorkshopRepository) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	const query = `SELECT id, name, created_at, updated_at FROM workshops WHERE id = $1`
	var workshop models.Workshop
	if err := r.db.GetContext(ctx, &workshop, query, id); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// Create inserts a new workshop.
func (r *WorkshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	if workshop.ID == "" {
		workshop.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workshop.CreatedAt.IsZero() {
		workshop.CreatedAt = now
	}
	workshop.UpdatedAt = now
	const query = `INSERT INTO workshops (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workshop); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}
	return nil
}
