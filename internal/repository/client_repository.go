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

// ClientRepository manages persistence for workshop clients. Every query is
// scoped by workshop_id; rows from other tenants are indistinguishable from
// missing rows.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients of the workshop matching the provided filters.
func (r *ClientRepository) List(ctx context.Context, workshopID string, filter models.ClientFilter) ([]models.Client, int, error) {
	base := "FROM clients c"
	args := []interface{}{workshopID}
	conditions := []string{"c.workshop_id = $1", "c.deleted_at IS NULL"}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.first_name) LIKE $%d OR LOWER(c.last_name) LIKE $%d OR LOWER(c.email) LIKE $%d OR c.phone LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column, ok := models.ClientSortColumns[filter.SortBy]
	if !ok {
		column = "c.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.workshop_id, c.first_name, c.last_name, c.phone, c.email, c.street, c.city, c.postal_code, c.created_at, c.updated_at, c.deleted_at
        %s ORDER BY %s %s, c.first_name ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	return clients, total, nil
}

// FindByID fetches a client of the workshop by ID.
func (r *ClientRepository) FindByID(ctx context.Context, workshopID, id string) (*models.Client, error) {
	const query = `SELECT id, workshop_id, first_name, last_name, phone, email, street, city, postal_code, created_at, updated_at, deleted_at
        FROM clients WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id, workshopID); err != nil {
		return nil, err
	}
	return &client, nil
}

// ExistsByEmail checks whether another live client of the workshop already
// uses the email, optionally excluding an ID.
func (r *ClientRepository) ExistsByEmail(ctx context.Context, workshopID, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM clients WHERE workshop_id = $1 AND LOWER(email) = LOWER($2) AND deleted_at IS NULL"
	args := []interface{}{workshopID, email}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check client email: %w", err)
	}
	return true, nil
}

// Create inserts a new client record.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	const query = `INSERT INTO clients (id, workshop_id, first_name, last_name, phone, email, street, city, postal_code, created_at, updated_at)
        VALUES (:id, :workshop_id, :first_name, :last_name, :phone, :email, :street, :city, :postal_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", translateDBError(err))
	}
	return nil
}

// Update modifies an existing client. The workshop_id condition keeps the
// write inside the tenant.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET first_name = :first_name, last_name = :last_name, phone = :phone, email = :email, street = :street, city = :city, postal_code = :postal_code, updated_at = :updated_at
        WHERE id = :id AND workshop_id = :workshop_id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("update client: %w", translateDBError(err))
	}
	return nil
}

// SoftDelete marks the client deleted. Returns false when no live row
// matched, which covers both missing and already-deleted records.
func (r *ClientRepository) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	const query = `UPDATE clients SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, workshopID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("delete client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete client: %w", err)
	}
	return affected > 0, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
