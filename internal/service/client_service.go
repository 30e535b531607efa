package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type clientRepository interface {
	List(ctx context.Context, workshopID string, filter models.ClientFilter) ([]models.Client, int, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.Client, error)
	ExistsByEmail(ctx context.Context, workshopID, email, excludeID string) (bool, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	SoftDelete(ctx context.Context, workshopID, id string) (bool, error)
}

// CreateClientRequest holds payload for creating clients.
type CreateClientRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=255"`
	LastName   string `json:"last_name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Street     string `json:"street" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"omitempty,max=255"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=10"`
}

// UpdateClientRequest holds payload for updating clients.
type UpdateClientRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=255"`
	LastName   string `json:"last_name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Street     string `json:"street" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"omitempty,max=255"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=10"`
}

// ClientService handles client use-cases.
type ClientService struct {
	repo      clientRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs the client service.
func NewClientService(repo clientRepository, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, validator: validate, logger: logger}
}

// List returns clients and pagination metadata.
func (s *ClientService) List(ctx context.Context, tc tenant.Context, filter models.ClientFilter) ([]models.Client, *models.Pagination, error) {
	if err := validateListParams(filter.SortBy, filter.SortOrder, models.ClientSortColumns); err != nil {
		return nil, nil, err
	}
	clients, total, err := s.repo.List(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single client.
func (s *ClientService) Get(ctx context.Context, tc tenant.Context, id string) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

// Create registers a new client in the acting user's workshop.
func (s *ClientService) Create(ctx context.Context, tc tenant.Context, req CreateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	if err := s.checkEmail(ctx, tc, req.Email, ""); err != nil {
		return nil, err
	}
	client := &models.Client{
		WorkshopID: tc.WorkshopID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Email:      req.Email,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return client, nil
}

// Update modifies an existing client.
func (s *ClientService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	client, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	if err := s.checkEmail(ctx, tc, req.Email, id); err != nil {
		return nil, err
	}
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Phone = req.Phone
	client.Email = req.Email
	client.Street = req.Street
	client.City = req.City
	client.PostalCode = req.PostalCode
	if err := s.repo.Update(ctx, client); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// checkEmail enforces per-workshop email uniqueness. Empty emails are
// allowed to repeat.
func (s *ClientService) checkEmail(ctx context.Context, tc tenant.Context, email, excludeID string) error {
	if email == "" {
		return nil
	}
	exists, err := s.repo.ExistsByEmail(ctx, tc.WorkshopID, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return appErrors.FieldValidation("email", validation.Taken("email"))
	}
	return nil
}

// Delete soft-deletes a client. Repeating the call yields not-found because
// deleted rows leave the default scope.
func (s *ClientService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	deleted, err := s.repo.SoftDelete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete client")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "client not found")
	}
	return nil
}
