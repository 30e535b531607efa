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

type mechanicRepository interface {
	List(ctx context.Context, workshopID string, filter models.MechanicFilter) ([]models.Mechanic, int, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.Mechanic, error)
	CountTimeEntries(ctx context.Context, workshopID, mechanicID string) (int, error)
	Create(ctx context.Context, mechanic *models.Mechanic) error
	Update(ctx context.Context, mechanic *models.Mechanic) error
	SoftDelete(ctx context.Context, workshopID, id string) (bool, error)
}

// CreateMechanicRequest holds payload for creating mechanics.
type CreateMechanicRequest struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Active    *bool  `json:"is_active"`
}

// UpdateMechanicRequest holds payload for updating mechanics.
type UpdateMechanicRequest struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Active    *bool  `json:"is_active"`
}

const msgMechanicHasTimeEntries = "Nie można usunąć mechanika, który ma zarejestrowany czas pracy."

// MechanicService handles mechanic use-cases.
type MechanicService struct {
	repo      mechanicRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMechanicService constructs the mechanic service.
func NewMechanicService(repo mechanicRepository, validate *validator.Validate, logger *zap.Logger) *MechanicService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MechanicService{repo: repo, validator: validate, logger: logger}
}

// List returns mechanics and pagination metadata.
func (s *MechanicService) List(ctx context.Context, tc tenant.Context, filter models.MechanicFilter) ([]models.Mechanic, *models.Pagination, error) {
	if err := validateListParams(filter.SortBy, filter.SortOrder, models.MechanicSortColumns); err != nil {
		return nil, nil, err
	}
	mechanics, total, err := s.repo.List(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mechanics")
	}
	return mechanics, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single mechanic.
func (s *MechanicService) Get(ctx context.Context, tc tenant.Context, id string) (*models.Mechanic, error) {
	mechanic, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mechanic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mechanic")
	}
	return mechanic, nil
}

// Create registers a new mechanic. New mechanics default to active unless the
// payload says otherwise.
func (s *MechanicService) Create(ctx context.Context, tc tenant.Context, req CreateMechanicRequest) (*models.Mechanic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	mechanic := &models.Mechanic{
		WorkshopID: tc.WorkshopID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Active:     active,
	}
	if err := s.repo.Create(ctx, mechanic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mechanic")
	}
	return mechanic, nil
}

// Update modifies an existing mechanic.
func (s *MechanicService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateMechanicRequest) (*models.Mechanic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	mechanic, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	mechanic.FirstName = req.FirstName
	mechanic.LastName = req.LastName
	if req.Active != nil {
		mechanic.Active = *req.Active
	}
	if err := s.repo.Update(ctx, mechanic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mechanic")
	}
	return mechanic, nil
}

// Delete soft-deletes a mechanic unless labour records reference them.
func (s *MechanicService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if _, err := s.Get(ctx, tc, id); err != nil {
		return err
	}
	count, err := s.repo.CountTimeEntries(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check time entries")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, msgMechanicHasTimeEntries)
	}
	deleted, err := s.repo.SoftDelete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mechanic")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "mechanic not found")
	}
	return nil
}
