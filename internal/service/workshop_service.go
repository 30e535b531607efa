package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/motoserwis/warsztat-api/internal/models"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type workshopRepository interface {
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	Create(ctx context.Context, workshop *models.Workshop) error
}

type workshopUserCreator interface {
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// ProvisionWorkshopRequest creates a tenant with its first owner account.
type ProvisionWorkshopRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	OwnerEmail     string `json:"owner_email" validate:"required,email,max=255"`
	OwnerPassword  string `json:"owner_password" validate:"required,min=8,max=72"`
	OwnerFirstName string `json:"owner_first_name" validate:"required,max=255"`
	OwnerLastName  string `json:"owner_last_name" validate:"required,max=255"`
}

// WorkshopService provisions tenants. Used by the CLI, not the HTTP API;
// workshops never self-register.
type WorkshopService struct {
	workshops workshopRepository
	users     workshopUserCreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkshopService constructs the workshop service.
func NewWorkshopService(workshops workshopRepository, users workshopUserCreator, validate *validator.Validate, logger *zap.Logger) *WorkshopService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopService{workshops: workshops, users: users, validator: validate, logger: logger}
}

// Provision creates a workshop together with its owner account.
func (s *WorkshopService) Provision(ctx context.Context, req ProvisionWorkshopRequest) (*models.Workshop, *models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validation.Error(err)
	}
	taken, err := s.users.ExistsByEmail(ctx, req.OwnerEmail, "")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, nil, appErrors.FieldValidation("owner_email", validation.Taken("owner_email"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	workshop := &models.Workshop{Name: req.Name}
	if err := s.workshops.Create(ctx, workshop); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop")
	}
	owner := &models.User{
		WorkshopID:   workshop.ID,
		Email:        req.OwnerEmail,
		PasswordHash: string(hash),
		FirstName:    req.OwnerFirstName,
		LastName:     req.OwnerLastName,
		Role:         models.RoleOwner,
		Active:       true,
	}
	if err := s.users.Create(ctx, owner); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create owner account")
	}
	s.logger.Info("workshop provisioned", zap.String("workshop_id", workshop.ID), zap.String("owner_id", owner.ID))
	return workshop, owner, nil
}
