package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type userRepository interface {
	List(ctx context.Context, workshopID string, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, workshopID, id string) (bool, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// CreateUserRequest holds payload for creating staff accounts.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Role      string `json:"role" validate:"required"`
	Active    *bool  `json:"active"`
}

// UpdateUserRequest holds payload for updating staff accounts.
type UpdateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Role      string `json:"role" validate:"required"`
	Active    *bool  `json:"active"`
}

const msgCannotDeleteSelf = "Nie możesz usunąć własnego konta."

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns staff accounts of the workshop.
func (s *UserService) List(ctx context.Context, tc tenant.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if err := validateListParams(filter.SortBy, filter.SortOrder, models.UserSortColumns); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.List(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single staff account.
func (s *UserService) Get(ctx context.Context, tc tenant.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a staff account. Emails are unique across all workshops
// because login resolves the tenant from the matched account.
func (s *UserService) Create(ctx context.Context, tc tenant.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	role := models.UserRole(req.Role)
	if !role.Valid() {
		return nil, appErrors.FieldValidation("role", validation.InvalidChoice("role"))
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.FieldValidation("email", validation.Taken("email"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &models.User{
		WorkshopID:   tc.WorkshopID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Active:       active,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// Update modifies a staff account.
func (s *UserService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	role := models.UserRole(req.Role)
	if !role.Valid() {
		return nil, appErrors.FieldValidation("role", validation.InvalidChoice("role"))
	}
	user, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.FieldValidation("email", validation.Taken("email"))
	}
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = role
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.repo.Update(ctx, user); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete soft-deletes a staff account. Accounts cannot delete themselves, and
// a deleted account loses its refresh tokens immediately.
func (s *UserService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if id == tc.UserID {
		return appErrors.Clone(appErrors.ErrConflict, msgCannotDeleteSelf)
	}
	deleted, err := s.repo.SoftDelete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Error("failed to revoke refresh tokens", zap.String("user_id", id), zap.Error(err))
	}
	return nil
}
