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

type vehicleRepository interface {
	List(ctx context.Context, workshopID string, filter models.VehicleFilter) ([]models.VehicleDetail, int, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.VehicleDetail, error)
	ExistsByVIN(ctx context.Context, workshopID, vin, excludeID string) (bool, error)
	CountOpenRepairOrders(ctx context.Context, workshopID, vehicleID string) (int, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	SoftDelete(ctx context.Context, workshopID, id string) (bool, error)
}

type vehicleClientLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.Client, error)
}

// CreateVehicleRequest holds payload for creating vehicles. Year is a
// pointer so an absent value fails required instead of passing as zero.
type CreateVehicleRequest struct {
	ClientID           string `json:"client_id" validate:"required,uuid"`
	Make               string `json:"make" validate:"required,max=255"`
	Model              string `json:"model" validate:"required,max=255"`
	Year               *int   `json:"year" validate:"required,gte=1900,lte=2100"`
	VIN                string `json:"vin" validate:"omitempty,max=17"`
	RegistrationNumber string `json:"registration_number" validate:"omitempty,max=20"`
}

// UpdateVehicleRequest holds payload for updating vehicles.
type UpdateVehicleRequest struct {
	ClientID           string `json:"client_id" validate:"required,uuid"`
	Make               string `json:"make" validate:"required,max=255"`
	Model              string `json:"model" validate:"required,max=255"`
	Year               *int   `json:"year" validate:"required,gte=1900,lte=2100"`
	VIN                string `json:"vin" validate:"omitempty,max=17"`
	RegistrationNumber string `json:"registration_number" validate:"omitempty,max=20"`
}

const msgVehicleHasOpenOrders = "Nie można usunąć pojazdu, który ma aktywne zlecenia."

// VehicleService handles vehicle use-cases.
type VehicleService struct {
	repo      vehicleRepository
	clients   vehicleClientLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVehicleService constructs the vehicle service.
func NewVehicleService(repo vehicleRepository, clients vehicleClientLookup, validate *validator.Validate, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{repo: repo, clients: clients, validator: validate, logger: logger}
}

// List returns vehicles with owner context and pagination metadata.
func (s *VehicleService) List(ctx context.Context, tc tenant.Context, filter models.VehicleFilter) ([]models.VehicleDetail, *models.Pagination, error) {
	if err := validateListParams(filter.SortBy, filter.SortOrder, models.VehicleSortColumns); err != nil {
		return nil, nil, err
	}
	vehicles, total, err := s.repo.List(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vehicles")
	}
	return vehicles, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single vehicle with owner context.
func (s *VehicleService) Get(ctx context.Context, tc tenant.Context, id string) (*models.VehicleDetail, error) {
	detail, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	return detail, nil
}

// Create registers a new vehicle. The owning client must belong to the same
// workshop and the VIN must be unique within it.
func (s *VehicleService) Create(ctx context.Context, tc tenant.Context, req CreateVehicleRequest) (*models.VehicleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	if err := s.checkClient(ctx, tc, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.checkVIN(ctx, tc, req.VIN, ""); err != nil {
		return nil, err
	}
	vehicle := &models.Vehicle{
		WorkshopID:         tc.WorkshopID,
		ClientID:           req.ClientID,
		Make:               req.Make,
		Model:              req.Model,
		Year:               *req.Year,
		VIN:                req.VIN,
		RegistrationNumber: req.RegistrationNumber,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create vehicle")
	}
	return s.Get(ctx, tc, vehicle.ID)
}

// Update modifies an existing vehicle.
func (s *VehicleService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateVehicleRequest) (*models.VehicleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	detail, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	if err := s.checkClient(ctx, tc, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.checkVIN(ctx, tc, req.VIN, id); err != nil {
		return nil, err
	}
	vehicle := detail.Vehicle
	vehicle.ClientID = req.ClientID
	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.Year = *req.Year
	vehicle.VIN = req.VIN
	vehicle.RegistrationNumber = req.RegistrationNumber
	if err := s.repo.Update(ctx, &vehicle); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update vehicle")
	}
	return s.Get(ctx, tc, id)
}

// Delete soft-deletes a vehicle unless it still has non-closed repair orders.
func (s *VehicleService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if _, err := s.Get(ctx, tc, id); err != nil {
		return err
	}
	open, err := s.repo.CountOpenRepairOrders(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check repair orders")
	}
	if open > 0 {
		return appErrors.Clone(appErrors.ErrConflict, msgVehicleHasOpenOrders)
	}
	deleted, err := s.repo.SoftDelete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete vehicle")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
	}
	return nil
}

// checkClient confirms the client reference resolves inside the workshop. A
// client from another tenant is indistinguishable from a missing one.
func (s *VehicleService) checkClient(ctx context.Context, tc tenant.Context, clientID string) error {
	if _, err := s.clients.FindByID(ctx, tc.WorkshopID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.FieldValidation("client_id", validation.InvalidChoice("client_id"))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return nil
}

func (s *VehicleService) checkVIN(ctx context.Context, tc tenant.Context, vin, excludeID string) error {
	if vin == "" {
		return nil
	}
	exists, err := s.repo.ExistsByVIN(ctx, tc.WorkshopID, vin, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check vin")
	}
	if exists {
		return appErrors.FieldValidation("vin", validation.Taken("vin"))
	}
	return nil
}
