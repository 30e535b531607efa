package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type repairOrderRepository interface {
	List(ctx context.Context, workshopID string, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, int, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.RepairOrderDetail, error)
	CountTimeEntries(ctx context.Context, workshopID, orderID string) (int, error)
	Create(ctx context.Context, order *models.RepairOrder) error
	Update(ctx context.Context, order *models.RepairOrder) error
	SoftDelete(ctx context.Context, workshopID, id string) (bool, error)
}

type repairOrderVehicleLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.VehicleDetail, error)
}

type activityAppender interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	ListByEntity(ctx context.Context, workshopID, entityType, entityID string) ([]models.ActivityLog, error)
}

// CreateRepairOrderRequest holds payload for opening repair orders.
type CreateRepairOrderRequest struct {
	VehicleID          string     `json:"vehicle_id" validate:"required,uuid"`
	Status             string     `json:"status" validate:"omitempty"`
	ProblemDescription string     `json:"problem_description" validate:"required,max=5000"`
	StartedAt          *time.Time `json:"started_at"`
}

// UpdateRepairOrderRequest holds payload for updating repair orders.
type UpdateRepairOrderRequest struct {
	VehicleID          string     `json:"vehicle_id" validate:"required,uuid"`
	Status             string     `json:"status" validate:"required"`
	ProblemDescription string     `json:"problem_description" validate:"required,max=5000"`
	StartedAt          *time.Time `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at"`
}

// UpdateRepairOrderStatusRequest changes only the order status.
type UpdateRepairOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

const msgOrderHasTimeEntries = "Nie można usunąć zlecenia, które ma zarejestrowany czas pracy."

// RepairOrderService handles the repair order lifecycle and its activity
// trail.
type RepairOrderService struct {
	repo      repairOrderRepository
	vehicles  repairOrderVehicleLookup
	activity  activityAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRepairOrderService constructs the repair order service.
func NewRepairOrderService(repo repairOrderRepository, vehicles repairOrderVehicleLookup, activity activityAppender, validate *validator.Validate, logger *zap.Logger) *RepairOrderService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairOrderService{repo: repo, vehicles: vehicles, activity: activity, validator: validate, logger: logger}
}

// List returns repair orders with vehicle/client context.
func (s *RepairOrderService) List(ctx context.Context, tc tenant.Context, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, *models.Pagination, error) {
	if err := validateListParams(filter.SortBy, filter.SortOrder, models.RepairOrderSortColumns); err != nil {
		return nil, nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.FieldValidation("status", validation.InvalidChoice("status"))
	}
	orders, total, err := s.repo.List(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repair orders")
	}
	return orders, buildPagination(filter.Page, filter.PageSize, total), nil
}

// ListOpenForMechanics is the workboard view: every order that is not yet
// closed, regardless of assignee.
func (s *RepairOrderService) ListOpenForMechanics(ctx context.Context, tc tenant.Context, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, *models.Pagination, error) {
	filter.ExcludeClosed = true
	filter.Status = nil
	return s.List(ctx, tc, filter)
}

// Get returns a single repair order with context and the labour total.
func (s *RepairOrderService) Get(ctx context.Context, tc tenant.Context, id string) (*models.RepairOrderDetail, error) {
	detail, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}
	return detail, nil
}

// Create opens a new repair order. The vehicle must belong to the workshop.
func (s *RepairOrderService) Create(ctx context.Context, tc tenant.Context, req CreateRepairOrderRequest) (*models.RepairOrderDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	status := models.StatusNew
	if req.Status != "" {
		status = models.RepairOrderStatus(req.Status)
		if !status.Valid() {
			return nil, appErrors.FieldValidation("status", validation.InvalidChoice("status"))
		}
	}
	if _, err := s.vehicles.FindByID(ctx, tc.WorkshopID, req.VehicleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldValidation("vehicle_id", validation.InvalidChoice("vehicle_id"))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	order := &models.RepairOrder{
		WorkshopID:         tc.WorkshopID,
		VehicleID:          req.VehicleID,
		Status:             status,
		ProblemDescription: req.ProblemDescription,
		StartedAt:          req.StartedAt,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create repair order")
	}
	return s.Get(ctx, tc, order.ID)
}

// Update modifies a repair order and records the dirty-field diff.
func (s *RepairOrderService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateRepairOrderRequest) (*models.RepairOrderDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	status := models.RepairOrderStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.FieldValidation("status", validation.InvalidChoice("status"))
	}
	detail, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	if req.VehicleID != detail.VehicleID {
		if _, err := s.vehicles.FindByID(ctx, tc.WorkshopID, req.VehicleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.FieldValidation("vehicle_id", validation.InvalidChoice("vehicle_id"))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
		}
	}

	before := detail.RepairOrder
	order := detail.RepairOrder
	order.VehicleID = req.VehicleID
	order.Status = status
	order.ProblemDescription = req.ProblemDescription
	order.StartedAt = req.StartedAt
	order.FinishedAt = req.FinishedAt

	changes := diffRepairOrder(before, order)
	if err := s.repo.Update(ctx, &order); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update repair order")
	}
	s.record(ctx, tc, models.ActivityEntityRepairOrder, order.ID, changes)
	return s.Get(ctx, tc, id)
}

// UpdateStatus changes the order status. Any known status may follow any
// other; only unknown values are rejected.
func (s *RepairOrderService) UpdateStatus(ctx context.Context, tc tenant.Context, id string, req UpdateRepairOrderStatusRequest) (*models.RepairOrderDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	status := models.RepairOrderStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.FieldValidation("status", validation.InvalidChoice("status"))
	}
	detail, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	if detail.Status == status {
		return detail, nil
	}

	order := detail.RepairOrder
	changes := models.FieldChanges{
		"status": {Old: string(order.Status), New: string(status)},
	}
	order.Status = status
	if status == models.StatusClosed && order.FinishedAt == nil {
		now := time.Now().UTC()
		order.FinishedAt = &now
		changes["finished_at"] = models.FieldChange{Old: nil, New: now}
	}
	if err := s.repo.Update(ctx, &order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update repair order")
	}
	s.record(ctx, tc, models.ActivityEntityRepairOrder, order.ID, changes)
	return s.Get(ctx, tc, id)
}

// Delete soft-deletes a repair order unless labour is booked on it.
func (s *RepairOrderService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if _, err := s.Get(ctx, tc, id); err != nil {
		return err
	}
	count, err := s.repo.CountTimeEntries(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check time entries")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, msgOrderHasTimeEntries)
	}
	deleted, err := s.repo.SoftDelete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete repair order")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
	}
	return nil
}

// Activity returns the recorded field diffs for an order, newest first.
func (s *RepairOrderService) Activity(ctx context.Context, tc tenant.Context, id string) ([]models.ActivityLog, error) {
	if _, err := s.Get(ctx, tc, id); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByEntity(ctx, tc.WorkshopID, models.ActivityEntityRepairOrder, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return entries, nil
}

// record appends an activity entry. Logging failures never fail the write
// they describe.
func (s *RepairOrderService) record(ctx context.Context, tc tenant.Context, entityType, entityID string, changes models.FieldChanges) {
	if len(changes) == 0 {
		return
	}
	userID := tc.UserID
	entry := &models.ActivityLog{
		WorkshopID: tc.WorkshopID,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     &userID,
		Changes:    changes,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activity log",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func diffRepairOrder(before, after models.RepairOrder) models.FieldChanges {
	changes := models.FieldChanges{}
	if before.VehicleID != after.VehicleID {
		changes["vehicle_id"] = models.FieldChange{Old: before.VehicleID, New: after.VehicleID}
	}
	if before.Status != after.Status {
		changes["status"] = models.FieldChange{Old: string(before.Status), New: string(after.Status)}
	}
	if before.ProblemDescription != after.ProblemDescription {
		changes["problem_description"] = models.FieldChange{Old: before.ProblemDescription, New: after.ProblemDescription}
	}
	if !timePtrEqual(before.StartedAt, after.StartedAt) {
		changes["started_at"] = models.FieldChange{Old: timePtrValue(before.StartedAt), New: timePtrValue(after.StartedAt)}
	}
	if !timePtrEqual(before.FinishedAt, after.FinishedAt) {
		changes["finished_at"] = models.FieldChange{Old: timePtrValue(before.FinishedAt), New: timePtrValue(after.FinishedAt)}
	}
	return changes
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func timePtrValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
