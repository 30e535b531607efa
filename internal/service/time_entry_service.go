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

type timeEntryRepository interface {
	ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.TimeEntryDetail, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.TimeEntry, error)
	Create(ctx context.Context, entry *models.TimeEntry) error
	Update(ctx context.Context, entry *models.TimeEntry) error
	Delete(ctx context.Context, id string) (bool, error)
}

type timeEntryOrderLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.RepairOrderDetail, error)
}

type timeEntryMechanicLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.Mechanic, error)
}

// CreateTimeEntryRequest books labour on a repair order.
type CreateTimeEntryRequest struct {
	MechanicID      string `json:"mechanic_id" validate:"required,uuid"`
	DurationMinutes *int   `json:"duration_minutes" validate:"required,gte=0"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
}

// UpdateTimeEntryRequest modifies a labour record.
type UpdateTimeEntryRequest struct {
	MechanicID      string `json:"mechanic_id" validate:"required,uuid"`
	DurationMinutes *int   `json:"duration_minutes" validate:"required,gte=0"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
}

// TimeEntryService handles labour records and their activity trail.
type TimeEntryService struct {
	repo      timeEntryRepository
	orders    timeEntryOrderLookup
	mechanics timeEntryMechanicLookup
	activity  activityAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeEntryService constructs the time entry service.
func NewTimeEntryService(repo timeEntryRepository, orders timeEntryOrderLookup, mechanics timeEntryMechanicLookup, activity activityAppender, validate *validator.Validate, logger *zap.Logger) *TimeEntryService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeEntryService{repo: repo, orders: orders, mechanics: mechanics, activity: activity, validator: validate, logger: logger}
}

// ListByRepairOrder returns labour records on an order, newest first.
func (s *TimeEntryService) ListByRepairOrder(ctx context.Context, tc tenant.Context, orderID string) ([]models.TimeEntryDetail, error) {
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByRepairOrder(ctx, tc.WorkshopID, orderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time entries")
	}
	return entries, nil
}

// Create books labour on an order. Both the order and the mechanic must
// resolve inside the workshop.
func (s *TimeEntryService) Create(ctx context.Context, tc tenant.Context, orderID string, req CreateTimeEntryRequest) (*models.TimeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	if err := s.checkMechanic(ctx, tc, req.MechanicID); err != nil {
		return nil, err
	}
	entry := &models.TimeEntry{
		WorkshopID:      tc.WorkshopID,
		RepairOrderID:   orderID,
		MechanicID:      req.MechanicID,
		DurationMinutes: *req.DurationMinutes,
		Description:     req.Description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time entry")
	}
	s.record(ctx, tc, entry.ID, models.FieldChanges{
		"duration_minutes": {Old: nil, New: entry.DurationMinutes},
		"mechanic_id":      {Old: nil, New: entry.MechanicID},
	})
	return entry, nil
}

// Update modifies a labour record and records the dirty-field diff.
func (s *TimeEntryService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateTimeEntryRequest) (*models.TimeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	entry, err := s.get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	if req.MechanicID != entry.MechanicID {
		if err := s.checkMechanic(ctx, tc, req.MechanicID); err != nil {
			return nil, err
		}
	}

	changes := models.FieldChanges{}
	if entry.MechanicID != req.MechanicID {
		changes["mechanic_id"] = models.FieldChange{Old: entry.MechanicID, New: req.MechanicID}
	}
	if entry.DurationMinutes != *req.DurationMinutes {
		changes["duration_minutes"] = models.FieldChange{Old: entry.DurationMinutes, New: *req.DurationMinutes}
	}
	if entry.Description != req.Description {
		changes["description"] = models.FieldChange{Old: entry.Description, New: req.Description}
	}

	entry.MechanicID = req.MechanicID
	entry.DurationMinutes = *req.DurationMinutes
	entry.Description = req.Description
	if err := s.repo.Update(ctx, entry); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time entry")
	}
	s.record(ctx, tc, entry.ID, changes)
	return entry, nil
}

// Delete removes a labour record. Ownership is re-verified before the hard
// delete because the delete statement itself is unscoped.
func (s *TimeEntryService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if _, err := s.get(ctx, tc, id); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time entry")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "time entry not found")
	}
	return nil
}

func (s *TimeEntryService) get(ctx context.Context, tc tenant.Context, id string) (*models.TimeEntry, error) {
	entry, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time entry")
	}
	return entry, nil
}

func (s *TimeEntryService) checkOrder(ctx context.Context, tc tenant.Context, orderID string) error {
	if _, err := s.orders.FindByID(ctx, tc.WorkshopID, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}
	return nil
}

func (s *TimeEntryService) checkMechanic(ctx context.Context, tc tenant.Context, mechanicID string) error {
	if _, err := s.mechanics.FindByID(ctx, tc.WorkshopID, mechanicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.FieldValidation("mechanic_id", validation.InvalidChoice("mechanic_id"))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mechanic")
	}
	return nil
}

func (s *TimeEntryService) record(ctx context.Context, tc tenant.Context, entryID string, changes models.FieldChanges) {
	if len(changes) == 0 {
		return
	}
	userID := tc.UserID
	entry := &models.ActivityLog{
		WorkshopID: tc.WorkshopID,
		EntityType: models.ActivityEntityTimeEntry,
		EntityID:   entryID,
		UserID:     &userID,
		Changes:    changes,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activity log",
			zap.String("entity_type", models.ActivityEntityTimeEntry),
			zap.String("entity_id", entryID),
			zap.Error(err))
	}
}
