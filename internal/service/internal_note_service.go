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

type internalNoteRepository interface {
	ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.InternalNoteDetail, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.InternalNote, error)
	Create(ctx context.Context, note *models.InternalNote) error
	Update(ctx context.Context, note *models.InternalNote) error
	Delete(ctx context.Context, workshopID, id string) (bool, error)
}

type noteUserLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.User, error)
}

type noteMechanicLookup interface {
	FindByID(ctx context.Context, workshopID, id string) (*models.Mechanic, error)
}

// CreateInternalNoteRequest attaches a note to a repair order. The author is
// a {type, id} pair resolved against users or mechanics.
type CreateInternalNoteRequest struct {
	AuthorType string `json:"author_type" validate:"required"`
	AuthorID   string `json:"author_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,max=5000"`
}

// UpdateInternalNoteRequest replaces a note's content. Authorship never
// changes after creation.
type UpdateInternalNoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// InternalNoteService handles repair-order notes. Editing and deleting are
// gated by role alone; the original author has no special standing.
type InternalNoteService struct {
	repo      internalNoteRepository
	orders    timeEntryOrderLookup
	users     noteUserLookup
	mechanics noteMechanicLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInternalNoteService constructs the internal note service.
func NewInternalNoteService(repo internalNoteRepository, orders timeEntryOrderLookup, users noteUserLookup, mechanics noteMechanicLookup, validate *validator.Validate, logger *zap.Logger) *InternalNoteService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternalNoteService{repo: repo, orders: orders, users: users, mechanics: mechanics, validator: validate, logger: logger}
}

// ListByRepairOrder returns notes on an order with resolved author names.
func (s *InternalNoteService) ListByRepairOrder(ctx context.Context, tc tenant.Context, orderID string) ([]models.InternalNoteDetail, error) {
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListByRepairOrder(ctx, tc.WorkshopID, orderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list internal notes")
	}
	return notes, nil
}

// Create attaches a note to an order after resolving the author reference in
// the table its type points at.
func (s *InternalNoteService) Create(ctx context.Context, tc tenant.Context, orderID string, req CreateInternalNoteRequest) (*models.InternalNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	authorType := models.NoteAuthorType(req.AuthorType)
	if !authorType.Valid() {
		return nil, appErrors.FieldValidation("author_type", validation.InvalidChoice("author_type"))
	}
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	if err := s.checkAuthor(ctx, tc, authorType, req.AuthorID); err != nil {
		return nil, err
	}
	note := &models.InternalNote{
		WorkshopID:    tc.WorkshopID,
		RepairOrderID: orderID,
		AuthorType:    authorType,
		AuthorID:      req.AuthorID,
		Content:       req.Content,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		if verr := constraintViolation(err); verr != nil {
			return nil, verr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create internal note")
	}
	return note, nil
}

// Update replaces the note content.
func (s *InternalNoteService) Update(ctx context.Context, tc tenant.Context, id string, req UpdateInternalNoteRequest) (*models.InternalNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	note, err := s.get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	note.Content = req.Content
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internal note")
	}
	return note, nil
}

// Delete hard-deletes a note.
func (s *InternalNoteService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete internal note")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "internal note not found")
	}
	return nil
}

func (s *InternalNoteService) get(ctx context.Context, tc tenant.Context, id string) (*models.InternalNote, error) {
	note, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internal note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internal note")
	}
	return note, nil
}

func (s *InternalNoteService) checkOrder(ctx context.Context, tc tenant.Context, orderID string) error {
	if _, err := s.orders.FindByID(ctx, tc.WorkshopID, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}
	return nil
}

// checkAuthor resolves the author in the users or mechanics table, depending
// on the declared type.
func (s *InternalNoteService) checkAuthor(ctx context.Context, tc tenant.Context, authorType models.NoteAuthorType, authorID string) error {
	var err error
	switch authorType {
	case models.NoteAuthorUser:
		_, err = s.users.FindByID(ctx, tc.WorkshopID, authorID)
	case models.NoteAuthorMechanic:
		_, err = s.mechanics.FindByID(ctx, tc.WorkshopID, authorID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.FieldValidation("author_id", validation.InvalidChoice("author_id"))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note author")
	}
	return nil
}
