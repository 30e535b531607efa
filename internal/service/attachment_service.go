package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/storage"
)

type attachmentRepository interface {
	ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.Attachment, error)
	FindByID(ctx context.Context, workshopID, id string) (*models.Attachment, error)
	Create(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, workshopID, id string) (bool, error)
}

const msgAttachmentTooLarge = "Plik jest zbyt duży."

// AttachmentService stores repair-order files on disk and hands out signed
// download tokens instead of raw paths.
type AttachmentService struct {
	repo    attachmentRepository
	orders  timeEntryOrderLookup
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	maxSize int64
	logger  *zap.Logger
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(repo attachmentRepository, orders timeEntryOrderLookup, store *storage.LocalStorage, signer *storage.SignedURLSigner, maxSize int64, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{repo: repo, orders: orders, store: store, signer: signer, maxSize: maxSize, logger: logger}
}

// ListByRepairOrder returns attachment references with fresh signed URLs.
func (s *AttachmentService) ListByRepairOrder(ctx context.Context, tc tenant.Context, orderID string) ([]models.Attachment, error) {
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListByRepairOrder(ctx, tc.WorkshopID, orderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	for i := range attachments {
		s.sign(&attachments[i])
	}
	return attachments, nil
}

// Upload stores the file body and records the reference. size comes from the
// multipart header and is re-checked against the configured limit.
func (s *AttachmentService) Upload(ctx context.Context, tc tenant.Context, orderID, filename string, size int64, body io.Reader) (*models.Attachment, error) {
	if err := s.checkOrder(ctx, tc, orderID); err != nil {
		return nil, err
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, appErrors.FieldValidation("file", msgAttachmentTooLarge)
	}

	id := uuid.NewString()
	relPath := filepath.Join(tc.WorkshopID, orderID, id+"_"+filepath.Base(filename))
	if _, err := s.store.SaveStream(relPath, body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}

	attachment := &models.Attachment{
		ID:            id,
		WorkshopID:    tc.WorkshopID,
		RepairOrderID: orderID,
		Name:          filepath.Base(filename),
		Path:          relPath,
		SizeBytes:     size,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if cleanupErr := s.store.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned attachment file", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attachment")
	}
	s.sign(attachment)
	return attachment, nil
}

// Open resolves a signed token to a readable file. The token is the only
// credential; no session is required on the download path.
func (s *AttachmentService) Open(ctx context.Context, token string) (*os.File, *models.Attachment, error) {
	attachmentID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	return file, &models.Attachment{ID: attachmentID, Path: relPath, Name: filepath.Base(relPath)}, nil
}

// Delete removes the reference and the stored file.
func (s *AttachmentService) Delete(ctx context.Context, tc tenant.Context, id string) error {
	attachment, err := s.repo.FindByID(ctx, tc.WorkshopID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	deleted, err := s.repo.Delete(ctx, tc.WorkshopID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	if err := s.store.Delete(attachment.Path); err != nil {
		s.logger.Warn("failed to remove attachment file", zap.String("path", attachment.Path), zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) checkOrder(ctx context.Context, tc tenant.Context, orderID string) error {
	if _, err := s.orders.FindByID(ctx, tc.WorkshopID, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "repair order not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load repair order")
	}
	return nil
}

func (s *AttachmentService) sign(attachment *models.Attachment) {
	token, _, err := s.signer.Generate(attachment.ID, attachment.Path)
	if err != nil {
		s.logger.Warn("failed to sign attachment url", zap.String("attachment_id", attachment.ID), zap.Error(err))
		return
	}
	attachment.URL = fmt.Sprintf("/api/v1/attachments/download?token=%s", token)
}
