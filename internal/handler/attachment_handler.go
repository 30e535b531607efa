package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/service"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/response"
)

// AttachmentHandler handles attachment downloads and deletes. The download
// route is public; the signed token is the credential.
type AttachmentHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentHandler constructs a new AttachmentHandler.
func NewAttachmentHandler(attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Download godoc
// @Summary Download an attachment by signed token
// @Tags Attachments
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /attachments/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attachment not found"))
		return
	}
	file, attachment, err := h.attachments.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename="+attachment.Name)
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, attachment.Name, attachment.CreatedAt, file)
}

// Delete godoc
// @Summary Delete an attachment
// @Tags Attachments
// @Param id path string true "Attachment ID"
// @Success 204
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), tc, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
