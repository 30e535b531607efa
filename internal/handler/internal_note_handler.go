package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/service"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/response"
)

// InternalNoteHandler handles notes addressed by their own ID. Listing and
// creation live under the repair order routes.
type InternalNoteHandler struct {
	notes *service.InternalNoteService
}

// NewInternalNoteHandler constructs a new InternalNoteHandler.
func NewInternalNoteHandler(notes *service.InternalNoteService) *InternalNoteHandler {
	return &InternalNoteHandler{notes: notes}
}

// Update godoc
// @Summary Update an internal note
// @Tags Internal Notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body service.UpdateInternalNoteRequest true "Note payload"
// @Success 200 {object} response.Envelope
// @Router /notes/{id} [put]
func (h *InternalNoteHandler) Update(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateInternalNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	note, err := h.notes.Update(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Delete godoc
// @Summary Delete an internal note
// @Tags Internal Notes
// @Param id path string true "Note ID"
// @Success 204
// @Router /notes/{id} [delete]
func (h *InternalNoteHandler) Delete(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notes.Delete(c.Request.Context(), tc, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
