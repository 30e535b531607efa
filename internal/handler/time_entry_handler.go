package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/service"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/response"
)

// TimeEntryHandler handles labour records addressed by their own ID. Listing
// and creation live under the repair order routes.
type TimeEntryHandler struct {
	timeEntries *service.TimeEntryService
}

// NewTimeEntryHandler constructs a new TimeEntryHandler.
func NewTimeEntryHandler(timeEntries *service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{timeEntries: timeEntries}
}

// Update godoc
// @Summary Update a labour record
// @Tags Time Entries
// @Accept json
// @Produce json
// @Param id path string true "Time entry ID"
// @Param payload body service.UpdateTimeEntryRequest true "Time entry payload"
// @Success 200 {object} response.Envelope
// @Router /time-entries/{id} [put]
func (h *TimeEntryHandler) Update(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time entry payload"))
		return
	}
	entry, err := h.timeEntries.Update(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete a labour record
// @Tags Time Entries
// @Param id path string true "Time entry ID"
// @Success 204
// @Router /time-entries/{id} [delete]
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.timeEntries.Delete(c.Request.Context(), tc, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
