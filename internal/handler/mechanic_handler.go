package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/service"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/response"
)

// MechanicHandler wires mechanic services to HTTP routes.
type MechanicHandler struct {
	mechanics *service.MechanicService
}

// NewMechanicHandler constructs a new MechanicHandler.
func NewMechanicHandler(mechanics *service.MechanicService) *MechanicHandler {
	return &MechanicHandler{mechanics: mechanics}
}

// List godoc
// @Summary List mechanics
// @Tags Mechanics
// @Produce json
// @Param search query string false "Search by name"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (last_name,first_name,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /mechanics [get]
func (h *MechanicHandler) List(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.MechanicFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Active:    queryBool(c, "active"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}

	mechanics, pagination, err := h.mechanics.List(c.Request.Context(), tc, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mechanics, pagination, appliedFilters(c, "search", "active", "sort", "order"))
}

// Get godoc
// @Summary Get mechanic detail
// @Tags Mechanics
// @Produce json
// @Param id path string true "Mechanic ID"
// @Success 200 {object} response.Envelope
// @Router /mechanics/{id} [get]
func (h *MechanicHandler) Get(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	mechanic, err := h.mechanics.Get(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mechanic, nil)
}

// Create godoc
// @Summary Create mechanic
// @Tags Mechanics
// @Accept json
// @Produce json
// @Param payload body service.CreateMechanicRequest true "Mechanic payload"
// @Success 201 {object} response.Envelope
// @Router /mechanics [post]
func (h *MechanicHandler) Create(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mechanic payload"))
		return
	}
	mechanic, err := h.mechanics.Create(c.Request.Context(), tc, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mechanic)
}

// Update godoc
// @Summary Update mechanic
// @Tags Mechanics
// @Accept json
// @Produce json
// @Param id path string true "Mechanic ID"
// @Param payload body service.UpdateMechanicRequest true "Mechanic payload"
// @Success 200 {object} response.Envelope
// @Router /mechanics/{id} [put]
func (h *MechanicHandler) Update(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mechanic payload"))
		return
	}
	mechanic, err := h.mechanics.Update(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mechanic, nil)
}

// Delete godoc
// @Summary Delete mechanic
// @Tags Mechanics
// @Param id path string true "Mechanic ID"
// @Success 204
// @Router /mechanics/{id} [delete]
func (h *MechanicHandler) Delete(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.mechanics.Delete(c.Request.Context(), tc, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
