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

// RepairOrderHandler wires the repair order lifecycle to HTTP routes,
// including nested time entries, notes and attachments.
type RepairOrderHandler struct {
	orders      *service.RepairOrderService
	timeEntries *service.TimeEntryService
	notes       *service.InternalNoteService
	attachments *service.AttachmentService
}

// NewRepairOrderHandler constructs a new RepairOrderHandler.
func NewRepairOrderHandler(orders *service.RepairOrderService, timeEntries *service.TimeEntryService, notes *service.InternalNoteService, attachments *service.AttachmentService) *RepairOrderHandler {
	return &RepairOrderHandler{
		orders:      orders,
		timeEntries: timeEntries,
		notes:       notes,
		attachments: attachments,
	}
}

func repairOrderFilter(c *gin.Context) models.RepairOrderFilter {
	filter := models.RepairOrderFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		VehicleID: c.Query("vehicle_id"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.RepairOrderStatus(raw)
		filter.Status = &status
	}
	return filter
}

// List godoc
// @Summary List repair orders
// @Tags Repair Orders
// @Produce json
// @Param search query string false "Search by description/vehicle/client"
// @Param status query string false "Filter by status"
// @Param vehicle_id query string false "Filter by vehicle"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (status,started_at,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /repair-orders [get]
func (h *RepairOrderHandler) List(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	orders, pagination, err := h.orders.List(c.Request.Context(), tc, repairOrderFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination, appliedFilters(c, "search", "status", "vehicle_id", "sort", "order"))
}

// ListWorkboard godoc
// @Summary List open repair orders for the workshop floor
// @Tags Repair Orders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /repair-orders/workboard [get]
func (h *RepairOrderHandler) ListWorkboard(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	orders, pagination, err := h.orders.ListOpenForMechanics(c.Request.Context(), tc, repairOrderFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// Get godoc
// @Summary Get repair order detail
// @Tags Repair Orders
// @Produce json
// @Param id path string true "Repair order ID"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id} [get]
func (h *RepairOrderHandler) Get(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	order, err := h.orders.Get(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if order.TimeEntries, err = h.timeEntries.ListByRepairOrder(c.Request.Context(), tc, order.ID); err != nil {
		response.Error(c, err)
		return
	}
	if order.Notes, err = h.notes.ListByRepairOrder(c.Request.Context(), tc, order.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Create godoc
// @Summary Open a repair order
// @Tags Repair Orders
// @Accept json
// @Produce json
// @Param payload body service.CreateRepairOrderRequest true "Repair order payload"
// @Success 201 {object} response.Envelope
// @Router /repair-orders [post]
func (h *RepairOrderHandler) Create(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid repair order payload"))
		return
	}
	order, err := h.orders.Create(c.Request.Context(), tc, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// Update godoc
// @Summary Update repair order
// @Tags Repair Orders
// @Accept json
// @Produce json
// @Param id path string true "Repair order ID"
// @Param payload body service.UpdateRepairOrderRequest true "Repair order payload"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id} [put]
func (h *RepairOrderHandler) Update(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid repair order payload"))
		return
	}
	order, err := h.orders.Update(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// UpdateStatus godoc
// @Summary Change repair order status
// @Tags Repair Orders
// @Accept json
// @Produce json
// @Param id path string true "Repair order ID"
// @Param payload body service.UpdateRepairOrderStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id}/status [patch]
func (h *RepairOrderHandler) UpdateStatus(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateRepairOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Delete godoc
// @Summary Delete repair order
// @Tags Repair Orders
// @Param id path string true "Repair order ID"
// @Success 204
// @Router /repair-orders/{id} [delete]
func (h *RepairOrderHandler) Delete(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.orders.Delete(c.Request.Context(), tc, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activity godoc
// @Summary List repair order change history
// @Tags Repair Orders
// @Produce json
// @Param id path string true "Repair order ID"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id}/activity [get]
func (h *RepairOrderHandler) Activity(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.orders.Activity(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListTimeEntries godoc
// @Summary List labour on a repair order
// @Tags Time Entries
// @Produce json
// @Param id path string true "Repair order ID"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id}/time-entries [get]
func (h *RepairOrderHandler) ListTimeEntries(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.timeEntries.ListByRepairOrder(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// CreateTimeEntry godoc
// @Summary Book labour on a repair order
// @Tags Time Entries
// @Accept json
// @Produce json
// @Param id path string true "Repair order ID"
// @Param payload body service.CreateTimeEntryRequest true "Time entry payload"
// @Success 201 {object} response.Envelope
// @Router /repair-orders/{id}/time-entries [post]
func (h *RepairOrderHandler) CreateTimeEntry(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time entry payload"))
		return
	}
	entry, err := h.timeEntries.Create(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListNotes godoc
// @Summary List internal notes on a repair order
// @Tags Internal Notes
// @Produce json
// @Param id path string true "Repair order ID"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id}/notes [get]
func (h *RepairOrderHandler) ListNotes(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notes, err := h.notes.ListByRepairOrder(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// CreateNote godoc
// @Summary Attach an internal note to a repair order
// @Tags Internal Notes
// @Accept json
// @Produce json
// @Param id path string true "Repair order ID"
// @Param payload body service.CreateInternalNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Router /repair-orders/{id}/notes [post]
func (h *RepairOrderHandler) CreateNote(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateInternalNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	note, err := h.notes.Create(c.Request.Context(), tc, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// ListAttachments godoc
// @Summary List attachments on a repair order
// @Tags Attachments
// @Produce json
// @Param id path string true "Repair order ID"
// @Success 200 {object} response.Envelope
// @Router /repair-orders/{id}/attachments [get]
func (h *RepairOrderHandler) ListAttachments(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	attachments, err := h.attachments.ListByRepairOrder(c.Request.Context(), tc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}

// UploadAttachment godoc
// @Summary Upload an attachment to a repair order
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Repair order ID"
// @Param file formData file true "Attachment file"
// @Success 201 {object} response.Envelope
// @Router /repair-orders/{id}/attachments [post]
func (h *RepairOrderHandler) UploadAttachment(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing attachment file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment"))
		return
	}
	defer file.Close() //nolint:errcheck

	attachment, err := h.attachments.Upload(c.Request.Context(), tc, c.Param("id"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}
