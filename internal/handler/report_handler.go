package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/service"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/response"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

// ReportHandler wires time reporting to HTTP routes.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs a new ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportFilter(c *gin.Context) models.ReportFilter {
	return models.ReportFilter{
		MechanicID: c.Query("mechanic_id"),
		StartDate:  queryDate(c, "start_date", false),
		EndDate:    queryDate(c, "end_date", true),
	}
}

// TimeReport godoc
// @Summary Aggregate labour time
// @Tags Reports
// @Produce json
// @Param mechanic_id query string false "Scope to one mechanic"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/time [get]
func (h *ReportHandler) TimeReport(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.reports.TimeReport(c.Request.Context(), tc, reportFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export the time report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param mechanic_id query string false "Scope to one mechanic"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /reports/time/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	tc, ok := tenantFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := reportFilter(c)
	filename := fmt.Sprintf("raport-czasu-%s", time.Now().UTC().Format("2006-01-02"))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.reports.ExportCSV(c.Request.Context(), tc, filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.reports.ExportPDF(c.Request.Context(), tc, filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.FieldValidation("format", validation.InvalidChoice("format")))
	}
}
