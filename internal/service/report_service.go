package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	"github.com/motoserwis/warsztat-api/pkg/config"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/export"
)

type reportRepository interface {
	Totals(ctx context.Context, workshopID string, filter models.ReportFilter) (totalMinutes, ordersCount int, err error)
	MechanicBreakdown(ctx context.Context, workshopID string, filter models.ReportFilter) ([]models.MechanicReportRow, error)
}

// ReportService aggregates labour time. Results are cached per filter in
// Redis because the aggregation joins three tables on every call.
type ReportService struct {
	repo    reportRepository
	cache   *redis.Client
	cfg     config.ReportsConfig
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportService constructs the report service. A nil Redis client disables
// caching entirely; a nil metrics service disables cache instrumentation.
func NewReportService(repo reportRepository, cache *redis.Client, cfg config.ReportsConfig, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:    repo,
		cache:   cache,
		cfg:     cfg,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
	}
}

// TimeReport aggregates labour minutes for the workshop, optionally scoped to
// one mechanic and a date window.
func (s *ReportService) TimeReport(ctx context.Context, tc tenant.Context, filter models.ReportFilter) (*models.TimeReport, error) {
	if cached := s.fromCache(ctx, tc, filter); cached != nil {
		return cached, nil
	}

	started := time.Now()
	totalMinutes, ordersCount, err := s.repo.Totals(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate report")
	}
	s.metrics.ObserveDBQuery("report_totals", time.Since(started))

	started = time.Now()
	breakdown, err := s.repo.MechanicBreakdown(ctx, tc.WorkshopID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate report")
	}
	s.metrics.ObserveDBQuery("report_breakdown", time.Since(started))

	report := &models.TimeReport{
		TotalMinutes: totalMinutes,
		TotalHours:   models.RoundHours(totalMinutes),
		OrdersCount:  ordersCount,
		Mechanics:    breakdown,
		GeneratedAt:  time.Now().UTC(),
	}
	if ordersCount > 0 {
		report.AverageMinutesPerOrder = math.Round(float64(totalMinutes)/float64(ordersCount)*100) / 100
	}

	s.toCache(ctx, tc, filter, report)
	return report, nil
}

// ExportCSV renders the per-mechanic breakdown as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, tc tenant.Context, filter models.ReportFilter) ([]byte, error) {
	report, err := s.TimeReport(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ExportPDF renders the per-mechanic breakdown as a tabular PDF.
func (s *ReportService) ExportPDF(ctx context.Context, tc tenant.Context, filter models.ReportFilter) ([]byte, error) {
	report, err := s.TimeReport(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(reportDataset(report), "Raport czasu pracy")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

func reportDataset(report *models.TimeReport) export.Dataset {
	headers := []string{"Mechanik", "Minuty", "Godziny", "Zlecenia"}
	rows := make([]map[string]string, 0, len(report.Mechanics)+1)
	for _, row := range report.Mechanics {
		rows = append(rows, map[string]string{
			"Mechanik": row.LastName + " " + row.FirstName,
			"Minuty":   strconv.Itoa(row.TotalMinutes),
			"Godziny":  strconv.FormatFloat(row.TotalHours, 'f', 2, 64),
			"Zlecenia": strconv.Itoa(row.OrdersCount),
		})
	}
	rows = append(rows, map[string]string{
		"Mechanik": "Razem",
		"Minuty":   strconv.Itoa(report.TotalMinutes),
		"Godziny":  strconv.FormatFloat(report.TotalHours, 'f', 2, 64),
		"Zlecenia": strconv.Itoa(report.OrdersCount),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ReportService) cacheKey(tc tenant.Context, filter models.ReportFilter) string {
	start, end := "", ""
	if filter.StartDate != nil {
		start = filter.StartDate.UTC().Format(time.RFC3339)
	}
	if filter.EndDate != nil {
		end = filter.EndDate.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("reports:time:%s:%s:%s:%s", tc.WorkshopID, filter.MechanicID, start, end)
}

func (s *ReportService) fromCache(ctx context.Context, tc tenant.Context, filter models.ReportFilter) *models.TimeReport {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(tc, filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("report cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
		return nil
	}
	var report models.TimeReport
	if err := json.Unmarshal(raw, &report); err != nil {
		s.metrics.RecordCacheOperation(false)
		return nil
	}
	s.metrics.RecordCacheOperation(true)
	return &report
}

func (s *ReportService) toCache(ctx context.Context, tc tenant.Context, filter models.ReportFilter, report *models.TimeReport) {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(tc, filter), raw, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
}
