package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fuelshift/fuelshift-backend/internal/report/domain"
	"github.com/fuelshift/fuelshift-backend/internal/report/export"
	shift "github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// MaxReportShifts bounds the number of shifts a single report or export
// may load
const MaxReportShifts = 10000

// File is a rendered export
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// ReportService computes manager analytics over filtered shifts
type ReportService struct {
	shiftRepo *repository.ShiftRepository
	threshold decimal.Decimal
	now       func() time.Time
	logger    *logger.Logger
}

// NewReportService creates a new report service. threshold is the critical
// variance percentage.
func NewReportService(shiftRepo *repository.ShiftRepository, threshold decimal.Decimal, log *logger.Logger) *ReportService {
	return &ReportService{
		shiftRepo: shiftRepo,
		threshold: threshold,
		now:       time.Now,
		logger:    log,
	}
}

// SetClock overrides the clock stamped on generated reports
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// Summary totals every shift matching filter
func (s *ReportService) Summary(ctx context.Context, filter repository.ShiftFilter) (*domain.Summary, error) {
	views, err := s.views(ctx, filter)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(views)
	return &summary, nil
}

// AttendantPerformance ranks attendants over the shifts matching filter
func (s *ReportService) AttendantPerformance(ctx context.Context, filter repository.ShiftFilter) ([]*domain.AttendantStats, error) {
	views, err := s.views(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.RankAttendants(views), nil
}

// ExportXLSX renders the report for filter as a workbook
func (s *ReportService) ExportXLSX(ctx context.Context, filter repository.ShiftFilter) (*File, error) {
	r, err := s.build(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := export.XLSX(r)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to render xlsx report")
		return nil, errors.Internal("failed to render report")
	}

	s.logger.Info().Int("shifts", len(r.Shifts)).Str("period", r.Period).Msg("xlsx report exported")
	return &File{Name: fileName(r.GeneratedAt, "xlsx"), ContentType: export.XLSXContentType, Body: body}, nil
}

// ExportPDF renders the report for filter as a PDF document
func (s *ReportService) ExportPDF(ctx context.Context, filter repository.ShiftFilter) (*File, error) {
	r, err := s.build(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := export.PDF(r)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to render pdf report")
		return nil, errors.Internal("failed to render report")
	}

	s.logger.Info().Int("shifts", len(r.Shifts)).Str("period", r.Period).Msg("pdf report exported")
	return &File{Name: fileName(r.GeneratedAt, "pdf"), ContentType: export.PDFContentType, Body: body}, nil
}

func (s *ReportService) build(ctx context.Context, filter repository.ShiftFilter) (*domain.Report, error) {
	views, err := s.views(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.Build(views, Period(filter), s.now()), nil
}

func (s *ReportService) views(ctx context.Context, filter repository.ShiftFilter) ([]*shift.ShiftView, error) {
	total, err := s.shiftRepo.CountAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if total > MaxReportShifts {
		s.logger.Warn().Int64("shifts", total).Str("period", Period(filter)).Msg("report refused, too many shifts")
		return nil, errors.BadRequest("too many shifts in this report, narrow the date range")
	}

	shifts, err := s.shiftRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]*shift.ShiftView, len(shifts))
	for i, sh := range shifts {
		views[i] = shift.NewView(sh, s.threshold)
	}
	return views, nil
}

// Period describes the date range of filter
func Period(filter repository.ShiftFilter) string {
	switch {
	case filter.StartDate != nil && filter.EndDate != nil:
		if *filter.StartDate == *filter.EndDate {
			return *filter.StartDate
		}
		return *filter.StartDate + " to " + *filter.EndDate
	case filter.StartDate != nil:
		return "from " + *filter.StartDate
	case filter.EndDate != nil:
		return "until " + *filter.EndDate
	default:
		return "all dates"
	}
}

func fileName(generated time.Time, ext string) string {
	return "shift-report-" + generated.UTC().Format("20060102-1504") + "." + ext
}
