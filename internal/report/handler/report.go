package handler

import (
	"context"
	"net/http"

	"github.com/fuelshift/fuelshift-backend/internal/report/service"
	shifthandler "github.com/fuelshift/fuelshift-backend/internal/shift/handler"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// ReportHandler handles manager analytics endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// Summary handles GET /reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, err := shifthandler.ParseFilter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Attendants handles GET /reports/attendants
func (h *ReportHandler) Attendants(w http.ResponseWriter, r *http.Request) {
	filter, err := shifthandler.ParseFilter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	ranked, err := h.service.AttendantPerformance(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ranked)
}

// ExportXLSX handles GET /reports/export.xlsx
func (h *ReportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.ExportXLSX)
}

// ExportPDF handles GET /reports/export.pdf
func (h *ReportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.ExportPDF)
}

func (h *ReportHandler) export(w http.ResponseWriter, r *http.Request, render func(ctx context.Context, f repository.ShiftFilter) (*service.File, error)) {
	filter, err := shifthandler.ParseFilter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	file, err := render(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Attachment(w, file.ContentType, file.Name, file.Body)
}
