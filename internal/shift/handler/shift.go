package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/internal/shift/draft"
	"github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	"github.com/fuelshift/fuelshift-backend/internal/shift/service"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// ShiftHandler handles shift submission and review endpoints
type ShiftHandler struct {
	service *service.ShiftService
	drafts  *draft.Store
	logger  *logger.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(svc *service.ShiftService, drafts *draft.Store, log *logger.Logger) *ShiftHandler {
	return &ShiftHandler{
		service: svc,
		drafts:  drafts,
		logger:  log,
	}
}

// ============================================================================
// ATTENDANT
// ============================================================================

// Submit handles POST /shifts
func (h *ShiftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitShiftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	view, err := h.service.Submit(r.Context(), actor.FromContext(r.Context()), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, view)
}

// Resubmit handles PUT /shifts/{id}/resubmit
func (h *ShiftHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	var req service.ResubmitShiftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	view, err := h.service.Resubmit(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// ListMine handles GET /shifts/mine
func (h *ShiftHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	page, perPage := Pagination(r)

	views, total, err := h.service.ListMine(r.Context(), actor.FromContext(r.Context()), repository.ShiftListParams{
		ShiftFilter: filter,
		Page:        page,
		PerPage:     perPage,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, views, httputil.NewMeta(page, perPage, total))
}

// ============================================================================
// DRAFTS
// ============================================================================

// GetDraft handles GET /shifts/draft
func (h *ShiftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())

	d, found, err := h.drafts.Load(r.Context(), a.ID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if !found {
		httputil.ErrorLocalized(w, r, errors.NotFound("draft"))
		return
	}

	httputil.JSON(w, http.StatusOK, d)
}

// SaveDraft handles PUT /shifts/draft
func (h *ShiftHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var d draft.Draft
	if err := httputil.DecodeJSON(r, &d); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := d.Check(); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := h.drafts.Save(r.Context(), actor.FromContext(r.Context()).ID, &d); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, d)
}

// DeleteDraft handles DELETE /shifts/draft
func (h *ShiftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Delete(r.Context(), actor.FromContext(r.Context()).ID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ============================================================================
// REVIEW
// ============================================================================

// Review handles GET /shifts/review?date=YYYY-MM-DD&shift_type=
func (h *ShiftHandler) Review(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{"date": "date is required"}))
		return
	}

	var shiftType *domain.ShiftType
	if v := r.URL.Query().Get("shift_type"); v != "" {
		t := domain.ShiftType(v)
		shiftType = &t
	}

	categorized, err := h.service.ListForDate(r.Context(), date, shiftType)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, categorized)
}

// Approve handles POST /shifts/{id}/approve
func (h *ShiftHandler) Approve(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Approve(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// RequestFix handles POST /shifts/{id}/request-fix
func (h *ShiftHandler) RequestFix(w http.ResponseWriter, r *http.Request) {
	var req service.RequestFixRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	view, err := h.service.RequestFix(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// ============================================================================
// SHARED
// ============================================================================

// Get handles GET /shifts/{id}
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// List handles GET /shifts
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	page, perPage := Pagination(r)

	views, total, err := h.service.List(r.Context(), repository.ShiftListParams{
		ShiftFilter: filter,
		Page:        page,
		PerPage:     perPage,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, views, httputil.NewMeta(page, perPage, total))
}
