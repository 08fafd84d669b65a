package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelshift/fuelshift-backend/internal/station/domain"
	"github.com/fuelshift/fuelshift-backend/internal/station/service"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// StationHandler handles pump and fuel price endpoints
type StationHandler struct {
	service *service.StationService
	logger  *logger.Logger
}

// NewStationHandler creates a new station handler
func NewStationHandler(svc *service.StationService, log *logger.Logger) *StationHandler {
	return &StationHandler{
		service: svc,
		logger:  log,
	}
}

// ListPumps lists pumps; ?include_inactive=true is honoured for supervisors and managers
func (h *StationHandler) ListPumps(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	pumps, err := h.service.ListPumps(r.Context(), actor.FromContext(r.Context()), includeInactive)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pumps)
}

// CreatePump creates a pump
func (h *StationHandler) CreatePump(w http.ResponseWriter, r *http.Request) {
	var req service.PumpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	pump, err := h.service.CreatePump(r.Context(), actor.FromContext(r.Context()), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, pump)
}

// UpdatePump updates a pump
func (h *StationHandler) UpdatePump(w http.ResponseWriter, r *http.Request) {
	var req service.PumpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	pump, err := h.service.UpdatePump(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pump)
}

// ListPrices lists current fuel prices
func (h *StationHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.ListPrices(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, prices)
}

// SetPrice sets the price of the fuel type in the path
func (h *StationHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	var req service.SetPriceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	fuelType := domain.FuelType(chi.URLParam(r, "fuelType"))
	price, err := h.service.SetPrice(r.Context(), actor.FromContext(r.Context()), fuelType, &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, price)
}
