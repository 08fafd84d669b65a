package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	"github.com/fuelshift/fuelshift-backend/internal/alert/realtime"
	"github.com/fuelshift/fuelshift-backend/internal/alert/service"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	service *service.AlertService
	hub     *realtime.Hub
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(svc *service.AlertService, hub *realtime.Hub, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		service: svc,
		hub:     hub,
		logger:  log,
	}
}

// List lists the caller's alerts; ?unread=true limits to unread ones
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httputil.QueryInt(r, "page", 1)
	perPage := httputil.QueryInt(r, "per_page", 50)
	if perPage > 100 {
		perPage = 50
	}

	alerts, total, err := h.service.ListForUser(r.Context(), actor.FromContext(r.Context()), domain.ListParams{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, alerts, httputil.NewMeta(page, perPage, total))
}

// UnreadCount returns the caller's unread alert count
func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.UnreadCount(r.Context(), actor.FromContext(r.Context()))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// Create raises a manual alert to a user or a role
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewAlert
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	req.Kind = domain.KindManual

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.Info().
		Str("created_by", actor.FromContext(r.Context()).ID).
		Int("recipients", len(created)).
		Msg("manual alert sent")

	httputil.Created(w, created)
}

// MarkRead marks one alert as read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// MarkAllRead marks all the caller's alerts as read
func (h *AlertHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllRead(r.Context(), actor.FromContext(r.Context()))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}

// Stream upgrades to a websocket that pushes the caller's new alerts
func (h *AlertHandler) Stream(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if err := h.hub.ServeWS(w, r, a); err != nil {
		// the upgrader has already written the response
		h.logger.Debug().Err(err).Str("user_id", a.ID).Msg("websocket upgrade failed")
	}
}
