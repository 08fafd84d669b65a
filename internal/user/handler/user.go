package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelshift/fuelshift-backend/internal/user/domain"
	"github.com/fuelshift/fuelshift-backend/internal/user/service"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  log,
	}
}

// List lists users, optionally filtered by ?role, ?status and ?q
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httputil.QueryInt(r, "page", 1)
	perPage := httputil.QueryInt(r, "per_page", 50)
	if perPage > 100 {
		perPage = 50
	}

	params := domain.ListParams{
		Search:  r.URL.Query().Get("q"),
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("role"); v != "" {
		role := actor.Role(v)
		params.Role = &role
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.Status(v)
		params.Status = &status
	}

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, users, httputil.NewMeta(page, perPage, total))
}

// Get gets a user by ID
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Invite creates an invited account
func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req service.InviteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	resp, err := h.service.Invite(r.Context(), actor.FromContext(r.Context()), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, resp)
}

// AcceptInvite activates an invited account. It is the only public user route.
func (h *UserHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req service.AcceptInviteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	user, err := h.service.AcceptInvite(r.Context(), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Suspend suspends a user
func (h *UserHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Suspend(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Reactivate reactivates a suspended user
func (h *UserHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Reactivate(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// ChangeRole changes a user's role
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req service.ChangeRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	user, err := h.service.ChangeRole(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Delete soft-deletes a user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
