package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/fuelshift/fuelshift-backend/internal/user/events"
	"github.com/fuelshift/fuelshift-backend/internal/user/handler"
	"github.com/fuelshift/fuelshift-backend/internal/user/repository"
	"github.com/fuelshift/fuelshift-backend/internal/user/service"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

const (
	managerID   = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	attendantID = "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b"
)

type nopRevoker struct{}

func (nopRevoker) RevokeAllForUser(context.Context, string) error { return nil }

func setup(t *testing.T) (*testutil.MockDB, http.Handler) {
	mockDB := testutil.NewMockDB(t)
	svc := service.NewUserService(
		repository.NewUserRepository(mockDB.DB),
		nopRevoker{},
		events.NewUserEventPublisher(testutil.NewMockPublisher(), logger.Nop()),
		time.Hour, bcrypt.MinCost, logger.Nop(),
	)
	h := handler.NewUserHandler(svc, logger.Nop())

	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Post("/users/invite", h.Invite)
	r.Post("/users/accept-invite", h.AcceptInvite)
	r.Get("/users/{id}", h.Get)
	r.Post("/users/{id}/suspend", h.Suspend)
	r.Patch("/users/{id}/role", h.ChangeRole)
	r.Delete("/users/{id}", h.Delete)
	return mockDB, r
}

func TestInvite_ValidationError(t *testing.T) {
	_, router := setup(t)

	req := testutil.WithActor(testutil.NewHTTPRequest(http.MethodPost, "/users/invite", map[string]string{
		"username": "a", "full_name": "", "role": "owner",
	}), testutil.Manager(managerID))
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "VALIDATION_ERROR")
	testutil.AssertBodyContains(t, rr, "role")
}

func TestAcceptInvite_ShortPassword(t *testing.T) {
	_, router := setup(t)

	req := testutil.NewHTTPRequest(http.MethodPost, "/users/accept-invite", map[string]string{
		"username": "amina", "token": "abc", "password": "short",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "password")
}

func TestAcceptInvite_UnknownUser(t *testing.T) {
	mockDB, router := setup(t)

	mockDB.Mock.ExpectQuery(`FROM users WHERE lower\(username\) = lower\(\$1\)`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := testutil.NewHTTPRequest(http.MethodPost, "/users/accept-invite", map[string]string{
		"username": "ghost", "token": "abc", "password": "long-enough",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "BAD_REQUEST")
	mockDB.ExpectationsWereMet(t)
}

func TestSuspendSelf(t *testing.T) {
	_, router := setup(t)

	req := testutil.WithActor(testutil.NewHTTPRequest(http.MethodPost, "/users/"+managerID+"/suspend", nil), testutil.Manager(managerID))
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestDelete_NotFound(t *testing.T) {
	mockDB, router := setup(t)

	mockDB.Mock.ExpectQuery(`FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(attendantID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := testutil.WithActor(testutil.NewHTTPRequest(http.MethodDelete, "/users/"+attendantID, nil), testutil.Manager(managerID))
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	mockDB.ExpectationsWereMet(t)
}

func TestList_InvalidStatus(t *testing.T) {
	_, router := setup(t)

	req := testutil.WithActor(testutil.NewHTTPRequest(http.MethodGet, "/users?status=gone", nil), testutil.Manager(managerID))
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, rr.Body.String(), "status")
}
