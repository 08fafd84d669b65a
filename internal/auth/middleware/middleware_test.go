package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/auth/jwt"
	"github.com/fuelshift/fuelshift-backend/internal/auth/middleware"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/cache"
	"github.com/fuelshift/fuelshift-backend/pkg/config"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/permissions"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

type stubSessions map[string]bool

func (s stubSessions) IsActive(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

func newManager(expiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: expiry, RefreshExpiry: time.Hour, Issuer: "fuelshift"})
}

func token(t *testing.T, m *jwt.Manager, role actor.Role, sessionID string) string {
	t.Helper()
	pair, err := m.GenerateTokenPair(&actor.Actor{ID: "user-1", Username: "amina", Role: role}, sessionID)
	require.NoError(t, err)
	return pair.AccessToken
}

// echoActor writes the authenticated actor's role
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	_, _ = w.Write([]byte(string(a.Role) + ":" + a.SessionID))
})

func TestAuthenticate(t *testing.T) {
	m := newManager(time.Minute)
	mw := middleware.New(m, stubSessions{"live": true}, logger.Nop())
	handler := mw.Authenticate(echoActor)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, m, actor.RoleSupervisor, "live"))
		rr := testutil.ExecuteRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "supervisor:live", rr.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?access_token="+token(t, m, actor.RoleAttendant, "live"), nil)
		rr := testutil.ExecuteRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.ExecuteRequest(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := testutil.ExecuteRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("revoked session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, m, actor.RoleManager, "revoked"))
		rr := testutil.ExecuteRequest(handler, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "SESSION_EXPIRED")
	})
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	m := newManager(-time.Minute)
	handler := middleware.New(m, nil, logger.Nop()).Authenticate(echoActor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, m, actor.RoleManager, "s"))
	rr := testutil.ExecuteRequest(handler, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "TOKEN_EXPIRED")
}

func TestRequirePermission(t *testing.T) {
	handler := middleware.RequirePermission(permissions.ShiftsApprove)(echoActor)

	tests := []struct {
		role   actor.Role
		status int
	}{
		{actor.RoleAttendant, http.StatusForbidden},
		{actor.RoleSupervisor, http.StatusOK},
		{actor.RoleManager, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := testutil.WithActor(httptest.NewRequest(http.MethodPost, "/", nil), &actor.Actor{ID: "u", Role: tt.role})
			rr := testutil.ExecuteRequest(handler, req)
			testutil.AssertStatus(t, rr, tt.status)
		})
	}

	rr := testutil.ExecuteRequest(handler, httptest.NewRequest(http.MethodPost, "/", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(actor.RoleAttendant)(echoActor)

	req := testutil.WithActor(httptest.NewRequest(http.MethodGet, "/", nil), &actor.Actor{ID: "u", Role: actor.RoleManager})
	testutil.AssertStatus(t, testutil.ExecuteRequest(handler, req), http.StatusForbidden)

	req = testutil.WithActor(httptest.NewRequest(http.MethodGet, "/", nil), &actor.Actor{ID: "u", Role: actor.RoleAttendant})
	testutil.AssertStatus(t, testutil.ExecuteRequest(handler, req), http.StatusOK)
}

func TestLoginThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	counter := cache.NewFromClient(rdb, logger.Nop())

	denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) })
	handler := middleware.LoginThrottle(counter, 2, time.Minute, logger.Nop())(denied)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		return testutil.ExecuteRequest(handler, req)
	}

	testutil.AssertStatus(t, send("10.0.0.1:5000"), http.StatusUnauthorized)
	testutil.AssertStatus(t, send("10.0.0.1:5001"), http.StatusUnauthorized)
	rr := send("10.0.0.1:5002")
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	testutil.AssertStatus(t, send("10.0.0.2:5000"), http.StatusUnauthorized)

	mr.FastForward(2 * time.Minute)
	testutil.AssertStatus(t, send("10.0.0.1:5003"), http.StatusUnauthorized)
}

func TestLoginThrottle_SuccessfulLoginsNotCounted(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	counter := cache.NewFromClient(rdb, logger.Nop())

	status := http.StatusOK
	login := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{}"))
	})
	handler := middleware.LoginThrottle(counter, 2, time.Minute, logger.Nop())(login)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		return testutil.ExecuteRequest(handler, req)
	}

	// a shared station terminal signing in every attendant
	for i := 0; i < 5; i++ {
		testutil.AssertStatus(t, send(), http.StatusOK)
	}

	status = http.StatusBadRequest
	testutil.AssertStatus(t, send(), http.StatusBadRequest)

	status = http.StatusUnauthorized
	testutil.AssertStatus(t, send(), http.StatusUnauthorized)
	status = http.StatusOK
	testutil.AssertStatus(t, send(), http.StatusOK)

	status = http.StatusUnauthorized
	testutil.AssertStatus(t, send(), http.StatusUnauthorized)
	testutil.AssertStatus(t, send(), http.StatusTooManyRequests)
}

func TestLoginThrottle_CounterDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	counter := cache.NewFromClient(rdb, logger.Nop())
	mr.Close()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.LoginThrottle(counter, 1, time.Minute, logger.Nop())(ok)

	for i := 0; i < 3; i++ {
		testutil.AssertStatus(t, testutil.ExecuteRequest(handler, httptest.NewRequest(http.MethodPost, "/", nil)), http.StatusOK)
	}
}
