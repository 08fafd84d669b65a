package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fuelshift/fuelshift-backend/internal/auth/jwt"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/permissions"
)

// SessionChecker reports whether a session is still live
type SessionChecker interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
}

// Counter counts events per key within a window
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
}

// Middleware authenticates requests and enforces permissions
type Middleware struct {
	jwtManager *jwt.Manager
	sessions   SessionChecker
	log        *logger.Logger
}

// New creates the auth middleware. sessions may be nil, in which case
// access tokens are trusted until they expire.
func New(jwtManager *jwt.Manager, sessions SessionChecker, log *logger.Logger) *Middleware {
	return &Middleware{jwtManager: jwtManager, sessions: sessions, log: log}
}

// Authenticate validates the access token and puts the actor in the request
// context. The token is read from the Authorization header, or from the
// access_token query parameter for websocket upgrades.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			m.log.Debug().Err(err).Msg("token validation failed")
			httputil.ErrorLocalized(w, r, err)
			return
		}

		if m.sessions != nil {
			active, err := m.sessions.IsActive(r.Context(), claims.SessionID)
			if err != nil {
				httputil.ErrorLocalized(w, r, err)
				return
			}
			if !active {
				httputil.ErrorLocalized(w, r, errors.SessionExpired())
				return
			}
		}

		a := claims.Actor()
		httputil.SetUserID(r.Context(), a.ID)
		next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
	})
}

// RequirePermission rejects actors whose role lacks perm
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := actor.FromContext(r.Context())
			if a == nil {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("authentication required"))
				return
			}
			if !permissions.Allowed(a.Role, perm) {
				httputil.ErrorLocalized(w, r, errors.Forbidden("missing permission "+perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects actors with none of roles
func RequireRole(roles ...actor.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := actor.FromContext(r.Context())
			if a == nil {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("authentication required"))
				return
			}
			if !a.HasRole(roles...) {
				httputil.ErrorLocalized(w, r, errors.Forbidden("role not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginThrottle limits failed login attempts per client address. Only
// responses with status 401 count towards limit. Counter failures let the
// request through.
func LoginThrottle(counter Counter, limit int, window time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "fuelshift:login:" + clientIP(r)
			n, err := counter.Count(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Msg("login throttle unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if n >= int64(limit) {
				w.Header().Set("Retry-After", retryAfter(window))
				httputil.ErrorLocalized(w, r, errors.TooManyRequests())
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() != http.StatusUnauthorized {
				return
			}
			if _, err := counter.Incr(r.Context(), key, window); err != nil {
				log.Warn().Err(err).Msg("failed to record login failure")
			}
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
		return "", errors.Unauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.Unauthorized("invalid authorization header format")
	}
	return parts[1], nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(window time.Duration) string {
	return strconv.Itoa(int(window.Seconds()))
}
