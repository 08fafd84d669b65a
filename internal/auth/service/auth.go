package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fuelshift/fuelshift-backend/internal/auth/jwt"
	"github.com/fuelshift/fuelshift-backend/internal/auth/repository"
	userdomain "github.com/fuelshift/fuelshift-backend/internal/user/domain"
	userrepo "github.com/fuelshift/fuelshift-backend/internal/user/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// AuthService handles login sessions
type AuthService struct {
	sessions        *repository.SessionRepository
	users           *userrepo.UserRepository
	jwtManager      *jwt.Manager
	sessionDuration time.Duration
	idleTimeout     time.Duration
	now             func() time.Time
	logger          *logger.Logger
}

// NewAuthService creates a new auth service. sessionDuration is the absolute
// session lifetime; idleTimeout ends sessions that are not refreshed in time.
func NewAuthService(
	sessions *repository.SessionRepository,
	users *userrepo.UserRepository,
	jwtManager *jwt.Manager,
	sessionDuration, idleTimeout time.Duration,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		sessions:        sessions,
		users:           users,
		jwtManager:      jwtManager,
		sessionDuration: sessionDuration,
		idleTimeout:     idleTimeout,
		now:             time.Now,
		logger:          log,
	}
}

// SetClock overrides the clock used for session expiry checks
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken      string           `json:"access_token"`
	RefreshToken     string           `json:"refresh_token"`
	ExpiresAt        time.Time        `json:"expires_at"`
	TokenType        string           `json:"token_type"`
	SessionExpiresAt time.Time        `json:"session_expires_at"`
	IdleTimeout      int              `json:"idle_timeout_seconds"`
	User             *userdomain.User `json:"user"`
}

// Login checks credentials and opens a session
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.InvalidCredentials()
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up user for login")
		return nil, err
	}

	if user.Status == userdomain.StatusInvited || user.PasswordHash == nil {
		return nil, errors.InvitePending()
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Info().Str("username", user.Username).Msg("login failed: wrong password")
		return nil, errors.InvalidCredentials()
	}
	if user.Status == userdomain.StatusSuspended {
		return nil, errors.AccountSuspended()
	}

	sessionID := repository.NewSessionID()
	tokens, err := s.jwtManager.GenerateTokenPair(user.Actor(), sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	sessionExpiresAt := s.now().Add(s.sessionDuration)
	if _, err := s.sessions.Create(ctx, sessionID, user.ID, tokens.RefreshToken, sessionExpiresAt, userAgent, ipAddress); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, err
	}

	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("session_id", sessionID).
		Msg("user logged in")

	return &LoginResponse{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		ExpiresAt:        tokens.ExpiresAt,
		TokenType:        tokens.TokenType,
		SessionExpiresAt: sessionExpiresAt,
		IdleTimeout:      int(s.idleTimeout.Seconds()),
		User:             user,
	}, nil
}

// Refresh rotates the token pair of a live session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, errors.ErrNotFound) {
		// Already rotated or never issued
		return nil, errors.TokenInvalid()
	}
	if err != nil {
		return nil, err
	}
	if session.ID != claims.SessionID {
		return nil, errors.TokenInvalid()
	}

	now := s.now()
	if session.Revoked() || session.Expired(now) {
		return nil, errors.SessionExpired()
	}
	if session.Idle(now, s.idleTimeout) {
		s.endSession(ctx, session.ID)
		s.logger.Info().Str("session_id", session.ID).Str("user_id", session.UserID).Msg("session ended after idle timeout")
		return nil, errors.SessionExpired()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, errors.ErrNotFound) {
		s.endSession(ctx, session.ID)
		return nil, errors.SessionExpired()
	}
	if err != nil {
		return nil, err
	}
	if user.Status != userdomain.StatusActive {
		s.endSession(ctx, session.ID)
		return nil, errors.AccountSuspended()
	}

	tokens, err := s.jwtManager.GenerateTokenPair(user.Actor(), session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}
	rotated, err := s.sessions.Rotate(ctx, session.ID, refreshToken, tokens.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, errors.SessionExpired()
	}

	return tokens, nil
}

// Logout ends a session. A refresh token, when given, selects the session;
// otherwise the caller's current session ends.
func (s *AuthService) Logout(ctx context.Context, a *actor.Actor, refreshToken string) error {
	sessionID := a.SessionID
	if refreshToken != "" {
		session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if session.UserID != a.ID {
			return errors.Forbidden("session belongs to another user")
		}
		sessionID = session.ID
	}
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", a.ID).Str("session_id", sessionID).Msg("user logged out")
	return nil
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, a *actor.Actor) (*userdomain.User, error) {
	return s.users.GetByID(ctx, a.ID)
}

func (s *AuthService) endSession(ctx context.Context, id string) {
	if err := s.sessions.Revoke(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("failed to revoke session")
	}
}
