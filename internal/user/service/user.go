package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fuelshift/fuelshift-backend/internal/user/domain"
	"github.com/fuelshift/fuelshift-backend/internal/user/events"
	"github.com/fuelshift/fuelshift-backend/internal/user/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// DefaultInviteExpiry applies when no expiry is configured
const DefaultInviteExpiry = 72 * time.Hour

// SessionRevoker ends every session of a user
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// UserService handles station staff administration
type UserService struct {
	userRepo     *repository.UserRepository
	sessions     SessionRevoker
	publisher    *events.UserEventPublisher
	inviteExpiry time.Duration
	bcryptCost   int
	now          func() time.Time
	logger       *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo *repository.UserRepository,
	sessions SessionRevoker,
	publisher *events.UserEventPublisher,
	inviteExpiry time.Duration,
	bcryptCost int,
	log *logger.Logger,
) *UserService {
	if inviteExpiry <= 0 {
		inviteExpiry = DefaultInviteExpiry
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:     userRepo,
		sessions:     sessions,
		publisher:    publisher,
		inviteExpiry: inviteExpiry,
		bcryptCost:   bcryptCost,
		now:          time.Now,
		logger:       log,
	}
}

// SetClock overrides the clock used for invitation expiry
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// InviteRequest represents an invite request
type InviteRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50,alphanum"`
	FullName string     `json:"full_name" validate:"required,max=100"`
	Role     actor.Role `json:"role" validate:"required,oneof=attendant supervisor manager"`
}

// InviteResponse carries the invite token. The token is never stored in
// plain text and cannot be retrieved again.
type InviteResponse struct {
	User        *domain.User `json:"user"`
	InviteToken string       `json:"invite_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// AcceptInviteRequest represents an accept invite request
type AcceptInviteRequest struct {
	Username string `json:"username" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ChangeRoleRequest represents a role change request
type ChangeRoleRequest struct {
	Role actor.Role `json:"role" validate:"required,oneof=attendant supervisor manager"`
}

// ============================================================================
// INVITATIONS
// ============================================================================

// Invite creates an invited account and returns its one-time token
func (s *UserService) Invite(ctx context.Context, a *actor.Actor, req *InviteRequest) (*InviteResponse, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, errors.Internal("failed to generate invite token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("failed to hash invite token")
	}
	hashStr := string(hash)
	expiresAt := s.now().Add(s.inviteExpiry).UTC()

	user := &domain.User{
		Username:        strings.TrimSpace(req.Username),
		FullName:        strings.TrimSpace(req.FullName),
		Role:            req.Role,
		InviteTokenHash: &hashStr,
		InviteExpiresAt: &expiresAt,
		CreatedBy:       &a.ID,
	}
	if err := s.userRepo.CreateInvited(ctx, user); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, errors.Conflict("username already in use")
		}
		return nil, err
	}

	s.publisher.PublishInvited(ctx, user, a.ID)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Str("invited_by", a.ID).
		Msg("user invited")

	return &InviteResponse{User: user, InviteToken: token, ExpiresAt: expiresAt}, nil
}

// AcceptInvite sets the password of an invited account and activates it.
// Unknown usernames, wrong tokens and expired invitations are
// indistinguishable to the caller.
func (s *UserService) AcceptInvite(ctx context.Context, req *AcceptInviteRequest) (*domain.User, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	invalid := errors.BadRequest("invalid or expired invitation")

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusInvited || user.InviteTokenHash == nil || user.InviteExpired(s.now()) {
		return nil, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.InviteTokenHash), []byte(req.Token)) != nil {
		return nil, invalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}
	activated, err := s.userRepo.Activate(ctx, user.ID, string(hash))
	if err != nil {
		return nil, err
	}
	if !activated {
		return nil, invalid
	}

	user.Status = domain.StatusActive
	user.InviteTokenHash = nil
	user.InviteExpiresAt = nil
	s.publisher.PublishActivated(ctx, user)

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("invitation accepted")
	return user, nil
}

// ============================================================================
// ADMINISTRATION
// ============================================================================

// Get gets a user by ID
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List lists users with filters and pagination
func (s *UserService) List(ctx context.Context, params domain.ListParams) ([]*domain.User, int64, error) {
	if params.Role != nil && !params.Role.Valid() {
		return nil, 0, errors.Validation(map[string]string{"role": "invalid role"})
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, errors.Validation(map[string]string{"status": "invalid status"})
	}
	return s.userRepo.List(ctx, params)
}

// Suspend blocks a user from logging in and ends their sessions
func (s *UserService) Suspend(ctx context.Context, a *actor.Actor, id string) (*domain.User, error) {
	if id == a.ID {
		return nil, errors.BadRequest("you cannot suspend your own account")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.StatusSuspended {
		return user, nil
	}
	if user.Status == domain.StatusInvited {
		return nil, errors.BadRequest("an invited account cannot be suspended, delete it instead")
	}

	if err := s.userRepo.UpdateStatus(ctx, id, domain.StatusSuspended); err != nil {
		return nil, err
	}
	user.Status = domain.StatusSuspended
	s.revokeSessions(ctx, id)
	s.publisher.PublishSuspended(ctx, user, a.ID)

	s.logger.Info().Str("user_id", id).Str("suspended_by", a.ID).Msg("user suspended")
	return user, nil
}

// Reactivate lifts a suspension
func (s *UserService) Reactivate(ctx context.Context, a *actor.Actor, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusSuspended {
		return nil, errors.BadRequest("only suspended accounts can be reactivated")
	}

	if err := s.userRepo.UpdateStatus(ctx, id, domain.StatusActive); err != nil {
		return nil, err
	}
	user.Status = domain.StatusActive
	s.publisher.PublishReactivated(ctx, user, a.ID)

	s.logger.Info().Str("user_id", id).Str("reactivated_by", a.ID).Msg("user reactivated")
	return user, nil
}

// Delete soft-deletes a user and ends their sessions. Shifts they submitted
// or reviewed are kept.
func (s *UserService) Delete(ctx context.Context, a *actor.Actor, id string) error {
	if id == a.ID {
		return errors.BadRequest("you cannot delete your own account")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.publisher.PublishDeleted(ctx, user, a.ID)

	s.logger.Info().Str("user_id", id).Str("deleted_by", a.ID).Msg("user deleted")
	return nil
}

// ChangeRole changes a user's role. Existing sessions are ended so new
// tokens carry the new role.
func (s *UserService) ChangeRole(ctx context.Context, a *actor.Actor, id string, req *ChangeRoleRequest) (*domain.User, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	if id == a.ID {
		return nil, errors.BadRequest("you cannot change your own role")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}

	oldRole := user.Role
	if err := s.userRepo.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, err
	}
	user.Role = req.Role
	s.revokeSessions(ctx, id)
	s.publisher.PublishRoleChanged(ctx, id, oldRole, req.Role, a.ID)

	s.logger.Info().
		Str("user_id", id).
		Str("old_role", string(oldRole)).
		Str("new_role", string(req.Role)).
		Msg("user role changed")
	return user, nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions")
	}
}

func generateInviteToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
