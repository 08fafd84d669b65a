package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// RevokedRetention is how long revoked sessions are kept before purging
const RevokedRetention = 7 * 24 * time.Hour

// Session represents a login session. Only the SHA-256 of the current
// refresh token is stored.
type Session struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	RefreshTokenHash string     `db:"refresh_token_hash"`
	UserAgent        *string    `db:"user_agent"`
	IPAddress        *string    `db:"ip_address"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
	LastUsedAt       time.Time  `db:"last_used_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
}

// Revoked reports whether the session was ended
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Expired reports whether the absolute session lifetime has passed
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Idle reports whether the session went unused for longer than timeout
func (s *Session) Idle(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(s.LastUsedAt) > timeout
}

// SessionRepository handles session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// NewSessionID returns an identifier for a session about to be created.
// Tokens embed the ID, so it is chosen before the row is written.
func NewSessionID() string {
	return uuid.New().String()
}

// Create stores a session under id
func (r *SessionRepository) Create(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time, userAgent, ipAddress string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: hashToken(refreshToken),
		UserAgent:        nullable(userAgent),
		IPAddress:        nullable(ipAddress),
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		LastUsedAt:       now,
	}

	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
		session.LastUsedAt,
	)
	if err != nil {
		return nil, database.MapError(err)
	}
	return session, nil
}

// GetByRefreshToken gets the session currently holding refreshToken,
// including revoked and expired ones so callers can tell why it failed
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	query := `
		SELECT id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at, last_used_at, revoked_at
		FROM sessions
		WHERE refresh_token_hash = $1
	`
	err := r.db.Conn(ctx).GetContext(ctx, &session, query, hashToken(refreshToken))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("session")
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &session, nil
}

// Rotate replaces the refresh token of a live session and marks it used.
// It returns false when the session was revoked or rotated concurrently.
func (r *SessionRepository) Rotate(ctx context.Context, id, oldRefreshToken, newRefreshToken string) (bool, error) {
	query := `
		UPDATE sessions SET refresh_token_hash = $3, last_used_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2 AND revoked_at IS NULL
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, hashToken(oldRefreshToken), hashToken(newRefreshToken))
	if err != nil {
		return false, database.MapError(err)
	}
	affected, _ := result.RowsAffected()
	return affected == 1, nil
}

// Revoke revokes a session
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, id)
	return database.MapError(err)
}

// RevokeAllForUser revokes all sessions for a user
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, userID)
	return database.MapError(err)
}

// IsActive reports whether a session is neither revoked nor past its
// absolute expiry
func (r *SessionRepository) IsActive(ctx context.Context, id string) (bool, error) {
	var active bool
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND revoked_at IS NULL AND expires_at > NOW())`
	if err := r.db.Conn(ctx).GetContext(ctx, &active, query, id); err != nil {
		return false, database.MapError(err)
	}
	return active, nil
}

// PurgeExpired deletes sessions past their absolute expiry and sessions
// revoked more than RevokedRetention ago
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $2`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, now, now.Add(-RevokedRetention))
	if err != nil {
		return 0, database.MapError(err)
	}
	return result.RowsAffected()
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
