package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fuelshift/fuelshift-backend/internal/user/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, full_name, role, status, invite_token_hash,
	invite_expires_at, created_by, last_login_at, created_at, updated_at, deleted_at`

// CreateInvited inserts an invited user. A taken username returns a conflict.
func (r *UserRepository) CreateInvited(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Status = domain.StatusInvited

	query := `
		INSERT INTO users (id, username, full_name, role, status, invite_token_hash, invite_expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		user.ID, user.Username, user.FullName, user.Role, user.Status,
		user.InviteTokenHash, user.InviteExpiresAt, user.CreatedBy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return database.MapError(err)
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.Conn(ctx).GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &user, nil
}

// GetByUsername gets a user by username, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1) AND deleted_at IS NULL`
	err := r.db.Conn(ctx).GetContext(ctx, &user, query, username)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &user, nil
}

// List returns a page of users ordered by username
func (r *UserRepository) List(ctx context.Context, params domain.ListParams) ([]*domain.User, int64, error) {
	if params.PerPage <= 0 {
		params.PerPage = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	whereClause := " WHERE deleted_at IS NULL"
	args := []interface{}{}
	argNum := 1

	if params.Role != nil {
		whereClause += fmt.Sprintf(" AND role = $%d", argNum)
		args = append(args, *params.Role)
		argNum++
	}
	if params.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *params.Status)
		argNum++
	}
	if params.Search != "" {
		whereClause += fmt.Sprintf(" AND (username ILIKE $%d OR full_name ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	var total int64
	if err := r.db.Conn(ctx).GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+whereClause, args...); err != nil {
		return nil, 0, database.MapError(err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + whereClause +
		fmt.Sprintf(` ORDER BY lower(username) LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, params.PerPage, (params.Page-1)*params.PerPage)

	users := []*domain.User{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, database.MapError(err)
	}
	return users, total, nil
}

// Activate sets the password of an invited user and clears the invitation.
// It returns false when the user was no longer invited.
func (r *UserRepository) Activate(ctx context.Context, id, passwordHash string) (bool, error) {
	query := `
		UPDATE users SET
			password_hash = $2, status = 'active', invite_token_hash = NULL, invite_expires_at = NULL
		WHERE id = $1 AND status = 'invited' AND deleted_at IS NULL
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return false, database.MapError(err)
	}
	affected, _ := result.RowsAffected()
	return affected == 1, nil
}

// UpdateStatus moves a user between active and suspended
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	query := `UPDATE users SET status = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, status)
	if err != nil {
		return database.MapError(err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role actor.Role) error {
	query := `UPDATE users SET role = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, role)
	if err != nil {
		return database.MapError(err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// SoftDelete marks a user deleted. Shift history keeps referencing the row.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE users SET deleted_at = NOW(), status = 'suspended' WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return database.MapError(err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// TouchLogin records a successful login
func (r *UserRepository) TouchLogin(ctx context.Context, id string) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return database.MapError(err)
}

// PurgeExpiredInvites deletes invited users whose invitation lapsed
func (r *UserRepository) PurgeExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM users WHERE status = 'invited' AND invite_expires_at < $1`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, now)
	if err != nil {
		return 0, database.MapError(err)
	}
	return result.RowsAffected()
}
