package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/user/domain"
	"github.com/fuelshift/fuelshift-backend/internal/user/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

var userCols = []string{
	"id", "username", "password_hash", "full_name", "role", "status", "invite_token_hash",
	"invite_expires_at", "created_by", "last_login_at", "created_at", "updated_at", "deleted_at",
}

func TestUserRepository_GetByUsername_CaseInsensitive(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)
	now := time.Now()

	mockDB.Mock.ExpectQuery(`WHERE lower\(username\) = lower\(\$1\) AND deleted_at IS NULL`).
		WithArgs("AMINA").
		WillReturnRows(testutil.MockRows(userCols...).
			AddRow("u1", "amina", "hash", "Amina K", "attendant", "active", nil, nil, nil, nil, now, now, nil))

	user, err := repo.GetByUsername(context.Background(), "AMINA")
	require.NoError(t, err)
	assert.Equal(t, "amina", user.Username)
	assert.Equal(t, actor.RoleAttendant, user.Role)
	assert.Equal(t, domain.StatusActive, user.Status)
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)

	mockDB.Mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_CreateInvited_DuplicateUsername(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)

	mockDB.Mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_users_username"})

	err := repo.CreateInvited(context.Background(), &domain.User{Username: "amina", Role: actor.RoleAttendant})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_List_Filters(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)
	now := time.Now()
	role := actor.RoleSupervisor
	status := domain.StatusActive

	mockDB.Mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE deleted_at IS NULL AND role = \$1 AND status = \$2`).
		WithArgs(role, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mockDB.Mock.ExpectQuery(`ORDER BY lower\(username\) LIMIT \$3 OFFSET \$4`).
		WithArgs(role, status, 10, 10).
		WillReturnRows(testutil.MockRows(userCols...).
			AddRow("u1", "sam", "hash", "Sam O", "supervisor", "active", nil, nil, nil, nil, now, now, nil))

	users, total, err := repo.List(context.Background(), domain.ListParams{Role: &role, Status: &status, Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_Activate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)

	mockDB.Mock.ExpectExec(`UPDATE users SET`).
		WithArgs("u1", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Activate(context.Background(), "u1", "newhash")
	require.NoError(t, err)
	assert.False(t, ok, "an already active user is not activated twice")
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_SoftDelete_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)

	mockDB.Mock.ExpectExec(`UPDATE users SET deleted_at = NOW\(\)`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "u1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_PurgeExpiredInvites(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewUserRepository(mockDB.DB)
	now := time.Now()

	mockDB.Mock.ExpectExec(`DELETE FROM users WHERE status = 'invited' AND invite_expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpiredInvites(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	mockDB.ExpectationsWereMet(t)
}
