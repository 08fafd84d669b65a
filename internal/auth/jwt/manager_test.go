package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/auth/jwt"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/config"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

func newManager(accessExpiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: time.Hour,
		Issuer:        "fuelshift",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager(15 * time.Minute)
	a := &actor.Actor{ID: "user-1", Username: "amina", FullName: "Amina Kato", Role: actor.RoleAttendant}

	pair, err := m.GenerateTokenPair(a, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	got := claims.Actor()
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, actor.RoleAttendant, got.Role)
	assert.Equal(t, "session-1", got.SessionID)

	refresh, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "session-1", refresh.SessionID)
}

func TestValidate_Expired(t *testing.T) {
	m := newManager(-time.Minute)
	pair, err := m.GenerateTokenPair(&actor.Actor{ID: "user-1", Role: actor.RoleManager}, "session-1")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestValidate_WrongSecret(t *testing.T) {
	pair, err := newManager(time.Minute).GenerateTokenPair(&actor.Actor{ID: "user-1", Role: actor.RoleManager}, "s")
	require.NoError(t, err)

	other := jwt.NewManager(&config.JWTConfig{Secret: "other", AccessExpiry: time.Minute, Issuer: "fuelshift"})
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestValidate_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := newManager(time.Minute)
	pair, err := m.GenerateTokenPair(&actor.Actor{ID: "user-1", Role: actor.RoleSupervisor}, "s")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}
