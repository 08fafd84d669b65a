package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithActor(t *testing.T) {
	a := &Actor{ID: "u-1", Username: "amina", Role: RoleSupervisor}
	ctx := WithActor(context.Background(), a)

	assert.Same(t, a, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestActor_HasRole(t *testing.T) {
	a := &Actor{Role: RoleManager}
	assert.True(t, a.HasRole(RoleSupervisor, RoleManager))
	assert.False(t, a.HasRole(RoleAttendant))

	var none *Actor
	assert.False(t, none.HasRole(RoleManager))
	assert.True(t, none.IsSystem())
	assert.Equal(t, "system", none.String())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAttendant.Valid())
	assert.False(t, Role("owner").Valid())
	assert.True(t, SystemActor().IsSystem())
}
