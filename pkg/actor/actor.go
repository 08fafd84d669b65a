// Package actor identifies the user (or the system) performing an action.
// Handlers put the actor into the request context after authentication and
// services read it back to authorize and attribute changes.
package actor

import (
	"context"
	"fmt"
)

// Role is a user's role at the station
type Role string

const (
	RoleAttendant  Role = "attendant"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
)

// Roles lists every valid role
var Roles = []Role{RoleAttendant, RoleSupervisor, RoleManager}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

const systemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the entity performing an action
type Actor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

// String returns a representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.Username, a.Role)
}

// HasRole reports whether the actor holds one of roles
func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsSystem returns true if the actor represents the system
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == systemID
}

// SystemActor is used for scheduled jobs and consumers
func SystemActor() *Actor {
	return &Actor{ID: systemID, Username: "system"}
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context, or nil
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(actorContextKey).(*Actor)
	return a
}

// WithActor returns a new context with the Actor attached
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}
