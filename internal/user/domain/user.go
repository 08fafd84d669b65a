package domain

import (
	"time"

	"github.com/fuelshift/fuelshift-backend/pkg/actor"
)

// Status is the lifecycle state of an account
type Status string

const (
	StatusInvited   Status = "invited"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusInvited || s == StatusActive || s == StatusSuspended
}

// User represents a station staff account
type User struct {
	ID              string     `json:"id" db:"id"`
	Username        string     `json:"username" db:"username"`
	PasswordHash    *string    `json:"-" db:"password_hash"`
	FullName        string     `json:"full_name" db:"full_name"`
	Role            actor.Role `json:"role" db:"role"`
	Status          Status     `json:"status" db:"status"`
	InviteTokenHash *string    `json:"-" db:"invite_token_hash"`
	InviteExpiresAt *time.Time `json:"invite_expires_at,omitempty" db:"invite_expires_at"`
	CreatedBy       *string    `json:"created_by,omitempty" db:"created_by"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"-" db:"deleted_at"`
}

// Actor returns the user as the acting principal
func (u *User) Actor() *actor.Actor {
	return &actor.Actor{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
}

// InviteExpired reports whether a pending invitation can no longer be accepted
func (u *User) InviteExpired(now time.Time) bool {
	return u.InviteExpiresAt == nil || now.After(*u.InviteExpiresAt)
}

// ListParams holds parameters for listing users
type ListParams struct {
	Role    *actor.Role
	Status  *Status
	Search  string
	Page    int
	PerPage int
}
