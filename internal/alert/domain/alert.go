package domain

import (
	"time"

	"github.com/fuelshift/fuelshift-backend/pkg/actor"
)

// Severity ranks how urgently an alert needs attention
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// Kinds of alerts raised by the system
const (
	KindCriticalVariance = "critical_variance"
	KindShiftApproved    = "shift_approved"
	KindFixRequested     = "fix_requested"
	KindShiftResubmitted = "shift_resubmitted"
	KindShiftStale       = "shift_stale"
	KindManual           = "manual"
)

// Alert is a notification addressed to one user. Alerts sent to a role are
// stored once per member, keeping the role for display.
type Alert struct {
	ID            string      `json:"id" db:"id"`
	RecipientID   string      `json:"recipient_id" db:"recipient_id"`
	RecipientRole *actor.Role `json:"recipient_role,omitempty" db:"recipient_role"`
	Severity      Severity    `json:"severity" db:"severity"`
	Kind          string      `json:"kind" db:"kind"`
	Message       string      `json:"message" db:"message"`
	ShiftID       *string     `json:"shift_id,omitempty" db:"shift_id"`
	IsRead        bool        `json:"is_read" db:"is_read"`
	ReadAt        *time.Time  `json:"read_at,omitempty" db:"read_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// NewAlert describes an alert to raise. Exactly one of RecipientID and
// RecipientRole is set.
type NewAlert struct {
	RecipientID   *string     `json:"recipient_id,omitempty" validate:"omitempty,uuid"`
	RecipientRole *actor.Role `json:"recipient_role,omitempty" validate:"omitempty,oneof=attendant supervisor manager"`
	Severity      Severity    `json:"severity" validate:"required,oneof=info warning critical"`
	Kind          string      `json:"kind,omitempty" validate:"omitempty,max=40"`
	Message       string      `json:"message" validate:"required,max=1000"`
	ShiftID       *string     `json:"shift_id,omitempty" validate:"omitempty,uuid"`
}

// ToUser addresses an alert to one user
func ToUser(userID string, severity Severity, kind, message string, shiftID *string) NewAlert {
	return NewAlert{RecipientID: &userID, Severity: severity, Kind: kind, Message: message, ShiftID: shiftID}
}

// ToRole addresses an alert to every active member of a role
func ToRole(role actor.Role, severity Severity, kind, message string, shiftID *string) NewAlert {
	return NewAlert{RecipientRole: &role, Severity: severity, Kind: kind, Message: message, ShiftID: shiftID}
}

// ListParams holds parameters for listing a user's alerts
type ListParams struct {
	UnreadOnly bool
	Page       int
	PerPage    int
}
