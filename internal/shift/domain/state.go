package domain

import (
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// Status is the approval state of a shift
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusFixRequested Status = "fix_requested"
)

// Statuses lists every state in workflow order
var Statuses = []Status{StatusPending, StatusFixRequested, StatusApproved}

// Valid reports whether s is a known state
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFixRequested:
		return true
	}
	return false
}

// StatusOf maps the stored flags to a state. An approved shift never
// carries a fix reason.
func StatusOf(isApproved bool, fixReason *string) Status {
	switch {
	case isApproved:
		return StatusApproved
	case fixReason != nil:
		return StatusFixRequested
	default:
		return StatusPending
	}
}

var transitions = map[Status][]Status{
	StatusPending:      {StatusApproved, StatusFixRequested},
	StatusFixRequested: {StatusPending},
}

// CanTransition returns an error wrapping errors.ErrInvalidTransition unless
// the workflow allows moving from one state to the other. Approved is terminal.
func CanTransition(from, to Status) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return errors.InvalidTransition(string(from), string(to))
}
