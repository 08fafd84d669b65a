package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventShiftSubmitted    = "shift.submitted"
	EventShiftResubmitted  = "shift.resubmitted"
	EventShiftApproved     = "shift.approved"
	EventShiftFixRequested = "shift.fix_requested"

	EventUserInvited      = "user.invited"
	EventUserActivated    = "user.activated"
	EventUserSuspended    = "user.suspended"
	EventUserReactivated  = "user.reactivated"
	EventUserDeleted      = "user.deleted"
	EventUserRoleChanged  = "user.role.changed"
	EventFuelPriceChanged = "station.fuel_price.changed"
	EventAlertCreated     = "alert.created"
)

// Exchange names
const (
	ExchangeShiftEvents   = "shift.events"
	ExchangeUserEvents    = "user.events"
	ExchangeStationEvents = "station.events"
	ExchangeAlertEvents   = "alerts.events"
)

// Event is the envelope every message carries
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Shift events. Money values travel as decimal strings.

type ShiftSubmittedEvent struct {
	ShiftID     string `json:"shift_id"`
	AttendantID string `json:"attendant_id"`
	PumpID      string `json:"pump_id"`
	ShiftDate   string `json:"shift_date"`
	ShiftType   string `json:"shift_type"`
	Expected    string `json:"expected"`
	Collected   string `json:"collected"`
	Variance    string `json:"variance"`
	Label       string `json:"label"`
	Critical    bool   `json:"critical"`
}

type ShiftResubmittedEvent struct {
	ShiftID           string `json:"shift_id"`
	AttendantID       string `json:"attendant_id"`
	SupervisorID      string `json:"supervisor_id,omitempty"`
	ResubmissionCount int    `json:"resubmission_count"`
	Variance          string `json:"variance"`
	Label             string `json:"label"`
}

type ShiftApprovedEvent struct {
	ShiftID      string `json:"shift_id"`
	AttendantID  string `json:"attendant_id"`
	SupervisorID string `json:"supervisor_id"`
}

type ShiftFixRequestedEvent struct {
	ShiftID      string `json:"shift_id"`
	AttendantID  string `json:"attendant_id"`
	SupervisorID string `json:"supervisor_id"`
	Reason       string `json:"reason"`
}

// User events

type UserInvitedEvent struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	InvitedBy string `json:"invited_by"`
}

// UserStatusEvent covers activation, suspension, reactivation and deletion
type UserStatusEvent struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ChangedBy string `json:"changed_by,omitempty"`
}

type UserRoleChangedEvent struct {
	UserID    string `json:"user_id"`
	OldRole   string `json:"old_role"`
	NewRole   string `json:"new_role"`
	ChangedBy string `json:"changed_by"`
}

// Station events

type FuelPriceChangedEvent struct {
	FuelType  string `json:"fuel_type"`
	OldPrice  string `json:"old_price,omitempty"`
	NewPrice  string `json:"new_price"`
	ChangedBy string `json:"changed_by"`
}

// Alert events

type AlertCreatedEvent struct {
	AlertID       string    `json:"alert_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role,omitempty"`
	Severity      string    `json:"severity"`
	Kind          string    `json:"kind"`
	Message       string    `json:"message"`
	ShiftID       string    `json:"shift_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
