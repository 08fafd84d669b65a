package events

import (
	"context"

	"github.com/fuelshift/fuelshift-backend/internal/shift/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

// ShiftEventPublisher publishes shift workflow events
type ShiftEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewShiftEventPublisher wraps a publisher bound to the shift exchange
func NewShiftEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *ShiftEventPublisher {
	return &ShiftEventPublisher{publisher: publisher, logger: log}
}

// PublishSubmitted publishes a shift submitted event
func (p *ShiftEventPublisher) PublishSubmitted(ctx context.Context, v *domain.ShiftView) {
	rec := v.Reconciliation
	data := messaging.ShiftSubmittedEvent{
		ShiftID:     v.ID,
		AttendantID: v.AttendantID,
		PumpID:      v.PumpID,
		ShiftDate:   v.ShiftDate,
		ShiftType:   string(v.ShiftType),
		Expected:    rec.Expected.StringFixed(2),
		Collected:   rec.Collected.StringFixed(2),
		Variance:    rec.Variance.StringFixed(2),
		Label:       string(rec.Label),
		Critical:    rec.Critical,
	}
	p.publish(ctx, messaging.EventShiftSubmitted, v.ID, data)
}

// PublishResubmitted publishes a shift resubmitted event
func (p *ShiftEventPublisher) PublishResubmitted(ctx context.Context, v *domain.ShiftView) {
	data := messaging.ShiftResubmittedEvent{
		ShiftID:           v.ID,
		AttendantID:       v.AttendantID,
		ResubmissionCount: v.ResubmissionCount,
		Variance:          v.Reconciliation.Variance.StringFixed(2),
		Label:             string(v.Reconciliation.Label),
	}
	if v.SupervisorID != nil {
		data.SupervisorID = *v.SupervisorID
	}
	p.publish(ctx, messaging.EventShiftResubmitted, v.ID, data)
}

// PublishApproved publishes a shift approved event
func (p *ShiftEventPublisher) PublishApproved(ctx context.Context, s *domain.Shift, supervisorID string) {
	data := messaging.ShiftApprovedEvent{
		ShiftID:      s.ID,
		AttendantID:  s.AttendantID,
		SupervisorID: supervisorID,
	}
	p.publish(ctx, messaging.EventShiftApproved, s.ID, data)
}

// PublishFixRequested publishes a fix requested event
func (p *ShiftEventPublisher) PublishFixRequested(ctx context.Context, s *domain.Shift, supervisorID, reason string) {
	data := messaging.ShiftFixRequestedEvent{
		ShiftID:      s.ID,
		AttendantID:  s.AttendantID,
		SupervisorID: supervisorID,
		Reason:       reason,
	}
	p.publish(ctx, messaging.EventShiftFixRequested, s.ID, data)
}

func (p *ShiftEventPublisher) publish(ctx context.Context, eventType, shiftID string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", shiftID).Str("event", eventType).Msg("failed to publish shift event")
	}
}
