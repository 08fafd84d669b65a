package events

import (
	"context"

	"github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

// AlertEventPublisher publishes created alerts so every instance can push
// them to connected clients
type AlertEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewAlertEventPublisher wraps a publisher bound to the alerts exchange
func NewAlertEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *AlertEventPublisher {
	return &AlertEventPublisher{publisher: publisher, logger: log}
}

// PublishAlertCreated publishes an alert.created event. Failures are logged only.
func (p *AlertEventPublisher) PublishAlertCreated(ctx context.Context, a *domain.Alert) {
	if err := p.publisher.Publish(ctx, messaging.EventAlertCreated, ToEvent(a)); err != nil {
		p.logger.Error().Err(err).Str("alert_id", a.ID).Msg("failed to publish alert created event")
	}
}

// ToEvent converts an alert to its event payload
func ToEvent(a *domain.Alert) messaging.AlertCreatedEvent {
	ev := messaging.AlertCreatedEvent{
		AlertID:     a.ID,
		RecipientID: a.RecipientID,
		Severity:    string(a.Severity),
		Kind:        a.Kind,
		Message:     a.Message,
		CreatedAt:   a.CreatedAt,
	}
	if a.RecipientRole != nil {
		ev.RecipientRole = string(*a.RecipientRole)
	}
	if a.ShiftID != nil {
		ev.ShiftID = *a.ShiftID
	}
	return ev
}
