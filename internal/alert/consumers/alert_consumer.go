package consumers

import (
	"context"

	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

// Broadcaster pushes alerts to this instance's websocket clients
type Broadcaster interface {
	Broadcast(ev messaging.AlertCreatedEvent) int
	Disconnect(userID string) int
}

// AlertEventHandler routes alert and user events to the websocket hub
// (testable without RabbitMQ)
type AlertEventHandler struct {
	hub    Broadcaster
	logger *logger.Logger
}

// NewAlertEventHandler creates a new handler
func NewAlertEventHandler(hub Broadcaster, log *logger.Logger) *AlertEventHandler {
	return &AlertEventHandler{hub: hub, logger: log}
}

// HandleEvent processes one event
func (h *AlertEventHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	switch event.Type {
	case messaging.EventAlertCreated:
		return h.handleAlertCreated(ctx, event)
	case messaging.EventUserSuspended, messaging.EventUserDeleted:
		return h.handleUserRemoved(ctx, event)
	default:
		h.logger.Warn().Str("event_type", event.Type).Msg("unknown event type received")
		return nil
	}
}

func (h *AlertEventHandler) handleAlertCreated(_ context.Context, event *messaging.Event) error {
	var data messaging.AlertCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	delivered := h.hub.Broadcast(data)
	h.logger.Debug().
		Str("alert_id", data.AlertID).
		Str("recipient_id", data.RecipientID).
		Int("connections", delivered).
		Msg("alert pushed")
	return nil
}

// handleUserRemoved closes the streams of suspended or deleted users
func (h *AlertEventHandler) handleUserRemoved(_ context.Context, event *messaging.Event) error {
	var data messaging.UserStatusEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	if n := h.hub.Disconnect(data.UserID); n > 0 {
		h.logger.Info().Str("user_id", data.UserID).Int("connections", n).Msg("closed alert streams of removed user")
	}
	return nil
}

// AlertStreamConsumer feeds the websocket hub. Its queue is exclusive to the
// instance so every instance sees every alert.
type AlertStreamConsumer struct {
	consumer *messaging.Consumer
	handler  *AlertEventHandler
	logger   *logger.Logger
}

// NewAlertStreamConsumer declares the instance queue and binds it
func NewAlertStreamConsumer(rmq *messaging.RabbitMQ, hub Broadcaster, log *logger.Logger) (*AlertStreamConsumer, error) {
	consumer, err := messaging.NewFanoutConsumer(rmq, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeAlertEvents, messaging.EventAlertCreated); err != nil {
		return nil, err
	}
	for _, key := range []string{messaging.EventUserSuspended, messaging.EventUserDeleted} {
		if err := consumer.Subscribe(messaging.ExchangeUserEvents, key); err != nil {
			return nil, err
		}
	}

	c := &AlertStreamConsumer{
		consumer: consumer,
		handler:  NewAlertEventHandler(hub, log),
		logger:   log,
	}

	consumer.RegisterHandler(messaging.EventAlertCreated, c.handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventUserSuspended, c.handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventUserDeleted, c.handler.HandleEvent)

	return c, nil
}

// Start starts consuming messages
func (c *AlertStreamConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
