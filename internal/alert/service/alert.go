package service

import (
	"context"

	"github.com/fuelshift/fuelshift-backend/internal/alert/domain"
	"github.com/fuelshift/fuelshift-backend/internal/alert/events"
	"github.com/fuelshift/fuelshift-backend/internal/alert/repository"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/errors"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

// AlertService raises and serves alerts
type AlertService struct {
	alertRepo *repository.AlertRepository
	publisher *events.AlertEventPublisher
	logger    *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(alertRepo *repository.AlertRepository, publisher *events.AlertEventPublisher, log *logger.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		publisher: publisher,
		logger:    log,
	}
}

// Create stores the alert once per recipient and publishes each stored row.
// Duplicate stale-shift alerts are skipped silently.
func (s *AlertService) Create(ctx context.Context, n domain.NewAlert) ([]*domain.Alert, error) {
	if err := httputil.Validate(&n); err != nil {
		return nil, err
	}
	if (n.RecipientID == nil) == (n.RecipientRole == nil) {
		return nil, errors.Validation(map[string]string{
			"recipient_id": "exactly one of recipient_id and recipient_role is required",
		})
	}
	if n.Kind == "" {
		n.Kind = domain.KindManual
	}

	recipients := []string{}
	if n.RecipientID != nil {
		recipients = append(recipients, *n.RecipientID)
	} else {
		ids, err := s.alertRepo.ActiveUserIDs(ctx, *n.RecipientRole)
		if err != nil {
			return nil, err
		}
		recipients = ids
	}

	created := make([]*domain.Alert, 0, len(recipients))
	for _, recipientID := range recipients {
		a := &domain.Alert{
			RecipientID:   recipientID,
			RecipientRole: n.RecipientRole,
			Severity:      n.Severity,
			Kind:          n.Kind,
			Message:       n.Message,
			ShiftID:       n.ShiftID,
		}
		inserted, err := s.alertRepo.Insert(ctx, a)
		if err != nil {
			return created, err
		}
		if !inserted {
			continue
		}
		created = append(created, a)
		s.publisher.PublishAlertCreated(ctx, a)
	}

	if len(created) > 0 {
		s.logger.Info().
			Str("kind", n.Kind).
			Str("severity", string(n.Severity)).
			Int("recipients", len(created)).
			Msg("alert created")
	}

	return created, nil
}

// Notify raises an alert on behalf of the system. Failures are logged and
// never reach the caller's request.
func (s *AlertService) Notify(ctx context.Context, n domain.NewAlert) {
	if _, err := s.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("kind", n.Kind).Msg("failed to raise alert")
	}
}

// ListForUser returns a page of the actor's alerts
func (s *AlertService) ListForUser(ctx context.Context, a *actor.Actor, params domain.ListParams) ([]*domain.Alert, int64, error) {
	return s.alertRepo.ListForRecipient(ctx, a.ID, params)
}

// UnreadCount counts the actor's unread alerts
func (s *AlertService) UnreadCount(ctx context.Context, a *actor.Actor) (int64, error) {
	return s.alertRepo.UnreadCount(ctx, a.ID)
}

// MarkRead marks one of the actor's alerts as read
func (s *AlertService) MarkRead(ctx context.Context, a *actor.Actor, id string) error {
	return s.alertRepo.MarkRead(ctx, id, a.ID)
}

// MarkAllRead marks all the actor's alerts as read
func (s *AlertService) MarkAllRead(ctx context.Context, a *actor.Actor) (int64, error) {
	n, err := s.alertRepo.MarkAllRead(ctx, a.ID)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Str("user_id", a.ID).Int64("count", n).Msg("alerts marked read")
	return n, nil
}
