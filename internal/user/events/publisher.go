package events

import (
	"context"

	"github.com/fuelshift/fuelshift-backend/internal/user/domain"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

// UserEventPublisher publishes user lifecycle events
type UserEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewUserEventPublisher wraps a publisher bound to the user exchange
func NewUserEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *UserEventPublisher {
	return &UserEventPublisher{publisher: publisher, logger: log}
}

// PublishInvited publishes a user invited event
func (p *UserEventPublisher) PublishInvited(ctx context.Context, user *domain.User, invitedBy string) {
	data := messaging.UserInvitedEvent{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		InvitedBy: invitedBy,
	}
	p.publish(ctx, messaging.EventUserInvited, user.ID, data)
}

// PublishActivated publishes a user activated event
func (p *UserEventPublisher) PublishActivated(ctx context.Context, user *domain.User) {
	p.publishStatus(ctx, messaging.EventUserActivated, user, "")
}

// PublishSuspended publishes a user suspended event
func (p *UserEventPublisher) PublishSuspended(ctx context.Context, user *domain.User, changedBy string) {
	p.publishStatus(ctx, messaging.EventUserSuspended, user, changedBy)
}

// PublishReactivated publishes a user reactivated event
func (p *UserEventPublisher) PublishReactivated(ctx context.Context, user *domain.User, changedBy string) {
	p.publishStatus(ctx, messaging.EventUserReactivated, user, changedBy)
}

// PublishDeleted publishes a user deleted event
func (p *UserEventPublisher) PublishDeleted(ctx context.Context, user *domain.User, changedBy string) {
	p.publishStatus(ctx, messaging.EventUserDeleted, user, changedBy)
}

// PublishRoleChanged publishes a role change event
func (p *UserEventPublisher) PublishRoleChanged(ctx context.Context, userID string, oldRole, newRole actor.Role, changedBy string) {
	data := messaging.UserRoleChangedEvent{
		UserID:    userID,
		OldRole:   string(oldRole),
		NewRole:   string(newRole),
		ChangedBy: changedBy,
	}
	p.publish(ctx, messaging.EventUserRoleChanged, userID, data)
}

func (p *UserEventPublisher) publishStatus(ctx context.Context, eventType string, user *domain.User, changedBy string) {
	data := messaging.UserStatusEvent{UserID: user.ID, Username: user.Username, ChangedBy: changedBy}
	p.publish(ctx, eventType, user.ID, data)
}

func (p *UserEventPublisher) publish(ctx context.Context, eventType, userID string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("user_id", userID).Str("event", eventType).Msg("failed to publish user event")
	}
}
