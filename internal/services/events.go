package services

import (
	"context"
	"time"

	"github.com/techzara/platform/internal/logger"
	"github.com/techzara/platform/internal/mq"
	"go.uber.org/zap"
)

// UserEventsChannel is the broker channel user lifecycle events go to.
const UserEventsChannel = "user.events"

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserEvent is the JSON payload published for user lifecycle changes.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers user events to interested consumers.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event UserEvent) error
}

// MQEventPublisher publishes user events through a message broker.
type MQEventPublisher struct {
	mq *mq.MQ
}

// NewEventPublisher returns a publisher for broker. A nil broker yields a
// publisher that drops every event.
func NewEventPublisher(broker *mq.MQ) EventPublisher {
	if broker == nil {
		return NopEventPublisher{}
	}
	return &MQEventPublisher{mq: broker}
}

func (p *MQEventPublisher) PublishUserEvent(ctx context.Context, event UserEvent) error {
	_, err := p.mq.PublishJSON(ctx, UserEventsChannel, event, map[string]string{"type": event.Type})
	return err
}

// NopEventPublisher discards events.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishUserEvent(context.Context, UserEvent) error {
	return nil
}

// publishUserEvent sends the event and logs delivery failures. The write that
// triggered the event has already been committed, so failures are not
// returned to the caller.
func publishUserEvent(ctx context.Context, events EventPublisher, eventType string, userID int, username string) {
	event := UserEvent{
		Type:       eventType,
		UserID:     userID,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
	if err := events.PublishUserEvent(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish user event",
			zap.String("type", eventType),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
	}
}
