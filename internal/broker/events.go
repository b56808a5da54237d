package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"procurement-service/internal/models"
)

// EventPublisher turns domain happenings into Kafka events. Publishing is
// best-effort from the caller's point of view: a failed publish must not
// roll back the state change that produced it.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishUserRegistered emits the event carrying the confirmation token.
func (ep *EventPublisher) PublishUserRegistered(ctx context.Context, userID int64, email, token string) error {
	event := models.UserRegisteredEvent{
		BaseEvent: newBaseEvent(models.EventTypeUserRegistered),
		UserID:    userID,
		Email:     email,
		Token:     token,
	}

	key := fmt.Sprintf("user-%d", userID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderConfirmed emits the buyer-facing receipt event.
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event models.OrderConfirmedEvent) error {
	event.BaseEvent = newBaseEvent(models.EventTypeOrderConfirmed)
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOperatorNotice emits the operator-facing event with the delivery contact.
func (ep *EventPublisher) PublishOperatorNotice(ctx context.Context, event models.OperatorNoticeEvent) error {
	event.BaseEvent = newBaseEvent(models.EventTypeOperatorNotice)
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed messages by event type.
type EventHandler struct {
	onUserRegistered func(ctx context.Context, event models.UserRegisteredEvent) error
	onOrderConfirmed func(ctx context.Context, event models.OrderConfirmedEvent) error
	onOperatorNotice func(ctx context.Context, event models.OperatorNoticeEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler(
	onUserRegistered func(ctx context.Context, event models.UserRegisteredEvent) error,
	onOrderConfirmed func(ctx context.Context, event models.OrderConfirmedEvent) error,
	onOperatorNotice func(ctx context.Context, event models.OperatorNoticeEvent) error,
) *EventHandler {
	return &EventHandler{
		onUserRegistered: onUserRegistered,
		onOrderConfirmed: onOrderConfirmed,
		onOperatorNotice: onOperatorNotice,
	}
}

// HandleMessage decodes a message and dispatches it. Unknown event types are
// skipped so old consumers survive new producers.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch base.EventType {
	case models.EventTypeUserRegistered:
		var event models.UserRegisteredEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
		}
		if eh.onUserRegistered != nil {
			return eh.onUserRegistered(ctx, event)
		}
	case models.EventTypeOrderConfirmed:
		var event models.OrderConfirmedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
		}
		if eh.onOrderConfirmed != nil {
			return eh.onOrderConfirmed(ctx, event)
		}
	case models.EventTypeOperatorNotice:
		var event models.OperatorNoticeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
		}
		if eh.onOperatorNotice != nil {
			return eh.onOperatorNotice(ctx, event)
		}
	}

	return nil
}
