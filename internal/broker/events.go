package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing payment events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishPaymentCreated publishes PaymentCreated event
func (ep *EventPublisher) PublishPaymentCreated(ctx context.Context, event *models.PaymentCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishPaymentReconciled publishes PaymentReconciled event
func (ep *EventPublisher) PublishPaymentReconciled(ctx context.Context, event *models.PaymentReconciledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPaymentCreated    func(context.Context, *models.PaymentCreatedEvent) error
	onPaymentReconciled func(context.Context, *models.PaymentReconciledEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPaymentCreated registers a handler for PaymentCreated events
func (eh *EventHandler) OnPaymentCreated(handler func(context.Context, *models.PaymentCreatedEvent) error) {
	eh.onPaymentCreated = handler
}

// OnPaymentReconciled registers a handler for PaymentReconciled events
func (eh *EventHandler) OnPaymentReconciled(handler func(context.Context, *models.PaymentReconciledEvent) error) {
	eh.onPaymentReconciled = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypePaymentCreated:
		if eh.onPaymentCreated != nil {
			var event models.PaymentCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentCreated event: %w", err)
			}
			return eh.onPaymentCreated(ctx, &event)
		}

	case models.EventTypePaymentReconciled:
		if eh.onPaymentReconciled != nil {
			var event models.PaymentReconciledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentReconciled event: %w", err)
			}
			return eh.onPaymentReconciled(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
