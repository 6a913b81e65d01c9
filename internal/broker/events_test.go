package broker

import (
	"context"
	"encoding/json"
	"testing"

	"hitpay-gateway/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestHandleMessageRoutesReconciled(t *testing.T) {
	var got *models.PaymentReconciledEvent
	h := NewEventHandler()
	h.OnPaymentReconciled(func(_ context.Context, e *models.PaymentReconciledEvent) error {
		got = e
		return nil
	})

	event := &models.PaymentReconciledEvent{
		BaseEvent:     NewBaseEvent(models.EventTypePaymentReconciled),
		OrderID:       42,
		OrderStatus:   models.OrderStatusProcessing,
		WebhookStatus: models.PaymentStatusCompleted,
		TransactionID: "pay_1",
		IsPaid:        true,
	}

	require.NoError(t, h.HandleMessage(context.Background(), message(t, event)))
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, models.PaymentStatusCompleted, got.WebhookStatus)
	assert.True(t, got.IsPaid)
	assert.NotEmpty(t, got.EventID)
}

func TestHandleMessageRoutesCreated(t *testing.T) {
	var got *models.PaymentCreatedEvent
	h := NewEventHandler()
	h.OnPaymentCreated(func(_ context.Context, e *models.PaymentCreatedEvent) error {
		got = e
		return nil
	})

	event := &models.PaymentCreatedEvent{
		BaseEvent: NewBaseEvent(models.EventTypePaymentCreated),
		OrderID:   7,
		PaymentID: "req_1",
		Amount:    "10.00",
		Currency:  "SGD",
	}

	require.NoError(t, h.HandleMessage(context.Background(), message(t, event)))
	require.NotNil(t, got)
	assert.Equal(t, "req_1", got.PaymentID)
}

func TestHandleMessageIgnoresUnknownAndUnregistered(t *testing.T) {
	h := NewEventHandler()

	assert.NoError(t, h.HandleMessage(context.Background(), message(t, models.BaseEvent{EventType: "SOMETHING_ELSE"})))
	assert.NoError(t, h.HandleMessage(context.Background(), message(t, models.BaseEvent{EventType: models.EventTypePaymentReconciled})))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	h := NewEventHandler()
	err := h.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "order-99", orderKey(99))
}
