package models

import "time"

// Event types
const (
	EventTypePaymentCreated    = "PAYMENT_CREATED"
	EventTypePaymentReconciled = "PAYMENT_RECONCILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentCreatedEvent published once HitPay accepted a payment request
type PaymentCreatedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	LiveMode  bool   `json:"live_mode"`
}

// PaymentReconciledEvent published after a webhook settled an order
type PaymentReconciledEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	OrderStatus   string `json:"order_status"`
	WebhookStatus string `json:"webhook_status"`
	TransactionID string `json:"transaction_id"`
	IsPaid        bool   `json:"is_paid"`
}
