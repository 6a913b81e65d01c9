package service

import (
	"context"
	"time"

	"hitpay-gateway/internal/hitpay"
	"hitpay-gateway/internal/models"
)

// OrderStore is the slice of the order store the gateway needs.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetMeta(ctx context.Context, orderID int64, key string) (string, error)
	SetMeta(ctx context.Context, orderID int64, key, value string) error
	ApplyReconciliation(ctx context.Context, rec models.Reconciliation) error
	RecordWebhookDelivery(ctx context.Context, orderID int64, status, paymentID, outcome string) error
}

// PaymentCreator creates payment requests at the provider.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, req hitpay.CreatePaymentRequest) (*hitpay.CreatedPayment, error)
}

// CartClearer empties the cart of a checkout session.
type CartClearer interface {
	ClearCart(ctx context.Context, sessionID string) error
}

// Locker is a best-effort distributed lock.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// StatusCache holds terminal webhook statuses for the poll endpoint.
type StatusCache interface {
	CachedStatus(ctx context.Context, orderID int64) (string, error)
	CacheStatus(ctx context.Context, orderID int64, status string, ttl time.Duration) error
}

// EventPublisher publishes payment lifecycle events.
type EventPublisher interface {
	PublishPaymentCreated(ctx context.Context, event *models.PaymentCreatedEvent) error
	PublishPaymentReconciled(ctx context.Context, event *models.PaymentReconciledEvent) error
}
