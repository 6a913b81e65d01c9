package worker

import (
	"context"
	"time"

	"hitpay-gateway/internal/broker"
	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/util"

	"go.uber.org/zap"
)

// StatusWriter stores the terminal status served to pollers.
type StatusWriter interface {
	CacheStatus(ctx context.Context, orderID int64, status string, ttl time.Duration) error
}

// StatusProjector keeps the poll status cache in step with reconciled payments
type StatusProjector struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        StatusWriter
	ttl          time.Duration
	logger       *zap.Logger
}

// NewStatusProjector creates a new status projector
func NewStatusProjector(consumer *broker.Consumer, cache StatusWriter, ttl time.Duration) *StatusProjector {
	w := &StatusProjector{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
		ttl:          ttl,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnPaymentCreated(w.HandlePaymentCreated)
	w.eventHandler.OnPaymentReconciled(w.HandlePaymentReconciled)

	return w
}

// Start starts the worker
func (w *StatusProjector) Start(ctx context.Context) error {
	w.logger.Info("Starting status projector")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StatusProjector) Stop() error {
	w.logger.Info("Stopping status projector")
	return w.consumer.Close()
}

// HandlePaymentCreated only traces the payment; there is nothing to cache
// until the webhook arrives.
func (w *StatusProjector) HandlePaymentCreated(_ context.Context, event *models.PaymentCreatedEvent) error {
	w.logger.Debug("Payment awaiting provider",
		zap.Int64("order_id", event.OrderID),
		zap.String("payment_id", event.PaymentID),
		zap.Bool("live_mode", event.LiveMode))
	return nil
}

// HandlePaymentReconciled caches the webhook status of the order
func (w *StatusProjector) HandlePaymentReconciled(ctx context.Context, event *models.PaymentReconciledEvent) error {
	if event.WebhookStatus == "" {
		return nil
	}
	if err := w.cache.CacheStatus(ctx, event.OrderID, event.WebhookStatus, w.ttl); err != nil {
		return err
	}
	w.logger.Debug("Projected payment status",
		zap.Int64("order_id", event.OrderID),
		zap.String("status", event.WebhookStatus))
	return nil
}
