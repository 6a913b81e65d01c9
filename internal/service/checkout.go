package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hitpay-gateway/config"
	"hitpay-gateway/internal/broker"
	"hitpay-gateway/internal/hitpay"
	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/util"

	"go.uber.org/zap"
)

// Checkout results as understood by the storefront.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// CheckoutFailureMessage is the only failure text the buyer ever sees.
const CheckoutFailureMessage = "HitPay: Something went wrong, please contact the merchant"

// CheckoutResult tells the storefront where to send the buyer next.
type CheckoutResult struct {
	Result   string `json:"result"`
	Redirect string `json:"redirect"`
	Message  string `json:"message,omitempty"`
}

// CheckoutService starts HitPay payments for orders
type CheckoutService struct {
	store  OrderStore
	client PaymentCreator
	events EventPublisher
	cfg    config.HitPayConfig
	links  Links
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store OrderStore,
	client PaymentCreator,
	events EventPublisher,
	cfg config.HitPayConfig,
	links Links,
) *CheckoutService {
	return &CheckoutService{
		store:  store,
		client: client,
		events: events,
		cfg:    cfg,
		links:  links,
		logger: util.GetLogger(),
	}
}

// Initiate creates a payment request for the order. The returned result is
// never nil; a non-nil error carries the detail that is only logged.
func (s *CheckoutService) Initiate(ctx context.Context, orderID int64) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Initiate", orderID)
	defer span.End()

	if !s.cfg.Available() {
		util.PaymentCreationFailedTotal.WithLabelValues("unavailable").Inc()
		return s.failure(), models.ErrGatewayUnavailable
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		util.PaymentCreationFailedTotal.WithLabelValues("order_lookup").Inc()
		util.SpanError(span, err)
		return s.failure(), err
	}

	req := hitpay.NewCreatePaymentRequest(order, s.links.ThankYouURL(order.ID), s.links.WebhookURL(order.ID), s.cfg.Channel)

	start := time.Now()
	created, err := s.client.CreatePayment(ctx, req)
	util.PaymentCreationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentCreationFailedTotal.WithLabelValues("provider").Inc()
		util.SpanError(span, err)
		s.logger.Error("HitPay payment creation failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return s.failure(), err
	}

	if created.Status != models.PaymentStatusPending {
		err := fmt.Errorf("%w: unexpected status %q", hitpay.ErrPaymentCreationFailed, created.Status)
		util.PaymentCreationFailedTotal.WithLabelValues("status").Inc()
		util.SpanError(span, err)
		s.logger.Error("HitPay returned a non-pending payment",
			zap.Int64("order_id", order.ID),
			zap.String("payment_id", created.ID),
			zap.String("status", created.Status))
		return s.failure(), err
	}

	// A retried checkout replaces the payment id of the previous attempt.
	if err := s.store.SetMeta(ctx, order.ID, models.MetaPaymentID, created.ID); err != nil {
		util.PaymentCreationFailedTotal.WithLabelValues("db_error").Inc()
		util.SpanError(span, err)
		return s.failure(), fmt.Errorf("failed to store payment id: %w", err)
	}

	util.PaymentsCreatedTotal.Inc()
	s.logger.Info("HitPay payment created",
		zap.Int64("order_id", order.ID),
		zap.String("payment_id", created.ID))

	event := &models.PaymentCreatedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypePaymentCreated),
		OrderID:   order.ID,
		PaymentID: created.ID,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		LiveMode:  s.cfg.LiveMode,
	}
	if err := s.events.PublishPaymentCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentCreated event", zap.Error(err))
	}

	return &CheckoutResult{
		Result:   ResultSuccess,
		Redirect: created.URL,
	}, nil
}

func (s *CheckoutService) failure() *CheckoutResult {
	return &CheckoutResult{
		Result:   ResultFailure,
		Redirect: s.links.CheckoutURL(),
		Message:  CheckoutFailureMessage,
	}
}

// IsPaymentCreationFailure reports whether err came from the provider call.
func IsPaymentCreationFailure(err error) bool {
	return errors.Is(err, hitpay.ErrPaymentCreationFailed)
}
