package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hitpay-gateway/internal/broker"
	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/signature"
	"hitpay-gateway/internal/util"

	"go.uber.org/zap"
)

// Webhook outcomes, used for metrics and the delivery audit trail.
const (
	OutcomeApplied           = "applied"
	OutcomeAlreadyReconciled = "already_reconciled"
	OutcomeInProgress        = "in_progress"
	OutcomeMalformed         = "malformed"
	OutcomeInvalidSignature  = "invalid_signature"
	OutcomeOrderNotFound     = "order_not_found"
	OutcomeError             = "error"
)

const defaultLockTTL = 30 * time.Second

// ReconcileResult describes what one webhook delivery did.
type ReconcileResult struct {
	OrderID       int64
	Outcome       string
	OrderStatus   string
	WebhookStatus string
	IsPaid        bool
}

// Reconciler applies verified HitPay webhooks to orders, once per order
type Reconciler struct {
	store   OrderStore
	carts   CartClearer
	locker  Locker
	events  EventPublisher
	salt    string
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewReconciler creates a new reconciler. locker may be nil.
func NewReconciler(
	store OrderStore,
	carts CartClearer,
	locker Locker,
	events EventPublisher,
	salt string,
	lockTTL time.Duration,
) *Reconciler {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Reconciler{
		store:   store,
		carts:   carts,
		locker:  locker,
		events:  events,
		salt:    salt,
		lockTTL: lockTTL,
		logger:  util.GetLogger(),
	}
}

// Reconcile verifies and applies one webhook delivery. The result is never
// nil; the error explains any outcome other than applied.
func (r *Reconciler) Reconcile(ctx context.Context, req models.WebhookRequest) (*ReconcileResult, error) {
	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
	}()

	r.logger.Debug("Webhook received",
		zap.String("order_id", req.OrderID),
		zap.Any("fields", req.Fields))

	result := &ReconcileResult{}

	if strings.TrimSpace(req.OrderID) == "" || req.Signature == "" {
		r.logger.Warn("Webhook without order_id or hmac")
		return r.finish(ctx, result, OutcomeMalformed, "", "",
			fmt.Errorf("%w: order_id and hmac are required", models.ErrMalformedWebhookPayload))
	}

	fields := req.SignedFields()
	if !signature.Verify(r.salt, fields, req.Signature) {
		r.logger.Warn("Webhook signature mismatch", zap.String("order_id", req.OrderID))
		return r.finish(ctx, result, OutcomeInvalidSignature, "", "", models.ErrSignatureInvalid)
	}

	payload, err := models.ParseWebhookPayload(req.OrderID, fields)
	if err != nil {
		return r.finish(ctx, result, OutcomeMalformed, "", "", err)
	}
	result.OrderID = payload.OrderID

	ctx, span := util.StartSpan(ctx, "Reconciler.Reconcile", payload.OrderID)
	defer span.End()

	if r.locker != nil {
		lockKey := fmt.Sprintf("hitpay:webhook:%d", payload.OrderID)
		token, ok, err := r.locker.AcquireLock(ctx, lockKey, r.lockTTL)
		switch {
		case err != nil:
			r.logger.Warn("Webhook lock unavailable, relying on store guard", zap.Error(err))
		case !ok:
			return r.finish(ctx, result, OutcomeInProgress, payload.Status, payload.PaymentID,
				fmt.Errorf("%w: delivery in progress", models.ErrAlreadyReconciled))
		default:
			defer func() {
				if err := r.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
					r.logger.Warn("Failed to release webhook lock", zap.Error(err))
				}
			}()
		}
	}

	order, err := r.store.GetOrderByID(ctx, payload.OrderID)
	if err != nil {
		util.SpanError(span, err)
		outcome := OutcomeError
		if errors.Is(err, models.ErrOrderNotFound) {
			outcome = OutcomeOrderNotFound
		}
		return r.finish(ctx, result, outcome, payload.Status, payload.PaymentID, err)
	}

	paymentID, err := r.store.GetMeta(ctx, order.ID, models.MetaPaymentID)
	if err != nil {
		return r.finish(ctx, result, OutcomeError, payload.Status, payload.PaymentID, err)
	}
	if paymentID == "" {
		r.logger.Warn("Webhook for order without a stored payment id", zap.Int64("order_id", order.ID))
	}

	guard, err := r.store.GetMeta(ctx, order.ID, models.MetaWebhookStatus)
	if err != nil {
		return r.finish(ctx, result, OutcomeError, payload.Status, payload.PaymentID, err)
	}
	if guard != "" {
		return r.finish(ctx, result, OutcomeAlreadyReconciled, payload.Status, payload.PaymentID, models.ErrAlreadyReconciled)
	}

	rec := r.decide(payload, order)

	if err := r.store.ApplyReconciliation(ctx, rec); err != nil {
		if errors.Is(err, models.ErrAlreadyReconciled) {
			return r.finish(ctx, result, OutcomeAlreadyReconciled, payload.Status, payload.PaymentID, err)
		}
		util.SpanError(span, err)
		return r.finish(ctx, result, OutcomeError, payload.Status, payload.PaymentID,
			fmt.Errorf("failed to apply reconciliation: %w", err))
	}

	result.OrderStatus = rec.OrderStatus
	result.WebhookStatus = rec.WebhookStatus
	result.IsPaid = rec.IsPaid

	if err := r.carts.ClearCart(ctx, order.SessionID); err != nil {
		r.logger.Warn("Failed to clear cart", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	util.OrdersReconciledTotal.WithLabelValues(statusLabel(rec.WebhookStatus)).Inc()
	r.logger.Info("Order reconciled",
		zap.Int64("order_id", order.ID),
		zap.String("order_status", rec.OrderStatus),
		zap.String("webhook_status", rec.WebhookStatus),
		zap.String("transaction_id", rec.TransactionID))

	event := &models.PaymentReconciledEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypePaymentReconciled),
		OrderID:       order.ID,
		OrderStatus:   rec.OrderStatus,
		WebhookStatus: rec.WebhookStatus,
		TransactionID: rec.TransactionID,
		IsPaid:        rec.IsPaid,
	}
	if err := r.events.PublishPaymentReconciled(ctx, event); err != nil {
		r.logger.Error("Failed to publish PaymentReconciled event", zap.Error(err))
	}

	return r.finish(ctx, result, OutcomeApplied, payload.Status, payload.PaymentID, nil)
}

// decide maps a provider status onto the order mutation.
func (r *Reconciler) decide(p *models.WebhookPayload, order *models.Order) models.Reconciliation {
	rec := models.Reconciliation{
		OrderID:       order.ID,
		OrderStatus:   models.OrderStatusFailed,
		TransactionID: p.PaymentID,
		Currency:      p.Currency,
		Amount:        p.RawAmount,
		WebhookStatus: p.Status,
	}

	switch p.Status {
	case models.PaymentStatusCompleted:
		if p.MatchesOrder(order) {
			rec.OrderStatus = models.OrderStatusProcessing
			rec.IsPaid = true
			rec.Note = "Payment successful. Transaction Id: " + p.PaymentID
			return rec
		}
		// Unlike the unknown branch, the guard records failed rather than the raw status so pollers never see an unverified completion.
		r.logger.Error("Completed payment does not match order",
			zap.Int64("order_id", order.ID),
			zap.Error(models.ErrAmountCurrencyMismatch),
			zap.String("amount", p.RawAmount),
			zap.String("order_total", order.Total.StringFixed(2)),
			zap.String("currency", p.Currency),
			zap.String("order_currency", order.Currency),
			zap.String("reference_number", p.ReferenceNumber))
		rec.WebhookStatus = models.PaymentStatusFailed
		rec.Note = "Payment amount or currency mismatch. Transaction Id: " + p.PaymentID
	case models.PaymentStatusFailed:
		rec.Note = "Payment Failed. Transaction Id: " + p.PaymentID
	case models.PaymentStatusPending:
		r.logger.Warn("Pending webhook marks the order failed", zap.Int64("order_id", order.ID))
		rec.Note = "Payment is pending. Transaction Id: " + p.PaymentID
	default:
		rec.Note = "Payment returned unknown status. Transaction Id: " + p.PaymentID
	}
	return rec
}

func (r *Reconciler) finish(ctx context.Context, result *ReconcileResult, outcome, status, paymentID string, err error) (*ReconcileResult, error) {
	result.Outcome = outcome
	util.WebhooksReceivedTotal.WithLabelValues(outcome).Inc()

	if result.OrderID > 0 {
		if rerr := r.store.RecordWebhookDelivery(ctx, result.OrderID, status, paymentID, outcome); rerr != nil {
			r.logger.Warn("Failed to record webhook delivery", zap.Error(rerr))
		}
	}

	if err != nil {
		r.logger.Info("Webhook not applied",
			zap.Int64("order_id", result.OrderID),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	return result, err
}
