package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hitpay_payments_created_total",
		Help: "Total number of payment requests created with HitPay",
	})

	PaymentCreationFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hitpay_payment_creation_failed_total",
		Help: "Total number of failed payment creations",
	}, []string{"reason"})

	PaymentCreationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hitpay_payment_creation_latency_seconds",
		Help:    "Latency of payment creation calls to HitPay",
		Buckets: prometheus.DefBuckets,
	})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hitpay_webhooks_received_total",
		Help: "Total number of webhook deliveries by outcome",
	}, []string{"outcome"})

	OrdersReconciledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hitpay_orders_reconciled_total",
		Help: "Total number of orders reconciled by provider status",
	}, []string{"status"})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hitpay_reconcile_latency_seconds",
		Help:    "Latency of webhook reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	StatusPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hitpay_status_polls_total",
		Help: "Total number of status poll requests by returned status",
	}, []string{"status"})

	StatusCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hitpay_status_cache_hits_total",
		Help: "Total number of status polls answered from the cache",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
