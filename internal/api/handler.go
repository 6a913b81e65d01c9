package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/presenter"
	"hitpay-gateway/internal/service"
	"hitpay-gateway/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Checkouter starts payments.
type Checkouter interface {
	Initiate(ctx context.Context, orderID int64) (*service.CheckoutResult, error)
}

// WebhookReconciler applies provider webhooks.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, req models.WebhookRequest) (*service.ReconcileResult, error)
}

// StatusPoller answers status polls.
type StatusPoller interface {
	Poll(ctx context.Context, orderID int64) models.PollResponse
}

// OrderReader loads orders for the thank-you page.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck func(ctx context.Context) error

// PollSettings configures the browser polling loop.
type PollSettings struct {
	Interval    time.Duration
	MaxAttempts int
}

// Handler contains HTTP handlers
type Handler struct {
	checkout   Checkouter
	reconciler WebhookReconciler
	status     StatusPoller
	orders     OrderReader
	poll       PollSettings
	checks     map[string]ReadinessCheck
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	checkout Checkouter,
	reconciler WebhookReconciler,
	status StatusPoller,
	orders OrderReader,
	poll PollSettings,
	checks map[string]ReadinessCheck,
) *Handler {
	if poll.Interval <= 0 {
		poll.Interval = presenter.DefaultPollInterval
	}
	if poll.MaxAttempts <= 0 {
		poll.MaxAttempts = presenter.DefaultPollMaxAttempts
	}
	return &Handler{
		checkout:   checkout,
		reconciler: reconciler,
		status:     status,
		orders:     orders,
		poll:       poll,
		checks:     checks,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST(service.WebhookPath, h.webhook)
	router.GET(service.WebhookPath, h.orderStatus)

	router.GET(service.ThankYouPath+":id", h.thankYou)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders/:id/checkout", h.startCheckout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// webhook receives HitPay deliveries. The provider always gets 200.
func (h *Handler) webhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.logger.Warn("Unreadable webhook body", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	req := models.WebhookRequest{
		OrderID:   c.Query("order_id"),
		Fields:    firstValues(c.Request.PostForm),
		Signature: c.Request.PostForm.Get(models.FieldHMAC),
	}

	if _, err := h.reconciler.Reconcile(c.Request.Context(), req); err != nil && !errors.Is(err, models.ErrAlreadyReconciled) {
		h.logger.Warn("Webhook rejected",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
	}

	c.Status(http.StatusOK)
}

// orderStatus answers the thank-you page polling loop
func (h *Handler) orderStatus(c *gin.Context) {
	if c.Query("get_order_status") != "1" {
		c.JSON(http.StatusNotFound, models.PollResponse{Status: models.PollStatusError, Message: "unsupported request"})
		return
	}

	// A non numeric id reads as 0, which is never a valid order.
	orderID, _ := strconv.ParseInt(c.Query("order_id"), 10, 64)

	c.JSON(http.StatusOK, h.status.Poll(c.Request.Context(), orderID))
}

// startCheckout creates the HitPay payment for an order
func (h *Handler) startCheckout(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	res, err := h.checkout.Initiate(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("Checkout failed", zap.Int64("order_id", orderID), zap.Error(err))
		c.JSON(checkoutErrorStatus(err), res)
		return
	}

	c.JSON(http.StatusOK, res)
}

// thankYou renders the order received page
func (h *Handler) thankYou(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, models.ErrOrderNotFound.Error())
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			c.String(http.StatusNotFound, models.ErrOrderNotFound.Error())
			return
		}
		h.logger.Error("Failed to load order", zap.Int64("order_id", orderID), zap.Error(err))
		c.String(http.StatusInternalServerError, presenter.MessageError)
		return
	}

	reference := c.Query("reference")
	status := presenter.InitialStatus(c.Query("status"), order.Status)
	view := presenter.NewView(status, reference)

	c.HTML(http.StatusOK, "thankyou.html", gin.H{
		"View":  view,
		"Order": order,
		"Total": order.Total.StringFixed(2),
		"Messages": gin.H{
			"Wait":      presenter.MessageWait,
			"Pending":   presenter.MessagePending,
			"Completed": presenter.MessageCompleted,
			"Failed":    presenter.MessageFailed,
			"Cancelled": cancelledText(view),
			"Error":     presenter.MessageError,
		},
		"PollURL":     pollURL(order.ID),
		"IntervalMs":  h.poll.Interval.Milliseconds(),
		"MaxAttempts": h.poll.MaxAttempts,
	})
}

func cancelledText(v presenter.View) string {
	if v.Panel == presenter.PanelCancelled && v.Message != "" {
		return v.Message
	}
	return presenter.MessageCancelled
}

func pollURL(orderID int64) string {
	q := url.Values{}
	q.Set("get_order_status", "1")
	q.Set("order_id", strconv.FormatInt(orderID, 10))
	return service.WebhookPath + "?" + q.Encode()
}

func checkoutErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	case service.IsPaymentCreationFailure(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func firstValues(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
