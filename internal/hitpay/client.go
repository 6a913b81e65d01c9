package hitpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"hitpay-gateway/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	LiveBaseURL    = "https://api.hit-pay.com/v1/"
	SandboxBaseURL = "https://api.sandbox.hit-pay.com/v1/"

	paymentRequestsPath = "payment-requests"
	defaultTimeout      = 30 * time.Second
)

// ErrPaymentCreationFailed covers transport failures, non-2xx answers and
// unreadable bodies. Callers only ever see this kind.
var ErrPaymentCreationFailed = errors.New("HitPay: payment creation failed")

// CreatedPayment is the provider's answer to a payment request.
type CreatedPayment struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	URL             string `json:"url"`
	ReferenceNumber string `json:"reference_number"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// Client talks to the HitPay payment-requests API.
type Client struct {
	apiKey   string
	liveMode bool
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for the live or sandbox environment.
func NewClient(apiKey string, liveMode bool, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := SandboxBaseURL
	if liveMode {
		baseURL = LiveBaseURL
	}
	return &Client{
		apiKey:   apiKey,
		liveMode: liveMode,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		logger:   util.GetLogger(),
	}
}

// LiveMode reports whether the client targets production.
func (c *Client) LiveMode() bool {
	return c.liveMode
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreatePayment sends one payment request. There is no retry here.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatedPayment, error) {
	form := req.Form()
	c.logger.Debug("HitPay request",
		zap.String("reference_number", req.ReferenceNumber),
		zap.String("amount", form.Get("amount")),
		zap.String("currency", req.Currency),
		zap.Bool("live_mode", c.liveMode))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+paymentRequestsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrapf(ErrPaymentCreationFailed, "build request: %v", err)
	}
	httpReq.Header.Set("X-BUSINESS-API-KEY", c.apiKey)
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(ErrPaymentCreationFailed, "send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrPaymentCreationFailed, "read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(ErrPaymentCreationFailed, "status %s: %s", resp.Status, truncate(string(body), 512))
	}

	var created CreatedPayment
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, errors.Wrapf(ErrPaymentCreationFailed, "decode response: %v", err)
	}
	if created.ID == "" {
		return nil, errors.Wrap(ErrPaymentCreationFailed, "response without payment id")
	}

	c.logger.Debug("HitPay response",
		zap.String("payment_id", created.ID),
		zap.String("status", created.Status))

	return &created, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
