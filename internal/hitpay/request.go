package hitpay

import (
	"net/url"
	"strconv"
	"strings"

	"hitpay-gateway/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultChannel tags payments created from this integration.
const DefaultChannel = "api_woocomm"

// CreatePaymentRequest is the payment-request body sent to HitPay.
type CreatePaymentRequest struct {
	Amount          decimal.Decimal
	Currency        string
	ReferenceNumber string
	Webhook         string
	RedirectURL     string
	Channel         string
	Name            string
	Email           string
}

// NewCreatePaymentRequest builds the request for an order. The reference
// number is the order id so webhooks can be correlated back.
func NewCreatePaymentRequest(order *models.Order, redirectURL, webhookURL, channel string) CreatePaymentRequest {
	if channel == "" {
		channel = DefaultChannel
	}
	return CreatePaymentRequest{
		Amount:          order.Total,
		Currency:        order.Currency,
		ReferenceNumber: strconv.FormatInt(order.ID, 10),
		Webhook:         webhookURL,
		RedirectURL:     redirectURL,
		Channel:         channel,
		Name:            strings.TrimSpace(order.BillingFirstName + " " + order.BillingLastName),
		Email:           order.BillingEmail,
	}
}

// Form encodes the request the way the payment-requests endpoint expects.
func (r CreatePaymentRequest) Form() url.Values {
	v := url.Values{}
	v.Set("amount", r.Amount.StringFixed(2))
	v.Set("currency", r.Currency)
	v.Set("reference_number", r.ReferenceNumber)
	v.Set("webhook", r.Webhook)
	v.Set("redirect_url", r.RedirectURL)
	v.Set("channel", r.Channel)
	if r.Name != "" {
		v.Set("name", r.Name)
	}
	if r.Email != "" {
		v.Set("email", r.Email)
	}
	return v
}
