package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Posted form fields sent by HitPay on a webhook.
const (
	FieldHMAC            = "hmac"
	FieldStatus          = "status"
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldReferenceNumber = "reference_number"
	FieldPaymentID       = "payment_id"
	FieldPaymentRequest  = "payment_request_id"
)

// WebhookRequest is one raw delivery: the query order id, the posted form
// fields and the claimed signature.
type WebhookRequest struct {
	OrderID   string
	Fields    map[string]string
	Signature string
}

// SignedFields returns the posted fields without the signature.
func (r WebhookRequest) SignedFields() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		if k == FieldHMAC {
			continue
		}
		out[k] = v
	}
	return out
}

// WebhookPayload is the typed view over a verified delivery.
type WebhookPayload struct {
	OrderID         int64
	Status          string
	PaymentID       string
	PaymentRequest  string
	Currency        string
	ReferenceNumber string
	Amount          *decimal.Decimal
	RawAmount       string
}

// ParseWebhookPayload validates structure before any branching happens.
func ParseWebhookPayload(orderID string, fields map[string]string) (*WebhookPayload, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(orderID), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: order_id %q", ErrMalformedWebhookPayload, orderID)
	}

	status := strings.TrimSpace(fields[FieldStatus])
	if status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedWebhookPayload)
	}

	p := &WebhookPayload{
		OrderID:         id,
		Status:          status,
		PaymentID:       strings.TrimSpace(fields[FieldPaymentID]),
		PaymentRequest:  strings.TrimSpace(fields[FieldPaymentRequest]),
		Currency:        strings.TrimSpace(fields[FieldCurrency]),
		ReferenceNumber: strings.TrimSpace(fields[FieldReferenceNumber]),
		RawAmount:       strings.TrimSpace(fields[FieldAmount]),
	}

	if p.RawAmount != "" {
		amount, err := decimal.NewFromString(p.RawAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q", ErrMalformedWebhookPayload, p.RawAmount)
		}
		p.Amount = &amount
	}

	return p, nil
}

// MatchesOrder reports whether a completed payment settles exactly this order.
func (p *WebhookPayload) MatchesOrder(order *Order) bool {
	if p.Amount == nil || !p.Amount.Equal(order.Total) {
		return false
	}
	if p.ReferenceNumber != strconv.FormatInt(order.ID, 10) {
		return false
	}
	return p.Currency == order.Currency
}
