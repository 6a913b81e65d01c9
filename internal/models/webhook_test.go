package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookPayload(t *testing.T) {
	fields := map[string]string{
		"status":           "completed",
		"amount":           "10.00",
		"currency":         "SGD",
		"reference_number": "42",
		"payment_id":       "pay-1",
	}

	p, err := ParseWebhookPayload("42", fields)
	require.NoError(t, err)

	assert.Equal(t, int64(42), p.OrderID)
	assert.Equal(t, "completed", p.Status)
	assert.Equal(t, "pay-1", p.PaymentID)
	require.NotNil(t, p.Amount)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("10")))
}

func TestParseWebhookPayloadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		fields  map[string]string
	}{
		{name: "non numeric order", orderID: "abc", fields: map[string]string{"status": "failed"}},
		{name: "zero order", orderID: "0", fields: map[string]string{"status": "failed"}},
		{name: "missing status", orderID: "42", fields: map[string]string{"amount": "1.00"}},
		{name: "bad amount", orderID: "42", fields: map[string]string{"status": "completed", "amount": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWebhookPayload(tt.orderID, tt.fields)
			assert.ErrorIs(t, err, ErrMalformedWebhookPayload)
		})
	}
}

func TestMatchesOrder(t *testing.T) {
	order := &Order{ID: 42, Total: decimal.RequireFromString("10.00"), Currency: "SGD"}
	amount := decimal.RequireFromString("10")
	other := decimal.RequireFromString("10.01")

	base := WebhookPayload{OrderID: 42, Status: "completed", Amount: &amount, Currency: "SGD", ReferenceNumber: "42"}
	assert.True(t, base.MatchesOrder(order))

	wrongAmount := base
	wrongAmount.Amount = &other
	assert.False(t, wrongAmount.MatchesOrder(order))

	noAmount := base
	noAmount.Amount = nil
	assert.False(t, noAmount.MatchesOrder(order))

	wrongCurrency := base
	wrongCurrency.Currency = "USD"
	assert.False(t, wrongCurrency.MatchesOrder(order))

	wrongReference := base
	wrongReference.ReferenceNumber = "43"
	assert.False(t, wrongReference.MatchesOrder(order))
}

func TestSignedFieldsDropsSignature(t *testing.T) {
	req := WebhookRequest{Fields: map[string]string{"hmac": "abc", "status": "failed"}}
	assert.Equal(t, map[string]string{"status": "failed"}, req.SignedFields())
}
