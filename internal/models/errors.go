package models

import "errors"

var (
	ErrSignatureInvalid        = errors.New("hmac is not the same like generated")
	ErrAmountCurrencyMismatch  = errors.New("amount, currency or reference does not match order")
	ErrOrderNotFound           = errors.New("Order not found.")
	ErrAlreadyReconciled       = errors.New("order already reconciled")
	ErrMalformedWebhookPayload = errors.New("malformed webhook payload")
	ErrGatewayUnavailable      = errors.New("gateway is not configured")
)
