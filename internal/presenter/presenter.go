// Package presenter decides what the thank-you page shows while the buyer
// waits for the webhook outcome.
package presenter

import (
	"hitpay-gateway/internal/models"
)

// Redirect query statuses sent by HitPay with the buyer.
const (
	QueryStatusCompleted = "completed"
	QueryStatusCanceled  = "canceled"
)

// Panels of the thank-you page.
const (
	PanelWait      = "wait"
	PanelCompleted = "completed"
	PanelPending   = "pending"
	PanelFailed    = "failed"
	PanelCancelled = "cancelled"
	PanelError     = "error"
	PanelNone      = ""
)

const (
	MessageWait      = "We are retrieving your payment status from HitPay, please wait..."
	MessagePending   = "Your payment status is pending, we will update the status as soon as we receive notification from HitPay."
	MessageCompleted = "Your payment is successful with HitPay."
	MessageFailed    = "Your payment is failed with HitPay."
	MessageCancelled = "Your order is cancelled."
	MessageError     = "Something went wrong, please contact the merchant."
)

// InitialStatus picks the status the page starts from. A completed redirect
// is not trusted and turns into a fresh poll; a canceled redirect only
// selects the cancelled panel.
func InitialStatus(queryStatus, orderStatus string) string {
	switch queryStatus {
	case QueryStatusCompleted:
		return models.PollStatusWait
	case QueryStatusCanceled:
		return models.OrderStatusCancelled
	}
	return orderStatus
}

// View is the rendered state of the thank-you page.
type View struct {
	Status           string
	Panel            string
	Message          string
	Polling          bool
	ShowOrderDetails bool
}

// NewView builds the initial page state for status. reference is the
// provider reference carried by a canceled redirect.
func NewView(status, reference string) View {
	v := View{Status: status}
	switch status {
	case models.PollStatusWait:
		v.Panel = PanelWait
		v.Message = MessageWait
		v.Polling = true
	case models.OrderStatusCancelled:
		v.Panel = PanelCancelled
		v.Message = CancelledMessage(reference)
	default:
		v.Panel, v.Message = panelFor(status)
	}
	v.ShowOrderDetails = !v.Polling && showsDetails(status)
	return v
}

// Reveal is the state after the poll loop received a terminal status.
func (v View) Reveal(status string) View {
	next := View{Status: status}
	next.Panel, next.Message = panelFor(status)
	if next.Panel == PanelNone {
		next.Panel, next.Message = PanelFailed, MessageFailed
	}
	next.ShowOrderDetails = showsDetails(status)
	return next
}

// CancelledMessage is shown when the buyer cancelled on the payment page.
func CancelledMessage(reference string) string {
	if reference == "" {
		return "Order cancelled by HitPay."
	}
	return "Order cancelled by HitPay. Reference: " + reference
}

// IsTerminal reports whether polling stops on status.
func IsTerminal(status string) bool {
	return status != "" && status != models.PollStatusWait
}

func panelFor(status string) (string, string) {
	switch status {
	case models.PaymentStatusCompleted, models.OrderStatusProcessing:
		return PanelCompleted, MessageCompleted
	case models.PaymentStatusPending, models.OrderStatusOnHold:
		return PanelPending, MessagePending
	case models.PaymentStatusFailed, models.OrderStatusRefunded:
		return PanelFailed, MessageFailed
	case models.OrderStatusCancelled:
		return PanelCancelled, MessageCancelled
	case models.PollStatusError:
		return PanelError, MessageError
	}
	return PanelNone, ""
}

func showsDetails(status string) bool {
	switch status {
	case models.PaymentStatusCompleted, models.PaymentStatusPending:
		return true
	}
	return false
}
