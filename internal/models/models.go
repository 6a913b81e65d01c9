package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the commerce order this gateway settles. It is created by the
// shop before checkout and never deleted here.
type Order struct {
	ID               int64           `db:"id" json:"id"`
	Total            decimal.Decimal `db:"total" json:"total"`
	Currency         string          `db:"currency" json:"currency"`
	Status           string          `db:"status" json:"status"`
	BillingFirstName string          `db:"billing_first_name" json:"billing_first_name"`
	BillingLastName  string          `db:"billing_last_name" json:"billing_last_name"`
	BillingEmail     string          `db:"billing_email" json:"billing_email"`
	SessionID        string          `db:"session_id" json:"session_id,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderMeta is one key/value pair attached to an order.
type OrderMeta struct {
	OrderID   int64     `db:"order_id" json:"order_id"`
	Key       string    `db:"meta_key" json:"key"`
	Value     string    `db:"meta_value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderNote is an audit line written with every status change.
type OrderNote struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusOnHold     = "on-hold"
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment metadata keys written by the gateway.
const (
	MetaPaymentID     = "HitPay_payment_id"
	MetaIsPaid        = "HitPay_is_paid"
	MetaTransactionID = "HitPay_transaction_id"
	MetaCurrency      = "HitPay_currency"
	MetaAmount        = "HitPay_amount"
	// MetaWebhookStatus doubles as the reconciliation guard.
	MetaWebhookStatus = "HitPay_WHS"
)

// Provider payment statuses as reported on webhooks.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusPending   = "pending"
)

// Poll statuses returned to the browser in addition to provider statuses.
const (
	PollStatusWait  = "wait"
	PollStatusError = "error"
)

// Reconciliation is the full mutation applied to an order for one webhook.
type Reconciliation struct {
	OrderID       int64
	OrderStatus   string
	Note          string
	TransactionID string
	Currency      string
	Amount        string
	IsPaid        bool
	WebhookStatus string
}

// Meta renders the reconciliation as order meta, guard excluded.
func (r Reconciliation) Meta() map[string]string {
	paid := "0"
	if r.IsPaid {
		paid = "1"
	}
	return map[string]string{
		MetaTransactionID: r.TransactionID,
		MetaIsPaid:        paid,
		MetaCurrency:      r.Currency,
		MetaAmount:        r.Amount,
	}
}

// PollResponse is the body served to the thank-you page polling loop.
type PollResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
