package service

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// WebhookPath receives provider deliveries and browser status polls.
	WebhookPath = "/api/hitpay"
	// ThankYouPath is followed by the order id.
	ThankYouPath = "/checkout/order-received/"
)

// Links builds the absolute URLs handed to the provider and the buyer.
type Links struct {
	PublicURL    string
	CheckoutPath string
}

func (l Links) base() string {
	return strings.TrimRight(l.PublicURL, "/")
}

// WebhookURL is where the provider posts the outcome of an order's payment.
func (l Links) WebhookURL(orderID int64) string {
	q := url.Values{}
	q.Set("order_id", fmt.Sprint(orderID))
	return l.base() + WebhookPath + "?" + q.Encode()
}

// ThankYouURL is where the provider sends the buyer back.
func (l Links) ThankYouURL(orderID int64) string {
	return fmt.Sprintf("%s%s%d", l.base(), ThankYouPath, orderID)
}

// CheckoutURL is where a failed checkout sends the buyer.
func (l Links) CheckoutURL() string {
	path := l.CheckoutPath
	if path == "" {
		path = "/checkout"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return l.base() + path
}
