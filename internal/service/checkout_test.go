package service

import (
	"context"
	"errors"
	"testing"

	"hitpay-gateway/config"
	"hitpay-gateway/internal/hitpay"
	"hitpay-gateway/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLinks = Links{PublicURL: "https://shop.example.com/", CheckoutPath: "/checkout"}

func testHitPayConfig() config.HitPayConfig {
	return config.HitPayConfig{
		APIKey:         "api-key",
		Salt:           "salt",
		PaymentMethods: []string{"paynow_online", "card"},
		Channel:        hitpay.DefaultChannel,
	}
}

func testOrder() *models.Order {
	return &models.Order{
		ID:               42,
		Total:            decimal.RequireFromString("10.00"),
		Currency:         "SGD",
		Status:           models.OrderStatusPending,
		BillingFirstName: "Ada",
		BillingLastName:  "Lovelace",
		BillingEmail:     "ada@example.com",
		SessionID:        "sess-1",
	}
}

func TestLinks(t *testing.T) {
	assert.Equal(t, "https://shop.example.com/api/hitpay?order_id=42", testLinks.WebhookURL(42))
	assert.Equal(t, "https://shop.example.com/checkout/order-received/42", testLinks.ThankYouURL(42))
	assert.Equal(t, "https://shop.example.com/checkout", testLinks.CheckoutURL())
	assert.Equal(t, "https://shop.example.com/checkout", Links{PublicURL: "https://shop.example.com"}.CheckoutURL())
	assert.Equal(t, "https://shop.example.com/cart", Links{PublicURL: "https://shop.example.com", CheckoutPath: "cart"}.CheckoutURL())
}

func TestInitiateSuccess(t *testing.T) {
	store := newMemStore(testOrder())
	client := &mockPaymentCreator{}
	events := &recordingPublisher{}

	client.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req hitpay.CreatePaymentRequest) bool {
		return req.ReferenceNumber == "42" &&
			req.Amount.Equal(decimal.RequireFromString("10")) &&
			req.Currency == "SGD" &&
			req.Name == "Ada Lovelace" &&
			req.Email == "ada@example.com" &&
			req.Webhook == "https://shop.example.com/api/hitpay?order_id=42" &&
			req.RedirectURL == "https://shop.example.com/checkout/order-received/42" &&
			req.Channel == hitpay.DefaultChannel
	})).Return(&hitpay.CreatedPayment{ID: "req_1", Status: "pending", URL: "https://pay.example/req_1"}, nil)

	svc := NewCheckoutService(store, client, events, testHitPayConfig(), testLinks)
	res, err := svc.Initiate(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, &CheckoutResult{Result: ResultSuccess, Redirect: "https://pay.example/req_1"}, res)
	assert.Equal(t, "req_1", store.metaValue(42, models.MetaPaymentID))
	require.Len(t, events.created, 1)
	assert.Equal(t, "10.00", events.created[0].Amount)
	assert.Equal(t, "req_1", events.created[0].PaymentID)
	client.AssertExpectations(t)
}

func TestInitiateReplacesPaymentIDOnRetry(t *testing.T) {
	store := newMemStore(testOrder())
	require.NoError(t, store.SetMeta(context.Background(), 42, models.MetaPaymentID, "req_old"))

	client := &mockPaymentCreator{}
	client.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&hitpay.CreatedPayment{ID: "req_new", Status: "pending", URL: "https://pay.example/req_new"}, nil)

	svc := NewCheckoutService(store, client, &recordingPublisher{}, testHitPayConfig(), testLinks)
	_, err := svc.Initiate(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "req_new", store.metaValue(42, models.MetaPaymentID))
}

func TestInitiateFailures(t *testing.T) {
	failure := &CheckoutResult{
		Result:   ResultFailure,
		Redirect: "https://shop.example.com/checkout",
		Message:  CheckoutFailureMessage,
	}

	tests := []struct {
		name          string
		cfg           func() config.HitPayConfig
		orderID       int64
		created       *hitpay.CreatedPayment
		clientErr     error
		wantErr       error
		wantPaymentID string
	}{
		{
			name: "gateway not configured",
			cfg: func() config.HitPayConfig {
				c := testHitPayConfig()
				c.PaymentMethods = nil
				return c
			},
			orderID: 42,
			wantErr: models.ErrGatewayUnavailable,
		},
		{
			name:    "unknown order",
			cfg:     testHitPayConfig,
			orderID: 7,
			wantErr: models.ErrOrderNotFound,
		},
		{
			name:      "provider error",
			cfg:       testHitPayConfig,
			orderID:   42,
			clientErr: hitpay.ErrPaymentCreationFailed,
			wantErr:   hitpay.ErrPaymentCreationFailed,
		},
		{
			name:    "non pending status records no payment id",
			cfg:     testHitPayConfig,
			orderID: 42,
			created: &hitpay.CreatedPayment{ID: "req_2", Status: "completed", URL: "https://pay.example/req_2"},
			wantErr: hitpay.ErrPaymentCreationFailed,
		},
		{
			name:    "failed status records no payment id",
			cfg:     testHitPayConfig,
			orderID: 42,
			created: &hitpay.CreatedPayment{ID: "req_x", Status: "failed"},
			wantErr: hitpay.ErrPaymentCreationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(testOrder())
			client := &mockPaymentCreator{}
			client.On("CreatePayment", mock.Anything, mock.Anything).Return(tt.created, tt.clientErr)
			events := &recordingPublisher{}

			svc := NewCheckoutService(store, client, events, tt.cfg(), testLinks)
			res, err := svc.Initiate(context.Background(), tt.orderID)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, failure, res)
			assert.Equal(t, tt.wantPaymentID, store.metaValue(42, models.MetaPaymentID))
			assert.Empty(t, events.created)
		})
	}
}

func TestIsPaymentCreationFailure(t *testing.T) {
	assert.True(t, IsPaymentCreationFailure(hitpay.ErrPaymentCreationFailed))
	assert.False(t, IsPaymentCreationFailure(errBoom))
}
