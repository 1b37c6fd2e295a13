package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStripeServer(t *testing.T) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = append(seen, r)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "pi_test_123",
				"client_secret": "pi_test_123_secret",
				"status":        "requires_payment_method",
				"amount":        19800,
				"currency":      "usd",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/pi_test_123":
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "pi_test_123",
				"client_secret": "pi_test_123_secret",
				"status":        "succeeded",
				"amount":        19800,
				"currency":      "usd",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "invalid_request_error", "code": "resource_missing", "message": "No such payment_intent"},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestInitializePayment(t *testing.T) {
	srv, seen := newStripeServer(t)
	c := NewStripeClient(srv.URL, "sk_test_abc", "usd")

	intent, err := c.InitializePayment(context.Background(), 42, "QK7M2PX9", 19800)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", intent.ID)
	assert.Equal(t, IntentStatusPending, intent.Status)
	assert.Equal(t, int64(19800), intent.AmountCents)

	req := (*seen)[0]
	assert.Equal(t, "Bearer sk_test_abc", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("Idempotency-Key"))
	assert.Equal(t, "19800", req.PostForm.Get("amount"))
	assert.Equal(t, "usd", req.PostForm.Get("currency"))
	assert.Equal(t, "42", req.PostForm.Get("metadata[booking_id]"))
	assert.Equal(t, "QK7M2PX9", req.PostForm.Get("metadata[confirmation_code]"))
}

func TestVerifyPaymentSucceeded(t *testing.T) {
	srv, _ := newStripeServer(t)
	c := NewStripeClient(srv.URL, "sk_test_abc", "usd")

	intent, err := c.VerifyPayment(context.Background(), "pi_test_123")
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, intent.Status)
}

func TestResumeUnknownIntent(t *testing.T) {
	srv, _ := newStripeServer(t)
	c := NewStripeClient(srv.URL, "sk_test_abc", "usd")

	_, err := c.ResumePayment(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewStripeClient(srv.URL, "sk_test_abc", "usd")

	_, err := c.InitializePayment(context.Background(), 1, "AAAA1111", 500)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestStatusNormalization(t *testing.T) {
	assert.Equal(t, IntentStatusSucceeded, normalizeStatus("succeeded"))
	assert.Equal(t, IntentStatusCanceled, normalizeStatus("canceled"))
	assert.Equal(t, IntentStatusPending, normalizeStatus("requires_payment_method"))
	assert.Equal(t, IntentStatusPending, normalizeStatus("processing"))
}
