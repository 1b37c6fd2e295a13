package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultStripeBaseURL is the live Stripe API endpoint; tests point the
// client at an httptest server instead.
const DefaultStripeBaseURL = "https://api.stripe.com"

// StripeClient implements Gateway against the Stripe PaymentIntents API
// using form-encoded requests.  Every create call carries an Idempotency-Key
// so network retries never mint a second intent for the same attempt.
type StripeClient struct {
	baseURL   string
	secretKey string
	currency  string
	http      *http.Client
}

// NewStripeClient builds a client for the given API base and secret key.
// currency is the ISO code charges are made in, e.g. "usd".
func NewStripeClient(baseURL, secretKey, currency string) *StripeClient {
	if baseURL == "" {
		baseURL = DefaultStripeBaseURL
	}
	return &StripeClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// stripeIntent is the subset of Stripe's PaymentIntent object we read.
type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// stripeError is Stripe's error envelope.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func normalizeStatus(s string) IntentStatus {
	switch s {
	case "succeeded":
		return IntentStatusSucceeded
	case "canceled":
		return IntentStatusCanceled
	default:
		// requires_payment_method, requires_confirmation, processing, ...
		return IntentStatusPending
	}
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string) (*stripeIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("stripe request failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrIntentNotFound
	}
	if resp.StatusCode >= 400 {
		var se stripeError
		if json.Unmarshal(raw, &se) == nil && se.Error.Message != "" {
			if se.Error.Code == "resource_missing" {
				return nil, ErrIntentNotFound
			}
			return nil, fmt.Errorf("stripe: %s (%s)", se.Error.Message, se.Error.Type)
		}
		return nil, fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}
	var si stripeIntent
	if err := json.Unmarshal(raw, &si); err != nil {
		return nil, fmt.Errorf("stripe: decoding response: %w", err)
	}
	return &si, nil
}

func toIntent(si *stripeIntent) *Intent {
	return &Intent{
		ID:           si.ID,
		ClientSecret: si.ClientSecret,
		Status:       normalizeStatus(si.Status),
		AmountCents:  si.Amount,
		Currency:     si.Currency,
	}
}

// InitializePayment creates a PaymentIntent for the booking's total.  The
// confirmation code is attached as metadata so gateway records can be traced
// back to a booking from the Stripe dashboard.
func (c *StripeClient) InitializePayment(ctx context.Context, bookingID uint64, confirmationCode string, amountCents int64) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", c.currency)
	form.Set("metadata[booking_id]", strconv.FormatUint(bookingID, 10))
	form.Set("metadata[confirmation_code]", confirmationCode)
	si, err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, uuid.NewString())
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"intent_id":  si.ID,
		"amount":     amountCents,
	}).Info("payment intent created")
	return toIntent(si), nil
}

// ResumePayment fetches an existing intent so an interrupted checkout can
// continue with the same charge.
func (c *StripeClient) ResumePayment(ctx context.Context, intentID string) (*Intent, error) {
	si, err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, "")
	if err != nil {
		return nil, err
	}
	return toIntent(si), nil
}

// VerifyPayment reports the intent's current status.
func (c *StripeClient) VerifyPayment(ctx context.Context, intentID string) (*Intent, error) {
	return c.ResumePayment(ctx, intentID)
}
