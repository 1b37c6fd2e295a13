package payment

import (
	"context"
	"errors"
)

// Intent is the gateway-side record of a payment attempt.  ClientSecret is
// handed to the frontend to complete the charge; Status is the gateway's
// view, normalized to the small set the booking flow cares about.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	AmountCents  int64
	Currency     string
}

// IntentStatus is the normalized gateway status of an intent.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusCanceled  IntentStatus = "canceled"
)

var (
	// ErrIntentNotFound is returned when the gateway does not know the intent.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrGatewayUnavailable wraps transport-level failures talking to the gateway.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Gateway is the payment provider surface the booking flow needs.  Initialize
// creates an intent for a booking; Resume fetches the existing intent so a
// retried checkout reuses it instead of double-charging; Verify reports the
// final status before the booking is confirmed.
type Gateway interface {
	InitializePayment(ctx context.Context, bookingID uint64, confirmationCode string, amountCents int64) (*Intent, error)
	ResumePayment(ctx context.Context, intentID string) (*Intent, error)
	VerifyPayment(ctx context.Context, intentID string) (*Intent, error)
}
