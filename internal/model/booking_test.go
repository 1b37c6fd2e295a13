package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{BookingStatusDraft, BookingStatusPaymentPending},
		{BookingStatusDraft, BookingStatusConfirmed}, // free bookings skip payment
		{BookingStatusDraft, BookingStatusCancelled},
		{BookingStatusPaymentPending, BookingStatusConfirmed},
		{BookingStatusPaymentPending, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusCheckedIn},
		{BookingStatusConfirmed, BookingStatusCancelled},
		{BookingStatusCheckedIn, BookingStatusCompleted},
		{BookingStatusCheckedIn, BookingStatusConfirmed}, // undo check-in
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to BookingStatus }{
		{BookingStatusDraft, BookingStatusCheckedIn},
		{BookingStatusDraft, BookingStatusCompleted},
		{BookingStatusPaymentPending, BookingStatusCheckedIn},
		{BookingStatusConfirmed, BookingStatusDraft},
		{BookingStatusCheckedIn, BookingStatusCancelled},
		{BookingStatusCompleted, BookingStatusCancelled},
		{BookingStatusCompleted, BookingStatusConfirmed},
		{BookingStatusCancelled, BookingStatusDraft},
		{BookingStatusCancelled, BookingStatusConfirmed},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestCanTransitionSameStatusIdempotent(t *testing.T) {
	for _, s := range []BookingStatus{
		BookingStatusDraft, BookingStatusPaymentPending, BookingStatusConfirmed,
		BookingStatusCheckedIn, BookingStatusCompleted, BookingStatusCancelled,
	} {
		assert.True(t, CanTransition(s, s))
	}
}

func TestValidateAmounts(t *testing.T) {
	b := &Booking{Subtotal: 200, DiscountAmount: 20, TaxAmount: 18, TipAmount: 0, TotalAmount: 198}
	assert.NoError(t, b.ValidateAmounts())

	b.TotalAmount = 200
	assert.ErrorIs(t, b.ValidateAmounts(), ErrInvalidAmounts)

	b = &Booking{Subtotal: 100, DiscountAmount: -5, TotalAmount: 105}
	assert.ErrorIs(t, b.ValidateAmounts(), ErrInvalidAmounts)

	b = &Booking{} // zero everywhere is a valid free booking
	assert.NoError(t, b.ValidateAmounts())
}

func TestTicketQuantity(t *testing.T) {
	b := &Booking{Items: []BookingItem{
		{Kind: ItemKindTicket, Quantity: 2},
		{Kind: ItemKindTicket, Quantity: 3},
		{Kind: ItemKindMerchandise, Quantity: 4},
	}}
	assert.Equal(t, 5, b.TicketQuantity())
}
