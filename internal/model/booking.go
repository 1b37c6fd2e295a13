package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusDraft          BookingStatus = "draft"
	BookingStatusPaymentPending BookingStatus = "payment_pending"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusCheckedIn      BookingStatus = "checked_in"
	BookingStatusCompleted      BookingStatus = "completed"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusDraft, BookingStatusPaymentPending, BookingStatusConfirmed,
		BookingStatusCheckedIn, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// bookingTransitions lists the allowed lifecycle moves.  Anything not listed
// is rejected with ErrInvalidStateTransition by callers.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft:          {BookingStatusPaymentPending, BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusPaymentPending: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusCheckedIn, BookingStatusCancelled},
	BookingStatusCheckedIn:      {BookingStatusCompleted, BookingStatusConfirmed},
	BookingStatusCompleted:      {},
	BookingStatusCancelled:      {},
}

// CanTransition reports whether a booking may move from one status to
// another.  Transitions to the same status are allowed so that idempotent
// retries of a completed step are no-ops rather than errors.
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ItemKind distinguishes ticket line items from merchandise line items.
type ItemKind string

const (
	ItemKindTicket      ItemKind = "ticket"
	ItemKindMerchandise ItemKind = "merchandise"
)

// BookingItem is one line of a booking.  Ticket items reference a trip boat
// via (TripID, BoatID) plus a ticket type; merchandise items reference a
// trip merchandise row and a variation.  PricePerUnit is a snapshot taken at
// booking time and never changes afterwards, even when catalog pricing does.
type BookingItem struct {
	ID                uint64    // booking_items.id
	BookingID         uint64    // booking_items.booking_id
	Kind              ItemKind  // booking_items.kind
	TripID            uint64    // booking_items.trip_id
	BoatID            uint64    // booking_items.boat_id (0 for merchandise)
	TicketType        string    // booking_items.ticket_type ("" for merchandise)
	TripMerchandiseID *uint64   // booking_items.trip_merchandise_id (nullable)
	VariationID       *uint64   // booking_items.variation_id (nullable)
	VariantValue      string    // booking_items.variant_value
	Quantity          int       // booking_items.quantity (>= 1)
	PricePerUnit      int64     // booking_items.price_per_unit (cents)
	CreatedAt         time.Time // booking_items.created_at
	UpdatedAt         time.Time // booking_items.updated_at
}

// Booking groups items bought under a single confirmation code together
// with the customer's contact details and the monetary breakdown.  All
// amounts are integer minor currency units.
type Booking struct {
	ID               uint64        // bookings.id
	ConfirmationCode string        // bookings.confirmation_code (public identifier)
	FirstName        string        // bookings.first_name
	LastName         string        // bookings.last_name
	Email            string        // bookings.email
	Phone            string        // bookings.phone
	BillingAddress   string        // bookings.billing_address
	SpecialRequests  string        // bookings.special_requests
	Subtotal         int64         // bookings.subtotal_cents
	DiscountAmount   int64         // bookings.discount_cents
	TaxAmount        int64         // bookings.tax_cents
	TipAmount        int64         // bookings.tip_cents
	TotalAmount      int64         // bookings.total_cents
	PaymentIntentID  string        // bookings.payment_intent_id ("" until payment starts)
	Status           BookingStatus // bookings.status
	CreatedAt        time.Time     // bookings.created_at
	UpdatedAt        time.Time     // bookings.updated_at
	Items            []BookingItem // owned rows from booking_items
}

// ValidateAmounts checks the monetary breakdown: every component must be
// non-negative and subtotal - discount + tax + tip must equal the total.
func (b *Booking) ValidateAmounts() error {
	if b.Subtotal < 0 || b.DiscountAmount < 0 || b.TaxAmount < 0 || b.TipAmount < 0 || b.TotalAmount < 0 {
		return ErrInvalidAmounts
	}
	if b.Subtotal-b.DiscountAmount+b.TaxAmount+b.TipAmount != b.TotalAmount {
		return ErrInvalidAmounts
	}
	return nil
}

// TicketQuantity returns the total number of ticket seats across all items.
func (b *Booking) TicketQuantity() int {
	n := 0
	for _, it := range b.Items {
		if it.Kind == ItemKindTicket {
			n += it.Quantity
		}
	}
	return n
}
