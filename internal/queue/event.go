// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is confirmed.  It carries
// enough information for downstream consumers to notify the customer or feed
// analytics without querying the primary database.
type BookingConfirmedEvent struct {
	EventID          string        `json:"event_id"`
	BookingID        uint64        `json:"booking_id"`
	ConfirmationCode string        `json:"confirmation_code"`
	Email            string        `json:"email"`
	Tickets          []TicketCount `json:"tickets"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	ConfirmedAt      string        `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled, whether by
// the customer, an operator, or the hold sweeper.
type BookingCancelledEvent struct {
	EventID          string `json:"event_id"`
	BookingID        uint64 `json:"booking_id"`
	ConfirmationCode string `json:"confirmation_code"`
	Email            string `json:"email"`
	SeatsReleased    int    `json:"seats_released"`
	Reason           string `json:"reason"`
	CancelledAt      string `json:"cancelled_at"`
}

// TicketCount summarizes one ticket line of a confirmed booking.
type TicketCount struct {
	TripID     uint64 `json:"trip_id"`
	BoatID     uint64 `json:"boat_id"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
}
