package model

import "time"

// SeatAllocation is the durable ledger row for one ticket type on one trip
// boat.  Used counts only committed (confirmed or later) seats; seats held
// by drafts live in seat_holds until they are committed or expire.  Version
// is an optimistic-concurrency counter bumped on every mutation.
//
// Invariant: the sum of Used across ticket types for a trip boat never
// exceeds the trip boat's effective capacity, and Used is never negative.
type SeatAllocation struct {
	ID         uint64    // seat_allocations.id
	TripBoatID uint64    // seat_allocations.trip_boat_id
	TicketType string    // seat_allocations.ticket_type
	Used       int       // seat_allocations.used
	Version    uint64    // seat_allocations.version
	CreatedAt  time.Time // seat_allocations.created_at
	UpdatedAt  time.Time // seat_allocations.updated_at
}

// SeatHold is a time-bounded reservation created when a draft booking is
// made.  Holds count against capacity exactly like committed seats until
// they expire or are committed.  Committing a booking converts its holds
// into SeatAllocation.Used; cancelling or expiring simply deletes them.
type SeatHold struct {
	ID         uint64    // seat_holds.id
	BookingID  uint64    // seat_holds.booking_id
	TripBoatID uint64    // seat_holds.trip_boat_id
	TicketType string    // seat_holds.ticket_type
	Quantity   int       // seat_holds.quantity
	ExpiresAt  time.Time // seat_holds.expires_at
	CreatedAt  time.Time // seat_holds.created_at
}

// SeatCount is the per-ticket-type occupancy snapshot used by availability
// queries: committed seats plus seats promised to unexpired draft holds.
type SeatCount struct {
	Used int
	Held int
}

// Total returns the seats this count withholds from sale.
func (c SeatCount) Total() int { return c.Used + c.Held }
