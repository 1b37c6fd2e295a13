package model

import "time"

// BookingMode controls who may book a trip.
type BookingMode string

const (
	BookingModePrivate   BookingMode = "private"    // operators only
	BookingModeEarlyBird BookingMode = "early_bird" // requires an access code
	BookingModePublic    BookingMode = "public"     // open sale
)

// TripType distinguishes launch-viewing trips from pre-launch tours.  The
// type determines the default check-in and boarding offsets when a trip is
// created without explicit ones.
type TripType string

const (
	TripTypeLaunchViewing TripType = "launch_viewing"
	TripTypePreLaunch     TripType = "pre_launch"
)

// Trip represents a scheduled departure with its own boats and pricing.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name          – optional custom label shown to customers.
//	Type          – launch_viewing or pre_launch.
//	Active        – inactive trips are hidden and not bookable.
//	Unlisted      – hidden from public listings, reachable via direct link.
//	BookingMode   – private, early_bird or public.
//	SalesOpenAt   – before this instant the effective mode is one level
//	                more restrictive (nullable; nil means open immediately).
//	CheckInTime   – when check-in opens.
//	BoardingTime  – when boarding starts.
//	DepartureTime – scheduled departure.
type Trip struct {
	ID            uint64      // trips.id
	Name          string      // trips.name
	Type          TripType    // trips.type
	Active        bool        // trips.active
	Unlisted      bool        // trips.unlisted
	BookingMode   BookingMode // trips.booking_mode
	SalesOpenAt   *time.Time  // trips.sales_open_at (nullable)
	CheckInTime   time.Time   // trips.check_in_time
	BoardingTime  time.Time   // trips.boarding_time
	DepartureTime time.Time   // trips.departure_time
	CreatedAt     time.Time   // trips.created_at
	UpdatedAt     time.Time   // trips.updated_at
}

// EffectiveBookingMode returns the booking mode in force at the given
// instant.  Before SalesOpenAt a public trip behaves as early_bird and an
// early_bird trip as private, so access codes keep working during the early
// sales window.
func (t *Trip) EffectiveBookingMode(now time.Time) BookingMode {
	if t.SalesOpenAt == nil || !now.Before(*t.SalesOpenAt) {
		return t.BookingMode
	}
	switch t.BookingMode {
	case BookingModePublic:
		return BookingModeEarlyBird
	case BookingModeEarlyBird:
		return BookingModePrivate
	default:
		return t.BookingMode
	}
}

// ApplyDefaultTimes fills a zero CheckInTime or BoardingTime from the
// departure time using the offsets conventional for the trip type:
// launch-viewing trips open check-in 90 minutes out and board 30 minutes
// out; pre-launch tours use 60 and 20.
func (t *Trip) ApplyDefaultTimes() {
	checkIn, boarding := 90*time.Minute, 30*time.Minute
	if t.Type == TripTypePreLaunch {
		checkIn, boarding = 60*time.Minute, 20*time.Minute
	}
	if t.CheckInTime.IsZero() {
		t.CheckInTime = t.DepartureTime.Add(-checkIn)
	}
	if t.BoardingTime.IsZero() {
		t.BoardingTime = t.DepartureTime.Add(-boarding)
	}
}

// TripBoat attaches a boat to a trip.  MaxCapacity optionally tightens the
// boat's capacity for this trip only; it may not be set below the seats
// already in use.  When UseOnlyTripPricing is true the boat's default
// pricing is ignored entirely and TripBoatPricing rows are the sole source
// of sellable ticket types.
type TripBoat struct {
	ID                 uint64    // trip_boats.id
	TripID             uint64    // trip_boats.trip_id
	BoatID             uint64    // trip_boats.boat_id
	MaxCapacity        *int      // trip_boats.max_capacity (nullable override)
	UseOnlyTripPricing bool      // trip_boats.use_only_trip_pricing
	CreatedAt          time.Time // trip_boats.created_at
	UpdatedAt          time.Time // trip_boats.updated_at
}

// TripBoatPricing overrides price and optionally capacity for one ticket
// type on one trip boat.  Price is always required; a nil Capacity falls
// back to the boat-level cap (or no cap) in layered mode.
type TripBoatPricing struct {
	ID         uint64    // trip_boat_pricing.id
	TripBoatID uint64    // trip_boat_pricing.trip_boat_id
	TicketType string    // trip_boat_pricing.ticket_type
	PriceCents int64     // trip_boat_pricing.price_cents
	Capacity   *int      // trip_boat_pricing.capacity (nullable)
	CreatedAt  time.Time // trip_boat_pricing.created_at
	UpdatedAt  time.Time // trip_boat_pricing.updated_at
}
