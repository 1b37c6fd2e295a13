package model

import "time"

// Provider represents a boat operator company.  Boats always belong to a
// provider; trips reference boats, never providers directly.
type Provider struct {
	ID        uint64    // providers.id
	Name      string    // providers.name
	CreatedAt time.Time // providers.created_at
	UpdatedAt time.Time // providers.updated_at
}

// Boat represents a vessel that can be attached to trips.  Capacity is the
// vessel's physical seat count and acts as the outermost capacity limit; all
// trip-level overrides may only tighten it.  A boat is never deleted while it
// is referenced by a trip boat.
//
// Fields:
//
//	ID         – primary key identifier.
//	ProviderID – owning provider.
//	Name       – display name of the vessel.
//	Capacity   – physical seat count (>= 1).
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Boat struct {
	ID         uint64    // boats.id
	ProviderID uint64    // boats.provider_id
	Name       string    // boats.name
	Capacity   int       // boats.capacity
	CreatedAt  time.Time // boats.created_at
	UpdatedAt  time.Time // boats.updated_at
}

// BoatPricing is the boat-level default for a single ticket type: the price
// in minor currency units and an optional per-type seat cap.  Unique per
// (boat_id, ticket_type).  A nil Capacity means the type is only limited by
// the boat (or trip boat) capacity.
type BoatPricing struct {
	ID         uint64    // boat_pricing.id
	BoatID     uint64    // boat_pricing.boat_id
	TicketType string    // boat_pricing.ticket_type
	PriceCents int64     // boat_pricing.price_cents
	Capacity   *int      // boat_pricing.capacity (nullable per-type cap)
	CreatedAt  time.Time // boat_pricing.created_at
	UpdatedAt  time.Time // boat_pricing.updated_at
}
