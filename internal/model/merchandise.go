package model

import "time"

// Merchandise is a catalog item (shirts, patches, posters) that can be sold
// alongside tickets on a trip.  Inventory is tracked per variation, not on
// the catalog row itself.
type Merchandise struct {
	ID          uint64    // merchandise.id
	ProviderID  uint64    // merchandise.provider_id
	Name        string    // merchandise.name
	Description string    // merchandise.description
	PriceCents  int64     // merchandise.price_cents
	CreatedAt   time.Time // merchandise.created_at
	UpdatedAt   time.Time // merchandise.updated_at

	Variations []MerchandiseVariation // loaded on detail reads
}

// MerchandiseVariation holds per-variant inventory (for example sizes).
// Items without meaningful variants use a single variation with an empty
// Value.  QuantitySold is mutated transactionally together with the
// owning booking and never exceeds QuantityTotal.
type MerchandiseVariation struct {
	ID            uint64    // merchandise_variations.id
	MerchandiseID uint64    // merchandise_variations.merchandise_id
	Value         string    // merchandise_variations.value (e.g. "M")
	QuantityTotal int       // merchandise_variations.quantity_total
	QuantitySold  int       // merchandise_variations.quantity_sold
	CreatedAt     time.Time // merchandise_variations.created_at
	UpdatedAt     time.Time // merchandise_variations.updated_at
}

// TripMerchandise links a catalog item to a trip, optionally overriding the
// price and capping the quantity that may be sold on this trip.  The layering
// works exactly like TripBoatPricing over BoatPricing: overrides win, unset
// fields fall back to the catalog item.
type TripMerchandise struct {
	ID               uint64    // trip_merchandise.id
	TripID           uint64    // trip_merchandise.trip_id
	MerchandiseID    uint64    // trip_merchandise.merchandise_id
	PriceOverride    *int64    // trip_merchandise.price_override (nullable)
	QuantityOverride *int      // trip_merchandise.quantity_override (nullable)
	CreatedAt        time.Time // trip_merchandise.created_at
	UpdatedAt        time.Time // trip_merchandise.updated_at
}
