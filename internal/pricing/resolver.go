// Package pricing implements the layered price and capacity resolution for
// tickets and merchandise.  It is pure: repositories load the relevant rows
// and the resolver combines them, so the same rules apply identically in the
// booking path, the reassignment engine and the public availability API.
package pricing

import (
	"math"
	"sort"

	"tourboat-booking/internal/model"
)

// Source identifies which layer produced a resolved price.
type Source string

const (
	SourceBoatDefault  Source = "boat_default"
	SourceTripOverride Source = "trip_override"
)

// Resolved is the effective price and capacity for one ticket type on one
// trip boat.  Capacity is the tightest applicable limit after applying every
// layer; it is never negative and never exceeds the boat's physical
// capacity.
type Resolved struct {
	TicketType string
	PriceCents int64
	Capacity   int
	Source     Source
}

// EffectiveBoatCapacity returns the seat limit for a trip boat as a whole:
// the boat's physical capacity, tightened by the trip boat's override when
// one is set.  An override larger than the physical capacity is ignored
// rather than trusted.
func EffectiveBoatCapacity(tb *model.TripBoat, boat *model.Boat) int {
	limit := boat.Capacity
	if tb.MaxCapacity != nil && *tb.MaxCapacity < limit {
		limit = *tb.MaxCapacity
	}
	return limit
}

// ResolveTicket computes the effective price and capacity for ticketType on
// the given trip boat.
//
// In exclusive mode (UseOnlyTripPricing) the override list is the sole
// source: a missing entry is ErrUnknownTicketType even when a boat default
// exists.  In layered mode the override's price wins over the boat default,
// while capacity is the minimum over every defined layer: type override cap,
// boat default cap, trip boat max_capacity and boat capacity.  When no
// layer defines the type at all the result is ErrPricingNotConfigured.
func ResolveTicket(tb *model.TripBoat, boat *model.Boat, defaults []model.BoatPricing, overrides []model.TripBoatPricing, ticketType string) (Resolved, error) {
	boatCap := EffectiveBoatCapacity(tb, boat)

	var override *model.TripBoatPricing
	for i := range overrides {
		if overrides[i].TicketType == ticketType {
			override = &overrides[i]
			break
		}
	}
	var def *model.BoatPricing
	for i := range defaults {
		if defaults[i].TicketType == ticketType {
			def = &defaults[i]
			break
		}
	}

	if tb.UseOnlyTripPricing {
		if override == nil {
			return Resolved{}, model.ErrUnknownTicketType
		}
		return Resolved{
			TicketType: ticketType,
			PriceCents: override.PriceCents,
			Capacity:   minCap(boatCap, override.Capacity),
			Source:     SourceTripOverride,
		}, nil
	}

	switch {
	case override != nil:
		// Price always comes from the override; the boat default's cap stays
		// in the capacity chain, an override may only tighten it.
		limit := minCap(boatCap, override.Capacity)
		if def != nil {
			limit = minCap(limit, def.Capacity)
		}
		return Resolved{
			TicketType: ticketType,
			PriceCents: override.PriceCents,
			Capacity:   limit,
			Source:     SourceTripOverride,
		}, nil
	case def != nil:
		return Resolved{
			TicketType: ticketType,
			PriceCents: def.PriceCents,
			Capacity:   minCap(boatCap, def.Capacity),
			Source:     SourceBoatDefault,
		}, nil
	default:
		return Resolved{}, model.ErrPricingNotConfigured
	}
}

// SellableTypes returns every ticket type that may be sold on the trip boat
// under its current pricing mode, resolved and sorted by type name.  This is
// what the public availability endpoint and the reassignment validator use.
func SellableTypes(tb *model.TripBoat, boat *model.Boat, defaults []model.BoatPricing, overrides []model.TripBoatPricing) []Resolved {
	names := map[string]struct{}{}
	for _, o := range overrides {
		names[o.TicketType] = struct{}{}
	}
	if !tb.UseOnlyTripPricing {
		for _, d := range defaults {
			names[d.TicketType] = struct{}{}
		}
	}
	out := make([]Resolved, 0, len(names))
	for name := range names {
		r, err := ResolveTicket(tb, boat, defaults, overrides, name)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketType < out[j].TicketType })
	return out
}

// MerchResolved is the effective price and purchasable quantity for one
// merchandise variation on a trip.
type MerchResolved struct {
	PriceCents int64
	Available  int
}

// ResolveMerchandise layers a trip's merchandise row over the catalog item
// the same way trip boat pricing layers over boat defaults.  Availability is
// the variation's unsold stock, tightened by the trip-level quantity
// override when one is set.  A nil variation (an item sold without size or
// colour variants) is limited only by the trip-level override.
func ResolveMerchandise(item *model.Merchandise, tm *model.TripMerchandise, variation *model.MerchandiseVariation) MerchResolved {
	price := item.PriceCents
	if tm.PriceOverride != nil {
		price = *tm.PriceOverride
	}
	avail := math.MaxInt
	if variation != nil {
		avail = variation.QuantityTotal - variation.QuantitySold
		if avail < 0 {
			avail = 0
		}
	}
	if tm.QuantityOverride != nil && *tm.QuantityOverride < avail {
		avail = *tm.QuantityOverride
	}
	return MerchResolved{PriceCents: price, Available: avail}
}

// minCap tightens base by an optional per-type cap.
func minCap(base int, override *int) int {
	if override != nil && *override < base {
		return *override
	}
	return base
}
