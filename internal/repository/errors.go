// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// and services to distinguish failure scenarios with errors.Is. Engine-level
// errors (capacity, pricing, lifecycle) live in the model package; the
// sentinels here cover persistence concerns such as missing rows and
// referential conflicts.
package repository

import "errors"

// ErrProviderNotFound is returned when a provider lookup matches no row.
var ErrProviderNotFound = errors.New("provider not found")

// ErrBoatNotFound is returned when a boat lookup matches no row.
var ErrBoatNotFound = errors.New("boat not found")

// ErrTripNotFound is returned when a trip lookup matches no row.
var ErrTripNotFound = errors.New("trip not found")

// ErrTripBoatNotFound is returned when a boat is not attached to a trip.
var ErrTripBoatNotFound = errors.New("trip boat not found")

// ErrPricingNotFound is returned when a pricing row lookup matches no row.
var ErrPricingNotFound = errors.New("pricing entry not found")

// ErrMerchandiseNotFound is returned when a merchandise lookup matches no row.
var ErrMerchandiseNotFound = errors.New("merchandise not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInUse is returned when a delete cannot be performed because dependent
// records exist, such as removing a boat that still serves a trip or a trip
// boat that has ticket bookings. Handlers translate this into HTTP 409.
var ErrInUse = errors.New("resource is referenced by dependent records")
