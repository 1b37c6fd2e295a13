package model

import "errors"

// Engine errors shared across the ledger, resolver and lifecycle service.
// Handlers translate them into HTTP responses; repositories and services
// compare them with errors.Is and never swallow them.
var (
	// ErrCapacityExceeded means a reservation or transfer would push a
	// trip boat past its effective capacity.  No mutation was applied.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrPricingNotConfigured means neither a trip-level override nor a
	// boat-level default defines a price for the requested ticket type.
	ErrPricingNotConfigured = errors.New("pricing not configured")

	// ErrUnknownTicketType means the trip boat runs in exclusive pricing
	// mode and the requested type has no trip-level entry; boat defaults
	// are deliberately not consulted in that mode.
	ErrUnknownTicketType = errors.New("unknown ticket type")

	// ErrDuplicateConfirmationCode means a booking with the supplied
	// confirmation code already exists.
	ErrDuplicateConfirmationCode = errors.New("confirmation code already exists")

	// ErrInvalidStateTransition means the requested lifecycle move is not
	// allowed from the booking's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrReassignmentMappingIncomplete means a sold ticket type on the
	// source boat has no destination mapping.
	ErrReassignmentMappingIncomplete = errors.New("reassignment mapping incomplete")

	// ErrConflict means the operation lost an optimistic-concurrency race;
	// the caller may retry.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrInvalidAmounts means the monetary breakdown of a booking does not
	// satisfy subtotal - discount + tax + tip == total with all parts >= 0.
	ErrInvalidAmounts = errors.New("invalid monetary breakdown")
)
