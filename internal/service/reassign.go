package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/pricing"
	"tourboat-booking/internal/repository"
)

// ReassignStore is the persistence surface the reassignment engine needs.
type ReassignStore interface {
	TicketItems(ctx context.Context, tripID, boatID uint64) ([]model.BookingItem, error)
	TransferSeats(ctx context.Context, moves []repository.SeatMove) error
	Counts(ctx context.Context, tripBoatID uint64) (map[string]model.SeatCount, error)
}

// ReassignmentPlan is a dry-run of moving every committed ticket from one
// boat to another on the same trip.  Execute applies it atomically.
type ReassignmentPlan struct {
	TripID           uint64                `json:"trip_id"`
	FromBoatID       uint64                `json:"from_boat_id"`
	ToBoatID         uint64                `json:"to_boat_id"`
	SeatsMoved       int                   `json:"seats_moved"`
	BookingsAffected int                   `json:"bookings_affected"`
	Moves            []repository.SeatMove `json:"-"`
}

// ReassignmentService moves passengers between boats when a vessel is
// swapped out or taken out of service.  Planning is a pure computation over
// a snapshot; execution re-checks capacity inside the transfer transaction,
// so a plan gone stale fails cleanly instead of overbooking.
type ReassignmentService struct {
	catalog Catalog
	store   ReassignStore
}

// NewReassignmentService wires the reassignment engine.
func NewReassignmentService(catalog Catalog, store ReassignStore) *ReassignmentService {
	return &ReassignmentService{catalog: catalog, store: store}
}

// ErrSameBoat is returned when source and destination are the same boat.
var ErrSameBoat = errors.New("source and destination boat are the same")

// Plan computes the moves needed to clear fromBoat onto toBoat.  mapping
// must carry an entry for every ticket type sold on the source, including
// identity moves; the engine never invents a mapping.  A sold type without
// an entry, or one whose destination type does not resolve under the
// destination's pricing mode, fails the plan with
// model.ErrReassignmentMappingIncomplete.
func (s *ReassignmentService) Plan(ctx context.Context, tripID, fromBoatID, toBoatID uint64,
	mapping map[string]string) (*ReassignmentPlan, error) {
	if fromBoatID == toBoatID {
		return nil, ErrSameBoat
	}
	if _, err := s.catalog.Trip(ctx, tripID); err != nil {
		return nil, err
	}
	fromTB, err := s.catalog.TripBoat(ctx, tripID, fromBoatID)
	if err != nil {
		return nil, err
	}
	toTB, err := s.catalog.TripBoat(ctx, tripID, toBoatID)
	if err != nil {
		return nil, err
	}
	toBoat, err := s.catalog.Boat(ctx, toBoatID)
	if err != nil {
		return nil, err
	}
	defaults, err := s.catalog.BoatPricing(ctx, toBoatID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.catalog.TripBoatPricing(ctx, toTB.ID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.TicketItems(ctx, tripID, fromBoatID)
	if err != nil {
		return nil, err
	}

	destLimits := repository.CapacityLimits{
		Boat:    pricing.EffectiveBoatCapacity(toTB, toBoat),
		PerType: make(map[string]*int),
	}
	plan := &ReassignmentPlan{TripID: tripID, FromBoatID: fromBoatID, ToBoatID: toBoatID}
	bookings := make(map[uint64]bool)
	movedByType := make(map[string]int)
	for _, item := range items {
		toType, ok := mapping[item.TicketType]
		if !ok {
			return nil, model.ErrReassignmentMappingIncomplete
		}
		resolved, err := pricing.ResolveTicket(toTB, toBoat, defaults, overrides, toType)
		if err != nil {
			if errors.Is(err, model.ErrUnknownTicketType) || errors.Is(err, model.ErrPricingNotConfigured) {
				return nil, model.ErrReassignmentMappingIncomplete
			}
			return nil, err
		}
		typeCap := resolved.Capacity
		destLimits.PerType[toType] = &typeCap
		plan.Moves = append(plan.Moves, repository.SeatMove{
			BookingID:      item.BookingID,
			TripID:         tripID,
			FromBoatID:     fromBoatID,
			ToBoatID:       toBoatID,
			FromTripBoatID: fromTB.ID,
			ToTripBoatID:   toTB.ID,
			FromType:       item.TicketType,
			ToType:         toType,
			Quantity:       item.Quantity,
			DestLimits:     destLimits,
		})
		plan.SeatsMoved += item.Quantity
		movedByType[toType] += item.Quantity
		bookings[item.BookingID] = true
	}
	plan.BookingsAffected = len(bookings)

	// Pre-flight capacity check against a snapshot; execution re-checks
	// under locks.
	counts, err := s.store.Counts(ctx, toTB.ID)
	if err != nil {
		return nil, err
	}
	taken := 0
	for _, c := range counts {
		taken += c.Total()
	}
	if taken+plan.SeatsMoved > destLimits.Boat {
		return nil, model.ErrCapacityExceeded
	}
	for toType, qty := range movedByType {
		if limit := destLimits.PerType[toType]; limit != nil {
			if counts[toType].Total()+qty > *limit {
				return nil, model.ErrCapacityExceeded
			}
		}
	}
	return plan, nil
}

// Execute applies a plan in one transaction: ledger counts move and every
// affected booking's items are rewritten to the new boat and type.
func (s *ReassignmentService) Execute(ctx context.Context, plan *ReassignmentPlan) error {
	if len(plan.Moves) == 0 {
		return nil
	}
	if err := s.store.TransferSeats(ctx, plan.Moves); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"trip_id":  plan.TripID,
		"from":     plan.FromBoatID,
		"to":       plan.ToBoatID,
		"seats":    plan.SeatsMoved,
		"bookings": plan.BookingsAffected,
	}).Info("passengers reassigned")
	return nil
}

// Reassign plans and executes in one call, for the operator endpoint.
func (s *ReassignmentService) Reassign(ctx context.Context, tripID, fromBoatID, toBoatID uint64,
	mapping map[string]string) (*ReassignmentPlan, error) {
	plan, err := s.Plan(ctx, tripID, fromBoatID, toBoatID, mapping)
	if err != nil {
		return nil, err
	}
	if err := s.Execute(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
