package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourboat-booking/internal/model"
)

// newReassignCatalog extends the base fixture with a second, smaller boat on
// the same trip.  The replacement boat prices adults but not children.
func newReassignCatalog() *fakeCatalog {
	catalog := newTestCatalog()
	catalog.boats[11] = &model.Boat{ID: 11, ProviderID: 1, Name: "Pelican", Capacity: 20}
	catalog.tripBoats[tripBoatKey{1, 11}] = &model.TripBoat{ID: 101, TripID: 1, BoatID: 11}
	catalog.boatPricing[11] = []model.BoatPricing{
		{ID: 3, BoatID: 11, TicketType: "adult", PriceCents: 5500},
	}
	return catalog
}

func sourceTickets() []model.BookingItem {
	return []model.BookingItem{
		{ID: 1, BookingID: 7, Kind: model.ItemKindTicket, TripID: 1, BoatID: 10, TicketType: "adult", Quantity: 3},
		{ID: 2, BookingID: 8, Kind: model.ItemKindTicket, TripID: 1, BoatID: 10, TicketType: "adult", Quantity: 2},
	}
}

func TestReassignPlanAndExecute(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = sourceTickets()
	svc := NewReassignmentService(newReassignCatalog(), store)

	plan, err := svc.Reassign(context.Background(), 1, 10, 11, map[string]string{"adult": "adult"})
	require.NoError(t, err)
	assert.Equal(t, 5, plan.SeatsMoved)
	assert.Equal(t, 2, plan.BookingsAffected)

	require.Len(t, store.transfers, 1)
	moves := store.transfers[0]
	require.Len(t, moves, 2)
	assert.Equal(t, uint64(100), moves[0].FromTripBoatID)
	assert.Equal(t, uint64(101), moves[0].ToTripBoatID)
	assert.Equal(t, "adult", moves[0].ToType)
}

func TestReassignMappingIncomplete(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = []model.BookingItem{
		{ID: 1, BookingID: 7, Kind: model.ItemKindTicket, TripID: 1, BoatID: 10, TicketType: "child", Quantity: 2},
	}
	svc := NewReassignmentService(newReassignCatalog(), store)

	// Pelican has no child pricing and no mapping was given.
	_, err := svc.Plan(context.Background(), 1, 10, 11, nil)
	assert.ErrorIs(t, err, model.ErrReassignmentMappingIncomplete)
}

func TestReassignIdentityMovesNeedExplicitEntries(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = sourceTickets()
	svc := NewReassignmentService(newReassignCatalog(), store)

	// "adult" resolves on the destination, but a sold type absent from the
	// mapping is still an error; the engine never invents identity entries.
	_, err := svc.Plan(context.Background(), 1, 10, 11, map[string]string{})
	assert.ErrorIs(t, err, model.ErrReassignmentMappingIncomplete)
	assert.Empty(t, store.transfers)
}

func TestReassignWithTypeMapping(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = []model.BookingItem{
		{ID: 1, BookingID: 7, Kind: model.ItemKindTicket, TripID: 1, BoatID: 10, TicketType: "child", Quantity: 2},
	}
	svc := NewReassignmentService(newReassignCatalog(), store)

	plan, err := svc.Plan(context.Background(), 1, 10, 11, map[string]string{"child": "adult"})
	require.NoError(t, err)
	require.Len(t, plan.Moves, 1)
	assert.Equal(t, "child", plan.Moves[0].FromType)
	assert.Equal(t, "adult", plan.Moves[0].ToType)
}

func TestReassignCapacityExceeded(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = sourceTickets()
	store.counts[101] = map[string]model.SeatCount{"adult": {Used: 18}}
	svc := NewReassignmentService(newReassignCatalog(), store)

	// 18 already on the 20-seat Pelican, 5 incoming.
	_, err := svc.Plan(context.Background(), 1, 10, 11, map[string]string{"adult": "adult"})
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
	assert.Empty(t, store.transfers)
}

func TestReassignEmptyBoatIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := NewReassignmentService(newReassignCatalog(), store)

	plan, err := svc.Reassign(context.Background(), 1, 10, 11, map[string]string{})
	require.NoError(t, err)
	assert.Zero(t, plan.SeatsMoved)
	assert.Empty(t, store.transfers, "nothing to move, nothing written")
}

func TestReassignSameBoatRejected(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = sourceTickets()
	svc := NewReassignmentService(newReassignCatalog(), store)

	_, err := svc.Plan(context.Background(), 1, 10, 10, nil)
	assert.ErrorIs(t, err, ErrSameBoat)
}

func TestReassignUnknownDestinationBoat(t *testing.T) {
	store := newFakeStore()
	store.ticketItems = sourceTickets()
	svc := NewReassignmentService(newReassignCatalog(), store)

	_, err := svc.Plan(context.Background(), 1, 10, 99, nil)
	require.Error(t, err)
}
