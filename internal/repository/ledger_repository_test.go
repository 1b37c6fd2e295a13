package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourboat-booking/internal/model"
)

func capPtr(v int) *int { return &v }

func TestAdmitReservationWithinLimits(t *testing.T) {
	used := map[string]int{"adult": 10}
	held := map[string]int{"adult": 2, "child": 1}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{"child": capPtr(10)}}

	err := admitReservation(used, held, map[string]int{"adult": 3, "child": 2}, limits)
	assert.NoError(t, err)
}

func TestAdmitReservationBoatTotalBreached(t *testing.T) {
	used := map[string]int{"adult": 30}
	held := map[string]int{"child": 8}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{}}

	// 38 occupied, 3 requested, boat holds 40.
	err := admitReservation(used, held, map[string]int{"adult": 3}, limits)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestAdmitReservationAllOrNothing(t *testing.T) {
	// The adult line alone fits, but the child line breaches its cap: the
	// whole request must be rejected as one unit.
	used := map[string]int{"child": 9}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{"child": capPtr(10)}}

	err := admitReservation(used, map[string]int{}, map[string]int{"adult": 2, "child": 2}, limits)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestAdmitReservationPerTypeCapCountsHolds(t *testing.T) {
	used := map[string]int{"child": 6}
	held := map[string]int{"child": 3}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{"child": capPtr(10)}}

	// 6 committed + 3 held leave one child seat under the cap of 10.
	assert.NoError(t, admitReservation(used, held, map[string]int{"child": 1}, limits))
	assert.ErrorIs(t, admitReservation(used, held, map[string]int{"child": 2}, limits),
		model.ErrCapacityExceeded)
}

func TestAdmitReservationLastSeat(t *testing.T) {
	used := map[string]int{"adult": 39}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{}}

	require.NoError(t, admitReservation(used, map[string]int{}, map[string]int{"adult": 1}, limits))
	assert.ErrorIs(t, admitReservation(used, map[string]int{}, map[string]int{"adult": 2}, limits),
		model.ErrCapacityExceeded)
}

func TestAdmitReservationRejectsNonPositiveQuantity(t *testing.T) {
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{}}

	err := admitReservation(map[string]int{}, map[string]int{}, map[string]int{"adult": 0}, limits)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestAdmitTransferWithinDestination(t *testing.T) {
	used := map[string]int{"adult": 12}
	held := map[string]int{"adult": 3}
	limits := CapacityLimits{Boat: 20, PerType: map[string]*int{}}

	assert.NoError(t, admitTransfer(used, held, "child", "adult", 5, false, limits))
	assert.ErrorIs(t, admitTransfer(used, held, "child", "adult", 6, false, limits),
		model.ErrCapacityExceeded)
}

func TestAdmitTransferPerTypeCap(t *testing.T) {
	used := map[string]int{"adult": 4}
	limits := CapacityLimits{Boat: 40, PerType: map[string]*int{"adult": capPtr(6)}}

	assert.NoError(t, admitTransfer(used, map[string]int{}, "child", "adult", 2, false, limits))
	assert.ErrorIs(t, admitTransfer(used, map[string]int{}, "child", "adult", 3, false, limits),
		model.ErrCapacityExceeded)
}

func TestAdmitTransferSelfRemapCreditsLeavingSeats(t *testing.T) {
	// A full 20-seat boat remapping 5 child seats to adult: the boat total
	// does not change, so the move must be admitted.
	used := map[string]int{"adult": 15, "child": 5}
	limits := CapacityLimits{Boat: 20, PerType: map[string]*int{}}

	assert.NoError(t, admitTransfer(used, map[string]int{}, "child", "adult", 5, true, limits))

	// The same move across boats would overflow the destination.
	assert.ErrorIs(t, admitTransfer(used, map[string]int{}, "child", "adult", 5, false, limits),
		model.ErrCapacityExceeded)
}

func TestAvailableOffset(t *testing.T) {
	assert.Equal(t, 0, availableOffset(false, 5, 3))
	assert.Equal(t, 3, availableOffset(true, 5, 3))
	// Never credit more seats than the source type actually holds.
	assert.Equal(t, 5, availableOffset(true, 5, 8))
}

func TestOccupiedSeats(t *testing.T) {
	used := map[string]int{"adult": 10, "child": 4}
	held := map[string]int{"adult": 2, "senior": 1}

	assert.Equal(t, 17, occupiedSeats(used, held))
	assert.Equal(t, 0, occupiedSeats(nil, nil))
}
