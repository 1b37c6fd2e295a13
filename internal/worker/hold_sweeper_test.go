package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSweepStore struct {
	expired   []uint64
	listErr   error
	abandoned []uint64
	skip      map[uint64]bool
	failOn    map[uint64]bool
}

func (f *fakeSweepStore) ExpiredHoldBookings(_ context.Context, _ time.Time, limit int) ([]uint64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.expired) > limit {
		return f.expired[:limit], nil
	}
	return f.expired, nil
}

func (f *fakeSweepStore) AbandonExpiredDraft(_ context.Context, bookingID uint64, _ time.Time) (bool, error) {
	if f.failOn[bookingID] {
		return false, errors.New("deadlock")
	}
	if f.skip[bookingID] {
		return false, nil
	}
	f.abandoned = append(f.abandoned, bookingID)
	return true, nil
}

func TestSweepAbandonsExpiredDrafts(t *testing.T) {
	store := &fakeSweepStore{expired: []uint64{3, 7, 9}}
	w := NewHoldSweeper(store, time.Minute, 100)

	w.sweep(context.Background())

	assert.Equal(t, []uint64{3, 7, 9}, store.abandoned)
}

func TestSweepSkipsBookingsThatProgressed(t *testing.T) {
	// A draft that reached payment between scan and sweep reports not-abandoned.
	store := &fakeSweepStore{
		expired: []uint64{3, 7},
		skip:    map[uint64]bool{7: true},
	}
	w := NewHoldSweeper(store, time.Minute, 100)

	w.sweep(context.Background())

	assert.Equal(t, []uint64{3}, store.abandoned)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	store := &fakeSweepStore{
		expired: []uint64{1, 2, 3},
		failOn:  map[uint64]bool{2: true},
	}
	w := NewHoldSweeper(store, time.Minute, 100)

	w.sweep(context.Background())

	assert.Equal(t, []uint64{1, 3}, store.abandoned)
}

func TestSweepHonorsBatchLimit(t *testing.T) {
	store := &fakeSweepStore{expired: []uint64{1, 2, 3, 4, 5}}
	w := NewHoldSweeper(store, time.Minute, 2)

	w.sweep(context.Background())

	assert.Equal(t, []uint64{1, 2}, store.abandoned)
}

func TestSweepListErrorIsNonFatal(t *testing.T) {
	store := &fakeSweepStore{listErr: errors.New("db down")}
	w := NewHoldSweeper(store, time.Minute, 100)

	w.sweep(context.Background())

	assert.Empty(t, store.abandoned)
}
