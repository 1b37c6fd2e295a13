package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SweepStore is the persistence surface the sweeper needs: find bookings
// whose holds have all lapsed, and abandon them one at a time.
type SweepStore interface {
	ExpiredHoldBookings(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	AbandonExpiredDraft(ctx context.Context, bookingID uint64, cutoff time.Time) (bool, error)
}

// HoldSweeper periodically abandons draft bookings whose seat holds have
// expired, returning their seats and merchandise stock to the pool.  A draft
// that reached payment between the scan and the sweep is left alone; the
// per-booking transaction re-checks status under a lock.
type HoldSweeper struct {
	store    SweepStore
	interval time.Duration
	batch    int
}

// NewHoldSweeper builds a sweeper that runs every interval, abandoning up to
// batch drafts per pass.
func NewHoldSweeper(store SweepStore, interval time.Duration, batch int) *HoldSweeper {
	if batch <= 0 {
		batch = 100
	}
	return &HoldSweeper{store: store, interval: interval, batch: batch}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *HoldSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("hold sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *HoldSweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	bookingIDs, err := w.store.ExpiredHoldBookings(ctx, now, w.batch)
	if err != nil {
		logrus.WithError(err).Error("hold sweeper: listing expired holds failed")
		return
	}
	if len(bookingIDs) == 0 {
		return
	}

	abandoned, skipped, failed := 0, 0, 0
	for _, id := range bookingIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ok, err := w.store.AbandonExpiredDraft(ctx, id, now)
		switch {
		case err != nil:
			logrus.WithError(err).WithField("booking_id", id).Error("hold sweeper: abandon failed")
			failed++
		case ok:
			logrus.WithField("booking_id", id).Debug("hold sweeper: draft abandoned")
			abandoned++
		default:
			skipped++
		}
	}
	logrus.WithFields(logrus.Fields{
		"abandoned": abandoned,
		"skipped":   skipped,
		"failed":    failed,
	}).Info("hold sweep completed")
}
