package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveBookingMode(t *testing.T) {
	open := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	before := open.Add(-time.Hour)
	after := open.Add(time.Hour)

	cases := []struct {
		name        string
		mode        BookingMode
		salesOpenAt *time.Time
		now         time.Time
		want        BookingMode
	}{
		{"no sales window", BookingModePublic, nil, before, BookingModePublic},
		{"public after open", BookingModePublic, &open, after, BookingModePublic},
		{"public before open downgrades", BookingModePublic, &open, before, BookingModeEarlyBird},
		{"early bird before open downgrades", BookingModeEarlyBird, &open, before, BookingModePrivate},
		{"early bird after open", BookingModeEarlyBird, &open, after, BookingModeEarlyBird},
		{"private stays private", BookingModePrivate, &open, before, BookingModePrivate},
		{"exactly at open", BookingModePublic, &open, open, BookingModePublic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trip := &Trip{BookingMode: tc.mode, SalesOpenAt: tc.salesOpenAt}
			assert.Equal(t, tc.want, trip.EffectiveBookingMode(tc.now))
		})
	}
}

func TestApplyDefaultTimes(t *testing.T) {
	departure := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)

	trip := &Trip{Type: TripTypeLaunchViewing, DepartureTime: departure}
	trip.ApplyDefaultTimes()
	assert.Equal(t, departure.Add(-90*time.Minute), trip.CheckInTime)
	assert.Equal(t, departure.Add(-30*time.Minute), trip.BoardingTime)

	trip = &Trip{Type: TripTypePreLaunch, DepartureTime: departure}
	trip.ApplyDefaultTimes()
	assert.Equal(t, departure.Add(-60*time.Minute), trip.CheckInTime)
	assert.Equal(t, departure.Add(-20*time.Minute), trip.BoardingTime)

	// Explicit times are never overwritten.
	explicit := departure.Add(-2 * time.Hour)
	trip = &Trip{Type: TripTypeLaunchViewing, DepartureTime: departure, CheckInTime: explicit}
	trip.ApplyDefaultTimes()
	assert.Equal(t, explicit, trip.CheckInTime)
}
