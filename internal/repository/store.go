package repository

import (
	"context"
	"database/sql"
	"time"

	"tourboat-booking/internal/model"
)

// HoldRequest is one ticket-type reservation to place while creating a draft.
type HoldRequest struct {
	TripBoatID uint64
	TicketType string
	Quantity   int
}

// SeatMove is one leg of a reassignment: move Quantity committed seats of a
// booking from one boat (and ticket type) to another on the same trip.
type SeatMove struct {
	BookingID      uint64
	TripID         uint64
	FromBoatID     uint64
	ToBoatID       uint64
	FromTripBoatID uint64
	ToTripBoatID   uint64
	FromType       string
	ToType         string
	Quantity       int
	DestLimits     CapacityLimits
}

// Store composes the repositories and runs the multi-table transactions the
// booking flow needs.  Single-table access goes through the embedded repos
// directly.
type Store struct {
	db       *sql.DB
	Boats    *BoatRepo
	Trips    *TripRepo
	Merch    *MerchandiseRepo
	Ledger   *LedgerRepo
	Bookings *BookingRepo
}

// NewStore wires every repository onto one database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		Boats:    NewBoatRepo(db),
		Trips:    NewTripRepo(db),
		Merch:    NewMerchandiseRepo(db),
		Ledger:   NewLedgerRepo(db),
		Bookings: NewBookingRepo(db),
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Read-side delegates, so the store satisfies the service interfaces
// without callers reaching into individual repos.

func (s *Store) Trip(ctx context.Context, id uint64) (*model.Trip, error) {
	return s.Trips.GetByID(ctx, id)
}

func (s *Store) Boat(ctx context.Context, id uint64) (*model.Boat, error) {
	return s.Boats.GetByID(ctx, id)
}

func (s *Store) TripBoat(ctx context.Context, tripID, boatID uint64) (*model.TripBoat, error) {
	return s.Trips.GetTripBoat(ctx, tripID, boatID)
}

func (s *Store) TripBoats(ctx context.Context, tripID uint64) ([]model.TripBoat, error) {
	return s.Trips.ListTripBoats(ctx, tripID)
}

func (s *Store) BoatPricing(ctx context.Context, boatID uint64) ([]model.BoatPricing, error) {
	return s.Boats.PricingByBoat(ctx, boatID)
}

func (s *Store) TripBoatPricing(ctx context.Context, tripBoatID uint64) ([]model.TripBoatPricing, error) {
	return s.Trips.PricingByTripBoat(ctx, tripBoatID)
}

func (s *Store) TripMerchandise(ctx context.Context, id uint64) (*model.TripMerchandise, error) {
	return s.Merch.GetTripMerchandise(ctx, id)
}

func (s *Store) Merchandise(ctx context.Context, id uint64) (*model.Merchandise, error) {
	return s.Merch.GetByID(ctx, id)
}

func (s *Store) Variation(ctx context.Context, id uint64) (*model.MerchandiseVariation, error) {
	return s.Merch.GetVariation(ctx, id)
}

// TripMerchandiseSold counts units of one trip offering sold across bookings
// that are not cancelled, used to enforce per-trip quantity limits.
func (s *Store) TripMerchandiseSold(ctx context.Context, tripMerchandiseID uint64) (int, error) {
	var sold int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(i.quantity), 0)
		 FROM booking_items i
		 JOIN bookings b ON b.id = i.booking_id
		 WHERE i.trip_merchandise_id = ? AND b.status <> 'cancelled'`,
		tripMerchandiseID).Scan(&sold)
	return sold, err
}

func (s *Store) BookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	return s.Bookings.GetByConfirmationCode(ctx, code)
}

func (s *Store) Counts(ctx context.Context, tripBoatID uint64) (map[string]model.SeatCount, error) {
	return s.Ledger.CountsByType(ctx, tripBoatID)
}

func (s *Store) TicketItems(ctx context.Context, tripID, boatID uint64) ([]model.BookingItem, error) {
	return s.Bookings.TicketItemsByTripBoat(ctx, tripID, boatID)
}

// CreateDraft atomically inserts a booking with its items, places seat holds
// and consumes merchandise stock.  Any capacity failure rolls the whole
// draft back, so a booking never exists without its seats.
func (s *Store) CreateDraft(ctx context.Context, b *model.Booking,
	holds []HoldRequest, limits map[uint64]CapacityLimits,
	stock map[uint64]int, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.Bookings.CreateTx(ctx, tx, b); err != nil {
		return err
	}
	byBoat := make(map[uint64]map[string]int)
	for _, h := range holds {
		m := byBoat[h.TripBoatID]
		if m == nil {
			m = make(map[string]int)
			byBoat[h.TripBoatID] = m
		}
		m[h.TicketType] += h.Quantity
	}
	for tripBoatID, requests := range byBoat {
		if err := s.Ledger.ReserveTx(ctx, tx, b.ID, tripBoatID, requests, limits[tripBoatID], expiresAt); err != nil {
			return err
		}
	}
	for variationID, qty := range stock {
		if err := s.Merch.AdjustSoldTx(ctx, tx, variationID, qty); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ConfirmSeats converts a booking's holds into committed allocations and
// moves it to confirmed.  Both steps are idempotent, so retrying after a
// crash between payment and confirmation is safe.
func (s *Store) ConfirmSeats(ctx context.Context, bookingID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.Bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingStatusConfirmed); err != nil {
		return err
	}
	if err := s.Ledger.CommitHoldsTx(ctx, tx, bookingID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPaymentPending records the gateway intent and moves the booking to
// payment_pending in one transaction.
func (s *Store) SetPaymentPending(ctx context.Context, bookingID uint64, intentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.Bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingStatusPaymentPending); err != nil {
		return err
	}
	if err := s.Bookings.SetPaymentIntentTx(ctx, tx, bookingID, intentID); err != nil {
		return err
	}
	return tx.Commit()
}

// tripBoatIDTx resolves the trip boat row for a (trip, boat) pair inside tx.
func (s *Store) tripBoatIDTx(ctx context.Context, tx *sql.Tx, tripID, boatID uint64) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM trip_boats WHERE trip_id = ? AND boat_id = ?`, tripID, boatID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrTripBoatNotFound
	}
	return id, err
}

// CancelBooking releases whatever the booking holds, restores merchandise
// stock and moves it to cancelled.  Drafts give back their holds; confirmed
// bookings give back committed seats.
func (s *Store) CancelBooking(ctx context.Context, b *model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	from, err := s.Bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingStatusCancelled)
	if err != nil {
		return err
	}
	switch from {
	case model.BookingStatusDraft, model.BookingStatusPaymentPending:
		if err := s.Ledger.ReleaseHoldsTx(ctx, tx, b.ID); err != nil {
			return err
		}
	case model.BookingStatusConfirmed, model.BookingStatusCheckedIn:
		for _, item := range b.Items {
			if item.Kind != model.ItemKindTicket {
				continue
			}
			tripBoatID, err := s.tripBoatIDTx(ctx, tx, item.TripID, item.BoatID)
			if err != nil {
				return err
			}
			if err := s.Ledger.ReleaseCommittedTx(ctx, tx, tripBoatID, item.TicketType, item.Quantity); err != nil {
				return err
			}
		}
	case model.BookingStatusCancelled:
		// Idempotent retry; the first cancellation already released everything.
		return tx.Commit()
	}
	for _, item := range b.Items {
		if item.Kind == model.ItemKindMerchandise && item.VariationID != nil {
			if err := s.Merch.AdjustSoldTx(ctx, tx, *item.VariationID, -item.Quantity); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Transition moves a booking between statuses with no side effects, used
// for check-in and completion.
func (s *Store) Transition(ctx context.Context, bookingID uint64, to model.BookingStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.Bookings.UpdateStatusTx(ctx, tx, bookingID, to); err != nil {
		return err
	}
	return tx.Commit()
}

// TransferSeats applies a reassignment plan in a single transaction: every
// move shifts ledger counts and rewrites the affected booking items.  One
// failed move rolls back the whole plan.
func (s *Store) TransferSeats(ctx context.Context, moves []SeatMove) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range moves {
		if err := s.Ledger.TransferTx(ctx, tx, m.FromTripBoatID, m.ToTripBoatID,
			m.FromType, m.ToType, m.Quantity, m.DestLimits); err != nil {
			return err
		}
		if err := s.Bookings.ReassignItemsTx(ctx, tx, m.BookingID, m.TripID,
			m.FromBoatID, m.ToBoatID, m.FromType, m.ToType); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ExpiredHoldBookings lists bookings whose seat holds have all lapsed as of
// now, for the sweeper to abandon.
func (s *Store) ExpiredHoldBookings(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	return s.Ledger.ExpiredHoldBookings(ctx, now, limit)
}

// AbandonExpiredDraft cancels a draft whose holds have lapsed.  The status
// check keeps the sweeper from touching a booking that reached payment in
// the meantime.
func (s *Store) AbandonExpiredDraft(ctx context.Context, bookingID uint64, cutoff time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var status model.BookingStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = ? FOR UPDATE`, bookingID).Scan(&status)
	if err == sql.ErrNoRows {
		// Booking gone; just clear the orphaned holds.
		if err := s.Ledger.ReleaseHoldsTx(ctx, tx, bookingID); err != nil {
			return false, err
		}
		return true, tx.Commit()
	}
	if err != nil {
		return false, err
	}
	if status != model.BookingStatusDraft {
		return false, nil
	}
	var live int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seat_holds WHERE booking_id = ? AND expires_at > ?`,
		bookingID, cutoff.UTC()).Scan(&live)
	if err != nil {
		return false, err
	}
	if live > 0 {
		return false, nil
	}
	if err := s.Ledger.ReleaseHoldsTx(ctx, tx, bookingID); err != nil {
		return false, err
	}
	if _, err := s.Bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingStatusCancelled); err != nil {
		return false, err
	}
	b, err := s.bookingItemsForRestockTx(ctx, tx, bookingID)
	if err != nil {
		return false, err
	}
	for _, item := range b {
		if item.Kind == model.ItemKindMerchandise && item.VariationID != nil {
			if err := s.Merch.AdjustSoldTx(ctx, tx, *item.VariationID, -item.Quantity); err != nil {
				return false, err
			}
		}
	}
	return true, tx.Commit()
}

func (s *Store) bookingItemsForRestockTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT kind, variation_id, quantity FROM booking_items WHERE booking_id = ?`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingItem
	for rows.Next() {
		var item model.BookingItem
		var varID sql.NullInt64
		if err := rows.Scan(&item.Kind, &varID, &item.Quantity); err != nil {
			return nil, err
		}
		if varID.Valid {
			v := uint64(varID.Int64)
			item.VariationID = &v
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
