package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tourboat-booking/internal/model"
)

// CapacityLimits carries the resolved limits a reservation is checked
// against: the effective boat capacity (physical capacity possibly tightened
// by a trip-level override) and optional per-ticket-type limits.
type CapacityLimits struct {
	Boat    int
	PerType map[string]*int
}

// LedgerRepo maintains the seat ledger for each trip boat: durable committed
// counts in seat_allocations plus short-lived draft holds in seat_holds.
// All mutating methods take a transaction and lock the trip_boats row first,
// so concurrent reservations against the same boat serialize; the version
// column on seat_allocations is a second line of defence against lost
// updates.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a new LedgerRepo bound to the provided database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// DB exposes the underlying handle for cross-repository transactions.
func (r *LedgerRepo) DB() *sql.DB { return r.db }

// lockTripBoat takes the row lock that serializes ledger writes for one boat.
func (r *LedgerRepo) lockTripBoat(ctx context.Context, tx *sql.Tx, tripBoatID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM trip_boats WHERE id = ? FOR UPDATE`, tripBoatID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrTripBoatNotFound
	}
	return err
}

// usedByTypeTx returns committed seat counts keyed by ticket type.
func (r *LedgerRepo) usedByTypeTx(ctx context.Context, tx *sql.Tx, tripBoatID uint64) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ticket_type, used FROM seat_allocations WHERE trip_boat_id = ?`, tripBoatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var tt string
		var used int
		if err := rows.Scan(&tt, &used); err != nil {
			return nil, err
		}
		out[tt] = used
	}
	return out, rows.Err()
}

// heldByTypeTx returns unexpired hold counts keyed by ticket type.
func (r *LedgerRepo) heldByTypeTx(ctx context.Context, tx *sql.Tx, tripBoatID uint64) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ticket_type, COALESCE(SUM(quantity), 0)
		 FROM seat_holds
		 WHERE trip_boat_id = ? AND expires_at > UTC_TIMESTAMP()
		 GROUP BY ticket_type`, tripBoatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var tt string
		var held int
		if err := rows.Scan(&tt, &held); err != nil {
			return nil, err
		}
		out[tt] = held
	}
	return out, rows.Err()
}

// ReserveTx places holds for every requested ticket type, all or nothing.
// Committed seats and unexpired holds both count against capacity, so a
// seat is never promised twice.  Returns model.ErrCapacityExceeded when any
// per-type limit or the boat total would be breached.
func (r *LedgerRepo) ReserveTx(ctx context.Context, tx *sql.Tx, bookingID, tripBoatID uint64,
	requests map[string]int, limits CapacityLimits, expiresAt time.Time) error {
	if len(requests) == 0 {
		return nil
	}
	if err := r.lockTripBoat(ctx, tx, tripBoatID); err != nil {
		return err
	}
	used, err := r.usedByTypeTx(ctx, tx, tripBoatID)
	if err != nil {
		return err
	}
	held, err := r.heldByTypeTx(ctx, tx, tripBoatID)
	if err != nil {
		return err
	}
	if err := admitReservation(used, held, requests, limits); err != nil {
		return err
	}
	for tt, qty := range requests {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO seat_holds (booking_id, trip_boat_id, ticket_type, quantity, expires_at)
			 VALUES (?, ?, ?, ?, ?)`,
			bookingID, tripBoatID, tt, qty, expiresAt.UTC())
		if err != nil {
			return fmt.Errorf("insert hold: %w", err)
		}
	}
	return nil
}

// CommitHoldsTx converts a booking's holds into committed allocations.
// Expired holds still convert here: the booking reached payment before the
// sweeper ran, and its seats were counted the whole time.  A booking with
// no remaining holds is a no-op, which makes commit idempotent.
func (r *LedgerRepo) CommitHoldsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT trip_boat_id, ticket_type, quantity FROM seat_holds
		 WHERE booking_id = ? FOR UPDATE`, bookingID)
	if err != nil {
		return err
	}
	type hold struct {
		tripBoatID uint64
		ticketType string
		quantity   int
	}
	var holds []hold
	for rows.Next() {
		var h hold
		if err := rows.Scan(&h.tripBoatID, &h.ticketType, &h.quantity); err != nil {
			rows.Close()
			return err
		}
		holds = append(holds, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, h := range holds {
		if err := r.addUsedTx(ctx, tx, h.tripBoatID, h.ticketType, h.quantity); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE booking_id = ?`, bookingID)
	return err
}

// addUsedTx bumps the committed counter for one (trip boat, ticket type)
// pair, creating the row on first use.  The version check detects writes
// that raced past the row lock.
func (r *LedgerRepo) addUsedTx(ctx context.Context, tx *sql.Tx, tripBoatID uint64, ticketType string, delta int) error {
	var version uint64
	err := tx.QueryRowContext(ctx,
		`SELECT version FROM seat_allocations
		 WHERE trip_boat_id = ? AND ticket_type = ? FOR UPDATE`,
		tripBoatID, ticketType).Scan(&version)
	if err == sql.ErrNoRows {
		if delta < 0 {
			return model.ErrConflict
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO seat_allocations (trip_boat_id, ticket_type, used, version)
			 VALUES (?, ?, ?, 1)`,
			tripBoatID, ticketType, delta)
		return err
	}
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE seat_allocations
		 SET used = used + ?, version = version + 1
		 WHERE trip_boat_id = ? AND ticket_type = ? AND version = ? AND used + ? >= 0`,
		delta, tripBoatID, ticketType, version, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrConflict
	}
	return nil
}

// ReleaseHoldsTx drops every hold a booking owns.  Safe to call when none
// remain.
func (r *LedgerRepo) ReleaseHoldsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE booking_id = ?`, bookingID)
	return err
}

// ReleaseCommittedTx returns committed seats to the pool, used when a
// confirmed booking is cancelled.
func (r *LedgerRepo) ReleaseCommittedTx(ctx context.Context, tx *sql.Tx, tripBoatID uint64, ticketType string, quantity int) error {
	if err := r.lockTripBoat(ctx, tx, tripBoatID); err != nil {
		return err
	}
	return r.addUsedTx(ctx, tx, tripBoatID, ticketType, -quantity)
}

// TransferTx moves committed seats between trip boats for one ticket type,
// checking the destination's limits before writing.  Both boats are locked
// in id order to avoid deadlock with a concurrent transfer the other way.
func (r *LedgerRepo) TransferTx(ctx context.Context, tx *sql.Tx,
	fromTripBoatID, toTripBoatID uint64, fromType, toType string, quantity int,
	destLimits CapacityLimits) error {
	first, second := fromTripBoatID, toTripBoatID
	if second < first {
		first, second = second, first
	}
	if err := r.lockTripBoat(ctx, tx, first); err != nil {
		return err
	}
	if first != second {
		if err := r.lockTripBoat(ctx, tx, second); err != nil {
			return err
		}
	}
	used, err := r.usedByTypeTx(ctx, tx, toTripBoatID)
	if err != nil {
		return err
	}
	held, err := r.heldByTypeTx(ctx, tx, toTripBoatID)
	if err != nil {
		return err
	}
	selfTransfer := fromTripBoatID == toTripBoatID
	if err := admitTransfer(used, held, fromType, toType, quantity, selfTransfer, destLimits); err != nil {
		return err
	}
	if err := r.addUsedTx(ctx, tx, fromTripBoatID, fromType, -quantity); err != nil {
		return err
	}
	return r.addUsedTx(ctx, tx, toTripBoatID, toType, quantity)
}

// occupiedSeats totals committed and held seats across every ticket type.
func occupiedSeats(used, held map[string]int) int {
	total := 0
	for tt, u := range used {
		total += u + held[tt]
	}
	for tt, h := range held {
		if _, ok := used[tt]; !ok {
			total += h
		}
	}
	return total
}

// admitReservation decides whether a whole set of requested ticket lines
// fits the boat, given its current committed and held counts.  All or
// nothing: one breached limit rejects the entire request with
// model.ErrCapacityExceeded and nothing is admitted.
func admitReservation(used, held, requests map[string]int, limits CapacityLimits) error {
	total := occupiedSeats(used, held)
	for tt, qty := range requests {
		if qty <= 0 {
			return fmt.Errorf("reserve %q: quantity must be positive", tt)
		}
		if limit, ok := limits.PerType[tt]; ok && limit != nil {
			if used[tt]+held[tt]+qty > *limit {
				return model.ErrCapacityExceeded
			}
		}
		total += qty
	}
	if total > limits.Boat {
		return model.ErrCapacityExceeded
	}
	return nil
}

// admitTransfer decides whether quantity seats arriving as toType fit the
// destination boat.  used and held describe the destination; on a
// self-transfer (a ticket-type remap on one boat) the seats leaving
// fromType free up room that the boat total check must credit.
func admitTransfer(used, held map[string]int, fromType, toType string, quantity int,
	selfTransfer bool, destLimits CapacityLimits) error {
	if limit, ok := destLimits.PerType[toType]; ok && limit != nil {
		if used[toType]+held[toType]+quantity > *limit {
			return model.ErrCapacityExceeded
		}
	}
	available := used[fromType]
	if !selfTransfer {
		// Seats leaving the source free nothing on the destination.
		available = 0
	}
	total := occupiedSeats(used, held)
	if total+quantity-availableOffset(selfTransfer, available, quantity) > destLimits.Boat {
		return model.ErrCapacityExceeded
	}
	return nil
}

// availableOffset accounts for seats that free up on the destination when a
// transfer stays on the same boat (a ticket-type remap).
func availableOffset(selfTransfer bool, available, quantity int) int {
	if !selfTransfer {
		return 0
	}
	if quantity < available {
		return quantity
	}
	return available
}

// CountsByType reports committed and held seats per ticket type for a trip
// boat, outside any transaction.  Used by availability queries.
func (r *LedgerRepo) CountsByType(ctx context.Context, tripBoatID uint64) (map[string]model.SeatCount, error) {
	out := make(map[string]model.SeatCount)
	rows, err := r.db.QueryContext(ctx,
		`SELECT ticket_type, used FROM seat_allocations WHERE trip_boat_id = ?`, tripBoatID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var tt string
		var used int
		if err := rows.Scan(&tt, &used); err != nil {
			rows.Close()
			return nil, err
		}
		c := out[tt]
		c.Used = used
		out[tt] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows, err = r.db.QueryContext(ctx,
		`SELECT ticket_type, COALESCE(SUM(quantity), 0)
		 FROM seat_holds
		 WHERE trip_boat_id = ? AND expires_at > UTC_TIMESTAMP()
		 GROUP BY ticket_type`, tripBoatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tt string
		var held int
		if err := rows.Scan(&tt, &held); err != nil {
			return nil, err
		}
		c := out[tt]
		c.Held = held
		out[tt] = c
	}
	return out, rows.Err()
}

// ExpiredHoldBookings returns the distinct booking ids whose holds have all
// lapsed, so the sweeper can abandon the drafts rather than silently delete
// their holds.
func (r *LedgerRepo) ExpiredHoldBookings(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT booking_id FROM seat_holds WHERE expires_at <= ? LIMIT ?`,
		now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
