package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tourboat-booking/internal/model"
)

// TripRepo provides data access to trips, trip boats and trip-level pricing
// overrides.  Capacity-tightening rules are enforced here: a trip boat's
// max_capacity may never be set below the seats already in use (committed
// plus actively held).
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle for cross-repository transactions.
func (r *TripRepo) DB() *sql.DB { return r.db }

// Create inserts a trip and populates the generated ID.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (name, type, active, unlisted, booking_mode, sales_open_at,
		                    check_in_time, boarding_time, departure_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Type, t.Active, t.Unlisted, t.BookingMode, t.SalesOpenAt,
		t.CheckInTime, t.BoardingTime, t.DepartureTime)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

const tripColumns = `id, name, type, active, unlisted, booking_mode, sales_open_at,
	check_in_time, boarding_time, departure_time, created_at, updated_at`

func scanTrip(row interface{ Scan(...any) error }) (*model.Trip, error) {
	var t model.Trip
	var salesOpen sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Active, &t.Unlisted, &t.BookingMode,
		&salesOpen, &t.CheckInTime, &t.BoardingTime, &t.DepartureTime, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if salesOpen.Valid {
		v := salesOpen.Time
		t.SalesOpenAt = &v
	}
	return &t, nil
}

// GetByID fetches a trip by id.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns trips, optionally restricted to active listed ones (the
// public listing).  Ordered by departure time.
func (r *TripRepo) List(ctx context.Context, publicOnly bool) ([]model.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips`
	if publicOnly {
		q += ` WHERE active = TRUE AND unlisted = FALSE`
	}
	q += ` ORDER BY departure_time`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update rewrites a trip's mutable fields.
func (r *TripRepo) Update(ctx context.Context, t *model.Trip) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET name = ?, type = ?, active = ?, unlisted = ?, booking_mode = ?,
		        sales_open_at = ?, check_in_time = ?, boarding_time = ?, departure_time = ?
		 WHERE id = ?`,
		t.Name, t.Type, t.Active, t.Unlisted, t.BookingMode, t.SalesOpenAt,
		t.CheckInTime, t.BoardingTime, t.DepartureTime, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Delete removes a trip unless bookings reference it.
func (r *TripRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_items WHERE trip_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripNotFound
	}
	return nil
}

// usedSeats returns committed plus actively held seats for a trip boat.
func (r *TripRepo) usedSeats(ctx context.Context, tripBoatID uint64) (int, error) {
	var used, held int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(used), 0) FROM seat_allocations WHERE trip_boat_id = ?`, tripBoatID).
		Scan(&used)
	if err != nil {
		return 0, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM seat_holds
		 WHERE trip_boat_id = ? AND expires_at > UTC_TIMESTAMP()`, tripBoatID).
		Scan(&held)
	if err != nil {
		return 0, err
	}
	return used + held, nil
}

// AttachBoat creates a trip boat association.  A max_capacity override is
// validated against the boat's physical capacity.
func (r *TripRepo) AttachBoat(ctx context.Context, tb *model.TripBoat) error {
	var boatCap int
	err := r.db.QueryRowContext(ctx,
		`SELECT capacity FROM boats WHERE id = ?`, tb.BoatID).Scan(&boatCap)
	if err == sql.ErrNoRows {
		return ErrBoatNotFound
	}
	if err != nil {
		return err
	}
	if tb.MaxCapacity != nil && *tb.MaxCapacity > boatCap {
		return model.ErrCapacityExceeded
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trip_boats (trip_id, boat_id, max_capacity, use_only_trip_pricing)
		 VALUES (?, ?, ?, ?)`,
		tb.TripID, tb.BoatID, tb.MaxCapacity, tb.UseOnlyTripPricing)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrInUse
		}
		return fmt.Errorf("insert trip boat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tb.ID = uint64(id)
	return nil
}

func scanTripBoat(row interface{ Scan(...any) error }) (*model.TripBoat, error) {
	var tb model.TripBoat
	var maxCap sql.NullInt64
	err := row.Scan(&tb.ID, &tb.TripID, &tb.BoatID, &maxCap, &tb.UseOnlyTripPricing,
		&tb.CreatedAt, &tb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if maxCap.Valid {
		v := int(maxCap.Int64)
		tb.MaxCapacity = &v
	}
	return &tb, nil
}

const tripBoatColumns = `id, trip_id, boat_id, max_capacity, use_only_trip_pricing, created_at, updated_at`

// GetTripBoat fetches the association between a trip and a boat.
func (r *TripRepo) GetTripBoat(ctx context.Context, tripID, boatID uint64) (*model.TripBoat, error) {
	tb, err := scanTripBoat(r.db.QueryRowContext(ctx,
		`SELECT `+tripBoatColumns+` FROM trip_boats WHERE trip_id = ? AND boat_id = ?`,
		tripID, boatID))
	if err == sql.ErrNoRows {
		return nil, ErrTripBoatNotFound
	}
	if err != nil {
		return nil, err
	}
	return tb, nil
}

// GetTripBoatByID fetches a trip boat by its own id.
func (r *TripRepo) GetTripBoatByID(ctx context.Context, id uint64) (*model.TripBoat, error) {
	tb, err := scanTripBoat(r.db.QueryRowContext(ctx,
		`SELECT `+tripBoatColumns+` FROM trip_boats WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrTripBoatNotFound
	}
	if err != nil {
		return nil, err
	}
	return tb, nil
}

// ListTripBoats returns every boat association for a trip.
func (r *TripRepo) ListTripBoats(ctx context.Context, tripID uint64) ([]model.TripBoat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripBoatColumns+` FROM trip_boats WHERE trip_id = ? ORDER BY id`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TripBoat
	for rows.Next() {
		tb, err := scanTripBoat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tb)
	}
	return out, rows.Err()
}

// UpdateTripBoat changes the capacity override and pricing mode.  Tightening
// max_capacity below the seats already in use is rejected; passengers must
// be reassigned or cancelled first.
func (r *TripRepo) UpdateTripBoat(ctx context.Context, tb *model.TripBoat) error {
	if tb.MaxCapacity != nil {
		inUse, err := r.usedSeats(ctx, tb.ID)
		if err != nil {
			return err
		}
		if *tb.MaxCapacity < inUse {
			return model.ErrCapacityExceeded
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE trip_boats SET max_capacity = ?, use_only_trip_pricing = ? WHERE id = ?`,
		tb.MaxCapacity, tb.UseOnlyTripPricing, tb.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripBoatNotFound
	}
	return nil
}

// DetachBoat removes a trip boat association.  Fails when any ticket booking
// references the boat on this trip; those must be reassigned or cancelled
// first.
func (r *TripRepo) DetachBoat(ctx context.Context, tripBoatID uint64) error {
	tb, err := r.GetTripBoatByID(ctx, tripBoatID)
	if err != nil {
		return err
	}
	var refs int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_items WHERE trip_id = ? AND boat_id = ? AND kind = 'ticket'`,
		tb.TripID, tb.BoatID).Scan(&refs)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM trip_boats WHERE id = ?`, tripBoatID)
	return err
}

// CreateTripBoatPricing inserts a pricing override for one ticket type.
func (r *TripRepo) CreateTripBoatPricing(ctx context.Context, p *model.TripBoatPricing) error {
	if _, err := r.GetTripBoatByID(ctx, p.TripBoatID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trip_boat_pricing (trip_boat_id, ticket_type, price_cents, capacity)
		 VALUES (?, ?, ?, ?)`,
		p.TripBoatID, p.TicketType, p.PriceCents, p.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrInUse
		}
		return fmt.Errorf("insert trip boat pricing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdateTripBoatPricing rewrites price and capacity of an override row.
func (r *TripRepo) UpdateTripBoatPricing(ctx context.Context, p *model.TripBoatPricing) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trip_boat_pricing SET price_cents = ?, capacity = ? WHERE id = ? AND trip_boat_id = ?`,
		p.PriceCents, p.Capacity, p.ID, p.TripBoatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPricingNotFound
	}
	return nil
}

// DeleteTripBoatPricing removes an override row.
func (r *TripRepo) DeleteTripBoatPricing(ctx context.Context, tripBoatID, pricingID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM trip_boat_pricing WHERE id = ? AND trip_boat_id = ?`, pricingID, tripBoatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPricingNotFound
	}
	return nil
}

// PricingByTripBoat returns all override rows for a trip boat.
func (r *TripRepo) PricingByTripBoat(ctx context.Context, tripBoatID uint64) ([]model.TripBoatPricing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trip_boat_id, ticket_type, price_cents, capacity, created_at, updated_at
		 FROM trip_boat_pricing WHERE trip_boat_id = ? ORDER BY ticket_type`, tripBoatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TripBoatPricing
	for rows.Next() {
		var p model.TripBoatPricing
		var capCol sql.NullInt64
		if err := rows.Scan(&p.ID, &p.TripBoatID, &p.TicketType, &p.PriceCents, &capCol, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if capCol.Valid {
			v := int(capCol.Int64)
			p.Capacity = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
