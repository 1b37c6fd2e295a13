package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tourboat-booking/internal/model"
)

// BookingRepo provides data access to bookings and their line items.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for cross-repository transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking and its items inside tx, populating generated
// IDs.  A confirmation code collision surfaces as
// model.ErrDuplicateConfirmationCode so the caller can regenerate and retry.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (confirmation_code, first_name, last_name, email, phone,
		                       billing_address, special_requests,
		                       subtotal_cents, discount_cents, tax_cents, tip_cents, total_cents,
		                       payment_intent_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ConfirmationCode, b.FirstName, b.LastName, b.Email, b.Phone,
		b.BillingAddress, b.SpecialRequests,
		b.Subtotal, b.DiscountAmount, b.TaxAmount, b.TipAmount, b.TotalAmount,
		b.PaymentIntentID, b.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return model.ErrDuplicateConfirmationCode
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	for i := range b.Items {
		item := &b.Items[i]
		item.BookingID = b.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO booking_items (booking_id, kind, trip_id, boat_id, ticket_type,
			                            trip_merchandise_id, variation_id, variant_value,
			                            quantity, price_per_unit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.BookingID, item.Kind, item.TripID, item.BoatID, item.TicketType,
			item.TripMerchandiseID, item.VariationID, item.VariantValue,
			item.Quantity, item.PricePerUnit)
		if err != nil {
			return fmt.Errorf("insert booking item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = uint64(itemID)
	}
	return nil
}

const bookingColumns = `id, confirmation_code, first_name, last_name, email, phone,
	billing_address, special_requests,
	subtotal_cents, discount_cents, tax_cents, tip_cents, total_cents,
	payment_intent_id, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.ConfirmationCode, &b.FirstName, &b.LastName, &b.Email, &b.Phone,
		&b.BillingAddress, &b.SpecialRequests,
		&b.Subtotal, &b.DiscountAmount, &b.TaxAmount, &b.TipAmount, &b.TotalAmount,
		&b.PaymentIntentID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) loadItems(ctx context.Context, b *model.Booking) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, kind, trip_id, boat_id, ticket_type,
		        trip_merchandise_id, variation_id, variant_value, quantity, price_per_unit
		 FROM booking_items WHERE booking_id = ? ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item model.BookingItem
		var boatID, tmID, varID sql.NullInt64
		var ticketType, variantValue sql.NullString
		err := rows.Scan(&item.ID, &item.BookingID, &item.Kind, &item.TripID, &boatID, &ticketType,
			&tmID, &varID, &variantValue, &item.Quantity, &item.PricePerUnit)
		if err != nil {
			return err
		}
		if boatID.Valid {
			v := uint64(boatID.Int64)
			item.BoatID = v
		}
		if ticketType.Valid {
			item.TicketType = ticketType.String
		}
		if tmID.Valid {
			v := uint64(tmID.Int64)
			item.TripMerchandiseID = &v
		}
		if varID.Valid {
			v := uint64(varID.Int64)
			item.VariationID = &v
		}
		if variantValue.Valid {
			item.VariantValue = variantValue.String
		}
		b.Items = append(b.Items, item)
	}
	return rows.Err()
}

// GetByID fetches a booking with its items.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByConfirmationCode fetches a booking by its public code.
func (r *BookingRepo) GetByConfirmationCode(ctx context.Context, code string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE confirmation_code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByTrip returns bookings holding at least one ticket on the trip,
// optionally filtered by status.  Items are not loaded; the manifest view
// joins what it needs itself.
func (r *BookingRepo) ListByTrip(ctx context.Context, tripID uint64, status model.BookingStatus) ([]model.Booking, error) {
	q := `SELECT DISTINCT ` + prefixColumns("b.", bookingColumns) + `
	      FROM bookings b
	      JOIN booking_items i ON i.booking_id = b.id
	      WHERE i.trip_id = ? AND i.kind = 'ticket'`
	args := []any{tripID}
	if status != "" {
		q += ` AND b.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateStatusTx moves a booking to a new status inside tx, enforcing the
// lifecycle state machine.  The current row is locked so two operators
// cannot race the same transition.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, to model.BookingStatus) (model.BookingStatus, error) {
	var from model.BookingStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = ? FOR UPDATE`, bookingID).Scan(&from)
	if err == sql.ErrNoRows {
		return "", ErrBookingNotFound
	}
	if err != nil {
		return "", err
	}
	if !model.CanTransition(from, to) {
		return from, model.ErrInvalidStateTransition
	}
	if from == to {
		return from, nil
	}
	_, err = tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, to, bookingID)
	return from, err
}

// SetPaymentIntentTx records the gateway intent id on a booking.
func (r *BookingRepo) SetPaymentIntentTx(ctx context.Context, tx *sql.Tx, bookingID uint64, intentID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET payment_intent_id = ? WHERE id = ?`, intentID, bookingID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ReassignItemsTx rewrites the boat and ticket type on a booking's ticket
// items for one trip, used when passengers are moved between boats.
func (r *BookingRepo) ReassignItemsTx(ctx context.Context, tx *sql.Tx,
	bookingID, tripID, fromBoatID, toBoatID uint64, fromType, toType string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE booking_items
		 SET boat_id = ?, ticket_type = ?
		 WHERE booking_id = ? AND trip_id = ? AND boat_id = ? AND ticket_type = ? AND kind = 'ticket'`,
		toBoatID, toType, bookingID, tripID, fromBoatID, fromType)
	return err
}

// TicketItemsByTripBoat returns confirmed-or-later ticket items sitting on a
// boat for one trip, grouped for the reassignment planner.
func (r *BookingRepo) TicketItemsByTripBoat(ctx context.Context, tripID, boatID uint64) ([]model.BookingItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.booking_id, i.kind, i.trip_id, i.boat_id, i.ticket_type,
		        i.quantity, i.price_per_unit
		 FROM booking_items i
		 JOIN bookings b ON b.id = i.booking_id
		 WHERE i.trip_id = ? AND i.boat_id = ? AND i.kind = 'ticket'
		   AND b.status IN ('confirmed', 'checked_in', 'completed')
		 ORDER BY i.id`, tripID, boatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingItem
	for rows.Next() {
		var item model.BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.Kind, &item.TripID, &item.BoatID,
			&item.TicketType, &item.Quantity, &item.PricePerUnit); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
