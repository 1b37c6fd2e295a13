package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tourboat-booking/internal/model"
)

// MerchandiseRepo provides data access to the merchandise catalogue, its
// variations and per-trip offerings.
type MerchandiseRepo struct {
	db *sql.DB
}

// NewMerchandiseRepo returns a new MerchandiseRepo bound to the provided database.
func NewMerchandiseRepo(db *sql.DB) *MerchandiseRepo { return &MerchandiseRepo{db: db} }

// Create inserts a merchandise item and populates the generated ID.
func (r *MerchandiseRepo) Create(ctx context.Context, m *model.Merchandise) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO merchandise (provider_id, name, description, price_cents)
		 VALUES (?, ?, ?, ?)`,
		m.ProviderID, m.Name, m.Description, m.PriceCents)
	if err != nil {
		return fmt.Errorf("insert merchandise: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a merchandise item together with its variations.
func (r *MerchandiseRepo) GetByID(ctx context.Context, id uint64) (*model.Merchandise, error) {
	var m model.Merchandise
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider_id, name, description, price_cents, created_at, updated_at
		 FROM merchandise WHERE id = ?`, id).
		Scan(&m.ID, &m.ProviderID, &m.Name, &m.Description, &m.PriceCents, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMerchandiseNotFound
	}
	if err != nil {
		return nil, err
	}
	vars, err := r.VariationsByItem(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Variations = vars
	return &m, nil
}

// ListByProvider returns a provider's merchandise without variations.
func (r *MerchandiseRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Merchandise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, provider_id, name, description, price_cents, created_at, updated_at
		 FROM merchandise WHERE provider_id = ? ORDER BY name`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Merchandise
	for rows.Next() {
		var m model.Merchandise
		if err := rows.Scan(&m.ID, &m.ProviderID, &m.Name, &m.Description, &m.PriceCents, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites a merchandise item's mutable fields.
func (r *MerchandiseRepo) Update(ctx context.Context, m *model.Merchandise) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE merchandise SET name = ?, description = ?, price_cents = ? WHERE id = ?`,
		m.Name, m.Description, m.PriceCents, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMerchandiseNotFound
	}
	return nil
}

// Delete removes an item unless a trip still offers it.
func (r *MerchandiseRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trip_merchandise WHERE merchandise_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM merchandise WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMerchandiseNotFound
	}
	return nil
}

// CreateVariation adds a stock-tracked variation to an item.
func (r *MerchandiseRepo) CreateVariation(ctx context.Context, v *model.MerchandiseVariation) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO merchandise_variations (merchandise_id, value, quantity_total, quantity_sold)
		 VALUES (?, ?, ?, 0)`,
		v.MerchandiseID, v.Value, v.QuantityTotal)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrInUse
		}
		return fmt.Errorf("insert variation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// VariationsByItem returns all variations of an item.
func (r *MerchandiseRepo) VariationsByItem(ctx context.Context, merchandiseID uint64) ([]model.MerchandiseVariation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, merchandise_id, value, quantity_total, quantity_sold, created_at, updated_at
		 FROM merchandise_variations WHERE merchandise_id = ? ORDER BY value`, merchandiseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MerchandiseVariation
	for rows.Next() {
		var v model.MerchandiseVariation
		if err := rows.Scan(&v.ID, &v.MerchandiseID, &v.Value, &v.QuantityTotal, &v.QuantitySold, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVariation fetches a single variation by id.
func (r *MerchandiseRepo) GetVariation(ctx context.Context, id uint64) (*model.MerchandiseVariation, error) {
	var v model.MerchandiseVariation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, merchandise_id, value, quantity_total, quantity_sold, created_at, updated_at
		 FROM merchandise_variations WHERE id = ?`, id).
		Scan(&v.ID, &v.MerchandiseID, &v.Value, &v.QuantityTotal, &v.QuantitySold, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMerchandiseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVariation changes the label or total stock.  Shrinking the total
// below the quantity already sold is rejected server-side by the guard in
// the WHERE clause.
func (r *MerchandiseRepo) UpdateVariation(ctx context.Context, v *model.MerchandiseVariation) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE merchandise_variations SET value = ?, quantity_total = ?
		 WHERE id = ? AND quantity_sold <= ?`,
		v.Value, v.QuantityTotal, v.ID, v.QuantityTotal)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetVariation(ctx, v.ID); err != nil {
			return err
		}
		return model.ErrCapacityExceeded
	}
	return nil
}

// AdjustSoldTx moves a variation's sold counter by delta inside tx.  The
// guard keeps quantity_sold within [0, quantity_total]; a zero-row update
// means the stock cannot absorb the change.
func (r *MerchandiseRepo) AdjustSoldTx(ctx context.Context, tx *sql.Tx, variationID uint64, delta int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE merchandise_variations
		 SET quantity_sold = quantity_sold + ?
		 WHERE id = ? AND quantity_sold + ? >= 0 AND quantity_sold + ? <= quantity_total`,
		delta, variationID, delta, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrCapacityExceeded
	}
	return nil
}

// OfferOnTrip links an item to a trip, optionally overriding price and
// limiting the quantity sellable on that trip.
func (r *MerchandiseRepo) OfferOnTrip(ctx context.Context, tm *model.TripMerchandise) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trip_merchandise (trip_id, merchandise_id, price_override, quantity_override)
		 VALUES (?, ?, ?, ?)`,
		tm.TripID, tm.MerchandiseID, tm.PriceOverride, tm.QuantityOverride)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrInUse
		}
		return fmt.Errorf("insert trip merchandise: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tm.ID = uint64(id)
	return nil
}

func scanTripMerchandise(row interface{ Scan(...any) error }) (*model.TripMerchandise, error) {
	var tm model.TripMerchandise
	var price, qty sql.NullInt64
	err := row.Scan(&tm.ID, &tm.TripID, &tm.MerchandiseID, &price, &qty, &tm.CreatedAt, &tm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		v := price.Int64
		tm.PriceOverride = &v
	}
	if qty.Valid {
		v := int(qty.Int64)
		tm.QuantityOverride = &v
	}
	return &tm, nil
}

const tripMerchColumns = `id, trip_id, merchandise_id, price_override, quantity_override, created_at, updated_at`

// GetTripMerchandise fetches one trip offering by id.
func (r *MerchandiseRepo) GetTripMerchandise(ctx context.Context, id uint64) (*model.TripMerchandise, error) {
	tm, err := scanTripMerchandise(r.db.QueryRowContext(ctx,
		`SELECT `+tripMerchColumns+` FROM trip_merchandise WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrMerchandiseNotFound
	}
	if err != nil {
		return nil, err
	}
	return tm, nil
}

// ListTripMerchandise returns the offerings for a trip.
func (r *MerchandiseRepo) ListTripMerchandise(ctx context.Context, tripID uint64) ([]model.TripMerchandise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripMerchColumns+` FROM trip_merchandise WHERE trip_id = ? ORDER BY id`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TripMerchandise
	for rows.Next() {
		tm, err := scanTripMerchandise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tm)
	}
	return out, rows.Err()
}

// UpdateTripMerchandise rewrites a trip offering's overrides.
func (r *MerchandiseRepo) UpdateTripMerchandise(ctx context.Context, tm *model.TripMerchandise) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trip_merchandise SET price_override = ?, quantity_override = ? WHERE id = ?`,
		tm.PriceOverride, tm.QuantityOverride, tm.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMerchandiseNotFound
	}
	return nil
}

// RemoveFromTrip deletes a trip offering unless bookings reference it.
func (r *MerchandiseRepo) RemoveFromTrip(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_items WHERE trip_merchandise_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM trip_merchandise WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMerchandiseNotFound
	}
	return nil
}
