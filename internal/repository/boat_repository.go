package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tourboat-booking/internal/model"
)

// BoatRepo provides data access to boats and their boat-level default
// pricing.  Capacity invariants for pricing rows are enforced here, at write
// time, so that client-side validation stays advisory only: no per-type
// capacity cap on a boat may exceed the boat's capacity.
type BoatRepo struct {
	db *sql.DB
}

// NewBoatRepo returns a new BoatRepo bound to the provided database.
func NewBoatRepo(db *sql.DB) *BoatRepo { return &BoatRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span repositories.
func (r *BoatRepo) DB() *sql.DB { return r.db }

// CreateProvider inserts a provider row and populates the generated ID.
func (r *BoatRepo) CreateProvider(ctx context.Context, p *model.Provider) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO providers (name) VALUES (?)`, p.Name)
	if err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetProvider fetches a provider by id.
func (r *BoatRepo) GetProvider(ctx context.Context, id uint64) (*model.Provider, error) {
	var p model.Provider
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM providers WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProviders returns all providers ordered by name.
func (r *BoatRepo) ListProviders(ctx context.Context) ([]model.Provider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM providers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a boat after verifying its provider exists.
func (r *BoatRepo) Create(ctx context.Context, b *model.Boat) error {
	if _, err := r.GetProvider(ctx, b.ProviderID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boats (provider_id, name, capacity) VALUES (?, ?, ?)`,
		b.ProviderID, b.Name, b.Capacity)
	if err != nil {
		return fmt.Errorf("insert boat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a boat by id.
func (r *BoatRepo) GetByID(ctx context.Context, id uint64) (*model.Boat, error) {
	var b model.Boat
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider_id, name, capacity, created_at, updated_at FROM boats WHERE id = ?`, id).
		Scan(&b.ID, &b.ProviderID, &b.Name, &b.Capacity, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBoatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByProvider returns all boats belonging to a provider.
func (r *BoatRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Boat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, provider_id, name, capacity, created_at, updated_at
		 FROM boats WHERE provider_id = ? ORDER BY name`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBoats(rows)
}

// ListAll returns every boat ordered by name.
func (r *BoatRepo) ListAll(ctx context.Context) ([]model.Boat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, provider_id, name, capacity, created_at, updated_at FROM boats ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBoats(rows)
}

func scanBoats(rows *sql.Rows) ([]model.Boat, error) {
	var out []model.Boat
	for rows.Next() {
		var b model.Boat
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.Name, &b.Capacity, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update changes a boat's name and capacity.  The new capacity must not be
// smaller than the largest per-type cap already configured for the boat.
func (r *BoatRepo) Update(ctx context.Context, b *model.Boat) error {
	var maxTypeCap sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(capacity) FROM boat_pricing WHERE boat_id = ? AND capacity IS NOT NULL`, b.ID).
		Scan(&maxTypeCap)
	if err != nil {
		return err
	}
	if maxTypeCap.Valid && int(maxTypeCap.Int64) > b.Capacity {
		return model.ErrCapacityExceeded
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE boats SET name = ?, capacity = ? WHERE id = ?`, b.Name, b.Capacity, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBoatNotFound
	}
	return nil
}

// Delete removes a boat unless it is still attached to any trip.
func (r *BoatRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trip_boats WHERE boat_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM boats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBoatNotFound
	}
	return nil
}

// CreatePricing inserts a boat-level default pricing row.  The per-type cap,
// when set, must fit inside the boat's capacity; duplicates per
// (boat, ticket_type) are rejected by the unique index.
func (r *BoatRepo) CreatePricing(ctx context.Context, p *model.BoatPricing) error {
	boat, err := r.GetByID(ctx, p.BoatID)
	if err != nil {
		return err
	}
	if p.Capacity != nil && *p.Capacity > boat.Capacity {
		return model.ErrCapacityExceeded
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boat_pricing (boat_id, ticket_type, price_cents, capacity) VALUES (?, ?, ?, ?)`,
		p.BoatID, p.TicketType, p.PriceCents, p.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrInUse
		}
		return fmt.Errorf("insert boat pricing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdatePricing changes price and capacity of a boat-level default.
func (r *BoatRepo) UpdatePricing(ctx context.Context, p *model.BoatPricing) error {
	boat, err := r.GetByID(ctx, p.BoatID)
	if err != nil {
		return err
	}
	if p.Capacity != nil && *p.Capacity > boat.Capacity {
		return model.ErrCapacityExceeded
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE boat_pricing SET price_cents = ?, capacity = ? WHERE id = ? AND boat_id = ?`,
		p.PriceCents, p.Capacity, p.ID, p.BoatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPricingNotFound
	}
	return nil
}

// DeletePricing removes a boat-level default pricing row.
func (r *BoatRepo) DeletePricing(ctx context.Context, boatID, pricingID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM boat_pricing WHERE id = ? AND boat_id = ?`, pricingID, boatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPricingNotFound
	}
	return nil
}

// PricingByBoat returns all default pricing rows for a boat.
func (r *BoatRepo) PricingByBoat(ctx context.Context, boatID uint64) ([]model.BoatPricing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, boat_id, ticket_type, price_cents, capacity, created_at, updated_at
		 FROM boat_pricing WHERE boat_id = ? ORDER BY ticket_type`, boatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BoatPricing
	for rows.Next() {
		var p model.BoatPricing
		var capCol sql.NullInt64
		if err := rows.Scan(&p.ID, &p.BoatID, &p.TicketType, &p.PriceCents, &capCol, &p.CreatedAt, &p.UpdatedAt); err != nil {
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

// isDuplicateKey detects MySQL error 1062 (duplicate entry) without
// importing the driver's error types everywhere.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
