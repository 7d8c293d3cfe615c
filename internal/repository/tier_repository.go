package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/movie-rental/internal/model"
)

// TierRepo manages the `pricing_tiers` table.
type TierRepo struct {
	db *sql.DB
}

// NewTierRepo returns a TierRepo bound to db.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// GetByID returns a tier, active or not.
func (r *TierRepo) GetByID(ctx context.Context, id string) (model.PricingTier, error) {
	var t model.PricingTier
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price_lak, is_active, sort_order FROM pricing_tiers WHERE id = ? LIMIT 1`, id).
		Scan(&t.ID, &t.Name, &t.PriceLak, &t.IsActive, &t.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PricingTier{}, ErrNotFound
	}
	if err != nil {
		return model.PricingTier{}, errors.Wrap(err, "tiers: get by id")
	}
	return t, nil
}

// List returns every tier in display order.
func (r *TierRepo) List(ctx context.Context) ([]model.PricingTier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_lak, is_active, sort_order FROM pricing_tiers ORDER BY sort_order, price_lak`)
	if err != nil {
		return nil, errors.Wrap(err, "tiers: list")
	}
	defer rows.Close()
	var tiers []model.PricingTier
	for rows.Next() {
		var t model.PricingTier
		if err := rows.Scan(&t.ID, &t.Name, &t.PriceLak, &t.IsActive, &t.SortOrder); err != nil {
			return nil, errors.Wrap(err, "tiers: scan")
		}
		tiers = append(tiers, t)
	}
	return tiers, errors.Wrap(rows.Err(), "tiers: rows")
}

// Create inserts t, assigning a new id when t.ID is empty.
func (r *TierRepo) Create(ctx context.Context, t *model.PricingTier) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pricing_tiers (id, name, price_lak, is_active, sort_order) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.PriceLak, t.IsActive, t.SortOrder)
	if isDuplicate(err) {
		return ErrConflict
	}
	return errors.Wrap(err, "tiers: create")
}

// SetActive toggles a tier.  Deactivating a tier makes its movies
// unavailable without touching them.
func (r *TierRepo) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE pricing_tiers SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return errors.Wrap(err, "tiers: set active")
	}
	_, err := r.GetByID(ctx, id)
	return err
}
