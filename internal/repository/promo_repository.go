package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/movie-rental/internal/model"
)

// PromoRepo manages the `promo_codes` table.  Codes are stored upper-case,
// so lookups normalise their input the same way.
type PromoRepo struct {
	db *sql.DB
}

// NewPromoRepo returns a PromoRepo bound to db.
func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

const promoColumns = `id, code, discount_type, discount_value, max_uses, uses_count, valid_from, valid_to, movie_id, is_active, created_at`

func scanPromo(s interface{ Scan(...any) error }) (model.PromoCode, error) {
	var (
		p         model.PromoCode
		dtype     string
		value     sql.NullInt64
		maxUses   sql.NullInt64
		validFrom sql.NullTime
		validTo   sql.NullTime
		movieID   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Code, &dtype, &value, &maxUses, &p.UsesCount,
		&validFrom, &validTo, &movieID, &p.IsActive, &p.CreatedAt); err != nil {
		return model.PromoCode{}, err
	}
	p.DiscountType = model.DiscountType(dtype)
	if value.Valid {
		p.DiscountValue = &value.Int64
	}
	if maxUses.Valid {
		p.MaxUses = &maxUses.Int64
	}
	if validFrom.Valid {
		p.ValidFrom = &validFrom.Time
	}
	if validTo.Valid {
		p.ValidTo = &validTo.Time
	}
	if movieID.Valid {
		p.MovieID = &movieID.String
	}
	return p, nil
}

// GetByCode looks a code up case-insensitively.
func (r *PromoRepo) GetByCode(ctx context.Context, code string) (model.PromoCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = ? LIMIT 1`, model.NormalizePromoCode(code))
	p, err := scanPromo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PromoCode{}, ErrNotFound
	}
	if err != nil {
		return model.PromoCode{}, errors.Wrap(err, "promos: get by code")
	}
	return p, nil
}

// List returns codes newest first.
func (r *PromoRepo) List(ctx context.Context) ([]model.PromoCode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "promos: list")
	}
	defer rows.Close()
	var out []model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, errors.Wrap(err, "promos: scan")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "promos: rows")
}

// Create stores a new code.  The caller runs p.Check() first.
func (r *PromoRepo) Create(ctx context.Context, p *model.PromoCode) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Code = model.NormalizePromoCode(p.Code)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO promo_codes (id, code, discount_type, discount_value, max_uses, uses_count, valid_from, valid_to, movie_id, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, string(p.DiscountType), p.DiscountValue, p.MaxUses,
		p.ValidFrom, p.ValidTo, p.MovieID, p.IsActive, p.CreatedAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return errors.Wrap(err, "promos: create")
}

// IncrementUsage consumes one use of the code.  The update is guarded so
// that two concurrent redemptions of a nearly spent code cannot both
// succeed; ErrPromoExhausted reports the loser and ErrPromoInactive a code
// switched off in the meantime.
func (r *PromoRepo) IncrementUsage(ctx context.Context, id string) error {
	return incrementPromoUsage(ctx, r.db, id)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const incrementPromoSQL = `UPDATE promo_codes SET uses_count = uses_count + 1
	WHERE id = ? AND is_active = 1 AND (max_uses IS NULL OR uses_count < max_uses)`

func incrementPromoUsage(ctx context.Context, db dbtx, id string) error {
	res, err := db.ExecContext(ctx, incrementPromoSQL, id)
	if err != nil {
		return errors.Wrap(err, "promos: increment usage")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "promos: rows affected")
	}
	if n == 1 {
		return nil
	}

	var active bool
	err = db.QueryRowContext(ctx, `SELECT is_active FROM promo_codes WHERE id = ?`, id).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return errors.Wrap(err, "promos: usage state")
	case !active:
		return ErrPromoInactive
	}
	return ErrPromoExhausted
}
