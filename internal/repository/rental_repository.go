package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/movie-rental/internal/model"
)

// RentalRepo provides access to the `rentals` table.  Every lookup is
// scoped to one identity: the owner predicate is built from the Identity
// variant, so a query can never match on both user_id and anonymous_id or
// on neither.  Expiry is compared against the caller-supplied now; nothing
// here is cached.
type RentalRepo struct {
	db *sql.DB
}

// NewRentalRepo returns a RentalRepo bound to db.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

const rentalColumns = `id, user_id, anonymous_id, movie_id, short_pack_id, current_short_id,
	purchased_at, expires_at, transaction_id, amount, currency, payment_method, promo_code_id`

// ownerClause returns the equality predicate and argument for who.
func ownerClause(who model.Identity) (string, string, error) {
	if id, ok := who.UserID(); ok {
		return "user_id = ?", id, nil
	}
	if id, ok := who.AnonymousID(); ok {
		return "anonymous_id = ?", id, nil
	}
	return "", "", model.ErrUnauthenticated
}

func scanRental(s interface{ Scan(...any) error }) (model.Rental, error) {
	var (
		rt                         model.Rental
		userID, anonID             sql.NullString
		movieID, packID, currentID sql.NullString
		promoID                    sql.NullString
	)
	if err := s.Scan(&rt.ID, &userID, &anonID, &movieID, &packID, &currentID,
		&rt.PurchasedAt, &rt.ExpiresAt, &rt.TransactionID, &rt.Amount, &rt.Currency,
		&rt.PaymentMethod, &promoID); err != nil {
		return model.Rental{}, err
	}
	if userID.Valid {
		rt.Owner = model.UserIdentity(userID.String)
	} else if anonID.Valid {
		rt.Owner = model.AnonymousIdentity(anonID.String)
	}
	rt.MovieID = nullable(movieID)
	rt.ShortPackID = nullable(packID)
	rt.CurrentShortID = nullable(currentID)
	rt.PromoCodeID = nullable(promoID)
	return rt, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// ActiveForMovie returns who's non-expired direct rental of movieID, or nil.
func (r *RentalRepo) ActiveForMovie(ctx context.Context, movieID string, who model.Identity, now time.Time) (*model.Rental, error) {
	return r.findOne(ctx, "movie_id", movieID, who, &now, "rentals: active for movie")
}

// ActiveForPack returns who's non-expired rental of packID, or nil.
func (r *RentalRepo) ActiveForPack(ctx context.Context, packID string, who model.Identity, now time.Time) (*model.Rental, error) {
	return r.findOne(ctx, "short_pack_id", packID, who, &now, "rentals: active for pack")
}

// LatestForPack returns who's most recent rental of packID regardless of
// expiry, or nil if there never was one.
func (r *RentalRepo) LatestForPack(ctx context.Context, packID string, who model.Identity) (*model.Rental, error) {
	return r.findOne(ctx, "short_pack_id", packID, who, nil, "rentals: latest for pack")
}

// findOne selects the rental with the latest expiry matching column=target
// for who.  When now is non-nil only rentals expiring after now qualify.
func (r *RentalRepo) findOne(ctx context.Context, column, target string, who model.Identity, now *time.Time, op string) (*model.Rental, error) {
	clause, ownerID, err := ownerClause(who)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + column + ` = ? AND ` + clause
	args := []any{target, ownerID}
	if now != nil {
		q += ` AND expires_at > ?`
		args = append(args, now.UTC())
	}
	q += ` ORDER BY expires_at DESC LIMIT 1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return &rt, nil
}

// ListByOwner returns all of who's rentals, newest purchase first.
func (r *RentalRepo) ListByOwner(ctx context.Context, who model.Identity) ([]model.Rental, error) {
	clause, ownerID, err := ownerClause(who)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE `+clause+` ORDER BY purchased_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "rentals: list")
	}
	defer rows.Close()
	var out []model.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, errors.Wrap(err, "rentals: scan")
		}
		out = append(out, rt)
	}
	return out, errors.Wrap(rows.Err(), "rentals: rows")
}

// Create inserts rt inside a transaction.  It first locks the movie or
// pack row with SELECT ... FOR UPDATE, which serialises checkouts of the
// same target at any isolation level, then checks the owner has no active
// rental of it.  An unknown target is ErrNotFound.  When InnoDB still
// aborts the insert on a lock conflict the loser gets
// ErrActiveRentalExists.  When rt.PromoCodeID is set the code's guarded
// usage increment runs in the same transaction; if the code is spent or
// deactivated the rental is rolled back with ErrPromoExhausted or
// ErrPromoInactive.
func (r *RentalRepo) Create(ctx context.Context, rt *model.Rental, now time.Time) error {
	clause, ownerID, err := ownerClause(rt.Owner)
	if err != nil {
		return err
	}
	column, parent, target := "movie_id", "movies", rt.MovieID
	if rt.ShortPackID != nil {
		column, parent, target = "short_pack_id", "short_packs", rt.ShortPackID
	}
	if target == nil || (rt.MovieID != nil && rt.ShortPackID != nil) {
		return errors.New("rentals: exactly one of movie or pack must be set")
	}
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.Currency == "" {
		rt.Currency = model.CurrencyLAK
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "rentals: begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM `+parent+` WHERE id = ? FOR UPDATE`, *target).Scan(&locked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return errors.Wrap(err, "rentals: lock target")
	}

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM rentals WHERE `+column+` = ? AND `+clause+` AND expires_at > ? LIMIT 1 FOR UPDATE`,
		*target, ownerID, now.UTC()).Scan(&existing)
	switch {
	case err == nil:
		return ErrActiveRentalExists
	case !errors.Is(err, sql.ErrNoRows):
		return errors.Wrap(err, "rentals: lock active")
	}

	var userID, anonID *string
	if id, ok := rt.Owner.UserID(); ok {
		userID = &id
	} else if id, ok := rt.Owner.AnonymousID(); ok {
		anonID = &id
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rentals (id, user_id, anonymous_id, movie_id, short_pack_id, current_short_id,
			purchased_at, expires_at, transaction_id, amount, currency, payment_method, promo_code_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, userID, anonID, rt.MovieID, rt.ShortPackID, rt.CurrentShortID,
		rt.PurchasedAt.UTC(), rt.ExpiresAt.UTC(), rt.TransactionID, rt.Amount, rt.Currency,
		rt.PaymentMethod, rt.PromoCodeID)
	switch {
	case isDuplicate(err):
		return ErrConflict
	case isLockConflict(err):
		return ErrActiveRentalExists
	case err != nil:
		return errors.Wrap(err, "rentals: insert")
	}

	if rt.PromoCodeID != nil {
		if err := incrementPromoUsage(ctx, tx, *rt.PromoCodeID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "rentals: commit")
	}
	committed = true
	return nil
}

// SetCurrentShort records playback position inside an active pack rental.
// shortID must be a member of the pack.  ErrNotFound means there is no
// active rental or the short is not in the pack.
func (r *RentalRepo) SetCurrentShort(ctx context.Context, packID string, who model.Identity, shortID string, now time.Time) error {
	clause, ownerID, err := ownerClause(who)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE rentals SET current_short_id = ?
		 WHERE short_pack_id = ? AND `+clause+` AND expires_at > ?
		   AND EXISTS (SELECT 1 FROM short_pack_items WHERE short_pack_id = ? AND movie_id = ?)`,
		shortID, packID, ownerID, now.UTC(), packID, shortID)
	if err != nil {
		return errors.Wrap(err, "rentals: set current short")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rentals: rows affected")
	}
	if n == 0 {
		active, err := r.ActiveForPack(ctx, packID, who, now)
		if err != nil {
			return err
		}
		// An unchanged value also reports zero rows.
		if active != nil && active.CurrentShortID != nil && *active.CurrentShortID == shortID {
			return nil
		}
		return ErrNotFound
	}
	return nil
}

// ClaimAnonymous moves every rental owned by anonymousID to userID.  It is
// run when a visitor logs in so that rentals made before sign-up follow
// the account.
func (r *RentalRepo) ClaimAnonymous(ctx context.Context, anonymousID, userID string) (int64, error) {
	if anonymousID == "" || userID == "" {
		return 0, model.ErrUnauthenticated
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE rentals SET user_id = ?, anonymous_id = NULL WHERE anonymous_id = ?`, userID, anonymousID)
	if err != nil {
		return 0, errors.Wrap(err, "rentals: claim anonymous")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rentals: rows affected")
}
