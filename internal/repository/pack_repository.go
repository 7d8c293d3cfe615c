package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/iliyamo/movie-rental/internal/model"
)

// PackRepo reads short packs and their membership (`short_pack_items`).
type PackRepo struct {
	db *sql.DB
}

// NewPackRepo returns a PackRepo bound to db.
func NewPackRepo(db *sql.DB) *PackRepo { return &PackRepo{db: db} }

// GetByID returns a pack.
func (r *PackRepo) GetByID(ctx context.Context, id string) (model.ShortPack, error) {
	var p model.ShortPack
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, price_lak, is_active FROM short_packs WHERE id = ? LIMIT 1`, id).
		Scan(&p.ID, &p.Title, &p.PriceLak, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShortPack{}, ErrNotFound
	}
	if err != nil {
		return model.ShortPack{}, errors.Wrap(err, "packs: get by id")
	}
	return p, nil
}

// PacksContaining returns the ids of every pack listing movieID.  Callers
// must not assume there is at most one.
func (r *PackRepo) PacksContaining(ctx context.Context, movieID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT short_pack_id FROM short_pack_items WHERE movie_id = ? ORDER BY short_pack_id`, movieID)
	if err != nil {
		return nil, errors.Wrap(err, "packs: containing movie")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "packs: scan")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "packs: rows")
}
