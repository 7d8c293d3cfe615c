package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/iliyamo/movie-rental/internal/model"
)

// MovieRepo reads the catalogue: movies and their trailers.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to db.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, slug, title, description, video_path, pricing_tier_id, is_published, created_at`

func scanMovie(s interface{ Scan(...any) error }) (model.Movie, error) {
	var (
		m    model.Movie
		tier sql.NullString
	)
	if err := s.Scan(&m.ID, &m.Slug, &m.Title, &m.Description, &m.VideoPath, &tier, &m.IsPublished, &m.CreatedAt); err != nil {
		return model.Movie{}, err
	}
	if tier.Valid {
		m.PricingTierID = &tier.String
	}
	return m, nil
}

// GetByID returns a movie whether or not it is published.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (model.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ? LIMIT 1`, id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrNotFound
	}
	if err != nil {
		return model.Movie{}, errors.Wrap(err, "movies: get by id")
	}
	return m, nil
}

// ListPublished returns published movies ordered by title.
func (r *MovieRepo) ListPublished(ctx context.Context, limit, offset int) ([]model.Movie, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE is_published = 1 ORDER BY title ASC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "movies: list")
	}
	defer rows.Close()
	movies := make([]model.Movie, 0, limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, errors.Wrap(err, "movies: scan")
		}
		movies = append(movies, m)
	}
	return movies, errors.Wrap(rows.Err(), "movies: rows")
}

// SetPricingTier assigns (or clears, when tierID is nil) a movie's tier.
func (r *MovieRepo) SetPricingTier(ctx context.Context, movieID string, tierID *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET pricing_tier_id = ? WHERE id = ?`, tierID, movieID)
	if err != nil {
		return errors.Wrap(err, "movies: set pricing tier")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "movies: rows affected")
	}
	if n == 0 {
		// MySQL reports 0 when the value is unchanged, so confirm the row exists.
		if _, err := r.GetByID(ctx, movieID); err != nil {
			return err
		}
	}
	return nil
}

// GetTrailer returns a trailer by id.
func (r *MovieRepo) GetTrailer(ctx context.Context, id string) (model.Trailer, error) {
	var t model.Trailer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, movie_id, path FROM trailers WHERE id = ? LIMIT 1`, id).
		Scan(&t.ID, &t.MovieID, &t.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Trailer{}, ErrNotFound
	}
	if err != nil {
		return model.Trailer{}, errors.Wrap(err, "trailers: get by id")
	}
	return t, nil
}
