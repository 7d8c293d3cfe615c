package model

import "time"

// Movie represents a row in the `movies` table.  A movie references at
// most one pricing tier; when PricingTierID is nil the movie cannot be
// rented.
//
// Fields:
//  ID            – primary key (UUID).
//  Slug          – URL-safe unique name.
//  Title         – display title.
//  Description   – free text synopsis.
//  VideoPath     – relative HLS path served by the video server,
//                  e.g. "hls/<slug>/master.m3u8".
//  PricingTierID – pricing_tiers.id (nullable).
//  IsPublished   – hidden from the catalogue when false.
type Movie struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoPath     string    `json:"-"`
	PricingTierID *string   `json:"pricingTierId"`
	IsPublished   bool      `json:"isPublished"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Trailer is a marketing clip attached to a movie.  Trailers are watchable
// without a rental.
type Trailer struct {
	ID      string `json:"id"`
	MovieID string `json:"movieId"`
	Path    string `json:"-"`
}

// ShortPack is a bundle of short films rented as one unit.  Membership is
// stored in `short_pack_items`.
type ShortPack struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	PriceLak int64  `json:"priceLak"`
	IsActive bool   `json:"isActive"`
}
