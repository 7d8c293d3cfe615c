package model

import "time"

// CurrencyLAK is the only currency rentals are charged in.
const CurrencyLAK = "LAK"

// Rental is a time-boxed entitlement.  Exactly one of MovieID/ShortPackID is
// set, and exactly one identity owns it (user xor anonymous).  Rows are never
// deleted; expiry is purely time based.
type Rental struct {
	ID             string
	Owner          Identity
	MovieID        *string
	ShortPackID    *string
	CurrentShortID *string
	PurchasedAt    time.Time
	ExpiresAt      time.Time
	TransactionID  string
	Amount         int64
	Currency       string
	PaymentMethod  string
	PromoCodeID    *string
}

// ActiveAt reports whether the rental still grants access at t.
func (r Rental) ActiveAt(t time.Time) bool {
	return r.ExpiresAt.After(t)
}

// Summary strips payment fields for API responses.
func (r Rental) Summary() *RentalSummary {
	return &RentalSummary{
		ID:             r.ID,
		MovieID:        r.MovieID,
		ShortPackID:    r.ShortPackID,
		CurrentShortID: r.CurrentShortID,
		PurchasedAt:    r.PurchasedAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

// RentalSummary is the client-facing view of a rental.
type RentalSummary struct {
	ID             string    `json:"id"`
	MovieID        *string   `json:"movieId,omitempty"`
	ShortPackID    *string   `json:"shortPackId,omitempty"`
	CurrentShortID *string   `json:"currentShortId,omitempty"`
	PurchasedAt    time.Time `json:"purchasedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
