// Package service holds the rental platform's business rules: who may
// watch what (entitlement), what a movie costs (pricing and promo codes)
// and how a rental is finalised.  Services depend on small store
// interfaces satisfied by the repository package so that the rules can be
// exercised against in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/movie-rental/internal/model"
)

// RentalLookup is the read side of the rentals store used for entitlement.
type RentalLookup interface {
	ActiveForMovie(ctx context.Context, movieID string, who model.Identity, now time.Time) (*model.Rental, error)
	ActiveForPack(ctx context.Context, packID string, who model.Identity, now time.Time) (*model.Rental, error)
	LatestForPack(ctx context.Context, packID string, who model.Identity) (*model.Rental, error)
}

// PackLookup resolves pack membership.
type PackLookup interface {
	PacksContaining(ctx context.Context, movieID string) ([]string, error)
}

// AccessType says how a viewer is entitled to a movie.
type AccessType string

const (
	AccessNone  AccessType = ""
	AccessMovie AccessType = "movie"
	AccessPack  AccessType = "pack"
)

// MarshalJSON renders AccessNone as null.
func (a AccessType) MarshalJSON() ([]byte, error) {
	if a == AccessNone {
		return []byte("null"), nil
	}
	return []byte(`"` + string(a) + `"`), nil
}

// AccessResult is the outcome of ResolveAccess.
type AccessResult struct {
	HasAccess  bool                 `json:"hasAccess"`
	AccessType AccessType           `json:"accessType"`
	Rental     *model.RentalSummary `json:"rental"`
}

// PackAccess is the outcome of CheckPackAccess.  Rental is nil both when
// the viewer never rented the pack and when their rental lapsed; Expired
// and ExpiredAt tell the two apart so clients can offer "renew" instead of
// "buy".
type PackAccess struct {
	Rental    *model.RentalSummary `json:"rental"`
	Expired   bool                 `json:"expired"`
	ExpiredAt *time.Time           `json:"expiredAt,omitempty"`
}

// EntitlementResolver decides whether a viewer currently holds a rental
// covering a movie.  Every call reads the store with the current time.
type EntitlementResolver struct {
	rentals RentalLookup
	packs   PackLookup
	now     func() time.Time
}

// NewEntitlementResolver wires a resolver.  A nil clock means time.Now.
func NewEntitlementResolver(rentals RentalLookup, packs PackLookup, now func() time.Time) *EntitlementResolver {
	if now == nil {
		now = time.Now
	}
	return &EntitlementResolver{rentals: rentals, packs: packs, now: now}
}

// ResolveAccess checks for a direct rental of movieID, then for a rental of
// any pack containing it.
func (r *EntitlementResolver) ResolveAccess(ctx context.Context, movieID string, who model.Identity) (AccessResult, error) {
	if err := who.Require(); err != nil {
		return AccessResult{}, err
	}
	now := r.now().UTC()

	rt, err := r.rentals.ActiveForMovie(ctx, movieID, who, now)
	if err != nil {
		return AccessResult{}, err
	}
	if rt != nil {
		return AccessResult{HasAccess: true, AccessType: AccessMovie, Rental: rt.Summary()}, nil
	}

	packIDs, err := r.packs.PacksContaining(ctx, movieID)
	if err != nil {
		return AccessResult{}, err
	}
	for _, packID := range packIDs {
		rt, err := r.rentals.ActiveForPack(ctx, packID, who, now)
		if err != nil {
			return AccessResult{}, err
		}
		if rt != nil {
			return AccessResult{HasAccess: true, AccessType: AccessPack, Rental: rt.Summary()}, nil
		}
	}
	return AccessResult{}, nil
}

// CheckPackAccess reports who's active rental of packID, or whether a
// previous one has expired.
func (r *EntitlementResolver) CheckPackAccess(ctx context.Context, packID string, who model.Identity) (PackAccess, error) {
	if err := who.Require(); err != nil {
		return PackAccess{}, err
	}
	now := r.now().UTC()

	rt, err := r.rentals.ActiveForPack(ctx, packID, who, now)
	if err != nil {
		return PackAccess{}, err
	}
	if rt != nil {
		return PackAccess{Rental: rt.Summary()}, nil
	}

	last, err := r.rentals.LatestForPack(ctx, packID, who)
	if err != nil {
		return PackAccess{}, err
	}
	if last == nil || last.ActiveAt(now) {
		return PackAccess{}, nil
	}
	at := last.ExpiresAt
	return PackAccess{Expired: true, ExpiredAt: &at}, nil
}
