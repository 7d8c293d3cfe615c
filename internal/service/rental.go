package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-rental/internal/metrics"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
)

var (
	// ErrAlreadyRented is returned when the viewer already has access to
	// the movie or pack, either directly or through a pack.
	ErrAlreadyRented = errors.New("already rented")
	// ErrUnavailable is returned when the item cannot be bought right now.
	// It is wrapped with the reason.
	ErrUnavailable = errors.New("not available for rent")
)

// DefaultRentalDuration is how long a rental lasts unless configured.
const DefaultRentalDuration = 48 * time.Hour

// RentalStore is the write side of the rentals store.
type RentalStore interface {
	Create(ctx context.Context, rt *model.Rental, now time.Time) error
	SetCurrentShort(ctx context.Context, packID string, who model.Identity, shortID string, now time.Time) error
	ListByOwner(ctx context.Context, who model.Identity) ([]model.Rental, error)
	ClaimAnonymous(ctx context.Context, anonymousID, userID string) (int64, error)
}

// PackStore loads short packs.
type PackStore interface {
	GetByID(ctx context.Context, id string) (model.ShortPack, error)
}

// RentMovieInput is a confirmed payment for one movie.
type RentMovieInput struct {
	MovieID       string
	Viewer        model.Identity
	PromoCode     string
	PaymentMethod string
	TransactionID string
}

// RentPackInput is a confirmed payment for a short pack.
type RentPackInput struct {
	PackID        string
	Viewer        model.Identity
	PaymentMethod string
	TransactionID string
}

// RentalService finalises rentals.
type RentalService struct {
	rentals   RentalStore
	packs     PackStore
	access    *EntitlementResolver
	pricing   *PricingService
	publisher EventPublisher
	duration  time.Duration
	now       func() time.Time
}

// RentalDeps groups RentalService collaborators.
type RentalDeps struct {
	Rentals   RentalStore
	Packs     PackStore
	Access    *EntitlementResolver
	Pricing   *PricingService
	Publisher EventPublisher
	Duration  time.Duration
	Now       func() time.Time
}

// NewRentalService wires a RentalService.  Zero Duration means
// DefaultRentalDuration; a nil Publisher drops events.
func NewRentalService(d RentalDeps) *RentalService {
	if d.Duration <= 0 {
		d.Duration = DefaultRentalDuration
	}
	if d.Publisher == nil {
		d.Publisher = NoopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &RentalService{
		rentals:   d.Rentals,
		packs:     d.Packs,
		access:    d.Access,
		pricing:   d.Pricing,
		publisher: d.Publisher,
		duration:  d.Duration,
		now:       d.Now,
	}
}

// RentMovie checks the viewer does not already have access, prices the
// movie (applying a valid promo code) and stores the rental.  The promo
// use is consumed in the same transaction as the insert.
func (s *RentalService) RentMovie(ctx context.Context, in RentMovieInput) (model.Rental, PriceResult, error) {
	if err := in.Viewer.Require(); err != nil {
		return model.Rental{}, PriceResult{}, err
	}
	acc, err := s.access.ResolveAccess(ctx, in.MovieID, in.Viewer)
	if err != nil {
		return model.Rental{}, PriceResult{}, err
	}
	if acc.HasAccess {
		return model.Rental{}, PriceResult{}, ErrAlreadyRented
	}

	price, err := s.pricing.ResolvePrice(ctx, in.MovieID, in.PromoCode)
	if err != nil {
		return model.Rental{}, PriceResult{}, err
	}
	if !price.Available {
		return model.Rental{}, price, fmt.Errorf("%w: %s", ErrUnavailable, price.UnavailableReason)
	}

	now := s.now().UTC()
	movieID := in.MovieID
	rt := model.Rental{
		Owner:         in.Viewer,
		MovieID:       &movieID,
		PurchasedAt:   now,
		ExpiresAt:     now.Add(s.duration),
		TransactionID: in.TransactionID,
		Amount:        price.FinalAmount,
		Currency:      model.CurrencyLAK,
		PaymentMethod: in.PaymentMethod,
	}
	if price.PromoCodeID != "" {
		id := price.PromoCodeID
		rt.PromoCodeID = &id
	}
	if err := s.create(ctx, &rt, now); err != nil {
		return model.Rental{}, price, err
	}
	if rt.PromoCodeID != nil {
		metrics.PromoRedemptions.Inc()
	}
	metrics.RentalsCreated.WithLabelValues("movie").Inc()
	s.publish(ctx, rt)
	return rt, price, nil
}

// RentPack stores a rental of a short pack at the pack's own price.
func (s *RentalService) RentPack(ctx context.Context, in RentPackInput) (model.Rental, error) {
	if err := in.Viewer.Require(); err != nil {
		return model.Rental{}, err
	}
	pack, err := s.packs.GetByID(ctx, in.PackID)
	if err != nil {
		return model.Rental{}, err
	}
	if !pack.IsActive {
		return model.Rental{}, fmt.Errorf("%w: inactive_pack", ErrUnavailable)
	}
	pa, err := s.access.CheckPackAccess(ctx, in.PackID, in.Viewer)
	if err != nil {
		return model.Rental{}, err
	}
	if pa.Rental != nil {
		return model.Rental{}, ErrAlreadyRented
	}

	now := s.now().UTC()
	packID := in.PackID
	rt := model.Rental{
		Owner:         in.Viewer,
		ShortPackID:   &packID,
		PurchasedAt:   now,
		ExpiresAt:     now.Add(s.duration),
		TransactionID: in.TransactionID,
		Amount:        pack.PriceLak,
		Currency:      model.CurrencyLAK,
		PaymentMethod: in.PaymentMethod,
	}
	if err := s.create(ctx, &rt, now); err != nil {
		return model.Rental{}, err
	}
	metrics.RentalsCreated.WithLabelValues("pack").Inc()
	s.publish(ctx, rt)
	return rt, nil
}

func (s *RentalService) create(ctx context.Context, rt *model.Rental, now time.Time) error {
	err := s.rentals.Create(ctx, rt, now)
	if errors.Is(err, repository.ErrActiveRentalExists) {
		return ErrAlreadyRented
	}
	return err
}

func (s *RentalService) publish(ctx context.Context, rt model.Rental) {
	ev := queue.NewRentalConfirmedEvent(rt)
	if err := s.publisher.PublishRentalConfirmed(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("rental_id", rt.ID).Msg("publish rental.confirmed failed")
	}
}

// UpdatePackPosition records which short the viewer is on in their active
// pack rental.
func (s *RentalService) UpdatePackPosition(ctx context.Context, packID string, who model.Identity, shortID string) error {
	if err := who.Require(); err != nil {
		return err
	}
	return s.rentals.SetCurrentShort(ctx, packID, who, shortID, s.now().UTC())
}

// ListRentals returns every rental owned by who, newest first, expired
// ones included.
func (s *RentalService) ListRentals(ctx context.Context, who model.Identity) ([]model.Rental, error) {
	if err := who.Require(); err != nil {
		return nil, err
	}
	return s.rentals.ListByOwner(ctx, who)
}

// ClaimAnonymousRentals moves rentals made under anonymousID onto userID.
func (s *RentalService) ClaimAnonymousRentals(ctx context.Context, anonymousID, userID string) (int64, error) {
	n, err := s.rentals.ClaimAnonymous(ctx, anonymousID, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zerolog.Ctx(ctx).Info().Str("user_id", userID).Int64("rentals", n).Msg("claimed anonymous rentals")
	}
	return n, nil
}
