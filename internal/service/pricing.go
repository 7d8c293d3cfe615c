package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/movie-rental/internal/metrics"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
)

// MovieLookup loads movies.
type MovieLookup interface {
	GetByID(ctx context.Context, id string) (model.Movie, error)
}

// TierLookup loads pricing tiers.
type TierLookup interface {
	GetByID(ctx context.Context, id string) (model.PricingTier, error)
}

// PromoStore loads promo codes and consumes their uses.
type PromoStore interface {
	GetByCode(ctx context.Context, code string) (model.PromoCode, error)
	IncrementUsage(ctx context.Context, id string) error
}

// UnavailableReason explains why a movie has no price.
type UnavailableReason string

const (
	ReasonNoPricing    UnavailableReason = "no_pricing"
	ReasonInactiveTier UnavailableReason = "inactive_tier"
)

// PromoFailure names the first promo check that failed.
type PromoFailure string

const (
	PromoNotFound    PromoFailure = "not_found"
	PromoInactive    PromoFailure = "inactive"
	PromoNotYetValid PromoFailure = "not_yet_valid"
	PromoExpired     PromoFailure = "expired"
	PromoWrongMovie  PromoFailure = "wrong_movie"
	PromoExhausted   PromoFailure = "exhausted"
)

var promoMessages = map[PromoFailure]string{
	PromoNotFound:    "Invalid code",
	PromoInactive:    "This code is no longer active",
	PromoNotYetValid: "This code is not yet valid",
	PromoExpired:     "This code has expired",
	PromoWrongMovie:  "This code is not valid for this movie",
	PromoExhausted:   "This code has reached its usage limit",
}

// Message returns the human readable text for f.
func (f PromoFailure) Message() string { return promoMessages[f] }

// PromoValidation is the result of ValidatePromoCode.  A failed validation
// is a value, not an error: Valid is false and Reason/Error say why.
type PromoValidation struct {
	Valid          bool               `json:"valid"`
	Reason         PromoFailure       `json:"reason,omitempty"`
	Error          string             `json:"error,omitempty"`
	DiscountType   model.DiscountType `json:"discountType,omitempty"`
	DiscountAmount int64              `json:"discountAmountLak"`
	FinalAmount    int64              `json:"finalAmountLak"`

	promo *model.PromoCode
}

func promoFailed(f PromoFailure) PromoValidation {
	return PromoValidation{Valid: false, Reason: f, Error: f.Message()}
}

// AppliedPromo describes the discount folded into a price.
type AppliedPromo struct {
	Code           string             `json:"code"`
	DiscountType   model.DiscountType `json:"discountType"`
	DiscountAmount int64              `json:"discountAmountLak"`
}

// PromoRejection records why a supplied code did not discount the price.
type PromoRejection struct {
	Code    string       `json:"code"`
	Reason  PromoFailure `json:"reason"`
	Message string       `json:"message"`
}

// PriceResult is what a viewer would pay for a movie.  When a supplied code
// is rejected PromoApplied stays nil, the undiscounted price is returned
// and PromoRejected carries the reason.
type PriceResult struct {
	Available         bool              `json:"available"`
	UnavailableReason UnavailableReason `json:"unavailableReason,omitempty"`
	OriginalAmount    int64             `json:"originalAmountLak"`
	FinalAmount       int64             `json:"finalAmountLak"`
	Currency          string            `json:"currency,omitempty"`
	PromoApplied      *AppliedPromo     `json:"promoApplied,omitempty"`
	PromoRejected     *PromoRejection   `json:"promoRejected,omitempty"`

	// PromoCodeID is the id of the applied code, for redemption at checkout.
	PromoCodeID string `json:"-"`
}

// PricingService resolves movie prices and promo discounts.
type PricingService struct {
	movies MovieLookup
	tiers  TierLookup
	promos PromoStore
	now    func() time.Time
}

// NewPricingService wires a PricingService.  A nil clock means time.Now.
func NewPricingService(movies MovieLookup, tiers TierLookup, promos PromoStore, now func() time.Time) *PricingService {
	if now == nil {
		now = time.Now
	}
	return &PricingService{movies: movies, tiers: tiers, promos: promos, now: now}
}

// ResolvePrice returns the price of movieID, discounted by promoCode when
// the code is valid.  An invalid code never blocks the purchase.  Storage
// failures and an unknown or unpublished movie are returned as errors.
func (s *PricingService) ResolvePrice(ctx context.Context, movieID, promoCode string) (PriceResult, error) {
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return PriceResult{}, err
	}
	if !movie.IsPublished {
		return PriceResult{}, repository.ErrNotFound
	}
	if movie.PricingTierID == nil {
		return PriceResult{Available: false, UnavailableReason: ReasonNoPricing}, nil
	}
	tier, err := s.tiers.GetByID(ctx, *movie.PricingTierID)
	if errors.Is(err, repository.ErrNotFound) {
		return PriceResult{Available: false, UnavailableReason: ReasonNoPricing}, nil
	}
	if err != nil {
		return PriceResult{}, err
	}
	if !tier.IsActive {
		return PriceResult{Available: false, UnavailableReason: ReasonInactiveTier}, nil
	}

	res := PriceResult{
		Available:      true,
		OriginalAmount: tier.PriceLak,
		FinalAmount:    tier.PriceLak,
		Currency:       model.CurrencyLAK,
	}
	code := model.NormalizePromoCode(promoCode)
	if code == "" {
		return res, nil
	}

	v, err := s.ValidatePromoCode(ctx, code, movieID, tier.PriceLak)
	if err != nil {
		return PriceResult{}, err
	}
	if !v.Valid {
		metrics.PromoRejections.WithLabelValues(string(v.Reason)).Inc()
		res.PromoRejected = &PromoRejection{Code: code, Reason: v.Reason, Message: v.Error}
		return res, nil
	}
	res.FinalAmount = v.FinalAmount
	res.PromoApplied = &AppliedPromo{Code: code, DiscountType: v.DiscountType, DiscountAmount: v.DiscountAmount}
	res.PromoCodeID = v.promo.ID
	return res, nil
}

// ValidatePromoCode checks code against movieID and computes the discount
// on originalAmount.  The first failing check wins.  Validation never
// consumes a use.
func (s *PricingService) ValidatePromoCode(ctx context.Context, code, movieID string, originalAmount int64) (PromoValidation, error) {
	p, err := s.promos.GetByCode(ctx, model.NormalizePromoCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return promoFailed(PromoNotFound), nil
	}
	if err != nil {
		return PromoValidation{}, err
	}
	now := s.now()
	switch {
	case !p.IsActive:
		return promoFailed(PromoInactive), nil
	case p.ValidFrom != nil && now.Before(*p.ValidFrom):
		return promoFailed(PromoNotYetValid), nil
	case p.ValidTo != nil && now.After(*p.ValidTo):
		return promoFailed(PromoExpired), nil
	case p.MovieID != nil && *p.MovieID != movieID:
		return promoFailed(PromoWrongMovie), nil
	case p.Exhausted():
		return promoFailed(PromoExhausted), nil
	}

	discount := Discount(p.DiscountType, p.DiscountValue, originalAmount)
	return PromoValidation{
		Valid:          true,
		DiscountType:   p.DiscountType,
		DiscountAmount: discount,
		FinalAmount:    originalAmount - discount,
		promo:          &p,
	}, nil
}

// IncrementPromoCodeUsage consumes one use of a code outside any rental
// transaction.  Call it once per completed redemption, never from
// validation.  RentMovie does not use it: the rental store consumes the
// use in the same transaction as the rental insert (see
// repository.RentalRepo.Create), so a failed insert never spends a use.
func (s *PricingService) IncrementPromoCodeUsage(ctx context.Context, codeID string) error {
	if err := s.promos.IncrementUsage(ctx, codeID); err != nil {
		return err
	}
	metrics.PromoRedemptions.Inc()
	return nil
}

// Discount computes the LAK amount taken off originalAmount.  Percentages
// round down since LAK has no minor unit.  The result is always within
// [0, originalAmount].
func Discount(kind model.DiscountType, value *int64, originalAmount int64) int64 {
	if originalAmount <= 0 {
		return 0
	}
	var v int64
	if value != nil {
		v = *value
	}
	var d int64
	switch kind {
	case model.DiscountFree:
		d = originalAmount
	case model.DiscountPercentage:
		d = originalAmount * v / 100
	case model.DiscountFixed:
		d = v
	}
	if d < 0 {
		return 0
	}
	if d > originalAmount {
		return originalAmount
	}
	return d
}
