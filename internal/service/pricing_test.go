package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
)

// newPricingFixture has one movie "m1" on an active 75000 LAK tier, one
// unpriced movie "m-free" and a second priced movie "m2".
func newPricingFixture() (*memStore, *PricingService) {
	s := newMemStore()
	s.tiers["std"] = model.PricingTier{ID: "std", Name: "Standard", PriceLak: 75000, IsActive: true}
	s.tiers["old"] = model.PricingTier{ID: "old", Name: "Retired", PriceLak: 50000, IsActive: false}
	s.movies["m1"] = model.Movie{ID: "m1", IsPublished: true, PricingTierID: strp("std")}
	s.movies["m2"] = model.Movie{ID: "m2", IsPublished: true, PricingTierID: strp("std")}
	s.movies["m-free"] = model.Movie{ID: "m-free", IsPublished: true}
	s.movies["m-retired"] = model.Movie{ID: "m-retired", IsPublished: true, PricingTierID: strp("old")}
	s.movies["m-dangling"] = model.Movie{ID: "m-dangling", IsPublished: true, PricingTierID: strp("gone")}

	s.addPromo(model.PromoCode{Code: "HALF50", DiscountType: model.DiscountPercentage, DiscountValue: i64(50), IsActive: true})
	s.addPromo(model.PromoCode{Code: "SAVE20K", DiscountType: model.DiscountFixed, DiscountValue: i64(20000), IsActive: true})
	s.addPromo(model.PromoCode{Code: "BIGDISCOUNT", DiscountType: model.DiscountFixed, DiscountValue: i64(100000), IsActive: true})
	return s, NewPricingService(s, tierView{s}, s, fixedClock(t0))
}

func TestResolvePrice_Scenarios(t *testing.T) {
	_, svc := newPricingFixture()
	ctx := context.Background()

	tests := []struct {
		name         string
		code         string
		wantFinal    int64
		wantDiscount int64
		wantType     model.DiscountType
	}{
		{"percentage", "HALF50", 37500, 37500, model.DiscountPercentage},
		{"fixed", "SAVE20K", 55000, 20000, model.DiscountFixed},
		{"fixed capped at price", "BIGDISCOUNT", 0, 75000, model.DiscountFixed},
		{"lower case code", " half50 ", 37500, 37500, model.DiscountPercentage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.ResolvePrice(ctx, "m1", tc.code)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Available || res.OriginalAmount != 75000 || res.FinalAmount != tc.wantFinal {
				t.Fatalf("result = %+v", res)
			}
			if res.PromoApplied == nil || res.PromoApplied.DiscountAmount != tc.wantDiscount || res.PromoApplied.DiscountType != tc.wantType {
				t.Fatalf("promoApplied = %+v", res.PromoApplied)
			}
			if res.Currency != model.CurrencyLAK || res.PromoCodeID == "" {
				t.Fatalf("currency %q, promo id %q", res.Currency, res.PromoCodeID)
			}
		})
	}
}

func TestResolvePrice_Unavailable(t *testing.T) {
	_, svc := newPricingFixture()
	for movie, want := range map[string]UnavailableReason{
		"m-free":     ReasonNoPricing,
		"m-dangling": ReasonNoPricing,
		"m-retired":  ReasonInactiveTier,
	} {
		res, err := svc.ResolvePrice(context.Background(), movie, "HALF50")
		if err != nil {
			t.Fatalf("%s: %v", movie, err)
		}
		if res.Available || res.UnavailableReason != want || res.PromoApplied != nil {
			t.Fatalf("%s: result = %+v", movie, res)
		}
	}
}

func TestResolvePrice_UnknownMovie(t *testing.T) {
	_, svc := newPricingFixture()
	if _, err := svc.ResolvePrice(context.Background(), "nope", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolvePrice_UnpublishedMovieIsHidden(t *testing.T) {
	s, svc := newPricingFixture()
	s.movies["draft"] = model.Movie{ID: "draft", PricingTierID: strp("std")}
	if _, err := svc.ResolvePrice(context.Background(), "draft", "HALF50"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if s.promos["HALF50"].UsesCount != 0 {
		t.Fatal("hidden movie consumed a promo use")
	}
}

func TestResolvePrice_InvalidCodeIsIgnored(t *testing.T) {
	_, svc := newPricingFixture()
	ctx := context.Background()
	plain, err := svc.ResolvePrice(ctx, "m1", "")
	if err != nil {
		t.Fatal(err)
	}
	garbage, err := svc.ResolvePrice(ctx, "m1", "GARBAGE")
	if err != nil {
		t.Fatal(err)
	}
	if garbage.FinalAmount != plain.FinalAmount || garbage.PromoApplied != nil {
		t.Fatalf("garbage = %+v, plain = %+v", garbage, plain)
	}
	if garbage.PromoRejected == nil || garbage.PromoRejected.Reason != PromoNotFound || garbage.PromoRejected.Message != "Invalid code" {
		t.Fatalf("promoRejected = %+v", garbage.PromoRejected)
	}
	if plain.PromoRejected != nil {
		t.Fatal("no code should mean no rejection")
	}
}

func TestValidatePromoCode_Checks(t *testing.T) {
	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)
	tests := []struct {
		name  string
		promo model.PromoCode
		movie string
		want  PromoFailure
	}{
		{"inactive", model.PromoCode{Code: "X", DiscountType: model.DiscountFree}, "m1", PromoInactive},
		{"not yet valid", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, IsActive: true, ValidFrom: &future}, "m1", PromoNotYetValid},
		{"expired", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, IsActive: true, ValidTo: &past}, "m1", PromoExpired},
		{"wrong movie", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, IsActive: true, MovieID: strp("m2")}, "m1", PromoWrongMovie},
		{"exhausted", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, IsActive: true, MaxUses: i64(10), UsesCount: 10}, "m1", PromoExhausted},
		{"first failure wins", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, ValidTo: &past, MaxUses: i64(1), UsesCount: 1}, "m1", PromoInactive},
		{"within window", model.PromoCode{Code: "X", DiscountType: model.DiscountFree, IsActive: true, ValidFrom: &past, ValidTo: &future, MovieID: strp("m1"), MaxUses: i64(10), UsesCount: 5}, "m1", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newMemStore()
			s.addPromo(tc.promo)
			svc := NewPricingService(s, tierView{s}, s, fixedClock(t0))
			v, err := svc.ValidatePromoCode(context.Background(), "x", tc.movie, 75000)
			if err != nil {
				t.Fatal(err)
			}
			if tc.want == "" {
				if !v.Valid || v.FinalAmount != 0 || v.DiscountAmount != 75000 {
					t.Fatalf("validation = %+v", v)
				}
				return
			}
			if v.Valid || v.Reason != tc.want || v.Error != tc.want.Message() {
				t.Fatalf("validation = %+v, want reason %s", v, tc.want)
			}
		})
	}
}

func TestValidatePromoCode_UsageCap(t *testing.T) {
	for uses, want := range map[int64]bool{10: false, 5: true} {
		s := newMemStore()
		s.addPromo(model.PromoCode{Code: "CAP", DiscountType: model.DiscountPercentage, DiscountValue: i64(10), MaxUses: i64(10), UsesCount: uses, IsActive: true})
		svc := NewPricingService(s, tierView{s}, s, fixedClock(t0))
		v, err := svc.ValidatePromoCode(context.Background(), "CAP", "m1", 75000)
		if err != nil {
			t.Fatal(err)
		}
		if v.Valid != want {
			t.Fatalf("usesCount %d: valid = %v, want %v", uses, v.Valid, want)
		}
	}
}

func TestValidatePromoCode_NeverConsumesUses(t *testing.T) {
	s, svc := newPricingFixture()
	for i := 0; i < 3; i++ {
		if _, err := svc.ValidatePromoCode(context.Background(), "HALF50", "m1", 75000); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.ResolvePrice(context.Background(), "m1", "HALF50"); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.promos["HALF50"].UsesCount; got != 0 {
		t.Fatalf("usesCount = %d after validation only", got)
	}
}

func TestIncrementPromoCodeUsage(t *testing.T) {
	s := newMemStore()
	s.addPromo(model.PromoCode{ID: "p1", Code: "ONCE", DiscountType: model.DiscountFree, MaxUses: i64(1), IsActive: true})
	svc := NewPricingService(s, tierView{s}, s, fixedClock(t0))
	if err := svc.IncrementPromoCodeUsage(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.IncrementPromoCodeUsage(context.Background(), "p1"); !errors.Is(err, repository.ErrPromoExhausted) {
		t.Fatalf("second use: err = %v", err)
	}
	if got := s.promos["ONCE"].UsesCount; got != 1 {
		t.Fatalf("usesCount = %d", got)
	}
}

func TestDiscountLaws(t *testing.T) {
	for _, original := range []int64{1, 999, 75000, 1_000_000} {
		if got := original - Discount(model.DiscountFixed, i64(original), original); got != 0 {
			t.Errorf("fixed >= original: final %d", got)
		}
		if got := original - Discount(model.DiscountFixed, i64(original+1), original); got != 0 {
			t.Errorf("fixed > original: final %d", got)
		}
		if got := original - Discount(model.DiscountPercentage, i64(100), original); got != 0 {
			t.Errorf("100%%: final %d", got)
		}
		if got := original - Discount(model.DiscountFree, nil, original); got != 0 {
			t.Errorf("free: final %d", got)
		}
	}
	if got := Discount(model.DiscountPercentage, i64(33), 1000); got != 330 {
		t.Errorf("33%% of 1000 = %d", got)
	}
	if got := Discount(model.DiscountPercentage, i64(33), 1001); got != 330 {
		t.Errorf("percentage should round down, got %d", got)
	}
	if got := Discount(model.DiscountFixed, i64(500), 0); got != 0 {
		t.Errorf("zero original: %d", got)
	}
}
