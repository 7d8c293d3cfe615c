package model

import (
	"errors"
	"testing"
)

func TestIdentityVariants(t *testing.T) {
	u := UserIdentity("u-1")
	if id, ok := u.UserID(); !ok || id != "u-1" {
		t.Fatalf("UserID() = %q, %v", id, ok)
	}
	if _, ok := u.AnonymousID(); ok {
		t.Error("user identity must not report an anonymous id")
	}

	a := AnonymousIdentity("a-1")
	if id, ok := a.AnonymousID(); !ok || id != "a-1" {
		t.Fatalf("AnonymousID() = %q, %v", id, ok)
	}
	if _, ok := a.UserID(); ok {
		t.Error("anonymous identity must not report a user id")
	}
}

func TestIdentityZero(t *testing.T) {
	for name, id := range map[string]Identity{
		"zero":       {},
		"empty user": UserIdentity(""),
		"empty anon": AnonymousIdentity(""),
	} {
		if !id.IsZero() {
			t.Errorf("%s: expected zero identity", name)
		}
		if err := id.Require(); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: Require() = %v", name, err)
		}
	}
}

func TestPromoCodeCheck(t *testing.T) {
	v := func(n int64) *int64 { return &n }
	cases := []struct {
		name string
		p    PromoCode
		ok   bool
	}{
		{"percentage ok", PromoCode{Code: "HALF50", DiscountType: DiscountPercentage, DiscountValue: v(50)}, true},
		{"percentage 100", PromoCode{Code: "ALL", DiscountType: DiscountPercentage, DiscountValue: v(100)}, true},
		{"percentage zero", PromoCode{Code: "Z", DiscountType: DiscountPercentage, DiscountValue: v(0)}, false},
		{"percentage over", PromoCode{Code: "Z", DiscountType: DiscountPercentage, DiscountValue: v(101)}, false},
		{"percentage missing", PromoCode{Code: "Z", DiscountType: DiscountPercentage}, false},
		{"fixed ok", PromoCode{Code: "SAVE20K", DiscountType: DiscountFixed, DiscountValue: v(20000)}, true},
		{"fixed negative", PromoCode{Code: "Z", DiscountType: DiscountFixed, DiscountValue: v(-1)}, false},
		{"free ignores value", PromoCode{Code: "FREE", DiscountType: DiscountFree}, true},
		{"unknown type", PromoCode{Code: "Z", DiscountType: "bogo"}, false},
		{"no code", PromoCode{DiscountType: DiscountFree}, false},
		{"zero max uses", PromoCode{Code: "Z", DiscountType: DiscountFree, MaxUses: v(0)}, false},
	}
	for _, tc := range cases {
		err := tc.p.Check()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
			}
		}
	}
}
