package model

import (
	"fmt"
	"strings"
	"time"
)

// PricingTier is a named price point.  An inactive tier makes every movie
// pointing at it unavailable even though the association remains.
type PricingTier struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PriceLak  int64  `json:"priceLak"`
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// DiscountType enumerates promo code discount kinds.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountFree       DiscountType = "free"
)

// Valid reports whether d is a known discount type.
func (d DiscountType) Valid() bool {
	switch d {
	case DiscountPercentage, DiscountFixed, DiscountFree:
		return true
	}
	return false
}

// PromoCode mirrors the `promo_codes` table.  Code is stored upper-case.
// UsesCount only ever grows; once it reaches MaxUses the code is spent.
//
// Fields:
//  DiscountValue – percent in (0,100] for percentage, LAK amount for
//                  fixed, ignored for free.
//  MaxUses       – nil means unlimited.
//  ValidFrom/To  – optional validity window.
//  MovieID       – when set, the code applies to that movie only.
type PromoCode struct {
	ID            string       `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue *int64       `json:"discountValue"`
	MaxUses       *int64       `json:"maxUses"`
	UsesCount     int64        `json:"usesCount"`
	ValidFrom     *time.Time   `json:"validFrom"`
	ValidTo       *time.Time   `json:"validTo"`
	MovieID       *string      `json:"movieId"`
	IsActive      bool         `json:"isActive"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// NormalizePromoCode trims and upper-cases a user supplied code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the usage cap has been reached.
func (p PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.UsesCount >= *p.MaxUses
}

// Check validates the static shape of a promo code before it is stored.
func (p PromoCode) Check() error {
	if p.Code == "" {
		return &ValidationError{Field: "code", Message: "code is required"}
	}
	if !p.DiscountType.Valid() {
		return &ValidationError{Field: "discountType", Message: fmt.Sprintf("unknown discount type %q", p.DiscountType)}
	}
	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountValue == nil || *p.DiscountValue <= 0 || *p.DiscountValue > 100 {
			return &ValidationError{Field: "discountValue", Message: "percentage must be in (0,100]"}
		}
	case DiscountFixed:
		if p.DiscountValue == nil || *p.DiscountValue <= 0 {
			return &ValidationError{Field: "discountValue", Message: "fixed discount must be a positive LAK amount"}
		}
	}
	if p.MaxUses != nil && *p.MaxUses < 1 {
		return &ValidationError{Field: "maxUses", Message: "maxUses must be at least 1"}
	}
	if p.ValidFrom != nil && p.ValidTo != nil && p.ValidTo.Before(*p.ValidFrom) {
		return &ValidationError{Field: "validTo", Message: "validTo is before validFrom"}
	}
	return nil
}

// ValidationError reports a rejected input.  Handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
