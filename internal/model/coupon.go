package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a fixed-amount discount code with a validity window and usage
// caps. MaxUses nil means unlimited total redemptions.
type Coupon struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	Name           string          `json:"name" db:"name"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	MaxUses        *int            `json:"maxUses,omitempty" db:"max_uses"`
	MaxUsesPerUser int             `json:"maxUsesPerUser" db:"max_uses_per_user"`
	ValidFrom      time.Time       `json:"validFrom" db:"valid_from"`
	ValidUntil     time.Time       `json:"validUntil" db:"valid_until"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// CouponRedemption is an immutable audit row created exactly once per
// (user, coupon, order).
type CouponRedemption struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	CouponID       uuid.UUID       `json:"couponId" db:"coupon_id"`
	OrderID        uuid.UUID       `json:"orderId" db:"order_id"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	OriginalTotal  decimal.Decimal `json:"originalTotal" db:"original_total"`
	FinalTotal     decimal.Decimal `json:"finalTotal" db:"final_total"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// CouponUsage carries the redemption counts a validation decision needs.
type CouponUsage struct {
	Total  int
	ByUser int
}

// ValidateCouponRequest is the payload for the coupon validation endpoint.
type ValidateCouponRequest struct {
	Code string `json:"code"`
}

// ValidateCouponResponse reports the validation outcome and the discount the
// coupon would yield against the caller's active cart.
type ValidateCouponResponse struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}
