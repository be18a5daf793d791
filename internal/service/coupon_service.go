package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo  repository.CouponRepository
	cartRepo    repository.CartRepository
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository, profileRepo repository.ProfileRepository, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo:  couponRepo,
		cartRepo:    cartRepo,
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "coupon").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks a code for the user and reports the discount it would
// yield against their active cart. Ineligibility is reported in the response
// body, not as an error; only infrastructure failures surface as errors.
func (s *couponService) Validate(ctx context.Context, userID uuid.UUID, code string) (*model.ValidateCouponResponse, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return &model.ValidateCouponResponse{
			Valid:    false,
			Reason:   model.ErrCouponNotFound.Message,
			Discount: decimal.Zero,
		}, nil
	}

	if err := s.Check(ctx, coupon, userID); err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return &model.ValidateCouponResponse{
				Valid:    false,
				Reason:   domainErr.Message,
				Discount: decimal.Zero,
			}, nil
		}
		return nil, err
	}

	cart, err := s.cartRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, model.ErrCartEmpty
	}

	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].TotalPrice())
	}
	// The discount applies to the full cart total, shipping included, so
	// the preview clamps against the same amount checkout does.
	if cart.ShippingMethodID != nil {
		method, err := s.profileRepo.GetShippingMethod(ctx, *cart.ShippingMethodID)
		if err != nil {
			return nil, err
		}
		if method != nil {
			total = total.Add(method.Price)
		}
	}

	return &model.ValidateCouponResponse{Valid: true, Discount: s.Discount(coupon, total)}, nil
}

// Check applies the eligibility rules in a fixed order: validity window
// first, then the global cap, then the per-user cap.
func (s *couponService) Check(ctx context.Context, coupon *model.Coupon, userID uuid.UUID) error {
	now := s.now()
	if now.Before(coupon.ValidFrom) {
		return model.ErrCouponNotYetValid
	}
	if now.After(coupon.ValidUntil) {
		return model.ErrCouponExpired
	}

	usage, err := s.couponRepo.CountRedemptions(ctx, coupon.ID, userID)
	if err != nil {
		return err
	}

	if coupon.MaxUses != nil && usage.Total >= *coupon.MaxUses {
		return model.ErrCouponUsageLimit
	}
	if usage.ByUser >= coupon.MaxUsesPerUser {
		return model.ErrCouponUserLimit
	}

	return nil
}

// Discount clamps the coupon amount to the total it applies to, so a
// discount can zero an order but never push it negative.
func (s *couponService) Discount(coupon *model.Coupon, totalBeforeDiscount decimal.Decimal) decimal.Decimal {
	if totalBeforeDiscount.IsNegative() {
		return decimal.Zero
	}
	if coupon.DiscountAmount.GreaterThan(totalBeforeDiscount) {
		return totalBeforeDiscount
	}
	return coupon.DiscountAmount
}
