package service

import (
	"context"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	profileRepo repository.ProfileRepository
	couponRepo  repository.CouponRepository
	coupons     CouponService
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	couponRepo repository.CouponRepository,
	coupons CouponService,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		profileRepo: profileRepo,
		couponRepo:  couponRepo,
		coupons:     coupons,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart returns the user's active cart, creating one lazily.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	cart, err := s.cartRepo.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

// AddItem adds a product to the cart. The unit price is locked from the
// product's current price on first insert; adding more of an existing line
// only bumps the quantity and keeps the original price.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *model.AddItemRequest) (*model.CartView, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsVisible {
		return nil, model.ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetItem(ctx, cart.ID, req.ProductID)
	if err != nil {
		return nil, err
	}

	wanted := req.Quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	if wanted > product.StockQuantity {
		return nil, &model.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   wanted,
			Available:   product.StockQuantity,
		}
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(ctx, existing.ID, wanted); err != nil {
			return nil, err
		}
	} else {
		item := &model.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.CurrentPrice(time.Now().UTC()),
		}
		if err := s.cartRepo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	s.logger.Debug().
		Str("cart_id", cart.ID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", wanted).
		Msg("cart item added")

	return s.buildView(ctx, cart)
}

// UpdateItem sets a line quantity. Zero or less removes the line.
func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartView, error) {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.ErrProductNotFound
	}

	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
		return s.buildView(ctx, cart)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if quantity > product.StockQuantity {
		return nil, &model.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.StockQuantity,
		}
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

// RemoveItem removes a line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*model.CartView, error) {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		if err := s.cartRepo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, cart)
}

// SetShipping selects the shipping address and method for the cart.
func (s *cartService) SetShipping(ctx context.Context, userID uuid.UUID, req *model.SetShippingRequest) (*model.CartView, error) {
	cart, err := s.cartRepo.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr, err := s.profileRepo.GetAddress(ctx, userID, req.AddressID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, model.ErrAddressNotFound
	}

	method, err := s.profileRepo.GetShippingMethod(ctx, req.MethodID)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Shipping method not found")
	}

	if err := s.cartRepo.UpdateShipping(ctx, cart.ID, &req.AddressID, &req.MethodID); err != nil {
		return nil, err
	}

	cart.ShippingAddressID = &req.AddressID
	cart.ShippingMethodID = &req.MethodID
	return s.buildView(ctx, cart)
}

// ApplyCoupon validates a coupon against the cart and stores the clamped
// discount.
func (s *cartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*model.CartView, error) {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, model.ErrCouponNotFound
	}

	if err := s.coupons.Check(ctx, coupon, userID); err != nil {
		return nil, err
	}

	view, err := s.buildView(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, model.ErrCartEmpty
	}

	discount := s.coupons.Discount(coupon, view.TotalBeforeDiscount())
	if err := s.cartRepo.UpdateCoupon(ctx, cart.ID, &coupon.ID, discount); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("cart_id", cart.ID.String()).
		Str("coupon_code", coupon.Code).
		Str("discount", discount.String()).
		Msg("coupon applied")

	cart.CouponID = &coupon.ID
	cart.CouponDiscount = discount
	return s.buildView(ctx, cart)
}

// RemoveCoupon clears the cart's coupon.
func (s *cartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateCoupon(ctx, cart.ID, nil, decimal.Zero); err != nil {
		return nil, err
	}

	cart.CouponID = nil
	cart.CouponDiscount = decimal.Zero
	return s.buildView(ctx, cart)
}

// activeCart returns the user's active cart or ErrCartNotFound. Used by
// operations that should not create a cart as a side effect.
func (s *cartService) activeCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	return cart, nil
}

// buildView loads the cart's lines and computes totals from the current rows.
// The discount is re-clamped on every read so a shrinking cart can never go
// negative.
func (s *cartService) buildView(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].TotalPrice())
	}

	shipping := decimal.Zero
	if cart.ShippingMethodID != nil {
		method, err := s.profileRepo.GetShippingMethod(ctx, *cart.ShippingMethodID)
		if err != nil {
			return nil, err
		}
		if method != nil {
			shipping = method.Price
		}
	}

	view := &model.CartView{
		Cart:         *cart,
		Items:        items,
		Subtotal:     subtotal,
		ShippingCost: shipping,
	}

	discount := decimal.Zero
	if cart.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, *cart.CouponID)
		if err != nil {
			return nil, err
		}
		if coupon != nil {
			discount = s.coupons.Discount(coupon, view.TotalBeforeDiscount())
		}
	}
	view.Cart.CouponDiscount = discount
	view.Total = view.TotalBeforeDiscount().Sub(discount)
	if view.Total.IsNegative() {
		view.Total = decimal.Zero
	}

	return view, nil
}
