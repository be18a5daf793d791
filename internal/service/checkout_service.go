package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderNumberAttempts bounds the retry loop on order number collisions. Four
// random bytes give a collision a vanishing chance, so more than a couple of
// retries means something else is wrong.
const orderNumberAttempts = 5

// checkoutService implements CheckoutService.
type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	couponRepo  repository.CouponRepository
	paymentRepo repository.PaymentRepository
	profileRepo repository.ProfileRepository
	coupons     CouponService
	invoices    InvoiceService
	gateway     payment.Gateway
	currency    string
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	paymentRepo repository.PaymentRepository,
	profileRepo repository.ProfileRepository,
	coupons CouponService,
	invoices InvoiceService,
	gateway payment.Gateway,
	currency string,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		coupons:     coupons,
		invoices:    invoices,
		gateway:     gateway,
		currency:    currency,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// checkoutState is the validated cart snapshot both checkout steps work from.
type checkoutState struct {
	cart     *model.Cart
	items    []model.CartItemView
	subtotal decimal.Decimal
	shipping decimal.Decimal
	discount decimal.Decimal
	total    decimal.Decimal
	coupon   *model.Coupon
}

// CreatePaymentIntent validates the active cart end to end and opens a
// payment intent for its total.
func (s *checkoutService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *model.CreatePaymentIntentRequest) (*model.CreatePaymentIntentResponse, error) {
	state, err := s.loadCheckoutState(ctx, userID)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	out, err := s.gateway.CreateIntent(ctx, payment.CreateIntentInput{
		Amount:      state.total,
		Currency:    currency,
		UserID:      userID.String(),
		CartID:      state.cart.ID.String(),
		Description: fmt.Sprintf("Order for cart %s", state.cart.ID),
	})
	if err != nil {
		return nil, model.ErrPaymentFailed
	}

	p := &model.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      state.total,
		Status:      model.PaymentStatusPending,
		IntentID:    out.IntentID,
		Description: fmt.Sprintf("Checkout of cart %s", state.cart.ID),
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("payment_id", p.ID.String()).
		Str("intent_id", out.IntentID).
		Str("amount", state.total.String()).
		Msg("payment intent created")

	return &model.CreatePaymentIntentResponse{
		ClientSecret: out.ClientSecret,
		IntentID:     out.IntentID,
		PaymentID:    p.ID,
	}, nil
}

// ConfirmPayment verifies the intent with the gateway and converts the cart
// into an order. Stock is decremented under the order transaction with a
// guard, so two confirmations racing for the last units cannot both win.
func (s *checkoutService) ConfirmPayment(ctx context.Context, userID uuid.UUID, req *model.ConfirmPaymentRequest) (*model.ConfirmPaymentResponse, error) {
	pay, err := s.paymentRepo.GetByIntentID(ctx, req.IntentID)
	if err != nil {
		return nil, err
	}
	if pay == nil || pay.UserID != userID {
		return nil, model.ErrPaymentNotFound
	}
	if pay.Status != model.PaymentStatusPending {
		return nil, model.NewDomainError(model.ErrCodePaymentFailed, "Payment already processed")
	}

	intent, err := s.gateway.RetrieveIntent(ctx, req.IntentID)
	if err != nil {
		return nil, model.ErrPaymentFailed
	}
	if intent.Status != payment.IntentStatusSucceeded || intent.AmountMinorUnits != pay.AmountMinorUnits() {
		if err := s.paymentRepo.UpdateStatus(ctx, pay.ID, model.PaymentStatusFailed); err != nil {
			s.logger.Error().Err(err).Str("payment_id", pay.ID.String()).Msg("failed to mark payment failed")
		}
		return nil, model.ErrPaymentFailed
	}

	state, err := s.loadCheckoutState(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := s.convertCart(ctx, userID, pay, state)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdateStatus(ctx, pay.ID, model.PaymentStatusCompleted); err != nil {
		s.logger.Error().Err(err).Str("payment_id", pay.ID.String()).Msg("failed to mark payment completed")
	}

	// Invoicing is best effort: the order stands even when rendering fails,
	// and a missing default template is an operator problem, not the buyer's.
	if _, err := s.invoices.CreateForOrder(ctx, order.ID); err != nil {
		s.logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create invoice for order")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total", order.Total.String()).
		Msg("checkout completed")

	return &model.ConfirmPaymentResponse{
		Success:     true,
		PaymentID:   pay.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		AmountPaid:  order.Total,
		Currency:    strings.ToLower(intent.Currency),
	}, nil
}

// loadCheckoutState loads and validates the active cart: non-empty, shipping
// selected, every line within current stock, coupon still eligible.
func (s *checkoutService) loadCheckoutState(ctx context.Context, userID uuid.UUID) (*checkoutState, error) {
	cart, err := s.cartRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}

	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.ErrCartEmpty
	}

	if cart.ShippingAddressID == nil || cart.ShippingMethodID == nil {
		return nil, model.ErrShippingRequired
	}

	subtotal := decimal.Zero
	for i := range items {
		item := &items[i]
		if item.Quantity > item.Product.StockQuantity {
			return nil, &model.StockError{
				ProductID:   item.Product.ID,
				ProductName: item.Product.Name,
				Requested:   item.Quantity,
				Available:   item.Product.StockQuantity,
			}
		}
		subtotal = subtotal.Add(item.TotalPrice())
	}

	method, err := s.profileRepo.GetShippingMethod(ctx, *cart.ShippingMethodID)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, model.ErrShippingRequired
	}

	state := &checkoutState{
		cart:     cart,
		items:    items,
		subtotal: subtotal,
		shipping: method.Price,
		discount: decimal.Zero,
	}

	if cart.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, *cart.CouponID)
		if err != nil {
			return nil, err
		}
		if coupon != nil {
			if err := s.coupons.Check(ctx, coupon, userID); err != nil {
				return nil, err
			}
			state.coupon = coupon
			state.discount = s.coupons.Discount(coupon, subtotal.Add(method.Price))
		}
	}

	state.total = state.subtotal.Add(state.shipping).Sub(state.discount)
	if state.total.IsNegative() {
		state.total = decimal.Zero
	}

	return state, nil
}

// convertCart runs the order transaction: order row, line snapshots, guarded
// stock decrements, coupon redemption, shipment and cart conversion commit or
// roll back as one unit.
func (s *checkoutService) convertCart(ctx context.Context, userID uuid.UUID, pay *model.Payment, state *checkoutState) (*model.Order, error) {
	addr, err := s.profileRepo.GetAddress(ctx, userID, *state.cart.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, model.ErrShippingRequired
	}

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err := s.tryConvertCart(ctx, userID, pay, state, addr)
		if errors.Is(err, model.ErrOrderNumberCollision) {
			s.logger.Warn().Int("attempt", attempt+1).Msg("order number collision, retrying")
			continue
		}
		return order, err
	}
	return nil, fmt.Errorf("failed to allocate order number after %d attempts", orderNumberAttempts)
}

func (s *checkoutService) tryConvertCart(ctx context.Context, userID uuid.UUID, pay *model.Payment, state *checkoutState, addr *model.Address) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order := &model.Order{
		ID:                uuid.New(),
		UserID:            userID,
		OrderNumber:       newOrderNumber(),
		Status:            model.OrderStatusPending,
		Subtotal:          state.subtotal,
		ShippingCost:      state.shipping,
		CouponDiscount:    state.discount,
		Total:             state.total,
		PaymentID:         pay.ID,
		ShippingAddressID: addr.ID,
		ShippingMethodID:  *state.cart.ShippingMethodID,
	}
	if state.coupon != nil {
		order.CouponID = &state.coupon.ID
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	orderItems := make([]model.OrderItem, len(state.items))
	for i := range state.items {
		item := &state.items[i]
		orderItems[i] = model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice(),
		}
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		return nil, err
	}

	for i := range state.items {
		item := &state.items[i]
		ok, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			available, err := s.productRepo.GetStock(ctx, item.ProductID)
			if err != nil {
				available = 0
			}
			return nil, &model.StockError{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Requested:   item.Quantity,
				Available:   available,
			}
		}
	}

	if state.coupon != nil {
		redemption := &model.CouponRedemption{
			ID:             uuid.New(),
			UserID:         userID,
			CouponID:       state.coupon.ID,
			OrderID:        order.ID,
			DiscountAmount: state.discount,
			OriginalTotal:  state.subtotal.Add(state.shipping),
			FinalTotal:     state.total,
		}
		if err := s.couponRepo.CreateRedemption(ctx, tx, redemption); err != nil {
			return nil, err
		}
	}

	shipment := &model.Shipment{
		ID:              uuid.New(),
		OrderID:         order.ID,
		ShippingAddress: addr.Snapshot(),
	}
	if err := s.orderRepo.CreateShipment(ctx, tx, shipment); err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearItems(ctx, tx, state.cart.ID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetStatus(ctx, tx, state.cart.ID, model.CartStatusConverted); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	committed = true

	return order, nil
}

// newOrderNumber generates a number like ORD-9F86D081 from four random bytes.
func newOrderNumber() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return "ORD-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
