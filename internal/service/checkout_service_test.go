package service

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutMocks struct {
	cartRepo    *MockCartRepository
	productRepo *MockProductRepository
	orderRepo   *MockOrderRepository
	couponRepo  *MockCouponRepository
	paymentRepo *MockPaymentRepository
	profileRepo *MockProfileRepository
	invoices    *MockInvoiceService
	gateway     *MockGateway
}

func newTestCheckoutService(t *testing.T) (CheckoutService, *checkoutMocks) {
	t.Helper()
	m := &checkoutMocks{
		cartRepo:    new(MockCartRepository),
		productRepo: new(MockProductRepository),
		orderRepo:   new(MockOrderRepository),
		couponRepo:  new(MockCouponRepository),
		paymentRepo: new(MockPaymentRepository),
		profileRepo: new(MockProfileRepository),
		invoices:    new(MockInvoiceService),
		gateway:     new(MockGateway),
	}
	coupons := NewCouponService(m.couponRepo, m.cartRepo, m.profileRepo, zerolog.Nop())
	svc := NewCheckoutService(
		m.cartRepo, m.productRepo, m.orderRepo, m.couponRepo, m.paymentRepo,
		m.profileRepo, coupons, m.invoices, m.gateway, "gbp", zerolog.Nop(),
	)
	return svc, m
}

// checkoutFixture is a ready-to-convert cart: one line of two units at 50.00,
// 10.00 shipping, a 15.00 coupon, total 95.00.
type checkoutFixture struct {
	userID    uuid.UUID
	addressID uuid.UUID
	methodID  uuid.UUID
	cart      *model.Cart
	items     []model.CartItemView
	method    *model.ShippingMethod
	address   *model.Address
	coupon    *model.Coupon
	pay       *model.Payment
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		userID:    uuid.New(),
		addressID: uuid.New(),
		methodID:  uuid.New(),
	}
	f.coupon = testCoupon("15.00")
	f.cart = &model.Cart{
		ID:                uuid.New(),
		UserID:            f.userID,
		Status:            model.CartStatusActive,
		ShippingAddressID: &f.addressID,
		ShippingMethodID:  &f.methodID,
		CouponID:          &f.coupon.ID,
	}
	product := model.Product{
		ID:            uuid.New(),
		Name:          "Walnut Desk",
		StockQuantity: 5,
		IsVisible:     true,
	}
	f.items = []model.CartItemView{
		{
			CartItem: model.CartItem{
				ID:        uuid.New(),
				CartID:    f.cart.ID,
				ProductID: product.ID,
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("50.00"),
			},
			Product: product,
		},
	}
	f.method = &model.ShippingMethod{
		ID:    f.methodID,
		Name:  "Standard",
		Price: decimal.RequireFromString("10.00"),
	}
	f.address = &model.Address{
		ID:     f.addressID,
		UserID: f.userID,
		Line1:  "1 High Street",
		City:   "London",
	}
	f.pay = &model.Payment{
		ID:       uuid.New(),
		UserID:   f.userID,
		Amount:   decimal.RequireFromString("95.00"),
		Status:   model.PaymentStatusPending,
		IntentID: "pi_test_123",
	}
	return f
}

func (f *checkoutFixture) expectLoadState(ctx context.Context, m *checkoutMocks) {
	m.cartRepo.On("GetActiveByUser", ctx, f.userID).Return(f.cart, nil)
	m.cartRepo.On("ListItems", ctx, f.cart.ID).Return(f.items, nil)
	m.profileRepo.On("GetShippingMethod", ctx, f.methodID).Return(f.method, nil)
	m.couponRepo.On("GetByID", ctx, f.coupon.ID).Return(f.coupon, nil)
	m.couponRepo.On("CountRedemptions", ctx, f.coupon.ID, f.userID).
		Return(model.CouponUsage{}, nil)
}

func TestCheckoutService_CreatePaymentIntent_Success(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	f.expectLoadState(ctx, m)

	m.gateway.On("CreateIntent", ctx, mock.MatchedBy(func(in payment.CreateIntentInput) bool {
		return in.Amount.Equal(decimal.RequireFromString("95.00")) && in.Currency == "gbp"
	})).Return(&payment.CreateIntentOutput{
		IntentID:     "pi_test_123",
		ClientSecret: "pi_test_123_secret",
		Status:       payment.IntentStatusRequiresPayment,
	}, nil)

	var created *model.Payment
	m.paymentRepo.On("Create", ctx, mock.AnythingOfType("*model.Payment")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Payment)
		}).
		Return(nil)

	resp, err := svc.CreatePaymentIntent(ctx, f.userID, &model.CreatePaymentIntentRequest{})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_123", resp.IntentID)
	assert.Equal(t, "pi_test_123_secret", resp.ClientSecret)
	require.NotNil(t, created)
	assert.Equal(t, model.PaymentStatusPending, created.Status)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("95.00")))
	m.gateway.AssertExpectations(t)
	m.paymentRepo.AssertExpectations(t)
}

func TestCheckoutService_CreatePaymentIntent_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	m.cartRepo.On("GetActiveByUser", ctx, f.userID).Return(f.cart, nil)
	m.cartRepo.On("ListItems", ctx, f.cart.ID).Return([]model.CartItemView{}, nil)

	_, err := svc.CreatePaymentIntent(ctx, f.userID, &model.CreatePaymentIntentRequest{})
	assert.ErrorIs(t, err, model.ErrCartEmpty)
	m.gateway.AssertNotCalled(t, "CreateIntent")
}

func TestCheckoutService_CreatePaymentIntent_ShippingRequired(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	f.cart.ShippingAddressID = nil
	svc, m := newTestCheckoutService(t)

	m.cartRepo.On("GetActiveByUser", ctx, f.userID).Return(f.cart, nil)
	m.cartRepo.On("ListItems", ctx, f.cart.ID).Return(f.items, nil)

	_, err := svc.CreatePaymentIntent(ctx, f.userID, &model.CreatePaymentIntentRequest{})
	assert.ErrorIs(t, err, model.ErrShippingRequired)
}

func TestCheckoutService_CreatePaymentIntent_GatewayError(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	f.expectLoadState(ctx, m)
	m.gateway.On("CreateIntent", ctx, mock.Anything).
		Return(nil, assert.AnError)

	_, err := svc.CreatePaymentIntent(ctx, f.userID, &model.CreatePaymentIntentRequest{})
	assert.ErrorIs(t, err, model.ErrPaymentFailed)
	m.paymentRepo.AssertNotCalled(t, "Create")
}

func TestCheckoutService_ConfirmPayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)
	mockTx := new(MockTx)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)
	m.gateway.On("RetrieveIntent", ctx, f.pay.IntentID).Return(&payment.IntentState{
		IntentID:         f.pay.IntentID,
		Status:           payment.IntentStatusSucceeded,
		AmountMinorUnits: 9500,
		Currency:         "GBP",
	}, nil)

	f.expectLoadState(ctx, m)
	m.profileRepo.On("GetAddress", ctx, f.userID, f.addressID).Return(f.address, nil)

	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)

	var createdOrder *model.Order
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			createdOrder = args.Get(2).(*model.Order)
		}).
		Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	m.productRepo.On("DecrementStock", ctx, mockTx, f.items[0].ProductID, 2).Return(true, nil)
	m.couponRepo.On("CreateRedemption", ctx, mockTx, mock.MatchedBy(func(r *model.CouponRedemption) bool {
		return r.DiscountAmount.Equal(decimal.RequireFromString("15.00")) &&
			r.OriginalTotal.Equal(decimal.RequireFromString("110.00")) &&
			r.FinalTotal.Equal(decimal.RequireFromString("95.00"))
	})).Return(nil)
	m.orderRepo.On("CreateShipment", ctx, mockTx, mock.AnythingOfType("*model.Shipment")).Return(nil)
	m.cartRepo.On("ClearItems", ctx, mockTx, f.cart.ID).Return(nil)
	m.cartRepo.On("SetStatus", ctx, mockTx, f.cart.ID, model.CartStatusConverted).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	m.paymentRepo.On("UpdateStatus", ctx, f.pay.ID, model.PaymentStatusCompleted).Return(nil)
	m.invoices.On("CreateForOrder", ctx, mock.AnythingOfType("uuid.UUID")).
		Return(&model.Invoice{}, nil)

	resp, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, f.pay.ID, resp.PaymentID)
	assert.True(t, resp.AmountPaid.Equal(decimal.RequireFromString("95.00")))
	assert.Equal(t, "gbp", resp.Currency)
	assert.True(t, strings.HasPrefix(resp.OrderNumber, "ORD-"))

	require.NotNil(t, createdOrder)
	assert.True(t, createdOrder.Subtotal.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, createdOrder.ShippingCost.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, createdOrder.CouponDiscount.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, createdOrder.Total.Equal(decimal.RequireFromString("95.00")))
	assert.Equal(t, model.OrderStatusPending, createdOrder.Status)

	m.orderRepo.AssertExpectations(t)
	m.couponRepo.AssertExpectations(t)
	m.cartRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
	m.invoices.AssertExpectations(t)
}

func TestCheckoutService_ConfirmPayment_StockGuardRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)
	mockTx := new(MockTx)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)
	m.gateway.On("RetrieveIntent", ctx, f.pay.IntentID).Return(&payment.IntentState{
		IntentID:         f.pay.IntentID,
		Status:           payment.IntentStatusSucceeded,
		AmountMinorUnits: 9500,
		Currency:         "GBP",
	}, nil)

	f.expectLoadState(ctx, m)
	m.profileRepo.On("GetAddress", ctx, f.userID, f.addressID).Return(f.address, nil)

	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
	// A concurrent order took the last units between validation and commit.
	m.productRepo.On("DecrementStock", ctx, mockTx, f.items[0].ProductID, 2).Return(false, nil)
	m.productRepo.On("GetStock", ctx, f.items[0].ProductID).Return(1, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	_, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})

	var stockErr *model.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.True(t, mockTx.rolledBack)
	assert.False(t, mockTx.committed)
	m.paymentRepo.AssertNotCalled(t, "UpdateStatus", ctx, f.pay.ID, model.PaymentStatusCompleted)
	m.invoices.AssertNotCalled(t, "CreateForOrder")
}

func TestCheckoutService_ConfirmPayment_RetriesOrderNumberCollision(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)
	mockTx := new(MockTx)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)
	m.gateway.On("RetrieveIntent", ctx, f.pay.IntentID).Return(&payment.IntentState{
		IntentID:         f.pay.IntentID,
		Status:           payment.IntentStatusSucceeded,
		AmountMinorUnits: 9500,
		Currency:         "GBP",
	}, nil)

	f.expectLoadState(ctx, m)
	m.profileRepo.On("GetAddress", ctx, f.userID, f.addressID).Return(f.address, nil)

	m.orderRepo.On("BeginTx", ctx).Return(mockTx, nil)
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.Anything).
		Return(model.ErrOrderNumberCollision).Once()
	m.orderRepo.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
	m.orderRepo.On("CreateOrderItems", ctx, mockTx, mock.Anything).Return(nil)
	m.productRepo.On("DecrementStock", ctx, mockTx, f.items[0].ProductID, 2).Return(true, nil)
	m.couponRepo.On("CreateRedemption", ctx, mockTx, mock.Anything).Return(nil)
	m.orderRepo.On("CreateShipment", ctx, mockTx, mock.Anything).Return(nil)
	m.cartRepo.On("ClearItems", ctx, mockTx, f.cart.ID).Return(nil)
	m.cartRepo.On("SetStatus", ctx, mockTx, f.cart.ID, model.CartStatusConverted).Return(nil)
	mockTx.On("Rollback", ctx).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	m.paymentRepo.On("UpdateStatus", ctx, f.pay.ID, model.PaymentStatusCompleted).Return(nil)
	m.invoices.On("CreateForOrder", ctx, mock.Anything).Return(&model.Invoice{}, nil)

	resp, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	m.orderRepo.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestCheckoutService_ConfirmPayment_IntentNotSucceeded(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)
	m.gateway.On("RetrieveIntent", ctx, f.pay.IntentID).Return(&payment.IntentState{
		IntentID:         f.pay.IntentID,
		Status:           payment.IntentStatusProcessing,
		AmountMinorUnits: 9500,
	}, nil)
	m.paymentRepo.On("UpdateStatus", ctx, f.pay.ID, model.PaymentStatusFailed).Return(nil)

	_, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})
	assert.ErrorIs(t, err, model.ErrPaymentFailed)
	m.paymentRepo.AssertExpectations(t)
	m.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestCheckoutService_ConfirmPayment_AmountMismatch(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)
	m.gateway.On("RetrieveIntent", ctx, f.pay.IntentID).Return(&payment.IntentState{
		IntentID:         f.pay.IntentID,
		Status:           payment.IntentStatusSucceeded,
		AmountMinorUnits: 100,
	}, nil)
	m.paymentRepo.On("UpdateStatus", ctx, f.pay.ID, model.PaymentStatusFailed).Return(nil)

	_, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})
	assert.ErrorIs(t, err, model.ErrPaymentFailed)
	m.orderRepo.AssertNotCalled(t, "BeginTx")
}

func TestCheckoutService_ConfirmPayment_WrongUser(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	svc, m := newTestCheckoutService(t)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)

	_, err := svc.ConfirmPayment(ctx, uuid.New(), &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})
	assert.ErrorIs(t, err, model.ErrPaymentNotFound)
	m.gateway.AssertNotCalled(t, "RetrieveIntent")
}

func TestCheckoutService_ConfirmPayment_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()
	f.pay.Status = model.PaymentStatusCompleted
	svc, m := newTestCheckoutService(t)

	m.paymentRepo.On("GetByIntentID", ctx, f.pay.IntentID).Return(f.pay, nil)

	_, err := svc.ConfirmPayment(ctx, f.userID, &model.ConfirmPaymentRequest{IntentID: f.pay.IntentID})

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodePaymentFailed, domainErr.Code)
	m.gateway.AssertNotCalled(t, "RetrieveIntent")
}

func TestNewOrderNumber_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := newOrderNumber()
		require.True(t, strings.HasPrefix(n, "ORD-"), "order number %q", n)
		require.Len(t, n, 12)
		assert.Equal(t, strings.ToUpper(n), n)
		seen[n] = true
	}
	// 100 draws from four random bytes should not collide.
	assert.Greater(t, len(seen), 95)
}
