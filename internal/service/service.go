package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines operations for product and category management.
type CatalogService interface {
	// ListProducts retrieves visible products with pagination.
	ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetProduct retrieves a single product by ID.
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// CreateProduct validates and inserts a new product.
	CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)

	// UpdateProduct applies a partial update and returns the domain events
	// the change produced (stock becoming available, price drops).
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, []model.ProductEvent, error)

	// DeleteProduct removes a product, or deactivates it when order history
	// references it.
	DeleteProduct(ctx context.Context, id uuid.UUID) (*model.DeleteProductResult, error)

	// Categories.
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, slug string) (*model.Category, error)

	// Images. Listing resolves object keys into client-fetchable URLs.
	ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
	AddImage(ctx context.Context, productID uuid.UUID, objectKey string, isPrimary bool) (*model.ProductImage, error)
	SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) error
}

// CartService defines operations against the caller's single active cart.
type CartService interface {
	// GetCart returns the user's active cart, creating one lazily.
	GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error)

	// AddItem adds a product to the cart, locking its current price.
	AddItem(ctx context.Context, userID uuid.UUID, req *model.AddItemRequest) (*model.CartView, error)

	// UpdateItem changes a line quantity. Zero or less removes the line.
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartView, error)

	// RemoveItem removes a line.
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*model.CartView, error)

	// SetShipping selects the shipping address and method.
	SetShipping(ctx context.Context, userID uuid.UUID, req *model.SetShippingRequest) (*model.CartView, error)

	// ApplyCoupon validates and applies a coupon code to the cart.
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*model.CartView, error)

	// RemoveCoupon clears the cart's coupon.
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*model.CartView, error)
}

// CouponService defines coupon validation.
type CouponService interface {
	// Validate checks a code against the caller's active cart and reports
	// the discount it would yield.
	Validate(ctx context.Context, userID uuid.UUID, code string) (*model.ValidateCouponResponse, error)

	// Check applies the eligibility rules for a user at this usage level.
	Check(ctx context.Context, coupon *model.Coupon, userID uuid.UUID) error

	// Discount returns the coupon's discount clamped to the given total.
	Discount(coupon *model.Coupon, totalBeforeDiscount decimal.Decimal) decimal.Decimal
}

// CheckoutService defines the payment-driven cart-to-order conversion.
type CheckoutService interface {
	// CreatePaymentIntent validates the active cart and opens a payment
	// intent for its total.
	CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *model.CreatePaymentIntentRequest) (*model.CreatePaymentIntentResponse, error)

	// ConfirmPayment verifies the intent with the gateway and converts the
	// cart into an order.
	ConfirmPayment(ctx context.Context, userID uuid.UUID, req *model.ConfirmPaymentRequest) (*model.ConfirmPaymentResponse, error)
}

// OrderService defines read and fulfilment operations on orders.
type OrderService interface {
	// GetByID retrieves the caller's order with its items.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.OrderResponse, error)

	// List retrieves the caller's orders, newest first.
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// UpdateStatus advances the fulfilment state.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

// InvoiceService defines invoice rendering and template management.
type InvoiceService interface {
	// GetForOrder returns the caller's invoice for an order.
	GetForOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Invoice, error)

	// CreateForOrder renders and stores the order's invoice. Idempotent:
	// an existing invoice is returned untouched.
	CreateForOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)

	// Templates.
	ListTemplates(ctx context.Context) ([]model.InvoiceTemplate, error)
	CreateTemplate(ctx context.Context, req *model.CreateTemplateRequest) (*model.InvoiceTemplate, error)
	SetDefaultTemplate(ctx context.Context, id uuid.UUID) error
}

// ProfileService defines address book and shipping reference operations.
type ProfileService interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, req *model.CreateAddressRequest) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, id uuid.UUID) error
	SetDefaultAddress(ctx context.Context, userID, id uuid.UUID) error
	ListShippingMethods(ctx context.Context) ([]model.ShippingMethod, error)
}

// NotificationService defines wishlist, preference and history operations.
type NotificationService interface {
	// GetPreferences returns the user's opt-in flags. A user without a
	// stored row gets everything disabled.
	GetPreferences(ctx context.Context, userID uuid.UUID) (*model.NotificationPreference, error)

	// UpdatePreferences stores the user's opt-in flags.
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req *model.UpdatePreferencesRequest) (*model.NotificationPreference, error)

	// Wishlist.
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error)

	// ListHistory returns the user's notification history, newest first.
	ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.NotificationHistory, error)
}
