package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	// List retrieves visible products with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Create inserts a new product. Returns model.ErrDuplicateSKU on a SKU
	// or slug conflict.
	Create(ctx context.Context, p *model.Product) error

	// Update persists the given product row.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product. Returns model.ErrProductNotFound if absent
	// and a foreign-key conflict error if order items reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetVisibility flips the visibility flag without touching other fields.
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) error

	// DecrementStock atomically decrements stock within the transaction,
	// guarded by stock_quantity >= quantity. Returns false without mutating
	// anything when the guard fails.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error)

	// GetStock reads the current stock level (used to build stock errors).
	GetStock(ctx context.Context, id uuid.UUID) (int, error)

	// Categories.
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error

	// Images. SetPrimaryImage unsets any existing primary flag and sets the
	// new one in a single transaction.
	ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
	CreateImage(ctx context.Context, img *model.ProductImage) error
	SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) error
}

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetOrCreateActive returns the user's active cart, creating one lazily.
	GetOrCreateActive(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// GetActiveByUser returns the user's active cart or nil.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// GetByID retrieves a cart by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// UpdateShipping sets the cart's shipping address and method.
	UpdateShipping(ctx context.Context, cartID uuid.UUID, addressID, methodID *uuid.UUID) error

	// UpdateCoupon stores the applied coupon and its clamped discount.
	UpdateCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID, discount decimal.Decimal) error

	// SetStatus transitions the cart lifecycle state.
	SetStatus(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, status model.CartStatus) error

	// GetItem returns the (cart, product) line or nil.
	GetItem(ctx context.Context, cartID, productID uuid.UUID) (*model.CartItem, error)

	// CreateItem inserts a new cart line with its locked unit price.
	CreateItem(ctx context.Context, item *model.CartItem) error

	// UpdateItemQuantity sets the line quantity.
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error

	// DeleteItem removes a line.
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// ListItems returns the cart's lines joined with their products.
	ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItemView, error)

	// ClearItems removes every line of the cart within the transaction.
	ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
}

// OrderRepository defines the interface for order data access. Order creation
// runs inside a caller-held transaction so stock decrement, redemption and
// shipment writes commit or roll back together.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	// Returns model.ErrOrderNumberCollision when the generated order number
	// already exists.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the immutable order line snapshots.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// CreateShipment inserts the shipment record for the order.
	CreateShipment(ctx context.Context, tx pgx.Tx, shipment *model.Shipment) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)

	// UpdateStatus changes the order status, the only mutable field.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its code.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// GetByID retrieves a coupon by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)

	// CountRedemptions returns total and per-user redemption counts.
	CountRedemptions(ctx context.Context, couponID, userID uuid.UUID) (model.CouponUsage, error)

	// CreateRedemption inserts the immutable audit row within the
	// transaction. A (user, coupon, order) duplicate returns
	// model.ErrDuplicateRedemption.
	CreateRedemption(ctx context.Context, tx pgx.Tx, r *model.CouponRedemption) error
}

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	// Create inserts a new payment record.
	Create(ctx context.Context, p *model.Payment) error

	// GetByIntentID retrieves the payment tracking a gateway intent.
	GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error)

	// UpdateStatus transitions the payment status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
}

// InvoiceRepository defines the interface for invoice and template access.
type InvoiceRepository interface {
	// GetByOrderID returns the order's invoice or nil.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)

	// Create inserts an invoice. Creation is idempotent per order: when an
	// invoice already exists the existing row is returned untouched.
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)

	// GetDefaultTemplate returns the default template or nil when none is
	// configured.
	GetDefaultTemplate(ctx context.Context) (*model.InvoiceTemplate, error)

	// ListTemplates returns all templates.
	ListTemplates(ctx context.Context) ([]model.InvoiceTemplate, error)

	// CreateTemplate inserts a template.
	CreateTemplate(ctx context.Context, t *model.InvoiceTemplate) error

	// SetDefaultTemplate unsets the current default and marks the given
	// template, in one transaction.
	SetDefaultTemplate(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository defines the interface for users, addresses and shipping
// reference data.
type ProfileRepository interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)

	// Addresses. SetDefaultAddress enforces the one-default-per-user
	// invariant transactionally (unset others, then set).
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	GetAddress(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)
	CreateAddress(ctx context.Context, a *model.Address) error
	DeleteAddress(ctx context.Context, userID, id uuid.UUID) error
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) error

	// Shipping reference data.
	ListShippingMethods(ctx context.Context) ([]model.ShippingMethod, error)
	GetShippingMethod(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error)
}

// NotificationRepository defines the interface for wishlist, preference and
// notification history access.
type NotificationRepository interface {
	// Wishlist.
	AddWishlistItem(ctx context.Context, item *model.WishlistItem) error
	RemoveWishlistItem(ctx context.Context, userID, productID uuid.UUID) error
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error)

	// ListWishlistUsers returns the IDs of every user with the product on
	// their wishlist.
	ListWishlistUsers(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)

	// GetPreference returns the user's preference row or nil when the user
	// never opted in.
	GetPreference(ctx context.Context, userID uuid.UUID) (*model.NotificationPreference, error)

	// UpsertPreference creates or updates the user's preference row.
	UpsertPreference(ctx context.Context, p *model.NotificationPreference) error

	// CreateHistory appends an audit row. Returns false when the same
	// (user, product, type, event) was already recorded.
	CreateHistory(ctx context.Context, h *model.NotificationHistory) (bool, error)

	// ListHistory returns a user's notification history, newest first.
	ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.NotificationHistory, error)
}

// touchTime rounds timestamps for new rows. Kept in one place so repositories
// agree on precision.
func touchTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
