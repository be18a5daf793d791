package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartStatus is the lifecycle state of a cart.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusExpired   CartStatus = "expired"
)

// Cart is a user's mutable pre-purchase collection of line items. A user has
// at most one active cart; it is created lazily on the first add.
type Cart struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            uuid.UUID       `json:"userId" db:"user_id"`
	Status            CartStatus      `json:"status" db:"status"`
	ShippingAddressID *uuid.UUID      `json:"shippingAddressId,omitempty" db:"shipping_address_id"`
	ShippingMethodID  *uuid.UUID      `json:"shippingMethodId,omitempty" db:"shipping_method_id"`
	CouponID          *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CouponDiscount    decimal.Decimal `json:"couponDiscount" db:"coupon_discount"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// CartItem is a (cart, product) line. UnitPrice is locked at the product's
// current price when the line is first inserted and is never re-evaluated.
type CartItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CartID    uuid.UUID       `json:"cartId" db:"cart_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// TotalPrice is the line total (quantity × unit price).
func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItemView is a cart line joined with its product.
type CartItemView struct {
	CartItem
	Product Product `json:"product"`
}

// CartView is a cart with its lines and computed totals. The totals are
// derived from the current rows on every read, never stored.
type CartView struct {
	Cart         Cart            `json:"cart"`
	Items        []CartItemView  `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

// ItemCount returns the total quantity across all lines.
func (v *CartView) ItemCount() int {
	n := 0
	for _, item := range v.Items {
		n += item.Quantity
	}
	return n
}

// TotalBeforeDiscount is subtotal plus shipping, the base the coupon clamp
// applies to.
func (v *CartView) TotalBeforeDiscount() decimal.Decimal {
	return v.Subtotal.Add(v.ShippingCost)
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// UpdateItemRequest is the payload for changing a line quantity. A quantity
// of zero or less removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// SetShippingRequest selects the shipping address and method for a cart.
type SetShippingRequest struct {
	AddressID uuid.UUID `json:"addressId"`
	MethodID  uuid.UUID `json:"methodId"`
}

// ApplyCouponRequest applies a coupon code to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}
