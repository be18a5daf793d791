package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order. Every other order field
// is immutable after creation.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order is an immutable snapshot of a successful checkout: totals, shipping
// selection and coupon discount captured from the cart at conversion time.
type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            uuid.UUID       `json:"userId" db:"user_id"`
	OrderNumber       string          `json:"orderNumber" db:"order_number"`
	Status            OrderStatus     `json:"status" db:"status"`
	Subtotal          decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	CouponDiscount    decimal.Decimal `json:"couponDiscount" db:"coupon_discount"`
	Total             decimal.Decimal `json:"total" db:"total"`
	PaymentID         uuid.UUID       `json:"paymentId" db:"payment_id"`
	ShippingAddressID uuid.UUID       `json:"shippingAddressId" db:"shipping_address_id"`
	ShippingMethodID  uuid.UUID       `json:"shippingMethodId" db:"shipping_method_id"`
	CouponID          *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is an immutable snapshot of one ordered line, independent of any
// later product price or stock change.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"orderId" db:"order_id"`
	ProductID  uuid.UUID       `json:"productId" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// Shipment tracks delivery of an order. The shipping address is snapshotted
// as text at order time.
type Shipment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrderID         uuid.UUID  `json:"orderId" db:"order_id"`
	ShippingAddress string     `json:"shippingAddress" db:"shipping_address"`
	ShippedAt       *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// OrderResponse is an order with its lines.
type OrderResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}
