package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalogue product.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	SKU           string          `json:"sku" db:"sku"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice" db:"original_price"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	CategoryID    uuid.UUID       `json:"categoryId" db:"category_id"`
	IsVisible     bool            `json:"isVisible" db:"is_visible"`
	SaleStart     *time.Time      `json:"saleStart,omitempty" db:"sale_start"`
	SaleEnd       *time.Time      `json:"saleEnd,omitempty" db:"sale_end"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsOnSale reports whether the product's sale window covers the given time.
func (p *Product) IsOnSale(now time.Time) bool {
	return p.SaleStart != nil && p.SaleEnd != nil &&
		!now.Before(*p.SaleStart) && !now.After(*p.SaleEnd)
}

// CurrentPrice returns the effective price: the sale price while the sale
// window is open, the original price otherwise.
func (p *Product) CurrentPrice(now time.Time) decimal.Decimal {
	if p.IsOnSale(now) {
		return p.Price
	}
	return p.OriginalPrice
}

// IsAvailable reports whether the product can be purchased.
func (p *Product) IsAvailable() bool {
	return p.IsVisible && p.StockQuantity > 0
}

// Category groups products for browsing.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProductImage references an object-storage image for a product. At most one
// image per product carries the primary flag.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	ObjectKey string    `json:"-" db:"object_key"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
	URL       string    `json:"url,omitempty" db:"-"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProductEventType identifies a notification-worthy product change.
type ProductEventType string

const (
	ProductEventStockAvailable ProductEventType = "stock_available"
	ProductEventPriceDrop      ProductEventType = "price_drop"
)

// ProductEvent is a domain event emitted by a catalogue update. Its ID doubles
// as the idempotency key for any notifications it triggers, so duplicate
// dispatch of one event cannot repeat user-visible sends.
type ProductEvent struct {
	ID            uuid.UUID        `json:"id"`
	Type          ProductEventType `json:"type"`
	ProductID     uuid.UUID        `json:"productId"`
	ProductName   string           `json:"productName"`
	PreviousPrice decimal.Decimal  `json:"previousPrice"`
	CurrentPrice  decimal.Decimal  `json:"currentPrice"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    uuid.UUID       `json:"categoryId"`
	IsVisible     bool            `json:"isVisible"`
	SaleStart     *time.Time      `json:"saleStart,omitempty"`
	SaleEnd       *time.Time      `json:"saleEnd,omitempty"`
}

// UpdateProductRequest is the payload for updating a product. Nil fields are
// left unchanged.
type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty"`
	IsVisible     *bool            `json:"isVisible,omitempty"`
	SaleStart     *time.Time       `json:"saleStart,omitempty"`
	SaleEnd       *time.Time       `json:"saleEnd,omitempty"`
}

// DeleteProductResult reports how a delete request was resolved. Products
// referenced by order items are deactivated instead of removed.
type DeleteProductResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}
