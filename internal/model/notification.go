package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal account record the storefront needs: an identity for
// carts, orders and notifications. Authentication lives elsewhere.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// WishlistItem is a (user, product) pair in the user's saved list. Wishlist
// entries drive re-engagement notifications.
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NotificationPreference holds a user's opt-in flags. A user without a row is
// treated as not opted in to anything.
type NotificationPreference struct {
	UserID                 uuid.UUID `json:"userId" db:"user_id"`
	StockAlertsEnabled     bool      `json:"stockAlertsEnabled" db:"stock_alerts_enabled"`
	PriceDropAlertsEnabled bool      `json:"priceDropAlertsEnabled" db:"price_drop_alerts_enabled"`
	UpdatedAt              time.Time `json:"updatedAt" db:"updated_at"`
}

// NotificationHistory is an append-only audit row for every attempted send.
// The (user, product, type, event) uniqueness makes duplicate delivery of
// the same product-change event a no-op.
type NotificationHistory struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	ProductID uuid.UUID        `json:"productId" db:"product_id"`
	Type      ProductEventType `json:"type" db:"notification_type"`
	EventID   uuid.UUID        `json:"eventId" db:"event_id"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// UpdatePreferencesRequest is the payload for changing opt-in flags.
type UpdatePreferencesRequest struct {
	StockAlertsEnabled     bool `json:"stockAlertsEnabled"`
	PriceDropAlertsEnabled bool `json:"priceDropAlertsEnabled"`
}

// AddWishlistRequest adds a product to the caller's wishlist.
type AddWishlistRequest struct {
	ProductID uuid.UUID `json:"productId"`
}
