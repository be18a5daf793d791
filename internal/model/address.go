package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is a user's shipping address. At most one address per user carries
// the default flag; setting a new default unsets the others transactionally.
type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Label     string    `json:"label" db:"label"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     string    `json:"line2,omitempty" db:"line2"`
	City      string    `json:"city" db:"city"`
	Postcode  string    `json:"postcode" db:"postcode"`
	Country   string    `json:"country" db:"country"`
	IsDefault bool      `json:"isDefault" db:"is_default"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Snapshot renders the address as a single line for shipment records.
func (a *Address) Snapshot() string {
	line := a.Line1
	if a.Line2 != "" {
		line = fmt.Sprintf("%s, %s", line, a.Line2)
	}
	return fmt.Sprintf("%s, %s %s, %s", line, a.City, a.Postcode, a.Country)
}

// CreateAddressRequest is the payload for registering an address.
type CreateAddressRequest struct {
	Label     string `json:"label"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// Courier is a delivery company providing shipping methods.
type Courier struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ShippingMethod is a priced delivery option offered by a courier.
type ShippingMethod struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CourierID uuid.UUID       `json:"courierId" db:"courier_id"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
