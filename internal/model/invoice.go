package model

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is a rendered document snapshot of an order. One per order.
type Invoice struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OrderID       uuid.UUID `json:"orderId" db:"order_id"`
	InvoiceNumber string    `json:"invoiceNumber" db:"invoice_number"`
	HTMLContent   string    `json:"htmlContent" db:"html_content"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// InvoiceTemplate holds template source for invoice rendering. At most one
// template carries the default flag.
type InvoiceTemplate struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Content   string    `json:"content" db:"content"`
	IsDefault bool      `json:"isDefault" db:"is_default"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CreateTemplateRequest is the payload for registering an invoice template.
type CreateTemplateRequest struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsDefault bool   `json:"isDefault"`
}
