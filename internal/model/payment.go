package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the local state of a payment. It transitions to failed on
// any gateway error so local state never drifts ahead of the gateway.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Payment tracks one external payment intent, one-to-one with an order.
type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Status      PaymentStatus   `json:"status" db:"status"`
	IntentID    string          `json:"intentId" db:"intent_id"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// AmountMinorUnits converts the amount to the gateway's minor units (cents).
func (p *Payment) AmountMinorUnits() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// CreatePaymentIntentRequest starts a checkout for the caller's active cart.
type CreatePaymentIntentRequest struct {
	Currency string `json:"currency"`
}

// CreatePaymentIntentResponse returns the gateway handle for the client-side
// payment flow.
type CreatePaymentIntentResponse struct {
	ClientSecret string    `json:"clientSecret"`
	IntentID     string    `json:"paymentIntentId"`
	PaymentID    uuid.UUID `json:"paymentId"`
}

// ConfirmPaymentRequest asks the backend to verify an intent and convert the
// cart into an order.
type ConfirmPaymentRequest struct {
	IntentID string `json:"paymentIntentId"`
}

// ConfirmPaymentResponse reports the outcome of a confirmed checkout.
type ConfirmPaymentResponse struct {
	Success     bool            `json:"success"`
	PaymentID   uuid.UUID       `json:"paymentId"`
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Currency    string          `json:"currency"`
}
