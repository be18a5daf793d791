package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// IntentStatus is the gateway-side state of a payment intent.
type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// CreateIntentInput carries everything the gateway needs to open an intent.
// Amount is in major units; the gateway converts to the currency's minor
// units on the wire.
type CreateIntentInput struct {
	Amount      decimal.Decimal
	Currency    string
	UserID      string
	CartID      string
	Description string
}

// CreateIntentOutput is the gateway's view of a freshly created intent.
type CreateIntentOutput struct {
	IntentID     string
	ClientSecret string
	Status       IntentStatus
}

// IntentState is the gateway's view of an existing intent.
type IntentState struct {
	IntentID         string
	Status           IntentStatus
	AmountMinorUnits int64
	Currency         string
}

// Gateway abstracts the payment provider so checkout logic and tests do not
// touch provider SDKs directly.
type Gateway interface {
	// CreateIntent opens a payment intent for the given amount.
	CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentOutput, error)

	// RetrieveIntent fetches the current state of an intent.
	RetrieveIntent(ctx context.Context, intentID string) (*IntentState, error)
}
