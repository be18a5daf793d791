package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// StripeGateway implements Gateway against the Stripe PaymentIntents API.
type StripeGateway struct {
	cfg    config.StripeConfig
	logger zerolog.Logger
}

// NewStripeGateway creates a Stripe-backed gateway. The SDK holds the API key
// and backend in package globals, so construct the gateway once at startup.
func NewStripeGateway(cfg config.StripeConfig, logger zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	stripe.Key = cfg.SecretKey
	stripe.SetBackend(stripe.APIBackend, apiBackend(cfg.Timeout, nil))

	return &StripeGateway{
		cfg:    cfg,
		logger: logger.With().Str("component", "stripe_gateway").Logger(),
	}, nil
}

// apiBackend binds Stripe calls to an HTTP client with a hard request
// timeout, so a hung endpoint cannot stall a checkout. A nil url keeps the
// SDK's default API host.
func apiBackend(timeout time.Duration, url *string) stripe.Backend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
		URL:        url,
	})
}

// CreateIntent opens a payment intent for the given amount. The amount is
// converted to the currency's minor units; manual confirmation is left to the
// client with the returned secret.
func (g *StripeGateway) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentOutput, error) {
	currency := input.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}
	currency = strings.ToLower(currency)

	minor := input.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	if minor <= 0 {
		return nil, fmt.Errorf("stripe: amount must be positive, got %s", input.Amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}
	params.Metadata = map[string]string{
		"user_id": input.UserID,
		"cart_id": input.CartID,
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error().Err(err).
			Str("cart_id", input.CartID).
			Int64("amount_minor", minor).
			Msg("failed to create payment intent")
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	g.logger.Info().
		Str("intent_id", intent.ID).
		Int64("amount_minor", minor).
		Str("currency", currency).
		Msg("created payment intent")

	return &CreateIntentOutput{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       mapIntentStatus(intent.Status),
	}, nil
}

// RetrieveIntent fetches the current state of an intent.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*IntentState, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		g.logger.Error().Err(err).Str("intent_id", intentID).Msg("failed to retrieve payment intent")
		return nil, fmt.Errorf("stripe: failed to retrieve payment intent: %w", err)
	}

	return &IntentState{
		IntentID:         intent.ID,
		Status:           mapIntentStatus(intent.Status),
		AmountMinorUnits: intent.Amount,
		Currency:         string(intent.Currency),
	}, nil
}

func mapIntentStatus(s stripe.PaymentIntentStatus) IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentStatusCanceled
	case stripe.PaymentIntentStatusProcessing:
		return IntentStatusProcessing
	default:
		return IntentStatusRequiresPayment
	}
}
