// Package payment implements the two-phase settlement workflow:
// payment-intent creation against the external processor, then the
// atomic confirmation that records the payment and marks the order
// paid.
package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// ProviderError marks a failure reported by the external payment
// processor. It is surfaced to the caller without retry; amount and
// currency errors are not transient.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IntentCreator reserves an amount with the payment processor and
// returns the client secret the buyer confirms the payment with.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (clientSecret string, err error)
}

// StripeProvider creates payment intents through the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider authenticated with the given
// secret key.
func NewStripeProvider(apiKey string) *StripeProvider {
	return &StripeProvider{api: client.New(apiKey, nil)}
}

// CreateIntent requests a card payment intent for amount minor units.
func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", &ProviderError{Op: "create payment intent", Err: err}
	}

	return intent.ClientSecret, nil
}
