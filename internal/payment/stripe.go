// Package payment wraps the two external payment collaborators: the Stripe
// card processor and the SSLCommerz redirect gateway.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Intent is the part of a Stripe payment intent the service uses.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// StripeProcessor creates and inspects card payment intents.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor builds a processor for the given secret key.  backends
// may be nil; tests pass backends pointed at a local server.
func NewStripeProcessor(secretKey string, backends *stripe.Backends) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api}
}

// CreateIntent asks Stripe for a card-only intent of amount minor units.
func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe create intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// IntentStatus fetches the current status of an intent ("succeeded", ...).
func (p *StripeProcessor) IntentStatus(ctx context.Context, id string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return "", fmt.Errorf("stripe get intent: %w", err)
	}
	return string(pi.Status), nil
}
