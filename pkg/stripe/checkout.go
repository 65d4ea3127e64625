package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

// CheckoutSessionInput carries the pass-through fields for a hosted
// checkout session. Pricing lives in Stripe; callers only name the price.
type CheckoutSessionInput struct {
	PriceID    string
	Quantity   int64
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CreateCheckoutSession creates a hosted payment session for the given price.
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*stripe.CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client is not initialized")
	}

	priceID := strings.TrimSpace(input.PriceID)
	if priceID == "" {
		return nil, errors.New("price id is required")
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(strings.TrimSpace(input.SuccessURL)),
		CancelURL:  stripe.String(strings.TrimSpace(input.CancelURL)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(quantity),
			},
		},
	}
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}

	return c.api.V1CheckoutSessions.Create(ctx, params)
}
