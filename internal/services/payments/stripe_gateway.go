package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway implements Gateway on top of Stripe Checkout.
type StripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	currency      string
}

type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

func NewStripeGateway(cfg StripeGatewayConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey

	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyGBP)
	}

	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		currency:      currency,
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, in SessionInput) (SessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("resource_id", strconv.FormatInt(in.ResourceID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(in.UserID, 10))

	sess, err := session.New(params)
	if err != nil {
		return SessionResult{}, fmt.Errorf("stripe checkout session: %w", err)
	}

	return SessionResult{SessionID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("construct event: %w", err)
	}

	event := Event{
		ID:   stripeEvent.ID,
		Type: string(stripeEvent.Type),
	}

	if event.Type == eventCheckoutCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		event.SessionID = sess.ID
	}

	return event, nil
}
