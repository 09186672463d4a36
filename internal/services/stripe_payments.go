package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripePayments implements PaymentProvider against Stripe hosted checkout.
type StripePayments struct {
	api           *client.API
	webhookSecret string
}

func NewStripePayments(secretKey, webhookSecret string) *StripePayments {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripePayments{api: api, webhookSecret: webhookSecret}
}

func (s *StripePayments) CreateCheckoutSession(
	ctx context.Context,
	input CheckoutSessionInput,
) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.URLs.SuccessURL),
		CancelURL:  stripe.String(input.URLs.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(input.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("booking_id", input.BookingID)
	params.AddMetadata("client_uid", input.ClientUID)

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// VerifyWebhook checks the signature on a raw webhook delivery and returns
// the decoded event.
func (s *StripePayments) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, s.webhookSecret)
}
