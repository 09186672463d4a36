package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v78"
)

type webhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

type checkoutCompleter interface {
	HandleCheckoutCompleted(ctx context.Context, checkoutSessionID string) error
}

// PaymentWebhookHandler receives Stripe event deliveries. It must stay
// unauthenticated; the signature header is the trust boundary.
type PaymentWebhookHandler struct {
	verifier webhookVerifier
	bookings checkoutCompleter
}

func NewPaymentWebhookHandler(verifier webhookVerifier, bookings checkoutCompleter) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{verifier: verifier, bookings: bookings}
}

func (h *PaymentWebhookHandler) HandleStripeEvent(c *fiber.Ctx) error {
	event, err := h.verifier.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	switch event.Type {
	case "checkout.session.completed":
		var session struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil || session.ID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		if err := h.bookings.HandleCheckoutCompleted(c.Context(), session.ID); err != nil {
			// Unknown session: acknowledge so Stripe stops retrying an event
			// that will never match a booking.
			if errors.Is(err, pgx.ErrNoRows) {
				log.Printf("webhook for unknown checkout session %s", session.ID)
				return c.JSON(fiber.Map{"received": true})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
		}
	default:
		// Other event types are subscribed but not acted on yet.
	}

	return c.JSON(fiber.Map{"received": true})
}
