package utils

import (
	"context"
	"time"

	"onboardbuddy/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/price"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ConstructStripeEvent verifies the Stripe-Signature header against the raw body.
func ConstructStripeEvent(c *fiber.Ctx) (stripe.Event, error) {
	payload := c.Body()

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Missing Stripe-Signature header")
	}

	event, err := webhook.ConstructEventWithTolerance(
		payload,
		signature,
		config.AppConfig.StripeWebhookSecret,
		5*time.Minute,
	)
	if err != nil {
		prefix := signature
		if len(prefix) > 10 {
			prefix = prefix[:10] + "..."
		}
		LogError("stripe_signature", err, map[string]interface{}{"signature_prefix": prefix})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Invalid webhook signature")
	}

	LogEvent("stripe_webhook_verified", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})
	return event, nil
}

// GetStripePrice retrieves a price and warns when it is inactive.
func GetStripePrice(priceID string) (*stripe.Price, error) {
	if priceID == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Price ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := price.Get(priceID, &stripe.PriceParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		LogError("stripe_price", err, map[string]interface{}{"price_id": priceID})
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to retrieve price information")
	}
	if !p.Active {
		LogEvent("stripe_price_inactive", map[string]interface{}{"price_id": priceID})
	}
	return p, nil
}
