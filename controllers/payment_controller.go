package controller

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"onboardbuddy/config"
	"onboardbuddy/models"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"gorm.io/gorm"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type SubscriptionController struct {
	DB             *gorm.DB
	Logger         *log.Logger
	PremiumPriceID string
	FrontendURL    string
}

func NewSubscriptionController(db *gorm.DB, premiumPriceID, frontendURL string, logger *log.Logger) *SubscriptionController {
	return &SubscriptionController{
		DB:             db,
		Logger:         logger,
		PremiumPriceID: premiumPriceID,
		FrontendURL:    frontendURL,
	}
}

// subscriptionUpdate is the subscription row change one Stripe event asks for.
type subscriptionUpdate struct {
	CustomerID string
	Values     map[string]interface{}
}

// subscriptionUpdateFromStripe maps customer.subscription.* events onto
// subscription columns. Other event types report false.
func subscriptionUpdateFromStripe(eventType string, sub *stripe.Subscription, premiumPriceID string) (subscriptionUpdate, bool) {
	if sub == nil || sub.Customer == nil || sub.Customer.ID == "" {
		return subscriptionUpdate{}, false
	}
	update := subscriptionUpdate{CustomerID: sub.Customer.ID, Values: map[string]interface{}{}}

	switch eventType {
	case "customer.subscription.created", "customer.subscription.updated":
		update.Values["stripe_subscription_id"] = sub.ID
		update.Values["status"] = string(sub.Status)
		update.Values["cancel_at_period_end"] = sub.CancelAtPeriodEnd
		if sub.CurrentPeriodEnd > 0 {
			update.Values["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		} else {
			update.Values["current_period_end"] = nil
		}
		if plan := planFromSubscription(sub, premiumPriceID); plan != "" {
			update.Values["plan"] = plan
		}
	case "customer.subscription.deleted":
		update.Values["status"] = models.SubscriptionCanceled
		update.Values["current_period_end"] = nil
		update.Values["cancel_at_period_end"] = false
	default:
		return subscriptionUpdate{}, false
	}
	return update, true
}

// planFromSubscription prefers the price lookup key and falls back to
// recognising the configured premium price.
func planFromSubscription(sub *stripe.Subscription, premiumPriceID string) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price.LookupKey != "" {
		return price.LookupKey
	}
	if premiumPriceID != "" && price.ID == premiumPriceID {
		return models.PlanPremium
	}
	return ""
}

// HandleSubscriptionWebhook keeps subscription rows in step with Stripe.
// Events for unknown customers are acknowledged and ignored.
func (sc *SubscriptionController) HandleSubscriptionWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	var sub stripe.Subscription
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.LogError("stripe_webhook_parse", err, map[string]interface{}{"event_id": event.ID})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing subscription",
			})
		}
	default:
		return c.JSON(fiber.Map{"received": true})
	}

	update, ok := subscriptionUpdateFromStripe(string(event.Type), &sub, sc.PremiumPriceID)
	if !ok {
		return c.JSON(fiber.Map{"received": true})
	}

	result := sc.DB.Model(&models.Subscription{}).
		Where("stripe_customer_id = ?", update.CustomerID).
		Updates(update.Values)
	if result.Error != nil {
		utils.LogError("subscription_update", result.Error, map[string]interface{}{
			"event_id":    event.ID,
			"customer_id": update.CustomerID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to handle webhook",
		})
	}
	if result.RowsAffected == 0 {
		sc.Logger.Printf("No subscription for Stripe customer %s (event %s)", update.CustomerID, event.ID)
	}

	utils.LogEvent("subscription_synced", map[string]interface{}{
		"event_type":  event.Type,
		"customer_id": update.CustomerID,
	})
	return c.JSON(fiber.Map{"received": true})
}

func (sc *SubscriptionController) GetSubscription(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sub models.Subscription
	err := sc.DB.Where("user_id = ?", user.ID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.Subscription{UserID: user.ID, Plan: models.PlanFree, Status: models.SubscriptionActive}
	} else if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load subscription", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"subscription": sub,
		"is_premium":   user.IsSuperAdmin() || sub.IsPremium(),
	}))
}

// CreateCheckoutSession starts a Stripe Checkout for the premium plan.
func (sc *SubscriptionController) CreateCheckoutSession(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if _, err := utils.GetStripePrice(sc.PremiumPriceID); err != nil {
		return err
	}

	customerID, err := sc.getOrCreateStripeCustomer(user)
	if err != nil {
		sc.Logger.Printf("Failed to create Stripe customer for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(strconv.Itoa(int(user.ID))),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(sc.PremiumPriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(sc.FrontendURL + "/settings?checkout=success"),
		CancelURL:  stripe.String(sc.FrontendURL + "/settings?checkout=cancel"),
	}
	s, err := session.New(params)
	if err != nil {
		utils.LogError("stripe_checkout", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	return c.JSON(fiber.Map{"url": s.URL, "session_id": s.ID})
}

// getOrCreateStripeCustomer also records the customer id on the subscription
// row so webhooks can find it.
func (sc *SubscriptionController) getOrCreateStripeCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != nil {
		return *user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	return cust.ID, sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("stripe_customer_id", cust.ID).Error; err != nil {
			return err
		}
		if err := models.CreateDefaultSubscription(tx, user.ID); err != nil {
			return err
		}
		return tx.Model(&models.Subscription{}).Where("user_id = ?", user.ID).
			Update("stripe_customer_id", cust.ID).Error
	})
}
