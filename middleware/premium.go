package middleware

import (
	"errors"

	"onboardbuddy/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequirePremium lets through super admins and accounts with an active
// premium subscription. The subscription is left in Locals for handlers.
func RequirePremium(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}
		if user.IsSuperAdmin() {
			return c.Next()
		}

		var sub models.Subscription
		err := db.Where("user_id = ?", user.ID).First(&sub).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load subscription",
			})
		}
		if !sub.IsPremium() {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "This feature requires a premium subscription",
				"plan":  sub.Plan,
			})
		}

		c.Locals("subscription", &sub)
		return c.Next()
	}
}
