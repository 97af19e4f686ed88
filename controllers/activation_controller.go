package controller

import (
	"errors"
	"log"
	"time"

	"onboardbuddy/models"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ActivationController struct {
	DB     *gorm.DB
	Mailer Mailer
	Logger *log.Logger
	now    func() time.Time
}

func NewActivationController(db *gorm.DB, mailer Mailer, logger *log.Logger) *ActivationController {
	return &ActivationController{DB: db, Mailer: mailer, Logger: logger, now: time.Now}
}

// IssueCode mails a single-use six digit code valid for 48 hours.
func (ac *ActivationController) IssueCode(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	code, err := utils.GenerateActivationCode()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate activation code", err)
	}
	record := models.ActivationCode{
		Email:     input.Email,
		Code:      code,
		ExpiresAt: ac.now().Add(models.ActivationCodeTTL),
	}
	if err := ac.DB.Create(&record).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save activation code", err)
	}

	if err := ac.Mailer.SendActivationCode(input.Email, code); err != nil {
		ac.Logger.Printf("Failed to send activation code to %s: %v", input.Email, err)
		utils.LogError("activation_email", err, map[string]interface{}{"activation_id": record.ID})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to send activation email", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(record))
}

// Activate consumes a code. A matching account gets its email marked verified.
func (ac *ActivationController) Activate(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	now := ac.now()
	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		var record models.ActivationCode
		err := tx.Where("email = ? AND code = ? AND used_at IS NULL AND expires_at > ?", input.Email, input.Code, now).
			First(&record).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&record).Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("email = ?", input.Email).Update("email_verified", true).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired activation code", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify activation code", err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Account activated"})
}
