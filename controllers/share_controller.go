package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"onboardbuddy/models"
	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Mailer sends the transactional emails the sharing and activation flows need.
type Mailer interface {
	SendActivationCode(to, code string) error
	SendShareInvite(to, from, url, expires string) error
}

var errShareExpired = errors.New("This share link has expired")

type ShareController struct {
	workspaceBase
	DB          *gorm.DB
	Mailer      Mailer
	FrontendURL string
	now         func() time.Time
}

func NewShareController(db *gorm.DB, registry *stores.Registry, mailer Mailer, frontendURL string, logger *log.Logger) *ShareController {
	return &ShareController{
		workspaceBase: workspaceBase{Registry: registry, Logger: logger},
		DB:            db,
		Mailer:        mailer,
		FrontendURL:   frontendURL,
		now:           time.Now,
	}
}

func (sc *ShareController) shareURL(code string) string {
	return fmt.Sprintf("%s/share/%s", sc.FrontendURL, code)
}

// CreateShareLink issues a 10 character access code. expires_in_hours of 0
// means the link never expires.
func (sc *ShareController) CreateShareLink(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		ExpiresInHours int    `json:"expires_in_hours" validate:"min=0,max=8760"`
		CanEdit        bool   `json:"can_edit"`
		InviteEmail    string `json:"invite_email" validate:"omitempty,email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	code, err := utils.GenerateAccessCode()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate access code", err)
	}

	link := models.SharedWorkflow{
		OwnerID:    user.ID,
		AccessCode: code,
		CanView:    true,
		CanEdit:    input.CanEdit,
	}
	if input.ExpiresInHours > 0 {
		expires := sc.now().Add(time.Duration(input.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expires
	}
	if err := sc.DB.Create(&link).Error; err != nil {
		sc.Logger.Printf("Failed to create share link for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create share link", err)
	}

	url := sc.shareURL(code)
	if input.InviteEmail != "" {
		expires := ""
		if link.ExpiresAt != nil {
			expires = link.ExpiresAt.Format(time.RFC1123)
		}
		if err := sc.Mailer.SendShareInvite(input.InviteEmail, user.Email, url, expires); err != nil {
			utils.LogError("share_invite_email", err, map[string]interface{}{"user_id": user.ID})
		}
	}

	utils.LogEvent("share_link_created", map[string]interface{}{
		"user_id":  user.ID,
		"can_edit": link.CanEdit,
	})
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"share_url":   url,
		"access_code": code,
		"expires_at":  link.ExpiresAt,
	}))
}

func (sc *ShareController) GetShareLinks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	var links []models.SharedWorkflow
	if err := sc.DB.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&links).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load share links", err)
	}
	return c.JSON(utils.SuccessResponse(links))
}

func (sc *ShareController) findLink(code string) (*models.SharedWorkflow, error) {
	var link models.SharedWorkflow
	if err := sc.DB.Where("access_code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	if link.Expired(sc.now()) {
		return nil, errShareExpired
	}
	return &link, nil
}

// ViewSharedWorkflow is public: a valid code shows the owner's tasks,
// missions and workspace settings read-only.
func (sc *ShareController) ViewSharedWorkflow(c *fiber.Ctx) error {
	link, err := sc.findLink(c.Params("code"))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Share link not found", nil)
	case errors.Is(err, errShareExpired):
		return utils.ErrorResponse(c, fiber.StatusGone, err.Error(), nil)
	case err != nil:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load share link", err)
	}

	w, err := sc.Registry.Workspace(c.UserContext(), link.OwnerID)
	if err != nil {
		return sc.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"permissions": fiber.Map{"can_view": link.CanView, "can_edit": link.CanEdit},
		"expires_at":  link.ExpiresAt,
		"tasks":       w.Tasks.Tasks(),
		"missions":    w.Missions.Missions(),
		"settings":    w.Settings.Settings(),
	}))
}

func (sc *ShareController) RevokeShareLink(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	result := sc.DB.Where("access_code = ? AND owner_id = ?", c.Params("code"), user.ID).Delete(&models.SharedWorkflow{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to revoke share link", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Share link not found", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
