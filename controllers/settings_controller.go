package controller

import (
	"log"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	workspaceBase
}

func NewSettingsController(registry *stores.Registry, logger *log.Logger) *SettingsController {
	return &SettingsController{workspaceBase{Registry: registry, Logger: logger}}
}

func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	w, err := sc.workspace(c)
	if err != nil {
		return sc.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(w.Settings.Settings()))
}

// UpdateSettings applies whichever sections are present in the body.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	var input struct {
		Theme         *stores.ThemePatch                `json:"theme"`
		Layout        *stores.LayoutPatch               `json:"layout"`
		CustomTexts   map[string]string                 `json:"custom_texts"`
		Notifications *stores.NotificationSettingsPatch `json:"notifications"`
		Preferences   *stores.PreferencesPatch          `json:"preferences"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := sc.workspace(c)
	if err != nil {
		return sc.loadError(c, err)
	}
	if input.Theme != nil {
		w.Settings.UpdateTheme(*input.Theme)
	}
	if input.Layout != nil {
		w.Settings.UpdateLayout(*input.Layout)
	}
	for k, v := range input.CustomTexts {
		w.Settings.UpdateCustomText(k, v)
	}
	if input.Notifications != nil {
		w.Settings.UpdateNotifications(*input.Notifications)
	}
	if input.Preferences != nil {
		w.Settings.UpdatePreferences(*input.Preferences)
	}
	sc.persist(c)
	return c.JSON(utils.SuccessResponse(w.Settings.Settings()))
}

func (sc *SettingsController) ResetSettings(c *fiber.Ctx) error {
	w, err := sc.workspace(c)
	if err != nil {
		return sc.loadError(c, err)
	}
	w.Settings.ResetToDefault()
	sc.persist(c)
	return c.JSON(utils.SuccessResponse(w.Settings.Settings()))
}

// Export returns the plain-text journey summary. ?include=tasks,missions,notes,photos
// narrows the sections; everything is included by default.
func (sc *SettingsController) Export(c *fiber.Ctx) error {
	w, err := sc.workspace(c)
	if err != nil {
		return sc.loadError(c, err)
	}

	opts := stores.ExportAll
	if include := c.Query("include"); include != "" {
		opts = stores.ExportOptions{}
		for _, part := range splitComma(include) {
			switch part {
			case "tasks":
				opts.Tasks = true
			case "missions":
				opts.Missions = true
			case "notes":
				opts.Notes = true
			case "photos":
				opts.Photos = true
			}
		}
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="onboarding-summary.txt"`)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(w.ExportText(opts))
}
