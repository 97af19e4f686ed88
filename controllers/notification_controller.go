package controller

import (
	"log"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	workspaceBase
}

func NewNotificationController(registry *stores.Registry, logger *log.Logger) *NotificationController {
	return &NotificationController{workspaceBase{Registry: registry, Logger: logger}}
}

func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"data":         w.Notifications.Notifications(),
		"unread_count": w.Notifications.UnreadCount(),
	})
}

// CreateNotification answers 202 with accepted=false when the throttle or the
// duplicate window dropped it.
func (nc *NotificationController) CreateNotification(c *fiber.Ctx) error {
	var input struct {
		Title   string                  `json:"title" validate:"required,max=200"`
		Message string                  `json:"message" validate:"max=1000"`
		Type    stores.NotificationType `json:"type" validate:"omitempty,oneof=info success warning error"`
		Link    string                  `json:"link"`
		DueDate string                  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Type == "" {
		input.Type = stores.NotificationInfo
	}

	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	accepted := w.Notifications.AddNotification(stores.NotificationInput{
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
		Link:    input.Link,
		DueDate: input.DueDate,
	})
	if !accepted {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "accepted": false})
	}
	nc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "accepted": true})
}

func (nc *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	w.Notifications.MarkAsRead(c.Params("id"))
	nc.persist(c)
	return c.JSON(fiber.Map{"success": true, "unread_count": w.Notifications.UnreadCount()})
}

func (nc *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	w.Notifications.MarkAllAsRead()
	nc.persist(c)
	return c.JSON(fiber.Map{"success": true, "unread_count": 0})
}

func (nc *NotificationController) RemoveNotification(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	w.Notifications.RemoveNotification(c.Params("id"))
	nc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (nc *NotificationController) ClearAll(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	w.Notifications.ClearAll()
	nc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckDueDates runs the due-date sweep for the caller's workspace now.
func (nc *NotificationController) CheckDueDates(c *fiber.Ctx) error {
	w, err := nc.workspace(c)
	if err != nil {
		return nc.loadError(c, err)
	}
	w.CheckDueDates()
	nc.persist(c)
	return c.JSON(fiber.Map{
		"success":      true,
		"unread_count": w.Notifications.UnreadCount(),
	})
}
