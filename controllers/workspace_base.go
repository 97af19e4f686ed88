package controller

import (
	"errors"
	"log"
	"strings"

	"onboardbuddy/models"
	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

// workspaceBase is shared by every controller that works on the caller's
// onboarding workspace.
type workspaceBase struct {
	Registry *stores.Registry
	Logger   *log.Logger
}

func (b workspaceBase) workspace(c *fiber.Ctx) (*stores.Workspace, error) {
	user := c.Locals("user").(*models.User)
	return b.Registry.Workspace(c.UserContext(), user.ID)
}

// persist saves the workspace after a mutation. Failures are logged and the
// request still succeeds; the in-memory state stays authoritative.
func (b workspaceBase) persist(c *fiber.Ctx) {
	user := c.Locals("user").(*models.User)
	if err := b.Registry.Save(c.UserContext(), user.ID); err != nil {
		b.Logger.Printf("Failed to save workspace %d: %v", user.ID, err)
		utils.LogError("workspace_save", err, map[string]interface{}{
			"user_id": user.ID,
			"path":    c.Path(),
		})
	}
}

func (b workspaceBase) loadError(c *fiber.Ctx, err error) error {
	b.Logger.Printf("Failed to load workspace: %v", err)
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load workspace", err)
}

// storeError maps store errors onto HTTP statuses.
func storeError(c *fiber.Ctx, err error) error {
	var verr *stores.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    verr.Error(),
			"problems": verr.Problems,
		})
	case errors.Is(err, stores.ErrInvalidDueDate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Due date must be more than one business day after the start date and less than 30 days after it",
		})
	case errors.Is(err, stores.ErrNotFound),
		errors.Is(err, stores.ErrEmployeeNotFound),
		errors.Is(err, stores.ErrNotArchived):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func notFound(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
}

func performedBy(c *fiber.Ctx) string {
	return c.Locals("user").(*models.User).Email
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
