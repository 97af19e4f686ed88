package controller

import (
	"log"
	"strings"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type TagController struct {
	workspaceBase
}

func NewTagController(registry *stores.Registry, logger *log.Logger) *TagController {
	return &TagController{workspaceBase{Registry: registry, Logger: logger}}
}

type tagRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	Description string `json:"description" validate:"omitempty,max=200"`
}

// GetTags supports ?category=, ?q= and ?most_used=N.
func (tc *TagController) GetTags(c *fiber.Ctx) error {
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}

	switch {
	case c.Query("category") != "":
		return c.JSON(utils.SuccessResponse(w.Tags.TagsByCategory(c.Query("category"))))
	case c.Query("q") != "":
		return c.JSON(utils.SuccessResponse(w.Tags.Search(c.Query("q"))))
	case c.QueryInt("most_used") > 0:
		return c.JSON(utils.SuccessResponse(w.Tags.MostUsed(c.QueryInt("most_used"))))
	}
	return c.JSON(utils.SuccessResponse(w.Tags.Tags()))
}

// CreateTag rejects names that already exist, ignoring case.
func (tc *TagController) CreateTag(c *fiber.Ctx) error {
	var input tagRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	if w.Tags.HasName(input.Name) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "A tag with this name already exists", nil)
	}

	id := w.Tags.AddTag(stores.TagInput{
		Name:        input.Name,
		Color:       input.Color,
		Category:    input.Category,
		Description: input.Description,
	})
	tag, _ := w.Tags.Tag(id)
	tc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tag))
}

// UpdateTag routes a name change through the workspace so gallery items and
// mission requirements follow it.
func (tc *TagController) UpdateTag(c *fiber.Ctx) error {
	var patch stores.TagPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	id := c.Params("id")
	current, ok := w.Tags.Tag(id)
	if !ok {
		return notFound(c, "Tag")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if !strings.EqualFold(name, current.Name) && w.Tags.HasName(name) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "A tag with this name already exists", nil)
		}
		if err := w.RenameTag(current.Name, name); err != nil {
			return storeError(c, err)
		}
		patch.Name = nil
	}
	w.Tags.UpdateTag(id, patch)

	tag, _ := w.Tags.Tag(id)
	tc.persist(c)
	return c.JSON(utils.SuccessResponse(tag))
}

func (tc *TagController) DeleteTag(c *fiber.Ctx) error {
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	if _, ok := w.Tags.Tag(c.Params("id")); !ok {
		return notFound(c, "Tag")
	}
	w.Tags.DeleteTag(c.Params("id"))
	tc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// TrackUsage adjusts the advisory usage counter; body {"delta": 1|-1}.
func (tc *TagController) TrackUsage(c *fiber.Ctx) error {
	var input struct {
		Delta int `json:"delta" validate:"required,oneof=1 -1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	id := c.Params("id")
	if _, ok := w.Tags.Tag(id); !ok {
		return notFound(c, "Tag")
	}
	if input.Delta > 0 {
		w.Tags.IncrementUsage(id)
	} else {
		w.Tags.DecrementUsage(id)
	}
	tag, _ := w.Tags.Tag(id)
	tc.persist(c)
	return c.JSON(utils.SuccessResponse(tag))
}
