package controller

import (
	"log"
	"net/url"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type GalleryController struct {
	workspaceBase
}

func NewGalleryController(registry *stores.Registry, logger *log.Logger) *GalleryController {
	return &GalleryController{workspaceBase{Registry: registry, Logger: logger}}
}

func validItemType(t stores.ItemType) bool {
	return t == stores.ItemPhoto || t == stores.ItemNote
}

func (gc *GalleryController) GetItems(c *fiber.Ctx) error {
	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(w.Gallery.Items()))
}

func (gc *GalleryController) GetItem(c *fiber.Ctx) error {
	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	item, ok := w.Gallery.Item(c.Params("id"))
	if !ok {
		return notFound(c, "Gallery item")
	}
	return c.JSON(utils.SuccessResponse(item))
}

// CreateItem adds a photo or note; missions are recomputed before the response.
func (gc *GalleryController) CreateItem(c *fiber.Ctx) error {
	var input stores.GalleryItemInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if !validItemType(input.Type) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "type must be photo or note", nil)
	}

	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	item := w.Gallery.AddItem(input)
	gc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(item))
}

func (gc *GalleryController) UpdateItem(c *fiber.Ctx) error {
	var patch stores.GalleryItemPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if patch.Type != nil && !validItemType(*patch.Type) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "type must be photo or note", nil)
	}

	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	item, ok := w.Gallery.UpdateItem(c.Params("id"), patch)
	if !ok {
		return notFound(c, "Gallery item")
	}
	gc.persist(c)
	return c.JSON(utils.SuccessResponse(item))
}

func (gc *GalleryController) DeleteItem(c *fiber.Ctx) error {
	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	if !w.Gallery.DeleteItem(c.Params("id")) {
		return notFound(c, "Gallery item")
	}
	gc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (gc *GalleryController) ReorderItems(c *fiber.Ctx) error {
	var input struct {
		IDs []string `json:"ids" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	w.Gallery.ReorderItems(input.IDs)
	gc.persist(c)
	return c.JSON(utils.SuccessResponse(w.Gallery.Items()))
}

func (gc *GalleryController) GetVocabulary(c *fiber.Ctx) error {
	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(w.Gallery.Vocabulary()))
}

func (gc *GalleryController) AddVocabularyTag(c *fiber.Ctx) error {
	var input struct {
		Tag string `json:"tag" validate:"required,max=50"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	w.Gallery.AddTag(input.Tag)
	gc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(w.Gallery.Vocabulary()))
}

// RenameVocabularyTag renames the tag everywhere it is referenced, including
// mission requirements.
func (gc *GalleryController) RenameVocabularyTag(c *fiber.Ctx) error {
	var input struct {
		Name string `json:"name" validate:"required,max=50"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	if err := w.RenameTag(tagParam(c), input.Name); err != nil {
		return storeError(c, err)
	}
	gc.persist(c)
	return c.JSON(utils.SuccessResponse(w.Gallery.Vocabulary()))
}

func (gc *GalleryController) DeleteVocabularyTag(c *fiber.Ctx) error {
	w, err := gc.workspace(c)
	if err != nil {
		return gc.loadError(c, err)
	}
	if err := w.DeleteTag(tagParam(c)); err != nil {
		return storeError(c, err)
	}
	gc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// tagParam decodes the :tag segment; fiber leaves path params escaped.
func tagParam(c *fiber.Ctx) string {
	tag := c.Params("tag")
	if decoded, err := url.PathUnescape(tag); err == nil {
		return decoded
	}
	return tag
}
