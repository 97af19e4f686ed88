package controller

import (
	"context"
	"errors"
	"io"
	"log"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ObjectStore is the object storage the image endpoints write to.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string, ownerID uint) (utils.StoredObject, error)
	Delete(ctx context.Context, path string) error
}

type ImageController struct {
	workspaceBase
	Storage ObjectStore
}

func NewImageController(registry *stores.Registry, storage ObjectStore, logger *log.Logger) *ImageController {
	return &ImageController{
		workspaceBase: workspaceBase{Registry: registry, Logger: logger},
		Storage:       storage,
	}
}

var uploadFolders = map[string]string{
	"profile":    "profile-photos",
	"background": "welcome-backgrounds",
	"gallery":    "gallery",
	"upload":     "uploads",
}

func (ic *ImageController) GetPreferences(c *fiber.Ctx) error {
	w, err := ic.workspace(c)
	if err != nil {
		return ic.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(w.Images.Preferences()))
}

// Upload stores a multipart "file" and records it according to the "purpose"
// form value: profile, background, gallery or upload.
func (ic *ImageController) Upload(c *fiber.Ctx) error {
	purpose := c.FormValue("purpose", "upload")
	folder, ok := uploadFolders[purpose]
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "purpose must be profile, background, gallery or upload", nil)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "file is required", err)
	}
	if fh.Size > utils.MaxUploadSize {
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, utils.ErrFileTooLarge.Error(), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, utils.MaxUploadSize+1))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}

	w, err := ic.workspace(c)
	if err != nil {
		return ic.loadError(c, err)
	}

	obj, err := ic.Storage.Upload(c.UserContext(), data, fh.Filename, folder, w.AccountID)
	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, utils.ErrNotAnImage):
		return utils.ErrorResponse(c, fiber.StatusUnsupportedMediaType, err.Error(), nil)
	case err != nil:
		ic.Logger.Printf("Upload failed for account %d: %v", w.AccountID, err)
		utils.LogError("image_upload", err, map[string]interface{}{"user_id": w.AccountID, "purpose": purpose})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to upload image", err)
	}

	resp := fiber.Map{"url": obj.URL, "path": obj.Path}
	switch purpose {
	case "profile":
		w.Images.SetProfilePhoto(obj.URL, obj.Path)
	case "background":
		w.Images.SetWelcomeBackground(obj.URL, obj.Path)
	case "upload":
		img := w.Images.AddUploadedImage(uuid.NewString(), obj.URL, obj.Path)
		resp["id"] = img.ID
	}
	if purpose != "gallery" {
		ic.persist(c)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(resp))
}

// ResetWelcomeBackground restores the default background.
func (ic *ImageController) ResetWelcomeBackground(c *fiber.Ctx) error {
	w, err := ic.workspace(c)
	if err != nil {
		return ic.loadError(c, err)
	}
	w.Images.SetWelcomeBackground("", "")
	ic.persist(c)
	return c.JSON(utils.SuccessResponse(w.Images.Preferences()))
}

// RemoveUploadedImage waits for storage; a failed delete keeps the image and
// is reported to the caller.
func (ic *ImageController) RemoveUploadedImage(c *fiber.Ctx) error {
	w, err := ic.workspace(c)
	if err != nil {
		return ic.loadError(c, err)
	}
	if err := w.Images.RemoveUploadedImage(c.UserContext(), ic.Storage, c.Params("id")); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to delete image", err)
	}
	ic.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (ic *ImageController) CleanupOrphans(c *fiber.Ctx) error {
	w, err := ic.workspace(c)
	if err != nil {
		return ic.loadError(c, err)
	}
	var failed []string
	deleted := w.CleanupOrphanedImages(c.UserContext(), ic.Storage, func(path string, err error) {
		failed = append(failed, path)
		ic.Logger.Printf("Orphan cleanup failed for %s: %v", path, err)
	})
	ic.persist(c)
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": deleted, "failed": failed}))
}
