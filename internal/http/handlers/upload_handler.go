package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	applog "murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/validate"
)

type UploadHandler struct {
	Upload  *services.UploadService
	Catalog *services.CatalogService
}

// Page lists every product with one upload form per image slot.
func (h *UploadHandler) Page(c *fiber.Ctx) error {
	prods, err := h.Catalog.AllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "upload", fiber.Map{
		"Title":    "Upload",
		"Products": prods,
		"Slots":    services.Slots,
		"MaxMB":    h.Upload.MaxBytes >> 20,
	})
}

// readImage reads the "image" part, stopping one byte past the limit so an
// oversized file is rejected without buffering all of it.
func (h *UploadHandler) readImage(c *fiber.Ctx) ([]byte, int64, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, 0, &services.ValidationError{Field: "image", Msg: "Please choose an image"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.Upload.MaxBytes+1))
	if err != nil {
		return nil, 0, err
	}
	return data, fh.Size, nil
}

func (h *UploadHandler) Preview(c *fiber.Ctx) error {
	data, size, err := h.readImage(c)
	if err == nil {
		var url string
		if url, err = h.Upload.Preview(data, size); err == nil {
			return c.JSON(fiber.Map{"preview": url, "size": size})
		}
	}
	return uploadFail(c, "upload.preview.fail", err)
}

func (h *UploadHandler) Store(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	data, _, err := h.readImage(c)
	if err != nil {
		return uploadFail(c, "upload.store.fail", err)
	}
	img, err := h.Upload.Store(c.UserContext(), pid, c.FormValue("slot"), data)
	if err != nil {
		return uploadFail(c, "upload.store.fail", err)
	}
	applog.Audit(c, "upload.store", map[string]any{"product": pid, "slot": img.Slot, "url": img.ImageURL})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"image": img})
}

func (h *UploadHandler) Remove(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	slot := c.Query("slot")
	if err := h.Upload.Remove(c.UserContext(), pid, slot); err != nil {
		return uploadFail(c, "upload.remove.fail", err)
	}
	applog.Audit(c, "upload.remove", map[string]any{"product": pid, "slot": slot})
	return c.SendStatus(fiber.StatusNoContent)
}

func uploadFail(c *fiber.Ctx, action string, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		applog.Security(c, "validation.fail", map[string]any{"field": verr.Field, "reason": verr.Msg})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Msg})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload failed"})
}
