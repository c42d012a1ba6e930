package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/validate"
)

type WishlistHandler struct {
	Wish    *services.WishlistService
	Catalog *services.CatalogService
}

// Toggle saves or unsaves a product for the signed-in user. Runs behind
// RequireUser.
func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	u := userOf(c)
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	if _, err := h.Catalog.GetProduct(c.UserContext(), pid); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "This item is no longer available"})
	}
	saved, err := h.Wish.Toggle(c.UserContext(), u.ID, pid)
	if err != nil {
		applog.Error(c, "wishlist.toggle.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update wishlist"})
	}
	applog.Audit(c, "wishlist.toggle", map[string]any{"product": pid, "saved": saved})
	return c.JSON(fiber.Map{"product_id": pid, "saved": saved})
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), userOf(c).ID)
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load wishlist"})
	}
	return c.JSON(fiber.Map{"items": items})
}
