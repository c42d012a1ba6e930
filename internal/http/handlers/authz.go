package handlers

import (
	"github.com/gofiber/fiber/v2"

	"murlie/internal/domain"
	applog "murlie/internal/log"
)

// RequireAdmin lets only ADMIN users through. It runs after Session.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := userOf(c)
		if u == nil {
			if isAPI(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
			}
			return c.Redirect("/auth")
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			if isAPI(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is signed in; pages redirect to /auth,
// API calls get a 401.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userOf(c) != nil {
			return c.Next()
		}
		if isAPI(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		return c.Redirect("/auth")
	}
}
