package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"murlie/internal/cartstore"
	applog "murlie/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := userOf(c); u != nil {
		data["User"] = u
	}
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok
	if sc := scopeOf(c); sc != nil {
		data["CartCount"] = sc.Cart.TotalItems()
		data["Notices"] = sc.Flash.Drain()
	}
	return c.Render(tmpl, data)
}

// notice queues a message for the next page or JSON response of this session.
func notice(c *fiber.Ctx, kind cartstore.Kind, msg string) {
	if sc := scopeOf(c); sc != nil {
		sc.Flash.Notify(cartstore.Notice{Kind: kind, Message: msg})
	}
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// ErrorHandler logs the error and answers with a friendly page (or JSON under
// /api) that never carries the error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	applog.Error(c, "server.error", err, map[string]any{"code": code})
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
	}
	// best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{
		"Message": "Something went wrong. Please try again.",
	}); rerr != nil {
		return c.Status(code).SendString("Something went wrong. Please try again.")
	}
	return nil
}

// NotFound is the catch-all mounted after every route.
func NotFound(c *fiber.Ctx) error {
	if isAPI(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return notFound(c, "Page not found")
}
