package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Wish    *services.WishlistService
}

type testimonial struct {
	Name   string
	Role   string
	Text   string
	Rating int
}

var testimonials = []testimonial{
	{Name: "Sarah Johnson", Role: "Marathon Runner", Rating: 5,
		Text: "The AeroFlex Knit Pro carried me through my first marathon without a single blister."},
	{Name: "Michael Chen", Role: "Business Executive", Rating: 5,
		Text: "Comfortable from the first board meeting to the last flight home. Worth every rupee."},
	{Name: "Emily Rodriguez", Role: "Yoga Instructor", Rating: 5,
		Text: "The sandals feel like walking on a cushion. My students keep asking where I got them."},
}

const about = "Murlie Enterprises has been crafting footwear for comfort and craftsmanship " +
	"since day one. Every pair is designed with breathable materials, supportive soles and " +
	"a fit that lasts from morning to night."

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	featured, err := h.Catalog.Featured(c.UserContext(), 4)
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{
		"Categories":   cats,
		"Featured":     featured,
		"Testimonials": testimonials,
		"About":        about,
	})
}

func (h *CatalogHandler) product(c *fiber.Ctx) (services.ProductDetail, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return services.ProductDetail{}, false, nil
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Active) {
		return services.ProductDetail{}, false, nil
	}
	return p, err == nil, err
}

func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	p, ok, err := h.product(c)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	saved := false
	if u := userOf(c); u != nil {
		saved, _ = h.Wish.Saved(c.UserContext(), u.ID, p.ID)
	}
	return render(c, "product", fiber.Map{"Title": p.Name, "P": p, "Saved": saved})
}

// MobileDetail is the compact product page used on small screens.
func (h *CatalogHandler) MobileDetail(c *fiber.Ctx) error {
	p, ok, err := h.product(c)
	if err != nil {
		return err
	}
	if !ok || len(p.Images) == 0 {
		return notFound(c, "This item is no longer available")
	}
	return render(c, "product_mobile", fiber.Map{"Title": p.Name, "P": p})
}

// ---------- JSON API ----------

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.categories.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load categories"})
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// Products lists featured products, or one category's products when
// ?category= is given.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	var (
		out any
		err error
	)
	if cat := c.Query("category"); cat != "" {
		if _, ok := validate.ID(cat); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category"})
		}
		out, err = h.Catalog.ListProductsByCategory(c.UserContext(), cat, c.QueryInt("page", 1), 12)
	} else {
		out, err = h.Catalog.Featured(c.UserContext(), c.QueryInt("limit", 4))
	}
	if err != nil {
		log.Error(c, "catalog.products.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load products"})
	}
	return c.JSON(fiber.Map{"products": out})
}

func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	p, ok, err := h.product(c)
	if err != nil {
		log.Error(c, "catalog.product.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load product"})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "This item is no longer available"})
	}
	return c.JSON(fiber.Map{"product": p})
}
