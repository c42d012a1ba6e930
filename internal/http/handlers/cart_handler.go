package handlers

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"murlie/internal/cartstore"
	applog "murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/session"
	"murlie/internal/validate"
)

type CartHandler struct {
	Catalog *services.CatalogService
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// add validates one cart line and hands it to the session's cart store.
// Without a signed-in user the store itself refuses the add.
func (h *CartHandler) add(c *fiber.Ctx, sc *session.Scope, req addRequest) error {
	if sc.Identity.User() == nil {
		return sc.Cart.AddToCart(c.UserContext(), req.ProductID, req.Quantity, req.Size, req.Color)
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return &services.ValidationError{Field: "product", Msg: "This item is no longer available"}
	}
	size, ok := validate.Size(req.Size)
	if !ok {
		return &services.ValidationError{Field: "size", Msg: "Please select a valid size"}
	}
	color, ok := validate.Color(req.Color)
	if !ok {
		return &services.ValidationError{Field: "color", Msg: "Please select a valid color"}
	}
	if err := h.Catalog.CheckVariant(c.UserContext(), pid, size, color); err != nil {
		return err
	}
	return sc.Cart.AddToCart(c.UserContext(), pid, validate.ClampQty(req.Quantity), size, color)
}

// ---------- JSON API ----------

func (h *CartHandler) State(c *fiber.Ctx) error {
	return cartJSON(c, nil)
}

func (h *CartHandler) Refresh(c *fiber.Ctx) error {
	return cartJSON(c, scopeOf(c).Cart.Refresh(c.UserContext()))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return cartJSON(c, &services.ValidationError{Field: "body", Msg: "Malformed request"})
	}
	err := h.add(c, scopeOf(c), req)
	if err == nil {
		applog.Audit(c, "cart.add", map[string]any{"product": req.ProductID, "qty": req.Quantity, "size": req.Size, "color": req.Color})
	}
	return cartJSON(c, err)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return cartJSON(c, &services.ValidationError{Field: "id", Msg: "Unknown cart item"})
	}
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil || req.Quantity == nil {
		return cartJSON(c, &services.ValidationError{Field: "quantity", Msg: "Quantity is required"})
	}
	err := scopeOf(c).Cart.UpdateQuantity(c.UserContext(), id, validate.ClampQty(*req.Quantity))
	if err == nil {
		applog.Audit(c, "cart.update", map[string]any{"item": id, "qty": *req.Quantity})
	}
	return cartJSON(c, err)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return cartJSON(c, &services.ValidationError{Field: "id", Msg: "Unknown cart item"})
	}
	err := scopeOf(c).Cart.RemoveFromCart(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "cart.remove", map[string]any{"item": id})
	}
	return cartJSON(c, err)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	err := scopeOf(c).Cart.ClearCart(c.UserContext())
	if err == nil {
		applog.Audit(c, "cart.clear", nil)
	}
	return cartJSON(c, err)
}

// cartJSON writes the cart state and the session's pending notices with a
// status derived from err.
func cartJSON(c *fiber.Ctx, err error) error {
	sc := scopeOf(c)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		notice(c, cartstore.Failure, verr.Msg)
	}

	status, msg := cartStatus(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, "cart.remote.fail", err, nil)
	case status == fiber.StatusUnauthorized:
		applog.Security(c, "cart.unauthenticated", nil)
	}

	body := fiber.Map{"cart": sc.Cart.State(), "notices": sc.Flash.Drain()}
	if msg != "" {
		body["error"] = msg
	}
	return c.Status(status).JSON(body)
}

func cartStatus(err error) (int, string) {
	var verr *services.ValidationError
	var rerr *cartstore.RemoteError
	switch {
	case err == nil:
		return fiber.StatusOK, ""
	case errors.Is(err, cartstore.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized, "sign in required"
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Msg
	case errors.Is(err, sql.ErrNoRows):
		return fiber.StatusNotFound, "cart item not found"
	case errors.As(err, &rerr):
		return fiber.StatusBadGateway, "cart store unavailable"
	default:
		return fiber.StatusInternalServerError, "something went wrong"
	}
}

// ---------- Pages and form posts ----------

func (h *CartHandler) View(c *fiber.Ctx) error {
	return render(c, "cart", fiber.Map{"Title": "Cart", "Cart": scopeOf(c).Cart.State()})
}

// Add handles the product page form. Signing in comes first; the shopper is
// sent back to the product afterwards.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sc := scopeOf(c)
	pid := c.FormValue("productId")
	back := "/product/" + pid
	if _, ok := validate.ID(pid); !ok {
		back = "/"
	}
	if sc.Identity.User() == nil {
		notice(c, cartstore.Failure, "Please sign in to add items to cart")
		return c.Redirect("/auth?next=" + back)
	}

	err := h.add(c, sc, addRequest{
		ProductID: pid,
		Quantity:  validate.Qty(c.FormValue("qty")),
		Size:      c.FormValue("size"),
		Color:     c.FormValue("color"),
	})
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.Security(c, "validation.fail", map[string]any{"field": verr.Field, "product": pid})
		notice(c, cartstore.Failure, verr.Msg)
		return c.Redirect(back)
	case err != nil:
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": pid})
		return c.Redirect(back)
	}
	applog.Audit(c, "cart.add", map[string]any{"product": pid})
	return c.Redirect("/cart")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return c.Redirect("/cart")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil {
		notice(c, cartstore.Failure, "Please enter a quantity")
		return c.Redirect("/cart")
	}
	// zero or less removes the line
	formFail(c, "cart.update.fail", scopeOf(c).Cart.UpdateQuantity(c.UserContext(), id, validate.ClampQty(qty)), id)
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("itemId"))
	if !ok {
		return c.Redirect("/cart")
	}
	formFail(c, "cart.remove.fail", scopeOf(c).Cart.RemoveFromCart(c.UserContext(), id), id)
	return c.Redirect("/cart")
}

func (h *CartHandler) ClearForm(c *fiber.Ctx) error {
	formFail(c, "cart.clear.fail", scopeOf(c).Cart.ClearCart(c.UserContext()), "")
	return c.Redirect("/cart")
}

// formFail logs a failed cart form post. The store has already queued the
// notice the cart page will show.
func formFail(c *fiber.Ctx, action string, err error, itemID string) {
	if err == nil || errors.Is(err, cartstore.ErrAuthenticationRequired) {
		return
	}
	applog.Error(c, action, err, map[string]any{"item": itemID})
}
