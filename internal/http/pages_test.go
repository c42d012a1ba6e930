package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"murlie/internal/http/handlers"
	"murlie/internal/http/views"
)

func TestHomeShowsCatalogAndCartCount(t *testing.T) {
	app, _, _ := newApp(t, nil)
	c := newClient(t, app)

	body := readBody(t, c.do("GET", "/", nil, ""))
	for _, want := range []string{"Step Into Comfort", "AeroFlex Knit Pro", "Premium Sneakers", "Sarah Johnson", "Cart (0)"} {
		if !strings.Contains(body, want) {
			t.Fatalf("home missing %q", want)
		}
	}

	c.signIn("sarah@murlie.test")
	c.json("POST", "/api/v1/cart/items", add{"product_id": "sparkle-comfort-slippers", "quantity": 3}, nil)
	body = readBody(t, c.do("GET", "/", nil, ""))
	if !strings.Contains(body, "Cart (3)") || !strings.Contains(body, "Hi, Sarah") {
		t.Fatalf("nav not reflecting session: %s", body)
	}
}

func TestProductPages(t *testing.T) {
	app, _, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.do("GET", "/product/aeroflex-knit-pro", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail: %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, want := range []string{"AeroFlex Knit Pro", "IND 7.5", "Sky Blue", "/media/products/aeroflex-knit-pro/main.jpg"} {
		if !strings.Contains(body, want) {
			t.Fatalf("detail missing %q", want)
		}
	}

	if resp := c.do("GET", "/m/product/aeroflex-knit-pro", nil, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("mobile detail: %d", resp.StatusCode)
	}

	for _, path := range []string{"/product/ghost", "/product/bad%20id", "/m/product/ghost", "/product"} {
		resp := c.do("GET", path, nil, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: want 404, got %d", path, resp.StatusCode)
		}
		if body := readBody(t, resp); !strings.Contains(body, "This item is no longer available") {
			t.Fatalf("%s: message missing", path)
		}
	}
}

func TestFormAddRequiresSignIn(t *testing.T) {
	app, _, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.form("/cart", "productId=aeroflex-knit-pro&qty=1&size=IND+8")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("want redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth?next=/product/aeroflex-knit-pro" {
		t.Fatalf("redirect target: %q", loc)
	}
	body := readBody(t, c.do("GET", "/auth?next=/product/aeroflex-knit-pro", nil, ""))
	if !strings.Contains(body, "Please sign in to add items to cart") {
		t.Fatalf("notice not carried to the auth page")
	}
}

func TestFormAddAndCartPage(t *testing.T) {
	app, _, _ := newApp(t, nil)
	c := newClient(t, app)
	c.signIn("sarah@murlie.test")

	resp := c.form("/cart", "productId=aeroflex-knit-pro&qty=1")
	if loc := resp.Header.Get("Location"); loc != "/product/aeroflex-knit-pro" {
		t.Fatalf("missing size should bounce back to the product: %q", loc)
	}
	body := readBody(t, c.do("GET", "/product/aeroflex-knit-pro", nil, ""))
	if !strings.Contains(body, "Please select a size") {
		t.Fatalf("size notice not shown")
	}

	resp = c.form("/cart", "productId=aeroflex-knit-pro&qty=2&size=IND+8&color=red")
	if loc := resp.Header.Get("Location"); loc != "/cart" {
		t.Fatalf("add should land on the cart: %q", loc)
	}
	body = readBody(t, c.do("GET", "/cart", nil, ""))
	for _, want := range []string{"Added to cart!", "AeroFlex Knit Pro", "IND 8", "red", "2 items, total &#8377;570"} {
		if !strings.Contains(body, want) {
			t.Fatalf("cart page missing %q", want)
		}
	}

	var got cartBody
	c.json("GET", "/api/v1/cart", nil, &got)
	c.form("/cart/update", "itemId="+got.Cart.Items[0].ID+"&qty=0")
	got = cartBody{}
	c.json("GET", "/api/v1/cart", nil, &got)
	if len(got.Cart.Items) != 0 {
		t.Fatalf("form update to zero should remove: %+v", got.Cart.Items)
	}
}

func TestUnknownRoutes(t *testing.T) {
	app, _, _ := newApp(t, nil)
	c := newClient(t, app)

	if resp := c.do("GET", "/nope", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("page 404: %d", resp.StatusCode)
	}
	resp := c.do("GET", "/api/v1/nope", nil, "")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(readBody(t, resp), `"not found"`) {
		t.Fatalf("api 404 should be JSON")
	}
}

// friendly error surface, no internal leakage
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{
		Views:        html.NewFileSystem(http.FS(views.FS), ".html"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/api/v1/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "db timeout: secret trace")
	})

	for path, code := range map[string]int{"/err": 500, "/api/v1/err": 503} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("test request failed: %v", err)
		}
		if resp.StatusCode != code {
			t.Fatalf("%s: expected %d, got %d", path, code, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		s := string(body)
		if !strings.Contains(s, "Something went wrong") {
			t.Fatalf("friendly message missing; body=%s", s)
		}
		if strings.Contains(s, "db timeout") || strings.Contains(s, "secret") {
			t.Fatalf("internal details leaked to user; body=%s", s)
		}
	}
}
