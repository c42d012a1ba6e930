package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"murlie/internal/config"
	"murlie/internal/http/handlers"
	"murlie/internal/http/views"
	"murlie/internal/repos"
)

// newApp builds the routed app without csrf so tests can post directly.
func newApp(t *testing.T, tweak func(*config.Config)) (*fiber.App, *handlers.Deps, *sqlx.DB) {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = ":memory:"
	cfg.MediaDir = t.TempDir()
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, zap.NewNop())
	app := fiber.New(fiber.Config{
		Views:        html.NewFileSystem(http.FS(views.FS), ".html"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())
	deps.Mount(app)
	app.Use(handlers.NotFound)
	return app, deps, db
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (c *client) do(method, path string, body io.Reader, ctype string) *http.Response {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	for k, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := c.app.Test(req, 5000)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) form(path, values string) *http.Response {
	return c.do("POST", path, strings.NewReader(values), "application/x-www-form-urlencoded")
}

func (c *client) json(method, path string, in, out any) *http.Response {
	c.t.Helper()
	var body io.Reader
	ctype := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			c.t.Fatal(err)
		}
		body, ctype = bytes.NewReader(b), "application/json"
	}
	resp := c.do(method, path, body, ctype)
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp
}

func (c *client) signIn(email string) {
	c.t.Helper()
	resp := c.json("POST", "/api/v1/auth/signin", map[string]string{"email": email, "password": "Passw0rd!"}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("sign in %s: status %d", email, resp.StatusCode)
	}
}

type cartLine struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Product   struct {
		Name     string `json:"name"`
		Price    string `json:"price"`
		ImageURL string `json:"image_url"`
	} `json:"product"`
}

type cartBody struct {
	Cart struct {
		Items      []cartLine `json:"items"`
		Loading    bool       `json:"loading"`
		TotalItems int        `json:"total_items"`
		TotalPrice string     `json:"total_price"`
	} `json:"cart"`
	Notices []struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"notices"`
	Error string `json:"error"`
}

func (b cartBody) messages() []string {
	out := make([]string, 0, len(b.Notices))
	for _, n := range b.Notices {
		out = append(out, n.Message)
	}
	return out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
