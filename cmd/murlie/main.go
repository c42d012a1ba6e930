package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"murlie/internal/config"
	"murlie/internal/http/handlers"
	"murlie/internal/http/views"
	applog "murlie/internal/log"
	"murlie/internal/repos"
)

var errNoCSRF = errors.New("missing csrf token")

// csrfToken reads the token from the X-Csrf-Token header (JSON API) or the
// csrf form field (HTML forms).
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get("X-Csrf-Token"); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errNoCSRF
}

func main() {
	cfg, err := config.Load()
	lg := applog.Init(cfg.LogMode, cfg.LogFile)
	defer func() { _ = lg.Sync() }()
	if err != nil {
		lg.Fatal("config.load", zap.Error(err))
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		lg.Fatal("db.open", zap.Error(err), zap.String("driver", repos.DriverFor(cfg.DBDSN)))
	}
	defer db.Close()

	deps := handlers.NewDeps(db, cfg, lg)
	if err := deps.Sessions.Start("@every 1m"); err != nil {
		lg.Fatal("session.sweep.start", zap.Error(err))
	}
	defer deps.Sessions.Stop()

	engine := html.NewFileSystem(http.FS(views.FS), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard, raised to fit one image upload
	bodyMax := 1 << 20
	if n := int(cfg.MaxUploadBytes) + 64<<10; n > bodyMax {
		bodyMax = n
	}
	app.Server().MaxRequestBodySize = bodyMax

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		Extractor:      csrfToken,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	lg.Info("static.mount", zap.String("static", "./web/static"), zap.String("media", mediaDir))

	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- App handlers ----------
	deps.Mount(app)

	app.Use(handlers.NotFound)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info("server.shutdown")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	lg.Info("server.start", zap.String("port", cfg.Port), zap.String("cart_merge", cfg.MergeMode().String()))
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error("server.listen", zap.Error(err))
	}
}
