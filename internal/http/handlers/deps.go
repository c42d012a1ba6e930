package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"murlie/internal/cartstore"
	"murlie/internal/config"
	applog "murlie/internal/log"
	"murlie/internal/repos"
	"murlie/internal/services"
	"murlie/internal/session"
)

type Deps struct {
	Auth     *services.AuthService
	Sessions *session.Registry
	Secure   bool

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	CartHandler     *CartHandler
	WishlistHandler *WishlistHandler
	UploadHandler   *UploadHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, logger *zap.Logger) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	imgRepo := repos.NewImageRepo(db)
	cartRepo := repos.NewCartRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, imgRepo)
	wishSvc := services.NewWishlistService(wishRepo)
	uploadSvc := &services.UploadService{Images: imgRepo, Prods: prodRepo, MediaDir: cfg.MediaDir, MaxBytes: cfg.MaxUploadBytes}

	reg := session.NewRegistry(cartRepo, cfg.SessionTTL, logger, cartstore.WithMergeMode(cfg.MergeMode()))

	return &Deps{
		Auth:     authSvc,
		Sessions: reg,
		Secure:   cfg.CookieSecure,

		AuthHandler:     &AuthHandler{Auth: authSvc, Sessions: reg, Secure: cfg.CookieSecure},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc, Wish: wishSvc},
		CartHandler:     &CartHandler{Catalog: catalogSvc},
		WishlistHandler: &WishlistHandler{Wish: wishSvc, Catalog: catalogSvc},
		UploadHandler:   &UploadHandler{Upload: uploadSvc, Catalog: catalogSvc},
	}
}

// Mount registers the session middleware and every page and API route.
// Hardening middleware (helmet, limiter, csrf) is the caller's business.
func (d *Deps) Mount(app fiber.Router) {
	app.Use(Session(d.Auth, d.Sessions, d.Secure))

	// Pages
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/product", func(c *fiber.Ctx) error {
		return notFound(c, "This item is no longer available")
	})
	app.Get("/product/:id", d.CatalogHandler.Detail)
	app.Get("/m/product/:id", d.CatalogHandler.MobileDetail)
	app.Get("/upload", RequireAdmin(), d.UploadHandler.Page)

	// Cart pages and form posts
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/update", d.CartHandler.Update)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/clear", d.CartHandler.ClearForm)

	// Auth (login throttled)
	app.Get("/auth", d.AuthHandler.Page)
	app.Post("/login", loginLimiter(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).Render("auth", fiber.Map{"Err": "Too many attempts. Please try again later."})
	}), d.AuthHandler.Login)
	app.Post("/signup", d.AuthHandler.SignUp)
	app.Post("/logout", d.AuthHandler.Logout)

	// API
	api := app.Group("/api/v1")
	api.Get("/cart", d.CartHandler.State)
	api.Post("/cart/refresh", d.CartHandler.Refresh)
	api.Post("/cart/items", d.CartHandler.AddItem)
	api.Patch("/cart/items/:id", d.CartHandler.UpdateItem)
	api.Delete("/cart/items/:id", d.CartHandler.RemoveItem)
	api.Delete("/cart", d.CartHandler.Clear)

	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/products", d.CatalogHandler.Products)
	api.Get("/products/:id", d.CatalogHandler.Product)

	api.Get("/wishlist", RequireUser(), d.WishlistHandler.List)
	api.Post("/wishlist/:productId", RequireUser(), d.WishlistHandler.Toggle)

	api.Post("/uploads/preview", d.UploadHandler.Preview)
	api.Post("/products/:id/images", RequireAdmin(), d.UploadHandler.Store)
	api.Delete("/products/:id/images", RequireAdmin(), d.UploadHandler.Remove)

	api.Get("/auth/session", d.AuthHandler.Session)
	api.Post("/auth/signup", d.AuthHandler.SignUpJSON)
	api.Post("/auth/signin", loginLimiter(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
	}), d.AuthHandler.SignInJSON)
	api.Post("/auth/signout", d.AuthHandler.SignOutJSON)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "sessions": d.Sessions.Len()})
	})
}

func loginLimiter(reached fiber.Handler) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return reached(c)
		},
	})
}
