package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"murlie/internal/cartstore"
	"murlie/internal/domain"
	"murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/session"
	"murlie/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Sessions *session.Registry
	Secure   bool
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}

func (h *AuthHandler) Page(c *fiber.Ctx) error {
	if userOf(c) != nil {
		return c.Redirect("/")
	}
	return render(c, "auth", fiber.Map{"Title": "Sign in", "Next": safeNext(c.Query("next"))})
}

// signIn checks the credentials, binds the session and moves the session's
// identity to the user, which loads their cart.
func (h *AuthHandler) signIn(c *fiber.Ctx, email, pass string) (*domain.User, error) {
	sid := ensureSID(c, h.Secure)
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return nil, services.ErrBadCreds
	}
	u, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return nil, err
	}
	h.bind(c, u)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return u, nil
}

func (h *AuthHandler) signUp(c *fiber.Ctx, cr credentials) (*domain.User, error) {
	sid := ensureSID(c, h.Secure)
	u, err := h.Auth.SignUp(c.UserContext(), sid, cr.Name, cr.Email, cr.Password)
	if err != nil {
		log.Security(c, "auth.signup.fail", map[string]any{"email": cr.Email, "reason": err.Error()})
		return nil, err
	}
	h.bind(c, u)
	log.Audit(c, "auth.signup.success", map[string]any{"email": u.Email})
	return u, nil
}

// bind registers the request's scope and moves its identity to u, which
// loads their cart.
func (h *AuthHandler) bind(c *fiber.Ctx, u *domain.User) {
	sid := ensureSID(c, h.Secure)
	sc := scopeOf(c)
	if sc != nil && sc.ID == sid {
		sc = h.Sessions.Adopt(sc)
	} else {
		sc = h.Sessions.Acquire(sid)
	}
	sc.Identity.Set(u)
	c.Locals("scope", sc)
	c.Locals("user", u)
}

// signOut unbinds the session, clears the in-memory cart and ends the scope.
// The durable cart stays for the next sign-in.
func (h *AuthHandler) signOut(c *fiber.Ctx) {
	sid := c.Cookies("sid")
	if sid == "" {
		return
	}
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	if sc, ok := h.Sessions.Peek(sid); ok {
		sc.Identity.Set(nil)
	}
	h.Sessions.End(sid)
	expireSID(c, h.Secure)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
}

// ---------- Form posts ----------

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	next := safeNext(c.FormValue("next"))
	if _, err := h.signIn(c, c.FormValue("email"), c.FormValue("password")); err != nil {
		c.Status(fiber.StatusUnauthorized)
		return render(c, "auth", fiber.Map{"Title": "Sign in", "Err": "Invalid email or password", "Next": next})
	}
	return c.Redirect(next)
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	_, err := h.signUp(c, credentials{
		Name:     c.FormValue("name"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	})
	if err != nil {
		c.Status(authStatus(err))
		return render(c, "auth", fiber.Map{"Title": "Sign in", "Err": authMessage(err), "Next": "/"})
	}
	notice(c, cartstore.Success, "Welcome to Murlie!")
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.signOut(c)
	return c.Redirect("/")
}

// ---------- JSON API ----------

func (h *AuthHandler) Session(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": userOf(c)})
}

func (h *AuthHandler) SignInJSON(c *fiber.Ctx) error {
	var cr credentials
	if err := c.BodyParser(&cr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed request"})
	}
	u, err := h.signIn(c, cr.Email, cr.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) SignUpJSON(c *fiber.Ctx) error {
	var cr credentials
	if err := c.BodyParser(&cr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed request"})
	}
	u, err := h.signUp(c, cr)
	if err != nil {
		return c.Status(authStatus(err)).JSON(fiber.Map{"error": authMessage(err)})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) SignOutJSON(c *fiber.Ctx) error {
	h.signOut(c)
	return c.JSON(fiber.Map{"user": nil})
}

func authStatus(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrBadCreds):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func authMessage(err error) string {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Msg
	case errors.Is(err, services.ErrEmailTaken):
		return "An account with this email already exists"
	case errors.Is(err, services.ErrBadCreds):
		return "Invalid email or password"
	default:
		return "Something went wrong. Please try again."
	}
}
