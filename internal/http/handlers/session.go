package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"murlie/internal/domain"
	applog "murlie/internal/log"
	"murlie/internal/services"
	"murlie/internal/session"
)

// ensureSID makes sure the browser holds this request's session id.
func ensureSID(c *fiber.Ctx, secure bool) string {
	sid, _ := c.Locals("sid").(string)
	if sid == "" {
		sid = c.Cookies("sid")
	}
	if sid == "" {
		sid = uuid.NewString()
		c.Locals("sid", sid)
	}
	if c.Cookies("sid") != sid {
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   secure,
		})
	}
	return sid
}

func expireSID(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// Session attaches the browser session's scope to every request and keeps its
// identity in step with the sessions table. An identity change published here
// refreshes the scope's cart before the handler runs.
//
// Anonymous requests get a detached scope. It is registered, and the sid
// cookie issued, only when it has notices to carry to the next page; signing
// in registers it too.
func Session(auth *services.AuthService, reg *session.Registry, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")

		var u *domain.User
		var lookupErr error
		if sid != "" {
			u, lookupErr = auth.CurrentUser(c.UserContext(), sid)
			if errors.Is(lookupErr, sql.ErrNoRows) {
				u, lookupErr = nil, nil
			}
		}

		sc, live := reg.Get(sid)
		if !live {
			if u != nil {
				sc, live = reg.Acquire(sid), true
			} else {
				if sid == "" {
					sid = uuid.NewString()
				}
				sc = reg.Detached(sid)
			}
		}

		if lookupErr != nil {
			// keep whoever the scope already holds
			applog.Error(c, "session.lookup.fail", lookupErr, nil)
			u = sc.Identity.User()
		} else if sc.Identity.Set(u) {
			fields := map[string]any{"signed_in": u != nil}
			if u != nil {
				fields["user_id"] = u.ID
			}
			applog.Info(c, "session.identity", fields)
		}

		c.Locals("sid", sid)
		c.Locals("scope", sc)
		if u != nil {
			c.Locals("user", u)
		}
		err := c.Next()

		if !live && sc.Flash.Pending() > 0 {
			c.Locals("scope", reg.Adopt(sc))
			ensureSID(c, secure)
		}
		return err
	}
}

func scopeOf(c *fiber.Ctx) *session.Scope {
	sc, _ := c.Locals("scope").(*session.Scope)
	return sc
}

func userOf(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
