package log

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"murlie/internal/domain"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestContextFieldsAreAttached(t *testing.T) {
	logs := observe(t)

	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/cart", func(c *fiber.Ctx) error {
		c.Locals("user", &domain.User{ID: "u-sarah"})
		Audit(c, "cart.clear", map[string]any{"items": 2})
		Error(c, "cart.load", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/cart", nil)); err != nil {
		t.Fatal(err)
	}

	audit := logs.FilterMessage("cart.clear").All()
	if len(audit) != 1 {
		t.Fatalf("want 1 audit entry, got %d", len(audit))
	}
	ctx := audit[0].ContextMap()
	if ctx["user_id"] != "u-sarah" || ctx["path"] != "/cart" || ctx["method"] != "GET" {
		t.Fatalf("missing request fields: %+v", ctx)
	}
	if rid, _ := ctx["req_id"].(string); rid == "" {
		t.Fatalf("request id missing: %+v", ctx)
	}
	fields, _ := ctx["fields"].(map[string]interface{})
	if fields["kind"] != "audit" {
		t.Fatalf("audit kind missing: %+v", fields)
	}

	errs := logs.FilterMessage("cart.load").All()
	if len(errs) != 1 || errs[0].Level != zapcore.ErrorLevel || errs[0].ContextMap()["error"] != "boom" {
		t.Fatalf("unexpected error entry: %+v", errs)
	}
}

func TestNilContext(t *testing.T) {
	logs := observe(t)
	Security(nil, "rate.login.hit", nil)
	e := logs.All()
	if len(e) != 1 || e[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected entries: %+v", e)
	}
}
