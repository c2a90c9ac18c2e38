package log

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func capture(t *testing.T, fn func()) []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	old, flags := stdlog.Writer(), stdlog.Flags()
	stdlog.SetOutput(&buf)
	stdlog.SetFlags(0)
	defer func() {
		stdlog.SetOutput(old)
		stdlog.SetFlags(flags)
	}()
	fn()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("not json: %s", line)
		}
		out = append(out, m)
	}
	return out
}

func TestWithoutContextLiftsOwner(t *testing.T) {
	lines := capture(t, func() {
		Error(nil, "checkout.fail", errors.New("boom"), map[string]any{"owner": "a@b.c", "attempt": 2})
	})
	e := lines[0]
	if e["level"] != "error" || e["action"] != "checkout.fail" || e["err"] != "boom" || e["owner"] != "a@b.c" {
		t.Fatalf("unexpected entry: %v", e)
	}
	fields := e["fields"].(map[string]any)
	if _, ok := fields["owner"]; ok {
		t.Fatalf("owner should be lifted out of fields: %v", fields)
	}
}

func TestRequestContextFields(t *testing.T) {
	app := fiber.New()
	var lines []map[string]any
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("owner", "op@shop.test")
		c.Locals("requestid", "rid-1")
		lines = capture(t, func() { Audit(c, "item.create", nil) })
		return c.SendStatus(fiber.StatusNoContent)
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatal(err)
	}
	e := lines[0]
	if e["level"] != "audit" || e["owner"] != "op@shop.test" || e["req_id"] != "rid-1" || e["path"] != "/x" || e["method"] != "GET" {
		t.Fatalf("unexpected entry: %v", e)
	}
}
