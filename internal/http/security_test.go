package handlers_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shelfpos/internal/config"
	"shelfpos/internal/http/handlers"
)

func TestAnonymousWritesAreDeniedAndLogged(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app)

	entries := captureLogs(t, func() {
		expectStatus(t, c.send(http.MethodPost, "/api/items", map[string]any{"name": "X", "price": "1", "cost": "1"}), http.StatusUnauthorized)
		expectStatus(t, c.send(http.MethodPost, "/api/checkout", nil), http.StatusUnauthorized)
	})
	if _, ok := findLog(entries, "access.denied"); !ok {
		t.Fatal("expected access.denied log")
	}
}

func TestCSRFRequiredOnWrites(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	req := httptest.NewRequest(http.MethodPost, "/api/brands", strings.NewReader(`{"name":"Acme"}`))
	req.Header.Set("Content-Type", "application/json")
	var resp *http.Response
	entries := captureLogs(t, func() { resp = c.do(req) })
	expectStatus(t, resp, http.StatusForbidden)
	if _, ok := findLog(entries, "csrf.fail"); !ok {
		t.Fatal("expected csrf.fail log")
	}
}

func TestInvalidMoneyRejected(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	for _, price := range []string{"abc", "-1", "NaN", "1.23456", ""} {
		var resp *http.Response
		entries := captureLogs(t, func() {
			resp = c.send(http.MethodPost, "/api/items", map[string]any{"name": "Widget", "price": price, "cost": "1"})
		})
		expectStatus(t, resp, http.StatusBadRequest)
		if _, ok := findLog(entries, "validation.fail"); !ok {
			t.Fatalf("price %q: expected validation.fail log", price)
		}
	}

	resp := c.send(http.MethodPut, "/api/cart/adjustments", map[string]any{"discountMode": "fixed", "discount": "ten"})
	expectStatus(t, resp, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Csrf-Token", c.csrf)
	expectStatus(t, c.do(req), http.StatusBadRequest)
}

func TestUnknownItemInCart(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()
	expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": "missing"}), http.StatusNotFound)
	expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{}), http.StatusBadRequest)
}

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{Views: handlers.Views(), ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	})
	app.Get("/api/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})

	for _, path := range []string{"/err", "/api/err"} {
		var resp *http.Response
		entries := captureLogs(t, func() {
			var err error
			resp, err = app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			if err != nil {
				t.Fatalf("test request failed: %v", err)
			}
		})
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		s := string(body)
		if !strings.Contains(s, "Something went wrong") {
			t.Fatalf("%s: friendly message missing; body=%s", path, s)
		}
		if strings.Contains(s, "db timeout") || strings.Contains(s, "secret") {
			t.Fatalf("%s: internal details leaked to user; body=%s", path, s)
		}
		if _, ok := findLog(entries, "server.error"); !ok {
			t.Fatalf("%s: expected server.error log", path)
		}
	}
}

func TestNotFound(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app)
	expectStatus(t, c.do(httpGet("/api/nope")), http.StatusNotFound)
	expectStatus(t, c.do(httpGet("/nope")), http.StatusNotFound)
}

func TestRateLimit(t *testing.T) {
	app, _ := newTestApp(t, func(cfg *config.Config) { cfg.RateLimit = 3 })
	c := newClient(t, app) // GET /login is the first hit

	expectStatus(t, c.do(httpGet("/api/catalog")), http.StatusOK)
	expectStatus(t, c.do(httpGet("/api/catalog")), http.StatusOK)
	expectStatus(t, c.do(httpGet("/api/catalog")), http.StatusTooManyRequests)
	// health checks are exempt
	expectStatus(t, c.do(httpGet("/healthz")), http.StatusOK)
}

func TestBodySizeLimit(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Csrf-Token", c.csrf)
	req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	resp, err := app.Test(req, -1)
	// fasthttp may refuse the body before a response is written
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	it := decode[itemResp](t, c.send(http.MethodPost, "/api/items", map[string]any{"name": "Tea", "price": "3", "cost": "1", "quantity": 1}))
	expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": it.ID}), http.StatusOK)
	expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": it.ID}), http.StatusConflict)
	expectStatus(t, c.send(http.MethodPost, "/api/checkout", nil), http.StatusCreated)

	expectStatus(t, c.do(httpGet("/healthz")), http.StatusOK)
	resp := c.do(httpGet("/metrics"))
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`shelfpos_checkouts_total{result="ok"} 1`,
		`shelfpos_cart_capacity_rejections_total 1`,
		`shelfpos_mirror_refreshes_total{result="ok"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
