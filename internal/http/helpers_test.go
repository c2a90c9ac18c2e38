package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shelfpos/internal/config"
	"shelfpos/internal/guard"
	"shelfpos/internal/http/handlers"
	"shelfpos/internal/metrics"
	"shelfpos/internal/repos"
)

const (
	operatorEmail = "alice@shelfpos.test"
	operatorPass  = "Passw0rd!"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		DBDriver:         "sqlite",
		DBDSN:            ":memory:",
		Timezone:         "UTC",
		Currency:         "USD",
		CheckoutAttempts: 3,
		RateLimit:        1000,
		OperatorEmail:    operatorEmail,
		OperatorName:     "Alice",
		OperatorPassword: operatorPass,
	}
}

// newTestApp builds the full application on an in-memory database with the
// operator seeded. mutate may adjust the config first.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*fiber.App, *handlers.Deps) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedOperator(db, repos.Seed{Email: cfg.OperatorEmail, Name: cfg.OperatorName, Password: cfg.OperatorPassword}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	deps := handlers.NewDeps(db, cfg, guard.NewMemory(), metrics.New())
	return handlers.NewApp(deps, cfg), deps
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// client carries the sid and csrf cookies across requests.
type client struct {
	t    *testing.T
	app  *fiber.App
	sid  string
	csrf string
}

func newClient(t *testing.T, app *fiber.App) *client {
	t.Helper()
	c := &client{t: t, app: app, sid: uuid.NewString()}
	resp := c.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	c.csrf = extractCookie(resp, "csrf_")
	if c.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return c
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	if c.csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func (c *client) login(email, password string) *http.Response {
	c.t.Helper()
	form := url.Values{"csrf": {c.csrf}, "email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) mustLogin() *client {
	c.t.Helper()
	if resp := c.login(operatorEmail, operatorPass); resp.StatusCode != http.StatusFound {
		c.t.Fatalf("login: status %d", resp.StatusCode)
	}
	return c
}

// send sends body as JSON with the csrf header set.
func (c *client) send(method, path string, body any) *http.Response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Csrf-Token", c.csrf)
	return c.do(req)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d body=%s", want, resp.StatusCode, string(body))
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Owner  string         `json:"owner"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func httpGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
