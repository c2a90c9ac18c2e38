package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"shelfpos/internal/config"
	applog "shelfpos/internal/log"
	"shelfpos/web"
)

const bodyLimit = 1 << 20 // 1 MiB

var errMissingCSRF = errors.New("missing csrf token")

// csrfToken reads the token from the X-Csrf-Token header (API clients) or the
// csrf form field (HTML forms).
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get("X-Csrf-Token"); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errMissingCSRF
}

// ErrorHandler answers with the status of a *fiber.Error and a generic message
// for everything else. Internal details are only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, genericError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// Views returns the embedded template engine.
func Views() *html.Engine {
	sub, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// NewApp builds the fiber application with middleware and every route mounted.
func NewApp(d *Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        Views(),
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(Identify(d.Auth))

	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		Extractor:      csrfToken,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
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

	// ---------- Health ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	// ---------- Pages ----------
	app.Get("/", RequireUser(), d.DashboardHandler.Page)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	// ---------- API ----------
	api := app.Group("/api")
	write := RequireOwner()

	api.Get("/catalog", d.ItemHandler.List)
	api.Post("/items", write, d.ItemHandler.Create)
	api.Put("/items/:id", write, d.ItemHandler.Update)
	api.Delete("/items/:id", write, d.ItemHandler.Delete)
	api.Put("/items/:id/quantity", write, d.InventoryHandler.SetQuantity)
	api.Put("/items/:id/threshold", write, d.InventoryHandler.SetThreshold)
	api.Post("/brands", write, d.ItemHandler.CreateBrand)
	api.Delete("/brands/:id", write, d.ItemHandler.DeleteBrand)

	api.Get("/cart", d.CartHandler.View)
	api.Post("/cart/items", write, d.CartHandler.Add)
	api.Delete("/cart/items/:id", write, d.CartHandler.Remove)
	api.Delete("/cart", write, d.CartHandler.Clear)
	api.Put("/cart/adjustments", write, d.CartHandler.Adjust)
	api.Post("/checkout", write, d.OrderHandler.Place)

	api.Get("/sales", d.OrderHandler.List)
	api.Get("/sales/:id", d.OrderHandler.View)
	api.Delete("/sales/:id", write, d.OrderHandler.Delete)

	api.Get("/dashboard", d.DashboardHandler.API)
	api.Get("/alerts", d.InventoryHandler.Alerts)
	api.Get("/reports/stock.xlsx", write, d.InventoryHandler.Workbook)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	return app
}
