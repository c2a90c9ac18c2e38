package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shelfpos/internal/analytics"
	applog "shelfpos/internal/log"
	"shelfpos/internal/services"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
	Carts     *services.CartService
	Currency  string
}

func (h *DashboardHandler) build(c *fiber.Ctx) (services.Dashboard, error) {
	p, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "period", "value": c.Query("period")})
		return services.Dashboard{}, fiber.NewError(fiber.StatusBadRequest, "unknown period")
	}
	return h.Dashboard.Build(c.UserContext(), ownerOf(c), p)
}

// GET /api/dashboard?period=
func (h *DashboardHandler) API(c *fiber.Ctx) error {
	d, err := h.build(c)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	if err != nil {
		return fail(c, "dashboard", err)
	}
	return c.JSON(d)
}

// GET /
func (h *DashboardHandler) Page(c *fiber.Ctx) error {
	d, err := h.build(c)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).Render("notfound", fiber.Map{"Message": fe.Message})
	}
	if err != nil {
		applog.Error(c, "dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": genericError})
	}
	return render(c, "dashboard", fiber.Map{
		"Dashboard": d,
		"Cart":      h.Carts.View(ownerOf(c), ensureSID(c), h.Currency),
	})
}
