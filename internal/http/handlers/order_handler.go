package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shelfpos/internal/log"
	"shelfpos/internal/services"
)

type OrderHandler struct {
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Sales     *services.SalesService
	Dashboard *services.DashboardService
}

// POST /api/checkout
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	owner := ownerOf(c)
	rec, err := h.Checkout.Checkout(c.UserContext(), owner, h.Cart.Cart(sid), h.Cart.Adjustments(sid))
	if err != nil {
		return fail(c, "checkout", err)
	}
	h.Cart.ResetAdjustments(sid)
	applog.Audit(c, "checkout.success", map[string]any{"sale": rec.ID, "total": rec.Total.String()})
	return c.Status(fiber.StatusCreated).JSON(h.Dashboard.SaleDetail(*rec))
}

// GET /api/sales
func (h *OrderHandler) List(c *fiber.Ctx) error {
	recs, err := h.Sales.List(c.UserContext(), ownerOf(c))
	if err != nil {
		return fail(c, "sales.list", err)
	}
	out := make([]services.SaleListView, 0, len(recs))
	for _, r := range recs {
		out = append(out, h.Dashboard.SaleView(r))
	}
	return c.JSON(fiber.Map{"sales": out})
}

// GET /api/sales/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	rec, err := h.Sales.Get(c.UserContext(), ownerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, "sales.get", err)
	}
	return c.JSON(h.Dashboard.SaleDetail(*rec))
}

// DELETE /api/sales/:id removes the record. Stock is not given back.
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.Sales.Delete(c.UserContext(), ownerOf(c), c.Params("id")); err != nil {
		return fail(c, "sales.delete", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
