package handlers

import (
	"strings"

	"shelfpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart     *services.CartService
	Currency string
}

func (h *CartHandler) view(c *fiber.Ctx, sid string) error {
	return c.JSON(h.Cart.View(ownerOf(c), sid, h.Currency))
}

// GET /api/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	return h.view(c, ensureSID(c))
}

// POST /api/cart/items adds one unit.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var b struct {
		ItemID field `json:"itemId" form:"itemId"`
	}
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "cart.add", err)
	}
	id := strings.TrimSpace(string(b.ItemID))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing itemId"})
	}
	if err := h.Cart.Add(c.UserContext(), ownerOf(c), sid, id); err != nil {
		return fail(c, "cart.add", err)
	}
	return h.view(c, sid)
}

// DELETE /api/cart/items/:id removes one unit.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Cart.Remove(sid, c.Params("id"))
	return h.view(c, sid)
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Cart.Clear(sid)
	return h.view(c, sid)
}

// PUT /api/cart/adjustments
func (h *CartHandler) Adjust(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var b struct {
		Mode     field `json:"discountMode" form:"discountMode"`
		Discount field `json:"discount" form:"discount"`
		Shipping field `json:"shipping" form:"shipping"`
	}
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "cart.adjust", err)
	}
	adj, err := services.ParseAdjustments(string(b.Mode), string(b.Discount), string(b.Shipping))
	if err != nil {
		return fail(c, "cart.adjust", err)
	}
	h.Cart.SetAdjustments(sid, adj)
	return h.view(c, sid)
}
