package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	applog "shelfpos/internal/log"
	"shelfpos/internal/report"
	"shelfpos/internal/services"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventoryHandler struct {
	Catalog   *services.CatalogService
	Dashboard *services.DashboardService
	Currency  string
}

// PUT /api/items/:id/quantity
func (h *InventoryHandler) SetQuantity(c *fiber.Ctx) error {
	var b struct {
		Quantity field `json:"quantity" form:"quantity"`
	}
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "inventory.quantity", err)
	}
	id := c.Params("id")
	if err := h.Catalog.SetQuantity(c.UserContext(), ownerOf(c), id, string(b.Quantity)); err != nil {
		return fail(c, "inventory.quantity", err)
	}
	applog.Audit(c, "inventory.quantity", map[string]any{"item": id, "quantity": string(b.Quantity)})
	return c.SendStatus(fiber.StatusNoContent)
}

// PUT /api/items/:id/threshold
func (h *InventoryHandler) SetThreshold(c *fiber.Ctx) error {
	var b struct {
		Threshold field `json:"lowStockThreshold" form:"lowStockThreshold"`
	}
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "inventory.threshold", err)
	}
	id := c.Params("id")
	if err := h.Catalog.SetThreshold(c.UserContext(), ownerOf(c), id, string(b.Threshold)); err != nil {
		return fail(c, "inventory.threshold", err)
	}
	applog.Audit(c, "inventory.threshold", map[string]any{"item": id, "threshold": string(b.Threshold)})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/alerts
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	v, err := h.Dashboard.Alerts(c.UserContext(), ownerOf(c))
	if err != nil {
		return fail(c, "alerts", err)
	}
	return c.JSON(v)
}

// GET /api/reports/stock.xlsx
func (h *InventoryHandler) Workbook(c *fiber.Ctx) error {
	owner := ownerOf(c)
	rank, err := h.Dashboard.Rankings(c.UserContext(), owner)
	if err != nil {
		return fail(c, "report.stock", err)
	}
	stock, err := h.Dashboard.StockReport(c.UserContext(), owner)
	if err != nil {
		return fail(c, "report.stock", err)
	}
	var buf bytes.Buffer
	if err := report.StockWorkbook(&buf, stock, rank, h.Currency); err != nil {
		return fail(c, "report.stock", err)
	}
	applog.Info(c, "report.stock", map[string]any{"bytes": buf.Len()})
	c.Set(fiber.HeaderContentType, xlsxType)
	c.Attachment("stock.xlsx")
	return c.Send(buf.Bytes())
}
