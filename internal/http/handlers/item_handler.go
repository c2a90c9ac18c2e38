package handlers

import (
	applog "shelfpos/internal/log"
	"shelfpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	Catalog  *services.CatalogService
	Currency string
}

type itemBody struct {
	Name      field `json:"name" form:"name"`
	Price     field `json:"price" form:"price"`
	Cost      field `json:"cost" form:"cost"`
	Quantity  field `json:"quantity" form:"quantity"`
	Brand     field `json:"brand" form:"brand"`
	Threshold field `json:"lowStockThreshold" form:"lowStockThreshold"`
}

func (b itemBody) input() services.ItemInput {
	return services.ItemInput{
		Name:      string(b.Name),
		Price:     string(b.Price),
		Cost:      string(b.Cost),
		Quantity:  string(b.Quantity),
		Brand:     string(b.Brand),
		Threshold: string(b.Threshold),
	}
}

// GET /api/catalog?brand=
func (h *ItemHandler) List(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot(c.UserContext(), ownerOf(c)).ByBrand(c.Query("brand"))
	return c.JSON(services.NewCatalogView(snap, h.Currency))
}

// POST /api/items
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var b itemBody
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "item.create", err)
	}
	it, err := h.Catalog.CreateItem(c.UserContext(), ownerOf(c), b.input())
	if err != nil {
		return fail(c, "item.create", err)
	}
	applog.Audit(c, "item.create", map[string]any{"item": it.ID, "name": it.Name})
	return c.Status(fiber.StatusCreated).JSON(services.NewItemView(*it, h.Currency))
}

// PUT /api/items/:id
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var b itemBody
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "item.update", err)
	}
	it, err := h.Catalog.UpdateItem(c.UserContext(), ownerOf(c), c.Params("id"), b.input())
	if err != nil {
		return fail(c, "item.update", err)
	}
	applog.Audit(c, "item.update", map[string]any{"item": it.ID})
	return c.JSON(services.NewItemView(*it, h.Currency))
}

// DELETE /api/items/:id
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteItem(c.UserContext(), ownerOf(c), id); err != nil {
		return fail(c, "item.delete", err)
	}
	applog.Audit(c, "item.delete", map[string]any{"item": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/brands
func (h *ItemHandler) CreateBrand(c *fiber.Ctx) error {
	var b struct {
		Name field `json:"name" form:"name"`
	}
	if err := c.BodyParser(&b); err != nil {
		return badBody(c, "brand.create", err)
	}
	br, err := h.Catalog.CreateBrand(c.UserContext(), ownerOf(c), string(b.Name))
	if err != nil {
		return fail(c, "brand.create", err)
	}
	applog.Audit(c, "brand.create", map[string]any{"brand": br.ID, "name": br.Name})
	return c.Status(fiber.StatusCreated).JSON(services.BrandView{ID: br.ID, Name: br.Name})
}

// DELETE /api/brands/:id
func (h *ItemHandler) DeleteBrand(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteBrand(c.UserContext(), ownerOf(c), id); err != nil {
		return fail(c, "brand.delete", err)
	}
	applog.Audit(c, "brand.delete", map[string]any{"brand": id})
	return c.SendStatus(fiber.StatusNoContent)
}
