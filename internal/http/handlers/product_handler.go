package handlers

import (
	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/log"
	"quickthrift/internal/services"
	"quickthrift/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.Products(c.UserContext())
	if err != nil {
		return fail(c, "catalog.list.fail", err)
	}
	return c.JSON(fiber.Map{"products": ps, "count": len(ps)})
}

// GET /api/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, found, err := h.Catalog.Product(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.detail.fail", err)
	}
	if !found {
		return notFound(c, "This item is no longer available")
	}
	return c.JSON(p)
}
