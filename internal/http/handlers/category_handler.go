package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories.fail", err)
	}
	return c.JSON(cats)
}

// GET /api/categories/:name/products?sub=
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	ps, err := h.Catalog.Search(c.UserContext(), "", name, strings.TrimSpace(c.Query("sub")))
	if err != nil {
		return fail(c, "catalog.category.fail", err)
	}
	return c.JSON(fiber.Map{"category": name, "products": ps, "count": len(ps)})
}
