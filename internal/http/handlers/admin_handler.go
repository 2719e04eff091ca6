package handlers

import (
	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/repos"
	"quickthrift/internal/services"
)

type AdminHandler struct {
	Catalog   *services.CatalogService
	OrderRepo *repos.OrderRepo
}

// POST /api/admin/products
func (h *AdminHandler) AddProduct(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return badRequest(c, "invalid product")
	}
	created, err := h.Catalog.AddProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "admin.product.add.fail", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GET /api/admin/orders lists every order recorded on this client.
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	orders, err := h.OrderRepo.List()
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load orders"})
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(orders)
}
