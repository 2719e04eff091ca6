package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "quickthrift/internal/log"
	"quickthrift/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// POST /api/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	o, err := h.Orders.Checkout(c.UserContext())
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"reason": reason(err)})
		return fail(c, "order.place.error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

// GET /api/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History()
	if err != nil {
		return fail(c, "orders.history.fail", err)
	}
	return c.JSON(orders)
}

// GET /api/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid := c.Params("id")
	o, found, err := h.Orders.Order(oid)
	if err != nil {
		return fail(c, "orders.view.fail", err)
	}
	if !found {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return notFound(c, "Order not found")
	}
	return c.JSON(o)
}
