package handlers

import (
	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/services"
	"quickthrift/internal/validate"
)

type CartHandler struct {
	Cart    *services.CartManager
	Catalog *services.CatalogService
}

func (h *CartHandler) view(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": h.Cart.Items(), "totals": h.Cart.Totals()})
}

// GET /api/bag
func (h *CartHandler) View(c *fiber.Ctx) error {
	return h.view(c)
}

type addBody struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// POST /api/bag/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var body addBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "missing productId")
	}
	id, ok := validate.ID(body.ProductID)
	if !ok {
		return badRequest(c, "missing productId")
	}
	p, found, err := h.Catalog.Product(c.UserContext(), id)
	if err != nil {
		return fail(c, "cart.add.lookup", err)
	}
	if !found {
		return notFound(c, "This item is no longer available")
	}
	if err := h.Cart.AddItem(p.ID, p.Name, p.Price, p.ImageRef, validate.ClampQty(body.Qty)); err != nil {
		return fail(c, "cart.add.fail", err)
	}
	return h.view(c)
}

type qtyBody struct {
	Qty *int `json:"qty"`
}

// PATCH /api/bag/items/:id; qty below 1 removes the line.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	var body qtyBody
	if err := c.BodyParser(&body); err != nil || body.Qty == nil {
		return badRequest(c, "missing qty")
	}
	n := *body.Qty
	if n > validate.MaxQty {
		n = validate.MaxQty
	}
	if err := h.Cart.SetQuantity(c.Params("id"), n); err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return h.view(c)
}

// DELETE /api/bag/items/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.Cart.RemoveItem(c.Params("id")); err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return h.view(c)
}

// DELETE /api/bag
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(); err != nil {
		return fail(c, "cart.clear.fail", err)
	}
	return h.view(c)
}
