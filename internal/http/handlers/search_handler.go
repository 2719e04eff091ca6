package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/log"
	"quickthrift/internal/services"
	"quickthrift/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// GET /api/search?q=&main=&sub=
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	q := ""
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			return badRequest(c, "Enter a valid keyword (letters/numbers only)")
		}
	}
	main := strings.TrimSpace(c.Query("main"))
	sub := strings.TrimSpace(c.Query("sub"))
	for field, v := range map[string]string{"main": main, "sub": sub} {
		if _, ok := validate.Name(v, 40); v != "" && !ok {
			log.Security(c, "validation.fail", map[string]any{"field": field})
			return badRequest(c, "Invalid category")
		}
	}

	ps, err := h.Catalog.Search(c.UserContext(), q, main, sub)
	if err != nil {
		return fail(c, "search.error", err)
	}
	return c.JSON(fiber.Map{"q": q, "products": ps, "count": len(ps)})
}
