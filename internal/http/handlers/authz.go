package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "quickthrift/internal/log"
	"quickthrift/internal/services"
)

// AttachUser puts the signed-in user in locals so log lines carry user_id.
func AttachUser(sess *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u := sess.CurrentUser(); u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	}
}

// RequireUser rejects requests made while signed out.
func RequireUser(sess *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := sess.CurrentUser()
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrNotSignedIn.Error()})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdmin rejects anyone whose role is not admin.
func RequireAdmin(sess *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := sess.CurrentUser()
		if u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "signed_out"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrNotSignedIn.Error()})
		}
		c.Locals("user", u)
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": string(u.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}
		return c.Next()
	}
}
