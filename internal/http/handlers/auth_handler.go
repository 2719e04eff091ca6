package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/domain"
	"quickthrift/internal/log"
	"quickthrift/internal/services"
)

type AuthHandler struct {
	Session *services.SessionManager
}

func (h *AuthHandler) sessionView() fiber.Map {
	u := h.Session.CurrentUser()
	return fiber.Map{"authenticated": u != nil, "user": u, "isAdmin": u.IsAdmin()}
}

// GET /api/session
func (h *AuthHandler) Current(c *fiber.Ctx) error {
	return c.JSON(h.sessionView())
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/session/signin
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var body signInBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Enter your email and password")
	}
	u, err := h.Session.SignIn(c.UserContext(), body.Email, body.Password)
	if err != nil {
		fields := map[string]any{"email": body.Email, "reason": reason(err)}
		log.Security(c, "auth.login.fail", fields)
		return fail(c, "auth.login.error", err)
	}
	c.Locals("user", u)
	log.Audit(c, "auth.login.success", map[string]any{"email": u.Email})
	return c.JSON(h.sessionView())
}

// POST /api/session/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var p domain.Profile
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "Fill in all sign-up fields")
	}
	u, err := h.Session.SignUp(c.UserContext(), p)
	if err != nil {
		log.Security(c, "auth.signup.fail", map[string]any{"email": p.Email, "reason": reason(err)})
		return fail(c, "auth.signup.error", err)
	}
	c.Locals("user", u)
	log.Audit(c, "auth.signup.success", map[string]any{"email": u.Email})
	return c.Status(fiber.StatusCreated).JSON(h.sessionView())
}

// POST /api/session/signout
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if err := h.Session.SignOut(); err != nil {
		// the in-memory session is already cleared
		log.Error(c, "auth.logout.store", err, nil)
	}
	log.Audit(c, "auth.logout", nil)
	return c.JSON(h.sessionView())
}

func reason(err error) string {
	var ve *services.ValidationError
	var ae *services.AuthError
	switch {
	case errors.As(err, &ve):
		return "bad_format"
	case errors.As(err, &ae):
		return ae.Kind.String()
	case errors.Is(err, services.ErrAuthInProgress):
		return "in_progress"
	default:
		return "error"
	}
}
