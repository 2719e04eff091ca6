package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "quickthrift/internal/log"
	"quickthrift/internal/services"
)

// GenericError is the only text a client sees for unexpected failures.
const GenericError = "Something went wrong. Please try again."

// fail maps a manager error to a status and a user-facing JSON body.
// Unexpected errors are logged and replaced by GenericError.
func fail(c *fiber.Ctx, action string, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "rules": ve.Rules})
	}
	if errors.Is(err, services.ErrAuthInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Sign-in already in progress"})
	}
	var ae *services.AuthError
	if errors.As(err, &ae) {
		return c.Status(authStatus(ae.Kind)).JSON(fiber.Map{"error": ae.Error()})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": GenericError})
}

func authStatus(k services.AuthKind) int {
	switch k {
	case services.InvalidCredentials, services.NotSignedIn:
		return fiber.StatusUnauthorized
	case services.Forbidden:
		return fiber.StatusForbidden
	case services.DuplicateUser:
		return fiber.StatusConflict
	case services.ServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler is the app-wide fallback for errors no handler mapped.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": GenericError})
}
