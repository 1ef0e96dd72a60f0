package handlers

import (
	"errors"
	"log"

	"filehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// invalidData is the top-level message of every 400 carrying field detail.
const invalidData = "Invalid data provided"

// badRequest answers 400 with field-level detail when err is a validation
// error, and with msg alone otherwise.
func badRequest(c *fiber.Ctx, msg string, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   invalidData,
			"details": verr.Fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// isValidation reports whether err carries field-level validation detail.
func isValidation(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr)
}

// serverError logs err and answers 500 with a generic message.
func serverError(c *fiber.Ctx, msg string, err error) error {
	log.Printf("%s: %v", msg, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
