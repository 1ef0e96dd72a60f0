package middleware

import (
	"log"
	"strings"

	"filehub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// callerKey is the fiber.Ctx local holding the authenticated *services.Caller.
const callerKey = "caller"

// Authenticator resolves a bearer token to a caller.
type Authenticator interface {
	Authenticate(accessToken string) (*services.Caller, error)
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", "Authentication credentials were not provided."
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "") {
		return "", "Authorization header format must be 'Bearer <token>'"
	}
	return parts[1], ""
}

// AuthRequired rejects requests without a valid access token and stores the
// caller for subsequent handlers.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, problem := bearerToken(c)
		if problem != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": problem})
		}

		caller, err := auth.Authenticate(token)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// OptionalAuth stores the caller when a valid access token is presented and
// lets every request through.
func OptionalAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, problem := bearerToken(c); problem == "" {
			if caller, err := auth.Authenticate(token); err == nil {
				c.Locals(callerKey, caller)
			} else {
				log.Printf("Ignoring invalid token on open route %s: %v", c.Path(), err)
			}
		}
		return c.Next()
	}
}

// CallerFrom returns the caller stored by AuthRequired or OptionalAuth, or
// nil for anonymous requests.
func CallerFrom(c *fiber.Ctx) *services.Caller {
	caller, _ := c.Locals(callerKey).(*services.Caller)
	return caller
}
