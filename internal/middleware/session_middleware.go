package middleware

import (
	"log"
	"strings"

	"aivsai/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionRequired rejects callers without an identity. The identity comes
// from the session cookie or, for API clients, a bearer token.
// On success the user id is stored in c.Locals("user_id") and in the
// request context.
func SessionRequired(gateway *services.SessionGateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := gateway.CurrentUserID(c)
		if err != nil {
			log.Printf("Session lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Session error")
		}

		if !ok {
			userID, ok = bearerUserID(c, gateway.Auth())
		}
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("Please sign in to access this page.")
		}

		c.Locals("user_id", userID)
		c.SetUserContext(services.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func bearerUserID(c *fiber.Ctx, auth *services.AuthService) (int, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return 0, false
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return 0, false
	}

	userID, err := auth.UserIDFromToken(parts[1])
	if err != nil {
		log.Printf("JWT validation failed: %v", err)
		return 0, false
	}
	return userID, true
}

// CurrentUserID returns the id stored by SessionRequired.
func CurrentUserID(c *fiber.Ctx) (int, bool) {
	id, ok := c.Locals("user_id").(int)
	return id, ok
}
