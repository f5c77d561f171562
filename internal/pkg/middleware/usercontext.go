package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/usercontext"
)

// UserContextMiddleware seeds an anonymous user context for every request so
// handlers can call usercontext.GetUserContext without nil checks. Routes
// behind APIKeyAuthMiddleware overwrite it with the authenticated user.
func UserContextMiddleware(c *fiber.Ctx) error {
	if c.Locals("USER_CONTEXT") == nil {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
	}
	return c.Next()
}
