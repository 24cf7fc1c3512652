package middleware

import (
	"context"
	"errors"
	"strings"

	"same-inventory/internal/service"
	"same-inventory/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const sessionKey = "session"

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// ModuleChecker reports a tenant's module toggle.
type ModuleChecker interface {
	ModuleEnabled(ctx context.Context, scope session.Scope, module string) (bool, error)
}

// RequireAuth is middleware that validates the bearer token and stores the
// session in the request context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		sess, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			var authErr *service.AuthError
			if errors.As(err, &authErr) {
				return c.Status(401).JSON(fiber.Map{"error": authErr.Message})
			}
			log.Error().Err(err).Msg("authenticate request")
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by RequireAuth, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionKey).(*session.Session)
	return sess
}

// RequireModule rejects requests when the tenant switched module off.
// Must run after RequireAuth.
func RequireModule(checker ModuleChecker, module string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		enabled, err := checker.ModuleEnabled(c.UserContext(), sess.Scope(), module)
		if err != nil {
			log.Error().Err(err).Str("module", module).Msg("read module toggle")
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if !enabled {
			return c.Status(403).JSON(fiber.Map{"error": "Module '" + module + "' is disabled"})
		}
		return c.Next()
	}
}
