package handler

import (
	"errors"

	"same-inventory/internal/blob"
	"same-inventory/internal/middleware"
	"same-inventory/internal/service"
	"same-inventory/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	var authErr *service.AuthError

	switch {
	case errors.As(err, &verr):
		return c.Status(422).JSON(fiber.Map{"error": "Validation failed", "fields": verr.Fields})
	case errors.As(err, &authErr):
		return c.Status(authErr.Status).JSON(fiber.Map{"error": authErr.Message})
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrSaleNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrScanInProgress):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrTransactionFailed):
		return c.Status(503).JSON(fiber.Map{"error": service.ErrTransactionFailed.Error()})
	case errors.Is(err, blob.ErrTooLarge):
		return c.Status(413).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, blob.ErrNotImage):
		return c.Status(415).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, blob.ErrEmpty):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// scopeOf is the tenant scope of the authenticated request.
func scopeOf(c *fiber.Ctx) session.Scope {
	if sess := middleware.SessionFrom(c); sess != nil {
		return sess.Scope()
	}
	return session.Scope{}
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
