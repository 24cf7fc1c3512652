package handler

import (
	"same-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CashFlowHandler struct {
	service service.CashFlowService
}

func NewCashFlowHandler(s service.CashFlowService) *CashFlowHandler {
	return &CashFlowHandler{service: s}
}

// GetSummary returns the entries of the period and their totals
// Query params: period = day | month | year (default month)
func (h *CashFlowHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), scopeOf(c), c.Query("period"))
	if err != nil {
		if verr, ok := err.(*service.ValidationError); ok {
			return c.Status(400).JSON(fiber.Map{"error": "period must be one of day, month, year", "fields": verr.Fields})
		}
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *CashFlowHandler) CreateEntry(c *fiber.Ctx) error {
	var req service.CashFlowInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	entry, err := h.service.CreateEntry(c.UserContext(), scopeOf(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Entry recorded", "data": entry})
}
