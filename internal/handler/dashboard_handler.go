package handler

import (
	"same-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext(), scopeOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetAlerts returns the low stock and expiring soon lists with the badge count
func (h *DashboardHandler) GetAlerts(c *fiber.Ctx) error {
	report, err := h.service.GetAlerts(c.UserContext(), scopeOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
