package handler

import (
	"context"

	"same-inventory/internal/model"
	"same-inventory/internal/scan"
	"same-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

// DeviceHeader identifies the scanner a sale came from. Requests sharing a
// device id are processed one at a time and duplicates are rejected.
const DeviceHeader = "X-Device-ID"

type SalesHandler struct {
	service service.SalesService
	guard   scan.Guard
}

func NewSalesHandler(s service.SalesService, guard scan.Guard) *SalesHandler {
	return &SalesHandler{service: s, guard: guard}
}

// CreateSale records a sale by product code
// POST /api/v1/sales
func (h *SalesHandler) CreateSale(c *fiber.Ctx) error {
	var req service.SaleInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	scope := scopeOf(c)
	record := func(ctx context.Context) (*model.Sale, error) {
		return h.service.RecordSale(ctx, scope, req.Code, req.Quantity)
	}

	var sale *model.Sale
	var err error
	if device := c.Get(DeviceHeader); device != "" {
		sale, err = scan.Do(c.UserContext(), h.guard, scope.String()+":"+device, record)
	} else {
		sale, err = record(c.UserContext())
	}
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Sale recorded", "data": sale})
}

func (h *SalesHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.ListSales(c.UserContext(), scopeOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sales)
}

func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	saleID, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	sale, err := h.service.GetSale(c.UserContext(), scopeOf(c), saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}
