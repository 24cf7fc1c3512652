package handler

import (
	"same-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

const logoField = "logo"

type SettingsHandler struct {
	service service.SettingsService
}

func NewSettingsHandler(s service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: s}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.UserContext(), scopeOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// UpdateSettings merges the supplied fields; omitted fields keep their value
// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch service.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	settings, err := h.service.Update(c.UserContext(), scopeOf(c), &patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings saved", "data": settings})
}

// UploadLogo stores a multipart image under the "logo" field
// POST /api/v1/settings/logo
func (h *SettingsHandler) UploadLogo(c *fiber.Ctx) error {
	header, err := c.FormFile(logoField)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Missing file field '" + logoField + "'"})
	}

	file, err := header.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Unreadable upload"})
	}
	defer file.Close()

	settings, err := h.service.UploadLogo(c.UserContext(), scopeOf(c), file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logo uploaded", "data": settings})
}
