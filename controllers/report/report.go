package report

import (
	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/services"
)

type Handler struct {
	Reports *services.ReportService
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Reports.Dashboard(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Dashboard retrieved successfully", d)
}
