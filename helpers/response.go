package helpers

import (
	"github.com/gofiber/fiber/v2"
)

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONCreated(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONError(c *fiber.Ctx, message string) error {
	return JSONErrorStatus(c, fiber.StatusBadRequest, message, "")
}

// JSONErrorStatus is JSONError with an explicit status and an optional
// human-readable detail.
func JSONErrorStatus(c *fiber.Ctx, status int, message, detail string) error {
	body := fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	}
	if detail != "" {
		body["detail"] = detail
	}
	return c.Status(status).JSON(body)
}
