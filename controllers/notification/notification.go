package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/services"
)

const defaultLimit = 50

type Handler struct {
	Notifications *services.NotificationService
}

func (h *Handler) List(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	limit := c.QueryInt("limit", defaultLimit)
	ns, err := h.Notifications.List(c.UserContext(), me.ID, limit)
	if err != nil {
		return helpers.Fail(c, err)
	}
	unread := 0
	for _, n := range ns {
		if !n.IsRead {
			unread++
		}
	}
	return helpers.JSONSuccess(c, "Notifications retrieved successfully", fiber.Map{
		"items":  ns,
		"unread": unread,
	})
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	me, _ := middlewares.CurrentMember(c)
	n, err := h.Notifications.MarkAllRead(c.UserContext(), me.ID)
	if err != nil {
		return helpers.Fail(c, err)
	}
	return helpers.JSONSuccess(c, "Notifications marked as read", fiber.Map{"updated": n})
}
