package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/notify"
	"github.com/maimang/backend/pkg/utils"
)

// NotificationsHandler is stateless: resolution works purely off the
// posted payload.
type NotificationsHandler struct{}

func NewNotificationsHandler() *NotificationsHandler {
	return &NotificationsHandler{}
}

// Resolve maps one notification payload to a navigation target. A payload
// with nothing recognizable resolves to a null target, not an error.
func (h *NotificationsHandler) Resolve(c *fiber.Ctx) error {
	var rec notify.Record
	if err := json.Unmarshal(c.Body(), &rec); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	target := notify.Resolve(rec)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"target": target})
}
