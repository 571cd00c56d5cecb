package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/pkg/utils"
)

func parseID(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// moderationError maps the engine's typed errors onto the response
// envelope. Invalid transitions and conflicts are caller-recoverable, so
// they carry the full message.
func moderationError(c *fiber.Ctx, err error) error {
	var invalid *moderation.InvalidTransitionError
	var notFound *moderation.EntityNotFoundError
	var conflict *moderation.ConcurrentModificationError
	var timeout *moderation.TimeoutError

	switch {
	case errors.As(err, &invalid):
		return utils.Error(c, fiber.StatusUnprocessableEntity, invalid.Error())
	case errors.As(err, &notFound):
		return utils.Error(c, fiber.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		return utils.Error(c, fiber.StatusConflict, conflict.Error())
	case errors.As(err, &timeout):
		return utils.Error(c, fiber.StatusGatewayTimeout, "operation timed out")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}
}

func applySearch(text string) string {
	return "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
