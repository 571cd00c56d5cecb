package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maimang/backend/pkg/logger"
)

// RequestLogger tags every request with an id and logs method, path,
// status and latency on the way out.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := uuid.NewString()
		c.Locals("requestID", requestID)
		c.Set("X-Request-ID", requestID)

		start := time.Now()
		err := c.Next()

		fields := map[string]interface{}{
			"request_id": requestID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		}
		if err != nil {
			logger.Error("request_failed", err, fields)
		} else {
			logger.Info("request_completed", fields)
		}
		return err
	}
}
