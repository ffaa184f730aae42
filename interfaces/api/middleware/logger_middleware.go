package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"facefolio/pkg/logger"
)

// LoggerMiddleware logs every request with latency and status code.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		logger.Info(logger.CategoryAPI, "request", "Request handled", map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})

		return err
	}
}
