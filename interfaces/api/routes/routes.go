package routes

import (
	"github.com/gofiber/fiber/v2"

	"facefolio/interfaces/api/handlers"
	"facefolio/interfaces/api/middleware"
	"facefolio/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, cfg *config.Config) {
	SetupHealthRoutes(app, h)

	// API version group
	api := app.Group("/api/v1")
	api.Use(middleware.RateLimiter(&cfg.RateLimit))

	SetupUserRoutes(api, h)
	SetupPhotoRoutes(api, h, cfg)
	SetupFaceRoutes(api, h)

	// WebSocket routes attach to the app, not the api group
	SetupWebSocketRoutes(app)
}
