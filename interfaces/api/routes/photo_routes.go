package routes

import (
	"github.com/gofiber/fiber/v2"

	"facefolio/interfaces/api/handlers"
	"facefolio/interfaces/api/middleware"
	"facefolio/pkg/config"
)

func SetupPhotoRoutes(api fiber.Router, h *handlers.Handlers, cfg *config.Config) {
	photos := api.Group("/photos", middleware.Protected())

	photos.Post("/upload", middleware.UploadRateLimiter(&cfg.RateLimit), h.Photo.Upload)
	photos.Get("/", h.Photo.List)
	photos.Delete("/:id", h.Photo.Delete)
	photos.Get("/:id/faces", h.Photo.Faces)
}
