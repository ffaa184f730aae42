package routes

import (
	"github.com/gofiber/fiber/v2"

	"facefolio/interfaces/api/handlers"
	"facefolio/interfaces/api/middleware"
)

func SetupFaceRoutes(api fiber.Router, h *handlers.Handlers) {
	faces := api.Group("/faces", middleware.Protected())

	faces.Get("/", h.Face.List)
	faces.Get("/:id", h.Face.Get)
	faces.Get("/:id/photos", h.Face.Photos)
	faces.Put("/:id/name", h.Face.Rename)
	faces.Delete("/:id", h.Face.Delete)
	faces.Post("/:id/link", h.Face.Link)
	faces.Post("/:id/unlink", h.Face.Unlink)
}
