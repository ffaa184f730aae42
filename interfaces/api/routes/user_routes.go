package routes

import (
	"github.com/gofiber/fiber/v2"

	"facefolio/interfaces/api/handlers"
	"facefolio/interfaces/api/middleware"
)

func SetupUserRoutes(api fiber.Router, h *handlers.Handlers) {
	users := api.Group("/users")

	users.Post("/", h.User.Create)

	users.Get("/me", middleware.Protected(), h.User.Me)
	users.Get("/me/quota", middleware.Protected(), h.User.Quota)
	users.Delete("/me", middleware.Protected(), h.User.DeleteAccount)
}
