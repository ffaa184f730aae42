package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"facefolio/domain/services"
	"facefolio/pkg/utils"
)

// serviceError maps the closed set of business outcomes to HTTP responses.
// Store failures stay opaque: the caller learns the operation failed, not
// which store broke.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, services.ErrQuotaExceeded):
		return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Photo quota exceeded", err)
	case errors.Is(err, services.ErrAccountInactive):
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", err)
	}

	var storeErr *services.StoreError
	if errors.As(err, &storeErr) {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Operation failed", nil)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Operation failed", nil)
}
