package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/pkg/utils"
)

type UserHandler struct {
	userRepo       repositories.UserRepository
	cascadeService services.CascadeService
}

func NewUserHandler(userRepo repositories.UserRepository, cascadeService services.CascadeService) *UserHandler {
	return &UserHandler{
		userRepo:       userRepo,
		cascadeService: cascadeService,
	}
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if existing, err := h.userRepo.GetByEmail(c.Context(), req.Email); err == nil && existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email already registered", nil)
	}

	user := &models.User{
		ID:            uuid.New(),
		Name:          req.Name,
		Email:         req.Email,
		AccountStatus: models.AccountStatusActive,
	}
	if err := h.userRepo.Create(c.Context(), user); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", nil)
	}

	return utils.CreatedResponse(c, "User created", user)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userCtx, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	user, err := h.userRepo.GetByID(c.Context(), userCtx.ID)
	if err != nil {
		return utils.NotFoundResponse(c, "User not found")
	}

	return utils.SuccessResponse(c, "Profile retrieved", user)
}

// Quota reports whether the user can still upload.
func (h *UserHandler) Quota(c *fiber.Ctx) error {
	userCtx, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	user, err := h.userRepo.GetByID(c.Context(), userCtx.ID)
	if err != nil {
		return utils.NotFoundResponse(c, "User not found")
	}

	return utils.SuccessResponse(c, "Quota retrieved", fiber.Map{
		"photo_count":        user.PhotoCount,
		"max_photos":         user.MaxPhotos,
		"max_photos_reached": user.PhotoCount >= user.MaxPhotos,
	})
}

// DeleteAccount removes the user and everything they own across all stores.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userCtx, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	if err := h.cascadeService.DeleteUser(c.Context(), userCtx.ID); err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Account deleted", nil)
}
