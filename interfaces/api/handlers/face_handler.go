package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"facefolio/domain/services"
	"facefolio/pkg/utils"
)

type FaceHandler struct {
	galleryService   services.GalleryService
	lifecycleService services.LifecycleService
	cascadeService   services.CascadeService
}

func NewFaceHandler(
	galleryService services.GalleryService,
	lifecycleService services.LifecycleService,
	cascadeService services.CascadeService,
) *FaceHandler {
	return &FaceHandler{
		galleryService:   galleryService,
		lifecycleService: lifecycleService,
		cascadeService:   cascadeService,
	}
}

type renameFaceRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type faceLinkRequest struct {
	PhotoID string `json:"photo_id" validate:"required,uuid"`
}

// List returns the user's face identities ordered by reference count.
func (h *FaceHandler) List(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	result, err := h.galleryService.ListFaces(c.Context(), user.ID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Faces retrieved", fiber.Map{
		"faces":    result.Faces,
		"page":     result.Page,
		"has_next": result.HasNext,
	})
}

func (h *FaceHandler) Get(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	faceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid face id", err)
	}

	face, err := h.galleryService.FaceDetails(c.Context(), user.ID, faceID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Face retrieved", face)
}

// Photos pages through every photo linked to one face.
func (h *FaceHandler) Photos(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	faceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid face id", err)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	result, err := h.galleryService.PhotosByFace(c.Context(), user.ID, faceID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Photos retrieved", fiber.Map{
		"photos":   result.Photos,
		"page":     result.Page,
		"has_next": result.HasNext,
	})
}

func (h *FaceHandler) Rename(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	faceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid face id", err)
	}

	var req renameFaceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.galleryService.RenameFace(c.Context(), user.ID, faceID, req.Name); err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Face renamed", nil)
}

// Delete removes the face identity, photos only it appeared in, its vector
// and its representative image.
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	faceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid face id", err)
	}

	if err := h.cascadeService.DeleteFace(c.Context(), user.ID, faceID); err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Face deleted", nil)
}

func (h *FaceHandler) Link(c *fiber.Ctx) error {
	return h.mutateLink(c, true)
}

func (h *FaceHandler) Unlink(c *fiber.Ctx) error {
	return h.mutateLink(c, false)
}

func (h *FaceHandler) mutateLink(c *fiber.Ctx, link bool) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	faceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid face id", err)
	}

	var req faceLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	photoID, err := uuid.Parse(req.PhotoID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", err)
	}

	if link {
		err = h.lifecycleService.LinkFace(c.Context(), user.ID, photoID, faceID)
	} else {
		err = h.lifecycleService.UnlinkFace(c.Context(), user.ID, photoID, faceID)
	}
	if err != nil {
		return serviceError(c, err)
	}

	if link {
		return utils.SuccessResponse(c, "Photo linked to face", nil)
	}
	return utils.SuccessResponse(c, "Photo unlinked from face", nil)
}
