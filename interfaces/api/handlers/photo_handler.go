package handlers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/queue"
	"facefolio/infrastructure/storage"
	"facefolio/pkg/logger"
	"facefolio/pkg/utils"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type PhotoHandler struct {
	galleryService services.GalleryService
	cascadeService services.CascadeService
	userRepo       repositories.UserRepository
	storage        storage.ObjectStorage
	queue          queue.IngestQueue
	rootFolder     string
}

func NewPhotoHandler(
	galleryService services.GalleryService,
	cascadeService services.CascadeService,
	userRepo repositories.UserRepository,
	objectStorage storage.ObjectStorage,
	ingestQueue queue.IngestQueue,
	rootFolder string,
) *PhotoHandler {
	return &PhotoHandler{
		galleryService: galleryService,
		cascadeService: cascadeService,
		userRepo:       userRepo,
		storage:        objectStorage,
		queue:          ingestQueue,
		rootFolder:     rootFolder,
	}
}

// Upload stores the original image under the user's media folder and queues
// an ingest task. The response returns before face processing runs; the
// worker pushes a websocket event when the pipeline finishes.
func (h *PhotoHandler) Upload(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	account, err := h.userRepo.GetByID(c.Context(), user.ID)
	if err != nil {
		return utils.NotFoundResponse(c, "User not found")
	}
	if !account.CanMutate() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}
	if account.PhotoCount >= account.MaxPhotos {
		return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Photo quota exceeded", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported image type", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Could not read uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Could not read uploaded file", err)
	}

	filename := strings.ReplaceAll(uuid.New().String(), "-", "")[:12] + ext
	key := storage.ObjectKey(h.rootFolder, user.ID, storage.CategoryMedia, filename)

	url, err := h.storage.Upload(c.Context(), key, data)
	if err != nil {
		logger.StoreError("upload_photo", "Failed to store uploaded image", err, map[string]interface{}{
			"user_id": user.ID.String(),
			"key":     key,
		})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}

	if err := h.queue.Enqueue(c.Context(), queue.IngestTask{UserID: user.ID, PhotoURL: url}); err != nil {
		logger.IngestError("enqueue", "Failed to enqueue ingest task", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		// Nothing claims the blob yet; remove it so a failed enqueue leaves
		// no trace.
		if delErr := h.storage.Delete(c.Context(), key); delErr != nil {
			logger.StoreError("upload_photo", "Failed to clean up after enqueue failure", delErr, map[string]interface{}{
				"key": key,
			})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}

	return utils.SuccessResponse(c, "File uploaded, processing queued", fiber.Map{
		"photo_url": url,
	})
}

// List returns one page of the user's gallery.
func (h *PhotoHandler) List(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	result, err := h.galleryService.ListPhotos(c.Context(), user.ID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Photos retrieved", fiber.Map{
		"photos":   result.Photos,
		"page":     result.Page,
		"has_next": result.HasNext,
	})
}

// Delete removes a photo and everything only it referenced.
func (h *PhotoHandler) Delete(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", err)
	}

	if err := h.cascadeService.DeletePhoto(c.Context(), user.ID, photoID); err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, "Photo deleted", nil)
}

// Faces lists the user's faces annotated with whether each is linked to the
// photo, linked ones first.
func (h *PhotoHandler) Faces(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", err)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	faces, hasNext, err := h.galleryService.FacesForPhoto(c.Context(), user.ID, photoID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	type faceEntry struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		FaceURL   string    `json:"face_url"`
		FaceCount int       `json:"face_count"`
		Linked    bool      `json:"linked"`
	}
	entries := make([]faceEntry, 0, len(faces))
	for _, f := range faces {
		entries = append(entries, faceEntry{
			ID:        f.Face.ID,
			Name:      f.Face.Name,
			FaceURL:   f.Face.FaceURL,
			FaceCount: f.Face.FaceCount,
			Linked:    f.Linked,
		})
	}

	return utils.SuccessResponse(c, "Faces retrieved", fiber.Map{
		"faces":    entries,
		"page":     page,
		"has_next": hasNext,
	})
}
