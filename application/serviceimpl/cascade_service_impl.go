package serviceimpl

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
	"facefolio/pkg/logger"
)

type CascadeServiceImpl struct {
	userRepo    repositories.UserRepository
	galleryRepo repositories.GalleryRepository
	storage     storage.ObjectStorage
	index       vectorindex.VectorIndex
}

func NewCascadeService(
	userRepo repositories.UserRepository,
	galleryRepo repositories.GalleryRepository,
	objectStorage storage.ObjectStorage,
	index vectorindex.VectorIndex,
) services.CascadeService {
	return &CascadeServiceImpl{
		userRepo:    userRepo,
		galleryRepo: galleryRepo,
		storage:     objectStorage,
		index:       index,
	}
}

// DeletePhoto removes one photo: the relational cascade commits first
// (associations, orphaned faces, photo row), then the planned blob and
// vector deletions run, then the owner's photo_count drops. The counter is
// adjusted even when an external delete failed, since the rows are gone.
func (s *CascadeServiceImpl) DeletePhoto(ctx context.Context, userID, photoID uuid.UUID) error {
	if userID == uuid.Nil || photoID == uuid.Nil {
		return services.ErrValidation
	}

	plan, err := s.galleryRepo.DeletePhotoCascade(ctx, photoID, userID)
	if err != nil {
		return services.NewStoreError("delete_photo", mapNotFound(err))
	}

	externalErr := executeCascadePlan(ctx, s.storage, s.index, plan, "delete_photo")

	if plan.PhotosRemoved > 0 {
		if err := s.userRepo.DecrementPhotoCount(ctx, userID, plan.PhotosRemoved); err != nil {
			logger.StoreError("delete_photo", "Failed to decrement photo count", err, map[string]interface{}{
				"user_id": userID.String(),
			})
			if externalErr == nil {
				externalErr = err
			}
		}
	}

	if externalErr != nil {
		return services.NewStoreError("delete_photo", externalErr)
	}

	logger.Store("photo_deleted", "Photo cascade completed", map[string]interface{}{
		"photo_id":        photoID.String(),
		"user_id":         userID.String(),
		"faces_collected": len(plan.VectorIDs),
	})
	return nil
}

// DeleteFace removes a face identity, photos linked only to it, and the
// face's vector and representative image.
func (s *CascadeServiceImpl) DeleteFace(ctx context.Context, userID, faceID uuid.UUID) error {
	if userID == uuid.Nil || faceID == uuid.Nil {
		return services.ErrValidation
	}

	plan, err := s.galleryRepo.DeleteFaceCascade(ctx, faceID, userID)
	if err != nil {
		return services.NewStoreError("delete_face", mapNotFound(err))
	}

	externalErr := executeCascadePlan(ctx, s.storage, s.index, plan, "delete_face")

	if plan.PhotosRemoved > 0 {
		if err := s.userRepo.DecrementPhotoCount(ctx, userID, plan.PhotosRemoved); err != nil {
			logger.StoreError("delete_face", "Failed to decrement photo count", err, map[string]interface{}{
				"user_id": userID.String(),
			})
			if externalErr == nil {
				externalErr = err
			}
		}
	}

	if externalErr != nil {
		return services.NewStoreError("delete_face", externalErr)
	}

	logger.Store("face_deleted", "Face cascade completed", map[string]interface{}{
		"face_id":        faceID.String(),
		"user_id":        userID.String(),
		"photos_removed": plan.PhotosRemoved,
	})
	return nil
}

// DeleteUser removes everything the user owns. After the relational cascade
// commits, all blob URLs collected from the rows are deleted and the user's
// whole vector namespace is dropped in one call.
func (s *CascadeServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return services.ErrValidation
	}

	plan, err := s.galleryRepo.DeleteUserCascade(ctx, userID)
	if err != nil {
		return services.NewStoreError("delete_user", mapNotFound(err))
	}

	var externalErr error

	keys := make([]string, 0, len(plan.ObjectURLs))
	for _, url := range plan.ObjectURLs {
		key, keyErr := s.storage.KeyForURL(url)
		if keyErr != nil {
			logger.StoreError("delete_user", "Unresolvable object URL in cascade plan", keyErr, map[string]interface{}{
				"url": url,
			})
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		if err := s.storage.Delete(ctx, keys...); err != nil {
			logger.StoreError("delete_user", "Object deletions failed", err, map[string]interface{}{
				"user_id": userID.String(),
				"keys":    len(keys),
			})
			externalErr = err
		}
	}

	if err := s.index.DeleteNamespace(ctx, userID); err != nil {
		logger.VectorError("delete_user", "Namespace deletion failed", err, map[string]interface{}{
			"user_id": userID.String(),
		})
		if externalErr == nil {
			externalErr = err
		}
	}

	if externalErr != nil {
		return services.NewStoreError("delete_user", externalErr)
	}

	logger.Store("user_deleted", "User cascade completed", map[string]interface{}{
		"user_id":        userID.String(),
		"photos_removed": plan.PhotosRemoved,
		"faces_removed":  len(plan.VectorIDs),
	})
	return nil
}
