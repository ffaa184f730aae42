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

type LifecycleServiceImpl struct {
	photoRepo   repositories.PhotoRepository
	faceRepo    repositories.FaceRepository
	galleryRepo repositories.GalleryRepository
	storage     storage.ObjectStorage
	index       vectorindex.VectorIndex
}

func NewLifecycleService(
	photoRepo repositories.PhotoRepository,
	faceRepo repositories.FaceRepository,
	galleryRepo repositories.GalleryRepository,
	objectStorage storage.ObjectStorage,
	index vectorindex.VectorIndex,
) services.LifecycleService {
	return &LifecycleServiceImpl{
		photoRepo:   photoRepo,
		faceRepo:    faceRepo,
		galleryRepo: galleryRepo,
		storage:     objectStorage,
		index:       index,
	}
}

// LinkFace associates a photo with a face identity. Linking an already-linked
// pair succeeds without mutation.
func (s *LifecycleServiceImpl) LinkFace(ctx context.Context, userID, photoID, faceID uuid.UUID) error {
	if userID == uuid.Nil || photoID == uuid.Nil || faceID == uuid.Nil {
		return services.ErrValidation
	}

	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return services.NewStoreError("link_face", mapNotFound(err))
	}
	face, err := s.faceRepo.GetByID(ctx, faceID)
	if err != nil {
		return services.NewStoreError("link_face", mapNotFound(err))
	}
	if photo.UserID != userID || face.UserID != userID {
		return services.ErrNotFound
	}

	linked, err := s.galleryRepo.LinkPhotoFace(ctx, photoID, faceID)
	if err != nil {
		return services.NewStoreError("link_face", err)
	}
	if linked {
		logger.Face("linked", "Photo linked to face", map[string]interface{}{
			"photo_id": photoID.String(),
			"face_id":  faceID.String(),
		})
	}
	return nil
}

// UnlinkFace removes the association and decrements the face's reference
// count. When the count reaches zero the face is garbage-collected: row and
// associations in one transaction, then vector and representative image,
// every external delete idempotent. Unlinking an absent pair succeeds.
func (s *LifecycleServiceImpl) UnlinkFace(ctx context.Context, userID, photoID, faceID uuid.UUID) error {
	if userID == uuid.Nil || photoID == uuid.Nil || faceID == uuid.Nil {
		return services.ErrValidation
	}

	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		if mapNotFound(err) == services.ErrNotFound {
			// Pair cannot exist; unlink is a no-op.
			return nil
		}
		return services.NewStoreError("unlink_face", err)
	}
	if photo.UserID != userID {
		return services.ErrNotFound
	}

	result, err := s.galleryRepo.UnlinkPhotoFace(ctx, photoID, faceID)
	if err != nil {
		return services.NewStoreError("unlink_face", err)
	}

	if result.Collected != nil {
		logger.Face("collected", "Face reference count reached zero, collecting", map[string]interface{}{
			"face_id":  faceID.String(),
			"photo_id": photoID.String(),
		})
		if err := executeCascadePlan(ctx, s.storage, s.index, result.Collected, "unlink_gc"); err != nil {
			return services.NewStoreError("unlink_gc", err)
		}
	}
	return nil
}
