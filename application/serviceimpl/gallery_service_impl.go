package serviceimpl

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/domain/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxFaceNameLen  = 50
)

type GalleryServiceImpl struct {
	photoRepo repositories.PhotoRepository
	faceRepo  repositories.FaceRepository
}

func NewGalleryService(photoRepo repositories.PhotoRepository, faceRepo repositories.FaceRepository) services.GalleryService {
	return &GalleryServiceImpl{
		photoRepo: photoRepo,
		faceRepo:  faceRepo,
	}
}

func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

func (s *GalleryServiceImpl) ListPhotos(ctx context.Context, userID uuid.UUID, page, limit int) (*services.PhotoPage, error) {
	if userID == uuid.Nil {
		return nil, services.ErrValidation
	}
	page, limit, offset := normalizePage(page, limit)

	photos, total, err := s.photoRepo.GetByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, services.NewStoreError("list_photos", err)
	}

	return &services.PhotoPage{
		Photos:  photos,
		Page:    page,
		HasNext: int64(page*limit) < total,
	}, nil
}

func (s *GalleryServiceImpl) ListFaces(ctx context.Context, userID uuid.UUID, page, limit int) (*services.FacePage, error) {
	if userID == uuid.Nil {
		return nil, services.ErrValidation
	}
	page, limit, offset := normalizePage(page, limit)

	faces, total, err := s.faceRepo.GetByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, services.NewStoreError("list_faces", err)
	}

	return &services.FacePage{
		Faces:   faces,
		Page:    page,
		HasNext: int64(page*limit) < total,
	}, nil
}

func (s *GalleryServiceImpl) PhotosByFace(ctx context.Context, userID, faceID uuid.UUID, page, limit int) (*services.PhotoPage, error) {
	if userID == uuid.Nil || faceID == uuid.Nil {
		return nil, services.ErrValidation
	}

	face, err := s.faceRepo.GetByID(ctx, faceID)
	if err != nil {
		return nil, services.NewStoreError("photos_by_face", mapNotFound(err))
	}
	if face.UserID != userID {
		return nil, services.ErrNotFound
	}

	page, limit, offset := normalizePage(page, limit)
	photos, total, err := s.photoRepo.GetByFace(ctx, userID, faceID, offset, limit)
	if err != nil {
		return nil, services.NewStoreError("photos_by_face", err)
	}

	return &services.PhotoPage{
		Photos:  photos,
		Page:    page,
		HasNext: int64(page*limit) < total,
	}, nil
}

func (s *GalleryServiceImpl) FaceDetails(ctx context.Context, userID, faceID uuid.UUID) (*models.Face, error) {
	if userID == uuid.Nil || faceID == uuid.Nil {
		return nil, services.ErrValidation
	}

	face, err := s.faceRepo.GetByID(ctx, faceID)
	if err != nil {
		return nil, services.NewStoreError("face_details", mapNotFound(err))
	}
	if face.UserID != userID {
		return nil, services.ErrNotFound
	}
	return face, nil
}

// FacesForPhoto pages through the user's faces, marking which ones are linked
// to the photo; linked faces sort ahead of unlinked ones within the page.
func (s *GalleryServiceImpl) FacesForPhoto(ctx context.Context, userID, photoID uuid.UUID, page, limit int) ([]services.FaceWithLink, bool, error) {
	if userID == uuid.Nil || photoID == uuid.Nil {
		return nil, false, services.ErrValidation
	}

	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, false, services.NewStoreError("faces_for_photo", mapNotFound(err))
	}
	if photo.UserID != userID {
		return nil, false, services.ErrNotFound
	}

	page, limit, offset := normalizePage(page, limit)
	faces, total, err := s.faceRepo.GetByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, false, services.NewStoreError("faces_for_photo", err)
	}

	result := make([]services.FaceWithLink, 0, len(faces))
	for _, face := range faces {
		linked, err := s.faceRepo.IsLinked(ctx, photoID, face.ID)
		if err != nil {
			return nil, false, services.NewStoreError("faces_for_photo", err)
		}
		result = append(result, services.FaceWithLink{Face: face, Linked: linked})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Linked && !result[j].Linked
	})

	return result, int64(page*limit) < total, nil
}

func (s *GalleryServiceImpl) RenameFace(ctx context.Context, userID, faceID uuid.UUID, name string) error {
	if userID == uuid.Nil || faceID == uuid.Nil {
		return services.ErrValidation
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxFaceNameLen {
		return services.ErrValidation
	}

	rows, err := s.faceRepo.UpdateName(ctx, faceID, userID, name)
	if err != nil {
		return services.NewStoreError("rename_face", err)
	}
	if rows == 0 {
		return services.ErrNotFound
	}
	return nil
}
