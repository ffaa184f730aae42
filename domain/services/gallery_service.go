package services

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/models"
)

// PhotoPage is one page of a user's gallery.
type PhotoPage struct {
	Photos  []models.Photo
	Page    int
	HasNext bool
}

// FacePage is one page of a user's face identities.
type FacePage struct {
	Faces   []models.Face
	Page    int
	HasNext bool
}

// FaceWithLink annotates a face with whether it is linked to a given photo.
type FaceWithLink struct {
	Face   models.Face
	Linked bool
}

// GalleryService serves the read side plus face renaming.
type GalleryService interface {
	ListPhotos(ctx context.Context, userID uuid.UUID, page, limit int) (*PhotoPage, error)
	ListFaces(ctx context.Context, userID uuid.UUID, page, limit int) (*FacePage, error)
	PhotosByFace(ctx context.Context, userID, faceID uuid.UUID, page, limit int) (*PhotoPage, error)
	FaceDetails(ctx context.Context, userID, faceID uuid.UUID) (*models.Face, error)
	FacesForPhoto(ctx context.Context, userID, photoID uuid.UUID, page, limit int) ([]FaceWithLink, bool, error)
	RenameFace(ctx context.Context, userID, faceID uuid.UUID, name string) error
}
