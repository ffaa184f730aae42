package repositories

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/models"
)

type FaceRepository interface {
	CreateBatch(ctx context.Context, faces []*models.Face) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Face, error)

	// GetByUser returns faces with a positive reference count, ordered by
	// face_count descending.
	GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Face, int64, error)
	GetByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.Face, error)

	IsLinked(ctx context.Context, photoID, faceID uuid.UUID) (bool, error)
	UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (int64, error)

	// Sweep support.
	ListZeroCount(ctx context.Context, limit int) ([]models.Face, error)
	ListFaceURLs(ctx context.Context, userID uuid.UUID) ([]string, error)
}
