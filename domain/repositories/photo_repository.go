package repositories

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/models"
)

type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Photo, int64, error)
	GetByFace(ctx context.Context, userID, faceID uuid.UUID, offset, limit int) ([]models.Photo, int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
