package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
)

type FaceRepositoryImpl struct {
	db *gorm.DB
}

func NewFaceRepository(db *gorm.DB) repositories.FaceRepository {
	return &FaceRepositoryImpl{db: db}
}

func (r *FaceRepositoryImpl) CreateBatch(ctx context.Context, faces []*models.Face) error {
	if len(faces) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(faces, 50).Error
}

func (r *FaceRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Face, error) {
	var face models.Face
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&face).Error
	if err != nil {
		return nil, err
	}
	return &face, nil
}

func (r *FaceRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Face, int64, error) {
	var faces []models.Face
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Face{}).
		Where("user_id = ? AND face_count > 0", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND face_count > 0", userID).
		Order("face_count DESC").
		Offset(offset).
		Limit(limit).
		Find(&faces).Error

	return faces, total, err
}

func (r *FaceRepositoryImpl) GetByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.Face, error) {
	var faces []models.Face
	err := r.db.WithContext(ctx).
		Joins("JOIN photo_faces ON photo_faces.face_id = faces.id").
		Where("photo_faces.photo_id = ?", photoID).
		Find(&faces).Error
	return faces, err
}

func (r *FaceRepositoryImpl) IsLinked(ctx context.Context, photoID, faceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PhotoFace{}).
		Where("photo_id = ? AND face_id = ?", photoID, faceID).
		Count(&count).Error
	return count > 0, err
}

func (r *FaceRepositoryImpl) UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Face{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("name", name)
	return result.RowsAffected, result.Error
}

func (r *FaceRepositoryImpl) ListZeroCount(ctx context.Context, limit int) ([]models.Face, error) {
	var faces []models.Face
	err := r.db.WithContext(ctx).
		Where("face_count <= 0").
		Limit(limit).
		Find(&faces).Error
	return faces, err
}

func (r *FaceRepositoryImpl) ListFaceURLs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Model(&models.Face{}).
		Where("user_id = ? AND face_url <> ''", userID).
		Pluck("face_url", &urls).Error
	return urls, err
}
