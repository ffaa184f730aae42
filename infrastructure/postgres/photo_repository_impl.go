package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
)

type PhotoRepositoryImpl struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) repositories.PhotoRepository {
	return &PhotoRepositoryImpl{db: db}
}

func (r *PhotoRepositoryImpl) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *PhotoRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *PhotoRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Photo, int64, error) {
	var photos []models.Photo
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&photos).Error

	return photos, total, err
}

func (r *PhotoRepositoryImpl) GetByFace(ctx context.Context, userID, faceID uuid.UUID, offset, limit int) ([]models.Photo, int64, error) {
	var photos []models.Photo
	var total int64

	base := r.db.WithContext(ctx).Model(&models.Photo{}).
		Joins("JOIN photo_faces ON photo_faces.photo_id = photos.id").
		Where("photo_faces.face_id = ? AND photos.user_id = ?", faceID, userID)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Joins("JOIN photo_faces ON photo_faces.photo_id = photos.id").
		Where("photo_faces.face_id = ? AND photos.user_id = ?", faceID, userID).
		Order("photos.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&photos).Error

	return photos, total, err
}

func (r *PhotoRepositoryImpl) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
