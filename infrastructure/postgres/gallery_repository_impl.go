package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/pkg/logger"
)

type GalleryRepositoryImpl struct {
	db *gorm.DB
}

func NewGalleryRepository(db *gorm.DB) repositories.GalleryRepository {
	return &GalleryRepositoryImpl{db: db}
}

func (r *GalleryRepositoryImpl) LinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (bool, error) {
	linked := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PhotoFace{}).
			Where("photo_id = ? AND face_id = ?", photoID, faceID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Create(&models.PhotoFace{PhotoID: photoID, FaceID: faceID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Face{}).
			Where("id = ?", faceID).
			UpdateColumn("face_count", gorm.Expr("face_count + 1")).Error; err != nil {
			return err
		}

		linked = true
		return nil
	})

	return linked, err
}

func (r *GalleryRepositoryImpl) UnlinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (repositories.UnlinkResult, error) {
	var result repositories.UnlinkResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PhotoFace{}).
			Where("photo_id = ? AND face_id = ?", photoID, faceID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		var face models.Face
		if err := tx.Where("id = ?", faceID).First(&face).Error; err != nil {
			return err
		}

		if face.FaceCount > 1 {
			if err := tx.Where("photo_id = ? AND face_id = ?", photoID, faceID).
				Delete(&models.PhotoFace{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Face{}).
				Where("id = ?", faceID).
				UpdateColumn("face_count", gorm.Expr("face_count - 1")).Error; err != nil {
				return err
			}
			result.Unlinked = true
			return nil
		}

		// Count would reach zero: garbage-collect the face in the same
		// transaction. A count already below one is an invariant violation;
		// it is clamped and collected rather than surfaced as a crash.
		if face.FaceCount < 1 {
			logger.FaceError("count_underflow", "Face count below one on unlink, clamping", nil, map[string]interface{}{
				"face_id":    faceID.String(),
				"face_count": face.FaceCount,
			})
		}

		if err := collectFace(tx, &face); err != nil {
			return err
		}

		result.Unlinked = true
		result.Collected = &repositories.CascadePlan{
			ObjectURLs: faceURLs(&face),
			VectorIDs:  []uuid.UUID{face.ID},
			OwnerID:    face.UserID,
		}
		return nil
	})

	return result, err
}

// collectFace removes a face row and every association row pointing at it,
// child rows first.
func collectFace(tx *gorm.DB, face *models.Face) error {
	if err := tx.Where("face_id = ?", face.ID).Delete(&models.PhotoFace{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", face.ID).Delete(&models.Face{}).Error
}

func faceURLs(face *models.Face) []string {
	if face.FaceURL == "" {
		return nil
	}
	return []string{face.FaceURL}
}

func (r *GalleryRepositoryImpl) CommitLinks(ctx context.Context, photoID uuid.UUID, matched, created []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, faceID := range matched {
			inserted, err := insertLinkIfAbsent(tx, photoID, faceID)
			if err != nil {
				return err
			}
			if inserted {
				if err := tx.Model(&models.Face{}).
					Where("id = ?", faceID).
					UpdateColumn("face_count", gorm.Expr("face_count + 1")).Error; err != nil {
					return err
				}
			}
		}

		// Created faces already carry their first reference in face_count.
		for _, faceID := range created {
			if _, err := insertLinkIfAbsent(tx, photoID, faceID); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertLinkIfAbsent(tx *gorm.DB, photoID, faceID uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(&models.PhotoFace{}).
		Where("photo_id = ? AND face_id = ?", photoID, faceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := tx.Create(&models.PhotoFace{PhotoID: photoID, FaceID: faceID}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *GalleryRepositoryImpl) DeletePhotoCascade(ctx context.Context, photoID, userID uuid.UUID) (*repositories.CascadePlan, error) {
	plan := &repositories.CascadePlan{OwnerID: userID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo models.Photo
		if err := tx.Where("id = ? AND user_id = ?", photoID, userID).First(&photo).Error; err != nil {
			return err
		}
		plan.ObjectURLs = append(plan.ObjectURLs, photo.PhotoURL)
		plan.PhotosRemoved = 1

		var faces []models.Face
		if err := tx.
			Joins("JOIN photo_faces ON photo_faces.face_id = faces.id").
			Where("photo_faces.photo_id = ?", photoID).
			Find(&faces).Error; err != nil {
			return err
		}

		// Associations first, then orphaned faces, then the photo row.
		if err := tx.Where("photo_id = ?", photoID).Delete(&models.PhotoFace{}).Error; err != nil {
			return err
		}

		for i := range faces {
			face := &faces[i]
			if face.FaceCount > 1 {
				if err := tx.Model(&models.Face{}).
					Where("id = ?", face.ID).
					UpdateColumn("face_count", gorm.Expr("face_count - 1")).Error; err != nil {
					return err
				}
				continue
			}

			if err := collectFace(tx, face); err != nil {
				return err
			}
			plan.VectorIDs = append(plan.VectorIDs, face.ID)
			plan.ObjectURLs = append(plan.ObjectURLs, faceURLs(face)...)
		}

		return tx.Where("id = ?", photoID).Delete(&models.Photo{}).Error
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *GalleryRepositoryImpl) DeleteFaceCascade(ctx context.Context, faceID, userID uuid.UUID) (*repositories.CascadePlan, error) {
	plan := &repositories.CascadePlan{OwnerID: userID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var face models.Face
		if err := tx.Where("id = ? AND user_id = ?", faceID, userID).First(&face).Error; err != nil {
			return err
		}

		var linkedPhotoIDs []uuid.UUID
		if err := tx.Model(&models.PhotoFace{}).
			Where("face_id = ?", faceID).
			Pluck("photo_id", &linkedPhotoIDs).Error; err != nil {
			return err
		}

		// Photos that other faces also appear in survive; photos linked only
		// to this face are deleted outright.
		var exclusive []uuid.UUID
		if len(linkedPhotoIDs) > 0 {
			var shared []uuid.UUID
			if err := tx.Model(&models.PhotoFace{}).
				Where("face_id <> ? AND photo_id IN ?", faceID, linkedPhotoIDs).
				Distinct("photo_id").
				Pluck("photo_id", &shared).Error; err != nil {
				return err
			}

			sharedSet := make(map[uuid.UUID]struct{}, len(shared))
			for _, id := range shared {
				sharedSet[id] = struct{}{}
			}
			for _, id := range linkedPhotoIDs {
				if _, ok := sharedSet[id]; !ok {
					exclusive = append(exclusive, id)
				}
			}
		}

		if len(exclusive) > 0 {
			var urls []string
			if err := tx.Model(&models.Photo{}).
				Where("id IN ? AND user_id = ?", exclusive, userID).
				Pluck("photo_url", &urls).Error; err != nil {
				return err
			}
			plan.ObjectURLs = append(plan.ObjectURLs, urls...)
			plan.PhotosRemoved = len(urls)

			if err := tx.Where("photo_id IN ?", exclusive).Delete(&models.PhotoFace{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ? AND user_id = ?", exclusive, userID).
				Delete(&models.Photo{}).Error; err != nil {
				return err
			}
		}

		if err := collectFace(tx, &face); err != nil {
			return err
		}
		plan.ObjectURLs = append(plan.ObjectURLs, faceURLs(&face)...)
		plan.VectorIDs = append(plan.VectorIDs, face.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *GalleryRepositoryImpl) DeleteUserCascade(ctx context.Context, userID uuid.UUID) (*repositories.CascadePlan, error) {
	plan := &repositories.CascadePlan{OwnerID: userID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		var photoIDs []uuid.UUID
		if err := tx.Model(&models.Photo{}).
			Where("user_id = ?", userID).
			Pluck("id", &photoIDs).Error; err != nil {
			return err
		}
		var photoURLs []string
		if err := tx.Model(&models.Photo{}).
			Where("user_id = ?", userID).
			Pluck("photo_url", &photoURLs).Error; err != nil {
			return err
		}

		var faceIDs []uuid.UUID
		if err := tx.Model(&models.Face{}).
			Where("user_id = ?", userID).
			Pluck("id", &faceIDs).Error; err != nil {
			return err
		}
		var faceImageURLs []string
		if err := tx.Model(&models.Face{}).
			Where("user_id = ? AND face_url <> ''", userID).
			Pluck("face_url", &faceImageURLs).Error; err != nil {
			return err
		}

		plan.ObjectURLs = append(plan.ObjectURLs, photoURLs...)
		plan.ObjectURLs = append(plan.ObjectURLs, faceImageURLs...)
		plan.VectorIDs = faceIDs
		plan.PhotosRemoved = len(photoIDs)

		if len(photoIDs) > 0 {
			if err := tx.Where("photo_id IN ?", photoIDs).Delete(&models.PhotoFace{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Face{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}
