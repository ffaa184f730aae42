package serviceimpl

import (
	"context"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
	"facefolio/pkg/logger"
)

const (
	sweepFaceBatch = 500
	sweepUserBatch = 100
)

type SweepServiceImpl struct {
	userRepo    repositories.UserRepository
	photoRepo   repositories.PhotoRepository
	faceRepo    repositories.FaceRepository
	galleryRepo repositories.GalleryRepository
	storage     storage.ObjectStorage
	index       vectorindex.VectorIndex
	rootFolder  string
}

func NewSweepService(
	userRepo repositories.UserRepository,
	photoRepo repositories.PhotoRepository,
	faceRepo repositories.FaceRepository,
	galleryRepo repositories.GalleryRepository,
	objectStorage storage.ObjectStorage,
	index vectorindex.VectorIndex,
	rootFolder string,
) services.SweepService {
	return &SweepServiceImpl{
		userRepo:    userRepo,
		photoRepo:   photoRepo,
		faceRepo:    faceRepo,
		galleryRepo: galleryRepo,
		storage:     objectStorage,
		index:       index,
		rootFolder:  rootFolder,
	}
}

// Sweep is the opportunistic repair pass. It never aborts on a single bad
// record; each phase logs and moves on so one stuck row cannot block the rest.
func (s *SweepServiceImpl) Sweep(ctx context.Context) (*services.SweepReport, error) {
	report := &services.SweepReport{}

	s.collectZeroCountFaces(ctx, report)
	s.sweepUsers(ctx, report)

	logger.Sweep("completed", "Consistency sweep finished", map[string]interface{}{
		"faces_collected": report.FacesCollected,
		"blobs_removed":   report.BlobsRemoved,
		"counts_repaired": report.CountsRepaired,
	})
	return report, nil
}

// collectZeroCountFaces finishes the garbage collection that a partial
// failure left behind: the face row still exists but nothing references it.
func (s *SweepServiceImpl) collectZeroCountFaces(ctx context.Context, report *services.SweepReport) {
	faces, err := s.faceRepo.ListZeroCount(ctx, sweepFaceBatch)
	if err != nil {
		logger.SweepError("list_zero_count", "Failed to list zero-count faces", err, nil)
		return
	}

	for _, face := range faces {
		plan, err := s.galleryRepo.DeleteFaceCascade(ctx, face.ID, face.UserID)
		if err != nil {
			logger.SweepError("collect_face", "Failed to collect zero-count face", err, map[string]interface{}{
				"face_id": face.ID.String(),
			})
			continue
		}
		if err := executeCascadePlan(ctx, s.storage, s.index, plan, "sweep_collect_face"); err != nil {
			// The row is gone; remaining external leftovers are caught by
			// the orphan-blob phase and the namespace delete on user removal.
			continue
		}
		report.FacesCollected++
	}
}

func (s *SweepServiceImpl) sweepUsers(ctx context.Context, report *services.SweepReport) {
	offset := 0
	for {
		users, err := s.userRepo.List(ctx, offset, sweepUserBatch)
		if err != nil {
			logger.SweepError("list_users", "Failed to list users", err, nil)
			return
		}
		if len(users) == 0 {
			return
		}

		for i := range users {
			s.removeOrphanBlobs(ctx, &users[i], report)
			s.repairPhotoCount(ctx, &users[i], report)
		}

		if len(users) < sweepUserBatch {
			return
		}
		offset += sweepUserBatch
	}
}

// removeOrphanBlobs deletes cropped-face blobs no face row references. These
// accumulate when a pipeline run uploaded crops but failed before the batch
// commit; the pipeline tolerates them precisely because this pass exists.
func (s *SweepServiceImpl) removeOrphanBlobs(ctx context.Context, user *models.User, report *services.SweepReport) {
	urls, err := s.faceRepo.ListFaceURLs(ctx, user.ID)
	if err != nil {
		logger.SweepError("list_face_urls", "Failed to list face URLs", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		key, err := s.storage.KeyForURL(url)
		if err != nil {
			continue
		}
		referenced[key] = struct{}{}
	}

	keys, err := s.storage.List(ctx, storage.UserDir(s.rootFolder, user.ID, storage.CategoryFaces))
	if err != nil {
		logger.SweepError("list_blobs", "Failed to list face blobs", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return
	}

	var orphans []string
	for _, key := range keys {
		if _, ok := referenced[key]; !ok {
			orphans = append(orphans, key)
		}
	}
	if len(orphans) == 0 {
		return
	}

	if err := s.storage.Delete(ctx, orphans...); err != nil {
		logger.SweepError("delete_orphans", "Failed to delete orphaned blobs", err, map[string]interface{}{
			"user_id": user.ID.String(),
			"orphans": len(orphans),
		})
		return
	}
	report.BlobsRemoved += len(orphans)
}

// repairPhotoCount re-derives the quota counter from the photo rows, closing
// the drift window a failed increment or interrupted cascade leaves open.
func (s *SweepServiceImpl) repairPhotoCount(ctx context.Context, user *models.User, report *services.SweepReport) {
	actual, err := s.photoRepo.CountByUser(ctx, user.ID)
	if err != nil {
		logger.SweepError("count_photos", "Failed to count photos", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return
	}
	if int(actual) == user.PhotoCount {
		return
	}

	if err := s.userRepo.SetPhotoCount(ctx, user.ID, int(actual)); err != nil {
		logger.SweepError("repair_count", "Failed to repair photo count", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return
	}
	logger.Sweep("count_repaired", "Photo count repaired", map[string]interface{}{
		"user_id": user.ID.String(),
		"stored":  user.PhotoCount,
		"actual":  actual,
	})
	report.CountsRepaired++
}
