package serviceimpl

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/domain/services"
	"facefolio/infrastructure/faceapi"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
	"facefolio/pkg/logger"
)

type IngestServiceImpl struct {
	userRepo    repositories.UserRepository
	photoRepo   repositories.PhotoRepository
	faceRepo    repositories.FaceRepository
	galleryRepo repositories.GalleryRepository
	storage     storage.ObjectStorage
	index       vectorindex.VectorIndex
	detector    faceapi.Detector
	matcher     services.FaceMatcher
	rootFolder  string
}

func NewIngestService(
	userRepo repositories.UserRepository,
	photoRepo repositories.PhotoRepository,
	faceRepo repositories.FaceRepository,
	galleryRepo repositories.GalleryRepository,
	objectStorage storage.ObjectStorage,
	index vectorindex.VectorIndex,
	detector faceapi.Detector,
	matcher services.FaceMatcher,
	rootFolder string,
) services.IngestService {
	return &IngestServiceImpl{
		userRepo:    userRepo,
		photoRepo:   photoRepo,
		faceRepo:    faceRepo,
		galleryRepo: galleryRepo,
		storage:     objectStorage,
		index:       index,
		detector:    detector,
		matcher:     matcher,
		rootFolder:  rootFolder,
	}
}

// ingestStep is one pipeline stage. Compensate, when set, undoes the run's
// external side effects if this stage fails; stages past the point where the
// uploaded blob is claimed carry no compensation at all.
type ingestStep struct {
	name       string
	run        func(ctx context.Context, r *ingestRun) error
	compensate func(ctx context.Context, r *ingestRun)
}

// ingestRun is the mutable state threaded through one pipeline execution.
type ingestRun struct {
	userID   uuid.UUID
	photoURL string
	key      string

	imageData []byte
	photo     *models.Photo
	detected  []faceapi.DetectedFace

	matchedIDs []uuid.UUID
	newFaces   []*models.Face
	embeddings map[uuid.UUID][]float32
}

// IngestPhoto runs the upload pipeline. The blob behind photoURL must already
// be in the object store; until the photo row and quota increment are both
// committed, any failure deletes that blob. From then on the blob is claimed
// and later failures surface without rolling back the committed prefix.
func (s *IngestServiceImpl) IngestPhoto(ctx context.Context, userID uuid.UUID, photoURL string) (*services.IngestResult, error) {
	if userID == uuid.Nil || photoURL == "" {
		return nil, services.ErrValidation
	}

	key, err := s.storage.KeyForURL(photoURL)
	if err != nil {
		return nil, services.ErrValidation
	}

	run := &ingestRun{
		userID:     userID,
		photoURL:   photoURL,
		key:        key,
		embeddings: make(map[uuid.UUID][]float32),
	}

	steps := []ingestStep{
		{name: "quota_check", run: s.stepQuotaCheck, compensate: s.deleteUpload},
		{name: "fetch_bytes", run: s.stepFetchBytes, compensate: s.deleteUpload},
		{name: "create_photo", run: s.stepCreatePhoto, compensate: s.deleteUpload},
		{name: "increment_quota", run: s.stepIncrementQuota, compensate: s.deleteUpload},
		// The uploaded blob is claimed from here on.
		{name: "detect_faces", run: s.stepDetectFaces},
		{name: "resolve_faces", run: s.stepResolveFaces},
		{name: "commit_faces", run: s.stepCommitFaces},
		{name: "upsert_vectors", run: s.stepUpsertVectors},
		{name: "commit_links", run: s.stepCommitLinks},
	}

	for _, step := range steps {
		if err := step.run(ctx, run); err != nil {
			logger.IngestError(step.name, "Pipeline step failed", err, map[string]interface{}{
				"user_id":   userID.String(),
				"photo_url": photoURL,
			})
			if step.compensate != nil {
				step.compensate(ctx, run)
			}
			return nil, services.NewStoreError(step.name, err)
		}
	}

	createdIDs := make([]uuid.UUID, 0, len(run.newFaces))
	for _, face := range run.newFaces {
		createdIDs = append(createdIDs, face.ID)
	}

	return &services.IngestResult{
		PhotoID:       run.photo.ID,
		CreatedFaces:  createdIDs,
		LinkedFaces:   run.matchedIDs,
		FacesDetected: len(run.detected),
	}, nil
}

// deleteUpload is the shared compensation for the pre-claim stages: remove
// the originally uploaded blob, since no committed photo row owns it yet.
func (s *IngestServiceImpl) deleteUpload(ctx context.Context, r *ingestRun) {
	if err := s.storage.Delete(ctx, r.key); err != nil {
		logger.StoreError("compensate_upload", "Failed to delete uploaded blob", err, map[string]interface{}{
			"key": r.key,
		})
	}
}

func (s *IngestServiceImpl) stepQuotaCheck(ctx context.Context, r *ingestRun) error {
	user, err := s.userRepo.GetByID(ctx, r.userID)
	if err != nil {
		return mapNotFound(err)
	}
	if !user.CanMutate() {
		return services.ErrAccountInactive
	}
	if user.PhotoCount >= user.MaxPhotos {
		return services.ErrQuotaExceeded
	}
	return nil
}

func (s *IngestServiceImpl) stepFetchBytes(ctx context.Context, r *ingestRun) error {
	data, err := s.storage.Download(ctx, r.key)
	if err != nil {
		return err
	}
	r.imageData = data
	return nil
}

func (s *IngestServiceImpl) stepCreatePhoto(ctx context.Context, r *ingestRun) error {
	photo := &models.Photo{
		ID:       uuid.New(),
		UserID:   r.userID,
		PhotoURL: r.photoURL,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return err
	}
	r.photo = photo
	return nil
}

// A failure here leaves the committed photo row with a stale counter; the
// consistency sweep re-derives photo_count, so the row is never rolled back.
func (s *IngestServiceImpl) stepIncrementQuota(ctx context.Context, r *ingestRun) error {
	return s.userRepo.IncrementPhotoCount(ctx, r.userID, 1)
}

func (s *IngestServiceImpl) stepDetectFaces(ctx context.Context, r *ingestRun) error {
	detected, err := s.detector.Detect(ctx, r.imageData, "image/jpeg")
	if err != nil {
		return err
	}
	r.detected = detected
	return nil
}

// stepResolveFaces decides MATCH or NO_MATCH per detection. Matches are
// deduplicated within the run; new identities get their cropped image
// uploaded here, rows to follow in the batch commit. A failed crop upload
// skips that one face rather than failing the photo.
func (s *IngestServiceImpl) stepResolveFaces(ctx context.Context, r *ingestRun) error {
	seen := make(map[uuid.UUID]struct{})

	for _, detection := range r.detected {
		decision, err := s.matcher.Match(ctx, r.userID, detection.Embedding)
		if err != nil {
			return err
		}

		if decision.Matched {
			if _, ok := seen[decision.FaceID]; !ok {
				seen[decision.FaceID] = struct{}{}
				r.matchedIDs = append(r.matchedIDs, decision.FaceID)
			}
			continue
		}

		filename := strings.ReplaceAll(uuid.New().String(), "-", "")[:12] + ".jpg"
		cropKey := storage.ObjectKey(s.rootFolder, r.userID, storage.CategoryFaces, filename)
		cropURL, err := s.storage.Upload(ctx, cropKey, detection.CropJPEG)
		if err != nil {
			logger.StoreError("upload_face_crop", "Failed to upload cropped face, skipping detection", err, map[string]interface{}{
				"user_id": r.userID.String(),
				"key":     cropKey,
			})
			continue
		}

		face := &models.Face{
			ID:        uuid.New(),
			UserID:    r.userID,
			FaceURL:   cropURL,
			FaceCount: 1,
		}
		r.newFaces = append(r.newFaces, face)
		r.embeddings[face.ID] = detection.Embedding
	}
	return nil
}

// Orphaned crop uploads from a failure here are left for the sweep; the
// vector upsert has not run yet, so no cross-store repair is needed.
func (s *IngestServiceImpl) stepCommitFaces(ctx context.Context, r *ingestRun) error {
	if len(r.newFaces) == 0 {
		return nil
	}
	return s.faceRepo.CreateBatch(ctx, r.newFaces)
}

// Vectors go in only after the face rows are durable, so a row can briefly
// exist without its vector but never the reverse.
func (s *IngestServiceImpl) stepUpsertVectors(ctx context.Context, r *ingestRun) error {
	for _, face := range r.newFaces {
		if err := s.index.Upsert(ctx, r.userID, face.ID, r.embeddings[face.ID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *IngestServiceImpl) stepCommitLinks(ctx context.Context, r *ingestRun) error {
	if len(r.matchedIDs) == 0 && len(r.newFaces) == 0 {
		return nil
	}
	created := make([]uuid.UUID, 0, len(r.newFaces))
	for _, face := range r.newFaces {
		created = append(created, face.ID)
	}
	return s.galleryRepo.CommitLinks(ctx, r.photo.ID, r.matchedIDs, created)
}
