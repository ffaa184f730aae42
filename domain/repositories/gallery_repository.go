package repositories

import (
	"context"

	"github.com/google/uuid"
)

// CascadePlan is the external-store cleanup computed by a relational cascade.
// The relational transaction commits first; the plan's deletions run after,
// and every one of them is idempotent so a retried cascade is safe.
type CascadePlan struct {
	// Object-store URLs whose blobs must be removed.
	ObjectURLs []string
	// Face ids whose vectors must be removed from the owner's namespace.
	VectorIDs []uuid.UUID
	// Owner namespace for the vector deletions.
	OwnerID uuid.UUID
	// Number of photo rows deleted, i.e. how much photo_count must drop.
	PhotosRemoved int
}

// UnlinkResult reports what an unlink did. Collected is non-nil when the
// face's reference count reached zero and the row was garbage-collected
// inside the same transaction.
type UnlinkResult struct {
	Unlinked  bool
	Collected *CascadePlan
}

// GalleryRepository holds the composite photo/face mutations. Every method is
// a single relational transaction; external stores are never touched here.
type GalleryRepository interface {
	// LinkPhotoFace inserts the association row and increments the face's
	// reference count. Returns false without mutation when already linked.
	LinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (bool, error)

	// UnlinkPhotoFace removes the association row and decrements the count,
	// garbage-collecting the face row when the count reaches zero. A count
	// already at or below zero is clamped and collected rather than failed.
	UnlinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (UnlinkResult, error)

	// CommitLinks writes the ingestion pipeline's association rows in one
	// transaction: matched faces gain an association plus a count increment,
	// created faces (already carrying count 1) gain only the association.
	// Existing association rows are skipped, keeping re-runs idempotent.
	CommitLinks(ctx context.Context, photoID uuid.UUID, matched, created []uuid.UUID) error

	DeletePhotoCascade(ctx context.Context, photoID, userID uuid.UUID) (*CascadePlan, error)
	DeleteFaceCascade(ctx context.Context, faceID, userID uuid.UUID) (*CascadePlan, error)
	DeleteUserCascade(ctx context.Context, userID uuid.UUID) (*CascadePlan, error)
}
