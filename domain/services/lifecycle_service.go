package services

import (
	"context"

	"github.com/google/uuid"
)

// LifecycleService maintains face reference counts. Linking an existing pair
// and unlinking an absent pair are both no-ops that succeed. An unlink that
// drops a count to zero garbage-collects the face synchronously: row, vector,
// and representative image, each delete idempotent.
type LifecycleService interface {
	LinkFace(ctx context.Context, userID, photoID, faceID uuid.UUID) error
	UnlinkFace(ctx context.Context, userID, photoID, faceID uuid.UUID) error
}
