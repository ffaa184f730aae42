package vectorindex

import (
	"context"

	"github.com/google/uuid"
)

// Match is one nearest-neighbor hit.
type Match struct {
	FaceID uuid.UUID
	// Score is normalized similarity: 1 is identical, 0 is unrelated.
	Score float64
}

// VectorIndex is the embedding gateway. Vectors are partitioned per user
// (namespace = user id) and keyed by face id. Deletes are idempotent:
// removing an absent key is success.
type VectorIndex interface {
	Query(ctx context.Context, namespace uuid.UUID, vector []float32, topK int) ([]Match, error)
	Upsert(ctx context.Context, namespace, faceID uuid.UUID, vector []float32) error
	Delete(ctx context.Context, namespace uuid.UUID, faceIDs []uuid.UUID) error
	DeleteNamespace(ctx context.Context, namespace uuid.UUID) error
}
