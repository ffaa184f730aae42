package services

import (
	"context"

	"github.com/google/uuid"
)

// CascadeService removes a photo, a face, or a whole user while keeping the
// relational store, vector index, and object store mutually consistent. The
// relational half always commits before external deletes begin, and external
// deletes are idempotent, so an interrupted cascade can simply be re-run.
type CascadeService interface {
	DeletePhoto(ctx context.Context, userID, photoID uuid.UUID) error
	DeleteFace(ctx context.Context, userID, faceID uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
