package services

import (
	"context"

	"github.com/google/uuid"
)

// IngestResult reports one completed pipeline run.
type IngestResult struct {
	PhotoID uuid.UUID `json:"photo_id"`

	// CreatedFaces are new face identities minted by this run,
	// LinkedFaces are pre-existing identities the photo was matched to.
	CreatedFaces []uuid.UUID `json:"created_faces"`
	LinkedFaces  []uuid.UUID `json:"linked_faces"`

	FacesDetected int `json:"faces_detected"`
}

// IngestService drives one photo upload: quota check, photo row, quota
// increment, face detection, per-face match-or-create, vector upserts, and
// the final association commit. The blob behind photoURL must already be in
// the object store.
type IngestService interface {
	IngestPhoto(ctx context.Context, userID uuid.UUID, photoURL string) (*IngestResult, error)
}
