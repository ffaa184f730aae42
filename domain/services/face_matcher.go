package services

import (
	"context"

	"github.com/google/uuid"
)

// MatchDecision is the matcher's verdict for one embedding.
type MatchDecision struct {
	Matched bool
	FaceID  uuid.UUID
	Score   float64
}

// FaceMatcher resolves one embedding against the user's namespace: MATCH when
// the nearest neighbor scores above the configured threshold, NO_MATCH
// otherwise. Only the top-1 neighbor is consulted.
type FaceMatcher interface {
	Match(ctx context.Context, userID uuid.UUID, embedding []float32) (MatchDecision, error)
}
