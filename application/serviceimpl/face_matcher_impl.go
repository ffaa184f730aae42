package serviceimpl

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/services"
	"facefolio/infrastructure/vectorindex"
	"facefolio/pkg/logger"
)

type FaceMatcherImpl struct {
	index     vectorindex.VectorIndex
	threshold float64
}

func NewFaceMatcher(index vectorindex.VectorIndex, threshold float64) services.FaceMatcher {
	return &FaceMatcherImpl{
		index:     index,
		threshold: threshold,
	}
}

// Match queries the user's namespace for the single nearest neighbor and
// declares a match only when its similarity is strictly above the threshold.
func (m *FaceMatcherImpl) Match(ctx context.Context, userID uuid.UUID, embedding []float32) (services.MatchDecision, error) {
	if userID == uuid.Nil || len(embedding) == 0 {
		return services.MatchDecision{}, services.ErrValidation
	}

	matches, err := m.index.Query(ctx, userID, embedding, 1)
	if err != nil {
		return services.MatchDecision{}, services.NewStoreError("vector_query", err)
	}

	if len(matches) == 0 || matches[0].Score <= m.threshold {
		return services.MatchDecision{}, nil
	}

	logger.Face("matched", "Embedding matched existing face", map[string]interface{}{
		"user_id": userID.String(),
		"face_id": matches[0].FaceID.String(),
		"score":   matches[0].Score,
	})

	return services.MatchDecision{
		Matched: true,
		FaceID:  matches[0].FaceID,
		Score:   matches[0].Score,
	}, nil
}
