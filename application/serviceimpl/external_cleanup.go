package serviceimpl

import (
	"context"

	"facefolio/domain/repositories"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
	"facefolio/pkg/logger"
)

// executeCascadePlan runs a committed cascade's external deletions: blobs
// first, then vectors. Every delete is idempotent, and every delete is
// attempted even when an earlier one failed, so a retried cascade converges.
// The first failure is reported after all deletes ran.
func executeCascadePlan(ctx context.Context, store storage.ObjectStorage, index vectorindex.VectorIndex, plan *repositories.CascadePlan, op string) error {
	var firstErr error

	keys := make([]string, 0, len(plan.ObjectURLs))
	for _, url := range plan.ObjectURLs {
		key, err := store.KeyForURL(url)
		if err != nil {
			logger.StoreError(op, "Unresolvable object URL in cascade plan", err, map[string]interface{}{
				"url": url,
			})
			continue
		}
		keys = append(keys, key)
	}

	if len(keys) > 0 {
		if err := store.Delete(ctx, keys...); err != nil {
			logger.StoreError(op, "Object deletions failed", err, map[string]interface{}{
				"owner_id": plan.OwnerID.String(),
				"keys":     len(keys),
			})
			firstErr = err
		}
	}

	if len(plan.VectorIDs) > 0 {
		if err := index.Delete(ctx, plan.OwnerID, plan.VectorIDs); err != nil {
			logger.VectorError(op, "Vector deletions failed", err, map[string]interface{}{
				"owner_id": plan.OwnerID.String(),
				"vectors":  len(plan.VectorIDs),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
