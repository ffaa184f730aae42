package services

import "context"

// SweepReport summarizes one consistency pass.
type SweepReport struct {
	FacesCollected int // zero-count faces garbage-collected
	BlobsRemoved   int // orphaned cropped-face blobs deleted
	CountsRepaired int // users whose photo_count drifted and was reset
}

// SweepService is the opportunistic repair pass: it restores the row/vector/
// image invariant for faces that slipped through a partial failure, removes
// cropped-face blobs nothing references, and re-derives stale photo counters.
type SweepService interface {
	Sweep(ctx context.Context) (*SweepReport, error)
}
