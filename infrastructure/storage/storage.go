package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by Download when the key has no blob.
var ErrObjectNotFound = errors.New("object not found")

// PartialDeleteError reports which keys a bulk delete could not remove.
// Missing keys are not failures: deleting an absent object succeeds.
type PartialDeleteError struct {
	FailedKeys []string
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("failed to delete %d objects: %s", len(e.FailedKeys), strings.Join(e.FailedKeys, ", "))
}

// ObjectStorage is the object-store gateway: binary blobs by key, with a
// deterministic key<->public-URL mapping.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the given keys. Absent keys count as deleted; real
	// failures come back as a PartialDeleteError.
	Delete(ctx context.Context, keys ...string) error

	// List returns the object keys directly under dir.
	List(ctx context.Context, dir string) ([]string, error)

	URLForKey(key string) string
	KeyForURL(url string) (string, error)
}

// Image categories under each user's folder.
const (
	CategoryMedia = "media"
	CategoryFaces = "faces"
)

// ObjectKey builds the deterministic storage path for a user's image:
// {root}/{userID}/{category}/{filename}. Spaces in filenames are replaced
// so the key survives URL round-trips.
func ObjectKey(root string, userID uuid.UUID, category, filename string) string {
	filename = strings.ReplaceAll(filename, " ", "_")
	return fmt.Sprintf("%s/%s/%s/%s", root, userID.String(), category, filename)
}

// UserDir returns the directory holding one category of a user's images.
func UserDir(root string, userID uuid.UUID, category string) string {
	return fmt.Sprintf("%s/%s/%s", root, userID.String(), category)
}
