package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"facefolio/pkg/logger"
)

// FaceVector is the gateway's own table. The relational repositories never
// touch it; face rows and vectors are reconciled by the lifecycle and
// cascade services, not by foreign keys.
type FaceVector struct {
	Namespace uuid.UUID       `gorm:"primaryKey;type:uuid"`
	FaceID    uuid.UUID       `gorm:"primaryKey;type:uuid"`
	Embedding pgvector.Vector `gorm:"type:vector(512);not null"`
}

func (FaceVector) TableName() string {
	return "face_vectors"
}

type PgVectorIndex struct {
	db  *gorm.DB
	dim int
}

func NewPgVectorIndex(db *gorm.DB, dim int) *PgVectorIndex {
	return &PgVectorIndex{db: db, dim: dim}
}

// Migrate creates the face_vectors table. The vector extension itself is
// enabled by the database bootstrap.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&FaceVector{}); err != nil {
		return fmt.Errorf("failed to migrate face_vectors: %w", err)
	}
	return nil
}

func (i *PgVectorIndex) Query(ctx context.Context, namespace uuid.UUID, vector []float32, topK int) ([]Match, error) {
	if len(vector) != i.dim {
		return nil, fmt.Errorf("embedding has %d dimensions, index expects %d", len(vector), i.dim)
	}
	if topK <= 0 {
		topK = 1
	}

	embedding := pgvector.NewVector(vector)

	// pgvector's <=> is cosine distance; similarity = 1 - distance.
	rows, err := i.db.WithContext(ctx).Raw(`
		SELECT face_id, 1 - (embedding <=> ?) AS score
		FROM face_vectors
		WHERE namespace = ?
		ORDER BY embedding <=> ?
		LIMIT ?
	`, embedding, namespace, embedding, topK).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.FaceID, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (i *PgVectorIndex) Upsert(ctx context.Context, namespace, faceID uuid.UUID, vector []float32) error {
	if len(vector) != i.dim {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(vector), i.dim)
	}

	err := i.db.WithContext(ctx).Exec(`
		INSERT INTO face_vectors (namespace, face_id, embedding)
		VALUES (?, ?, ?)
		ON CONFLICT (namespace, face_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`, namespace, faceID, pgvector.NewVector(vector)).Error
	if err != nil {
		return err
	}

	logger.Vector("vector_upserted", "Embedding upserted", map[string]interface{}{
		"namespace": namespace.String(),
		"face_id":   faceID.String(),
	})
	return nil
}

func (i *PgVectorIndex) Delete(ctx context.Context, namespace uuid.UUID, faceIDs []uuid.UUID) error {
	if len(faceIDs) == 0 {
		return nil
	}
	return i.db.WithContext(ctx).
		Where("namespace = ? AND face_id IN ?", namespace, faceIDs).
		Delete(&FaceVector{}).Error
}

func (i *PgVectorIndex) DeleteNamespace(ctx context.Context, namespace uuid.UUID) error {
	return i.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Delete(&FaceVector{}).Error
}
