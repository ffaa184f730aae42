package models

import (
	"time"

	"github.com/google/uuid"
)

// Face is one deduplicated face identity: one row here, one embedding vector
// in the vector index under (namespace = user id, key = face id), and one
// representative cropped image in the object store.
type Face struct {
	ID     uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Optional display name set by the user.
	Name string `gorm:"size:100"`

	// Object-store URL of the representative cropped face image.
	FaceURL string

	// Reference count: number of photos currently linked to this face.
	// A face reaching zero is garbage-collected, never kept around.
	FaceCount int `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User   User    `gorm:"foreignKey:UserID"`
	Photos []Photo `gorm:"many2many:photo_faces"`
}

func (Face) TableName() string {
	return "faces"
}
