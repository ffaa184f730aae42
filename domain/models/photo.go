package models

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID     uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Object-store URL of the original upload. Must always resolve to a live blob.
	PhotoURL string `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User  User   `gorm:"foreignKey:UserID"`
	Faces []Face `gorm:"many2many:photo_faces"`
}

func (Photo) TableName() string {
	return "photos"
}
