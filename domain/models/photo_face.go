package models

import "github.com/google/uuid"

// PhotoFace is the photo<->face association row. Modeled explicitly (rather
// than only through the many2many tag) so composite transactions can mutate
// association rows together with the face reference count.
type PhotoFace struct {
	PhotoID uuid.UUID `gorm:"primaryKey;type:uuid"`
	FaceID  uuid.UUID `gorm:"primaryKey;type:uuid"`
}

func (PhotoFace) TableName() string {
	return "photo_faces"
}
