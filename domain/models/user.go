package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusDeleted   AccountStatus = "deleted"
)

type User struct {
	ID    uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name  string    `gorm:"size:100"`
	Email string    `gorm:"uniqueIndex;not null"`

	// Quota counters. PhotoCount is maintained incrementally and must equal
	// the number of live photo rows owned by the user.
	PhotoCount int `gorm:"not null;default:0"`
	MaxPhotos  int `gorm:"not null;default:5000"`

	AccountStatus AccountStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Photos []Photo `gorm:"foreignKey:UserID"`
	Faces  []Face  `gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// CanMutate reports whether the account is allowed to perform mutating calls.
func (u *User) CanMutate() bool {
	return u.AccountStatus == AccountStatusActive || u.AccountStatus == AccountStatusPending
}
