package repositories

import (
	"context"

	"github.com/google/uuid"

	"facefolio/domain/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, error)

	// Quota counters. Increment and Decrement are atomic relative updates;
	// Decrement floors at zero. SetPhotoCount overwrites the counter and is
	// used only by the consistency sweep to repair drift.
	IncrementPhotoCount(ctx context.Context, id uuid.UUID, delta int) error
	DecrementPhotoCount(ctx context.Context, id uuid.UUID, delta int) error
	SetPhotoCount(ctx context.Context, id uuid.UUID, count int) error

	UpdateAccountStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
}
