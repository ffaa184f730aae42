package serviceimpl

import (
	"errors"

	"gorm.io/gorm"

	"facefolio/domain/services"
)

// mapNotFound translates the relational store's missing-row error into the
// service-level outcome so store internals stay behind the service boundary.
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}
