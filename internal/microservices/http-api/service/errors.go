package service

import (
	"errors"

	"yamdb/internal/apperrors"

	"gorm.io/gorm"
)

const (
	msgRequired    = "This field is required."
	msgNameTooLong = "Ensure this field has no more than 256 characters."
	msgSlugTaken   = "This slug is already in use."
)

// mapNotFound turns a missing row into apperrors.NotFound(resource) and
// passes any other error through.
func mapNotFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}
