package repositories

import (
	"errors"
	"strings"

	apperrors "sitepay/internal/errors"

	"gorm.io/gorm"
)

// translate maps driver errors onto domain errors. notFound is returned for
// gorm.ErrRecordNotFound.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case isUniqueViolation(err):
		return apperrors.ErrDuplicateRecord.Wrap(err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
