package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/licensing/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"driver: bad connection",
		"invalid connection",
		"database is closed",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range []string{"deadlock", "lock wait timeout", "database is locked", "too many connections"} {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a GORM error into an AppError for the named resource.
func FromDatabase(err error, resource, id string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, id).WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsRetryableError(err):
		return apperrors.DatabaseError(err).WithMessage("Database is temporarily unavailable. Please try again.")
	}

	appErr := apperrors.DatabaseError(err)
	appErr.Retryable = false
	return appErr
}
