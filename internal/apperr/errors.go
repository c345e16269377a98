package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrCorrupt              = errors.New("stored collection is corrupt")
	ErrNotInitialized       = errors.New("storage manager not initialized")
	ErrAlreadyInitialized   = errors.New("storage manager already initialized")
	ErrMigrationFailed      = errors.New("migration failed")
)
