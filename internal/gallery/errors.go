package gallery

import (
	"errors"
	"fmt"

	"artgallery/internal/moderation"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	// ErrNotPublic is returned for social actions on a private asset.
	ErrNotPublic = errors.New("asset is not public")
	// ErrClassifierUnavailable is a failed publish attempt; nothing was published.
	ErrClassifierUnavailable = moderation.ErrClassifierUnavailable

	errNoTaskQueue = errors.New("no task queue configured")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RejectedError means moderation refused publication. The asset is unchanged.
type RejectedError struct {
	Outcome moderation.Outcome
}

func (e *RejectedError) Error() string {
	if e.Outcome.Reason != "" {
		return e.Outcome.Reason
	}
	return moderation.ReasonInappropriate
}
