package contentsafety

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured     = errors.New("content safety classifier is not configured")
	ErrMalformedResponse = errors.New("malformed content safety response")
)

// ClassifierError is a non-success answer from the remote classifier.
type ClassifierError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier error (status=%d, code=%s): %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether the call is worth repeating.
func (e *ClassifierError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
