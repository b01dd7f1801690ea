package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("Listing not found")
	ErrUnauthenticated     = errors.New("Unauthenticated")
	ErrSlugExhausted       = errors.New("No free slug available for this title")
	ErrSlugConflict        = errors.New("Slug was taken concurrently, please retry")
	ErrUpstreamUnavailable = errors.New("Upstream service unavailable")
	ErrUserNotFound        = errors.New("User not found")
	ErrUserHasListings     = errors.New("User still owns listings")
)

// ValidationError reports every offending field at once, not just the first.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// AsValidationError unwraps err to a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
