package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the poll pipeline.
var (
	// ErrStateIO indicates that the history state file could not be read or written.
	ErrStateIO = errors.New("state io failure")

	// ErrArchiveIO indicates that appending to the archive failed.
	ErrArchiveIO = errors.New("archive io failure")

	// ErrNotify indicates that dispatching notifications failed.
	ErrNotify = errors.New("notification dispatch failure")

	// ErrValidationFailed is wrapped by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// FailureKind classifies fetch and parse failures for logs and metrics labels.
type FailureKind string

// Fetch failure kinds.
const (
	KindTimeout     FailureKind = "timeout"
	KindTransport   FailureKind = "transport"
	KindHTTPStatus  FailureKind = "http_status"
	KindCircuitOpen FailureKind = "circuit_open"
)

// Parse failure kinds.
const (
	KindEncoding FailureKind = "encoding"
	KindMarkup   FailureKind = "markup"
	KindEmpty    FailureKind = "empty"
)

// FetchError is returned when the listing page could not be retrieved.
type FetchError struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the listing page could not be turned into stories.
type ParseError struct {
	Kind FailureKind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse listing (%s): %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError names the configuration field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// FailureKindOf extracts the classification of a fetch or parse error.
// It returns the empty kind for any other error.
func FailureKindOf(err error) FailureKind {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind
	}
	return ""
}
