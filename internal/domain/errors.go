// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrTrackNotFound is returned when a requested track cannot be found.
	ErrTrackNotFound = errors.New("track not found")

	// ErrQueueEmpty is returned when queue operations are attempted on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrNoCurrentTrack is returned when a transport operation needs a current track.
	ErrNoCurrentTrack = errors.New("no current track")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrUnknownIntent is returned for intents the dispatcher does not understand.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrCaptionUnavailable is returned when no caption could be produced for a track.
	ErrCaptionUnavailable = errors.New("caption unavailable")

	// ErrUnsupportedFormat is returned when a local file is not a supported audio format.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrNotLoaded is returned by transports when no media is loaded.
	ErrNotLoaded = errors.New("no media loaded")

	// ErrClosed is returned when a component is used after shutdown.
	ErrClosed = errors.New("component closed")
)

// CaptionError represents a failed caption lookup.
// This wraps transport or decoding failures with the lookup key.
type CaptionError struct {
	Title   string // Track title used as the lookup key
	Artist  string // Track artist used as the lookup key
	Status  int    // HTTP status code, 0 if the request never completed
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *CaptionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("caption lookup for %q by %q failed: %s (status: %d)", e.Title, e.Artist, e.Message, e.Status)
	}
	return fmt.Sprintf("caption lookup for %q by %q failed: %s", e.Title, e.Artist, e.Message)
}

// Unwrap returns the underlying error.
func (e *CaptionError) Unwrap() error {
	return e.Err
}

// NewCaptionError creates a new CaptionError.
func NewCaptionError(title, artist string, status int, message string, err error) *CaptionError {
	return &CaptionError{
		Title:   title,
		Artist:  artist,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "SessionController", "Dispatcher")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s.%s failed: %s: %v", e.Service, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
