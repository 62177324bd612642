package openai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when no API credential is configured.
	ErrMissingAPIKey = errors.New("openai api key is missing")
	// ErrNoImage is returned when an edit response carries neither b64_json nor url.
	ErrNoImage = errors.New("openai did not return an edited image")
	// ErrEmptyCompletion is returned when a chat completion has no content.
	ErrEmptyCompletion = errors.New("openai returned no content")
)

// Error represents a non-2xx upstream response.
type Error struct {
	StatusCode int
	Message    string
	Op         string // Operation that failed (e.g., "EditImage")
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the upstream HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
