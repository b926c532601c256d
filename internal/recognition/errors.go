package recognition

import (
	"errors"
	"fmt"
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// ServiceError is returned when the service answers 2xx but reports an error
// in the body, e.g. {"error": "Failed to process the image..."}.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "service error: " + e.Message
}

// ErrMissingFile is returned when a request has no image content.
var ErrMissingFile = errors.New("image file is required")
