package client

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDescription is returned, before any request is made, when a
	// generation is asked for with a blank description.
	ErrEmptyDescription = errors.New("workflow description is required")

	// ErrMissingIdentifier is returned when a create response does not say which
	// identifier the backend assigned.
	ErrMissingIdentifier = errors.New("create response does not carry a workflow identifier")

	// ErrInvalidGeneratedWorkflow is returned when a generation response cannot
	// be used as a document: nodes without identifiers or with duplicates.
	ErrInvalidGeneratedWorkflow = errors.New("generated workflow is invalid")
)

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	Op         string // Gateway operation, e.g. "create", "update", "generate"
	StatusCode int    // HTTP status code
	Type       string // Problem type when the body is a problem document
	Detail     string // Human-readable detail extracted from the body
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error: %d: %s", e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// IsAPIError reports whether err carries a non-success backend response and
// returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}
