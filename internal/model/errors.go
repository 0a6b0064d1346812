package model

import "fmt"

// BackendError is a logical error reported by the backend in an
// {"error": "..."} payload, with or without a failing HTTP status.
// Error returns the backend message verbatim so it can be shown as-is.
type BackendError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.Status)
	}
	return e.Message
}
