package api

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Error is the typed error raised for any non-2xx response. Payload is the
// best-effort JSON-parsed response body; nil when the body was empty or not
// valid JSON.
type Error struct {
	Status  int
	Payload map[string]any
}

func (e *Error) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Message extracts a human-readable message from the error payload, checking
// the field names the backend is known to use.
func (e *Error) Message() string {
	if e.Payload == nil {
		return ""
	}
	for _, key := range []string{"message", "error", "title", "detail"} {
		if s, ok := e.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IsStatus reports whether err carries an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is an HTTP 401 error.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}
