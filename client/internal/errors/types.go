// Package errors provides the error taxonomy of the logbook client and the
// classification of transport failures used by retry policies.
package errors

import "fmt"

// ErrorCategory determines how transport errors are handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors may be retried with exponential backoff.
	// Examples: 502 Bad Gateway, connection resets, 429 Too Many Requests.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors fail immediately without retry.
	// Examples: 400 Bad Request, 403 Forbidden, a cancelled context.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps a transport error with categorization metadata for retry policies.
type ClassifiedError struct {
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Body       string // Response body for debugging
	Underlying error  // The original error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// IsIrrecoverable reports whether err must not be retried. Errors of the
// client taxonomy other than Http are always irrecoverable: retrying a
// rejected credential or a malformed record cannot succeed.
func IsIrrecoverable(err error) bool {
	if err == nil {
		return false
	}
	var classified *ClassifiedError
	if As(err, &classified) {
		return classified.Category == Irrecoverable
	}
	if k := KindOf(err); k != 0 && k != KindHTTP {
		return true
	}
	return false
}
