package verification

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for verification calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the service did not answer within the bound
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorUnavailable indicates the service could not be reached
	ErrorUnavailable ErrorCategory = "unavailable"

	// ErrorBadStatus indicates a non-2xx HTTP response
	ErrorBadStatus ErrorCategory = "bad_status"

	// ErrorBadData indicates a response that could not be decoded or carried
	// a status outside the capability's closed set
	ErrorBadData ErrorCategory = "bad_data"
)

// TransportError wraps every failure talking to the verification service.
// It is never evidence of a violation.
type TransportError struct {
	Category   ErrorCategory
	Capability Capability
	Message    string
	StatusCode int
	Underlying error
}

func (e *TransportError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("verification %s [%s]: %s: %v", e.Capability, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("verification %s [%s]: %s", e.Capability, e.Category, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Underlying
}

func newTransportError(category ErrorCategory, capability Capability, message string, underlying error) *TransportError {
	return &TransportError{
		Category:   category,
		Capability: capability,
		Message:    message,
		Underlying: underlying,
	}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// GetCategory extracts the error category; non-transport errors have none.
func GetCategory(err error) ErrorCategory {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Category
	}
	return ""
}

// Request validation errors. No request is sent when these are returned.
var (
	ErrEmptyFrame        = errors.New("frame is empty")
	ErrUnknownCapability = errors.New("unknown capability")
	ErrSubjectRequired   = errors.New("subject id is required for this capability")
)
