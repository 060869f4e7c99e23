package proctor

import (
	"errors"
	"fmt"
)

// Registration failure statuses. The first three mirror the verification
// service; the rest are local.
const (
	RegistrationNoFace           = "no_face"
	RegistrationMultipleFaces    = "multiple_faces"
	RegistrationPoorQuality      = "poor_quality"
	RegistrationCaptureFailed    = "capture_failed"
	RegistrationUnavailable      = "unavailable"
	RegistrationFullscreenFailed = "fullscreen_failed"
)

// RegistrationError reports why the exam did not start. Every status is
// retryable: the session stays in Setup.
type RegistrationError struct {
	Status  string
	Message string
	Err     error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration %s: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("registration %s: %s", e.Status, e.Message)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// IsRegistrationError reports whether err is a RegistrationError and
// returns it.
func IsRegistrationError(err error) (*RegistrationError, bool) {
	var re *RegistrationError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
