package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Packages return these (optionally
// wrapped) so callers can branch with errors.Is without importing each
// other's concrete error types.
//
// - ErrNotFound: requested item does not exist (question, option, frame)
// - ErrInvalidState: entity is in the wrong lifecycle phase for the operation
// - ErrAlreadySubmitted: the exam session has reached its terminal phase
// - ErrUnavailable: a collaborator (camera, verification service, sink) is down
// - ErrUnsupported: the environment cannot perform the requested side effect
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrUnavailable      = errors.New("unavailable")
	ErrUnsupported      = errors.New("unsupported")
)
