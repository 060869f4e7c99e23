// Package audit records an append-only trail of exam events. Delivery is
// fire-and-forget: audit failures never affect the exam.
package audit

import (
	"time"

	"github.com/google/uuid"

	"proctor/internal/exam"
	"proctor/internal/integrity"
	"proctor/pkg/domain"
)

// Action names what happened.
type Action string

const (
	ActionSessionStarted     Action = "session_started"
	ActionSessionSubmitted   Action = "session_submitted"
	ActionHeadMovement       Action = "head_movement_alert"
	ActionWarning            Action = "integrity_warning"
	ActionMismatchPrompted   Action = "identity_mismatch_prompted"
	ActionMismatchDeclined   Action = "identity_mismatch_declined"
	ActionRegistrationFailed Action = "registration_failed"
)

// Event is one audit record. Keep it transport-agnostic so sinks can fan
// out; every sink serializes it as JSON.
type Event struct {
	ID        uuid.UUID        `json:"id"`
	Action    Action           `json:"action"`
	SessionID domain.SessionID `json:"session_id"`
	SubjectID domain.SubjectID `json:"subject_id"`
	Reason    string           `json:"reason,omitempty"`
	// Detail is free text: a head direction, a warning message.
	Detail    string          `json:"detail,omitempty"`
	Objects   []string        `json:"objects,omitempty"`
	Pose      *integrity.Pose `json:"pose,omitempty"`
	Result    *exam.Result    `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
