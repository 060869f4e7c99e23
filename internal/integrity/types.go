package integrity

import "time"

// Source names the monitor loop that produced a Signal.
type Source string

const (
	SourceIdentity Source = "identity"
	SourceObject   Source = "object"
	SourceHeadPose Source = "head_pose"
)

// Kind classifies a Signal. Each Source emits a fixed subset.
type Kind string

const (
	// identity
	KindMatch         Kind = "match"
	KindMismatch      Kind = "mismatch"
	KindNoFace        Kind = "no_face"
	KindMultipleFaces Kind = "multiple_faces"

	// object
	KindClear     Kind = "clear"
	KindForbidden Kind = "forbidden_object"

	// head pose
	KindCentered Kind = "centered"
	KindAlert    Kind = "alert"
)

// Input is anything the Policy can decide on: a Signal, an
// EnvironmentEvent or a Trigger.
type Input interface {
	isInput()
}

// Signal is a classified outcome of one verification call on one frame.
type Signal struct {
	Source  Source
	Kind    Kind
	Detail  string
	Objects []string
	// Pose is set for head-pose signals only.
	Pose *Pose
	At   time.Time
}

// Pose is the estimated head orientation in degrees.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

func (Signal) isInput() {}

// EnvironmentKind enumerates the boundary events the Environment Guard
// forwards.
type EnvironmentKind string

const (
	EventFullscreenExited EnvironmentKind = "fullscreen_exited"
	EventTabHidden        EnvironmentKind = "tab_hidden"
	EventUnloadAttempt    EnvironmentKind = "unload_attempt"
	EventCopyOrPaste      EnvironmentKind = "copy_or_paste"
)

// EnvironmentEvent is a lifecycle event of the exam shell.
type EnvironmentEvent struct {
	Kind   EnvironmentKind
	Detail string
	At     time.Time
}

func (EnvironmentEvent) isInput() {}

// TriggerKind enumerates submit requests that do not originate from a
// verification capability.
type TriggerKind string

const (
	TriggerCountdownExpired  TriggerKind = "countdown_expired"
	TriggerManualSubmit      TriggerKind = "manual_submit"
	TriggerMismatchConfirmed TriggerKind = "identity_mismatch_confirmed"
)

type Trigger struct {
	Kind TriggerKind
	At   time.Time
}

func (Trigger) isInput() {}

// Action is what the controller must do with an input.
type Action int

const (
	ActionIgnore Action = iota
	ActionWarn
	ActionConfirmWithUser
	ActionForceSubmit
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionWarn:
		return "warn"
	case ActionConfirmWithUser:
		return "confirm_with_user"
	case ActionForceSubmit:
		return "force_submit"
	default:
		return "unknown"
	}
}

// Reason codes attached to decisions. They double as submission reasons
// and metric labels.
const (
	ReasonSubmitted         = "session_submitted"
	ReasonNotStarted        = "session_not_started"
	ReasonIdentityMismatch  = "identity_mismatch"
	ReasonMultipleFaces     = "multiple_faces"
	ReasonNoFace            = "no_face"
	ReasonForbiddenObject   = "forbidden_object"
	ReasonHeadMovement      = "head_movement"
	ReasonFullscreenExited  = "fullscreen_exited"
	ReasonTabHidden         = "tab_hidden"
	ReasonUnloadBlocked     = "unload_blocked"
	ReasonClipboardBlocked  = "clipboard_blocked"
	ReasonCountdownExpired  = "countdown_expired"
	ReasonManualSubmit      = "manual_submit"
	ReasonMismatchConfirmed = "identity_mismatch_confirmed"
	ReasonUnknownInput      = "unknown_input"
	ReasonCheckPassed       = "check_passed"
)

// Decision is derived from an input and never stored.
type Decision struct {
	Action  Action
	Reason  string
	Message string

	// Audit requests an append-only audit entry for this input.
	Audit bool
	// Veto asks the shell to cancel the originating action (navigation,
	// clipboard). It never changes session state.
	Veto bool
	// RestoreFocus asks the shell to bring the exam back to the foreground.
	RestoreFocus bool
}
