package integrity

import (
	"fmt"
	"strings"

	"proctor/pkg/domain"
)

// Decide maps an input and the current session phase to a Decision.
// This is pure domain logic - no I/O, no side effects.
//
// Rule priority (fail-fast):
//  1. Submitted sessions ignore everything - the outcome is final
//  2. Clipboard is blocked in every other phase
//  3. Setup sessions ignore everything else - there is nothing to protect yet
//  4. Active sessions apply the per-input table
func Decide(in Input, phase domain.Phase) Decision {
	// Rule 1: terminal phase
	if phase.IsTerminal() {
		return ignore(ReasonSubmitted)
	}

	// Rule 2: clipboard
	if ev, ok := in.(EnvironmentEvent); ok && ev.Kind == EventCopyOrPaste {
		return Decision{
			Action:  ActionIgnore,
			Reason:  ReasonClipboardBlocked,
			Message: "Copy/paste is disabled during the exam!",
			Veto:    true,
		}
	}

	// Rule 3: not started
	if phase != domain.PhaseActive {
		return ignore(ReasonNotStarted)
	}

	// Rule 4: active session
	switch v := in.(type) {
	case Signal:
		return decideSignal(v)
	case EnvironmentEvent:
		return decideEnvironment(v)
	case Trigger:
		return decideTrigger(v)
	default:
		return ignore(ReasonUnknownInput)
	}
}

func decideSignal(s Signal) Decision {
	switch s.Source {
	case SourceIdentity:
		return decideIdentity(s)
	case SourceObject:
		return decideObject(s)
	case SourceHeadPose:
		return decideHeadPose(s)
	default:
		return ignore(ReasonUnknownInput)
	}
}

// decideIdentity never submits on its own: a mismatch needs the examinee's
// explicit acknowledgement, since lighting and angle changes cause false
// mismatches.
func decideIdentity(s Signal) Decision {
	switch s.Kind {
	case KindMismatch:
		return Decision{
			Action: ActionConfirmWithUser,
			Reason: ReasonIdentityMismatch,
			Message: "Face mismatch detected! This might be due to lighting or angle changes. " +
				"Please ensure you are the same person who registered. " +
				"Confirm to submit the exam, or decline to continue.",
		}
	case KindMultipleFaces:
		return Decision{
			Action:  ActionWarn,
			Reason:  ReasonMultipleFaces,
			Message: "Multiple faces detected! Please ensure only you are visible.",
		}
	case KindNoFace:
		return ignore(ReasonNoFace)
	default:
		return ignore(ReasonCheckPassed)
	}
}

func decideObject(s Signal) Decision {
	if s.Kind != KindForbidden {
		return ignore(ReasonCheckPassed)
	}
	return Decision{
		Action:  ActionForceSubmit,
		Reason:  ReasonForbiddenObject,
		Message: fmt.Sprintf("Forbidden object detected: %s. Exam will be submitted.", strings.Join(s.Objects, ", ")),
	}
}

func decideHeadPose(s Signal) Decision {
	if s.Kind != KindAlert {
		return ignore(ReasonCheckPassed)
	}
	return Decision{
		Action:  ActionWarn,
		Reason:  ReasonHeadMovement,
		Message: fmt.Sprintf("Head movement detected: %s. Please keep looking at the screen.", s.Detail),
		Audit:   true,
	}
}

func decideEnvironment(ev EnvironmentEvent) Decision {
	switch ev.Kind {
	case EventFullscreenExited:
		return Decision{
			Action:  ActionForceSubmit,
			Reason:  ReasonFullscreenExited,
			Message: "You exited fullscreen. Exam submitted automatically.",
		}
	case EventTabHidden:
		return Decision{
			Action:       ActionWarn,
			Reason:       ReasonTabHidden,
			Message:      "Tab switching is not allowed during the exam! Returning to exam.",
			RestoreFocus: true,
		}
	case EventUnloadAttempt:
		return Decision{
			Action:  ActionIgnore,
			Reason:  ReasonUnloadBlocked,
			Message: "You cannot leave the exam page!",
			Veto:    true,
		}
	default:
		return ignore(ReasonUnknownInput)
	}
}

func decideTrigger(t Trigger) Decision {
	switch t.Kind {
	case TriggerCountdownExpired:
		return Decision{Action: ActionForceSubmit, Reason: ReasonCountdownExpired, Message: "Time is up. Exam submitted."}
	case TriggerManualSubmit:
		return Decision{Action: ActionForceSubmit, Reason: ReasonManualSubmit}
	case TriggerMismatchConfirmed:
		return Decision{Action: ActionForceSubmit, Reason: ReasonMismatchConfirmed}
	default:
		return ignore(ReasonUnknownInput)
	}
}

func ignore(reason string) Decision {
	return Decision{Action: ActionIgnore, Reason: reason}
}
