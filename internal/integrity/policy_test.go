package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"proctor/pkg/domain"
)

var at = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func identity(kind Kind) Signal {
	return Signal{Source: SourceIdentity, Kind: kind, At: at}
}

func env(kind EnvironmentKind) EnvironmentEvent {
	return EnvironmentEvent{Kind: kind, At: at}
}

// TestDecide_ActiveTable pins the decision table for an active session.
func TestDecide_ActiveTable(t *testing.T) {
	tests := []struct {
		name         string
		input        Input
		action       Action
		reason       string
		audit        bool
		veto         bool
		restoreFocus bool
	}{
		{"identity mismatch asks the examinee", identity(KindMismatch), ActionConfirmWithUser, ReasonIdentityMismatch, false, false, false},
		{"multiple faces warns", identity(KindMultipleFaces), ActionWarn, ReasonMultipleFaces, false, false, false},
		{"no face is transient", identity(KindNoFace), ActionIgnore, ReasonNoFace, false, false, false},
		{"match passes", identity(KindMatch), ActionIgnore, ReasonCheckPassed, false, false, false},
		{"forbidden object submits", Signal{Source: SourceObject, Kind: KindForbidden, Objects: []string{"phone"}}, ActionForceSubmit, ReasonForbiddenObject, false, false, false},
		{"clear object passes", Signal{Source: SourceObject, Kind: KindClear}, ActionIgnore, ReasonCheckPassed, false, false, false},
		{"head pose alert warns and audits", Signal{Source: SourceHeadPose, Kind: KindAlert, Detail: "Looking Left"}, ActionWarn, ReasonHeadMovement, true, false, false},
		{"head centered passes", Signal{Source: SourceHeadPose, Kind: KindCentered}, ActionIgnore, ReasonCheckPassed, false, false, false},
		{"fullscreen exit submits", env(EventFullscreenExited), ActionForceSubmit, ReasonFullscreenExited, false, false, false},
		{"tab hidden warns and refocuses", env(EventTabHidden), ActionWarn, ReasonTabHidden, false, false, true},
		{"unload is vetoed", env(EventUnloadAttempt), ActionIgnore, ReasonUnloadBlocked, false, true, false},
		{"clipboard is vetoed", env(EventCopyOrPaste), ActionIgnore, ReasonClipboardBlocked, false, true, false},
		{"countdown expiry submits", Trigger{Kind: TriggerCountdownExpired}, ActionForceSubmit, ReasonCountdownExpired, false, false, false},
		{"manual submit submits", Trigger{Kind: TriggerManualSubmit}, ActionForceSubmit, ReasonManualSubmit, false, false, false},
		{"confirmed mismatch submits", Trigger{Kind: TriggerMismatchConfirmed}, ActionForceSubmit, ReasonMismatchConfirmed, false, false, false},
		{"unknown source ignored", Signal{Source: "thermal", Kind: KindAlert}, ActionIgnore, ReasonUnknownInput, false, false, false},
		{"unknown environment kind ignored", env("resize"), ActionIgnore, ReasonUnknownInput, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.input, domain.PhaseActive)
			assert.Equal(t, tt.action, d.Action, "action")
			assert.Equal(t, tt.reason, d.Reason, "reason")
			assert.Equal(t, tt.audit, d.Audit, "audit")
			assert.Equal(t, tt.veto, d.Veto, "veto")
			assert.Equal(t, tt.restoreFocus, d.RestoreFocus, "restore focus")
		})
	}
}

func TestDecide_SubmittedIsNoOp(t *testing.T) {
	inputs := []Input{
		identity(KindMismatch),
		Signal{Source: SourceObject, Kind: KindForbidden, Objects: []string{"laptop"}},
		Signal{Source: SourceHeadPose, Kind: KindAlert},
		env(EventFullscreenExited),
		env(EventTabHidden),
		env(EventUnloadAttempt),
		env(EventCopyOrPaste),
		Trigger{Kind: TriggerCountdownExpired},
		Trigger{Kind: TriggerManualSubmit},
	}
	for _, in := range inputs {
		d := Decide(in, domain.PhaseSubmitted)
		assert.Equal(t, ActionIgnore, d.Action)
		assert.Equal(t, ReasonSubmitted, d.Reason)
		assert.False(t, d.Veto, "no veto once submitted")
		assert.False(t, d.Audit)
	}
}

func TestDecide_SetupOnlyBlocksClipboard(t *testing.T) {
	d := Decide(env(EventCopyOrPaste), domain.PhaseSetup)
	assert.True(t, d.Veto)

	for _, in := range []Input{
		env(EventFullscreenExited),
		env(EventUnloadAttempt),
		Trigger{Kind: TriggerManualSubmit},
		Signal{Source: SourceObject, Kind: KindForbidden},
	} {
		d := Decide(in, domain.PhaseSetup)
		assert.Equal(t, ActionIgnore, d.Action)
		assert.Equal(t, ReasonNotStarted, d.Reason)
		assert.False(t, d.Veto)
	}
}

func TestDecide_Messages(t *testing.T) {
	d := Decide(Signal{Source: SourceObject, Kind: KindForbidden, Objects: []string{"cell phone", "laptop"}}, domain.PhaseActive)
	assert.Equal(t, "Forbidden object detected: cell phone, laptop. Exam will be submitted.", d.Message)

	d = Decide(Signal{Source: SourceHeadPose, Kind: KindAlert, Detail: "Looking Down"}, domain.PhaseActive)
	assert.Contains(t, d.Message, "Looking Down")
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "ignore", ActionIgnore.String())
	assert.Equal(t, "warn", ActionWarn.String())
	assert.Equal(t, "confirm_with_user", ActionConfirmWithUser.String())
	assert.Equal(t, "force_submit", ActionForceSubmit.String())
	assert.Equal(t, "unknown", Action(42).String())
}
