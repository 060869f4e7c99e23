package monitor

import (
	"fmt"
	"strings"
	"time"

	"proctor/internal/integrity"
	"proctor/internal/verification"
	pstrings "proctor/pkg/platform/strings"
)

// Classify turns a verification outcome into a policy Signal. Registration
// outcomes are not monitor outcomes and are rejected.
func Classify(outcome verification.Outcome, at time.Time) (integrity.Signal, error) {
	switch o := outcome.(type) {
	case verification.VerifyOutcome:
		kind, ok := identityKinds[o.Status]
		if !ok {
			return integrity.Signal{}, fmt.Errorf("unexpected identity status %q", o.Status)
		}
		return integrity.Signal{Source: integrity.SourceIdentity, Kind: kind, At: at}, nil

	case verification.ObjectOutcome:
		sig := integrity.Signal{Source: integrity.SourceObject, Kind: integrity.KindClear, At: at}
		if o.Status == verification.ObjectForbidden {
			sig.Kind = integrity.KindForbidden
			sig.Objects = pstrings.NormalizeLabels(o.Objects)
			sig.Detail = strings.Join(sig.Objects, ", ")
		}
		return sig, nil

	case verification.HeadPoseOutcome:
		sig := integrity.Signal{
			Source: integrity.SourceHeadPose,
			Kind:   integrity.KindCentered,
			Detail: o.Direction,
			Pose:   &integrity.Pose{Yaw: o.Yaw, Pitch: o.Pitch, Roll: o.Roll},
			At:     at,
		}
		if o.Status == verification.HeadPoseAlert {
			sig.Kind = integrity.KindAlert
		}
		return sig, nil

	case nil:
		return integrity.Signal{}, fmt.Errorf("nil outcome")
	default:
		return integrity.Signal{}, fmt.Errorf("outcome %T is not a monitor outcome", outcome)
	}
}

var identityKinds = map[verification.VerifyStatus]integrity.Kind{
	verification.VerifyMatch:         integrity.KindMatch,
	verification.VerifyMismatch:      integrity.KindMismatch,
	verification.VerifyNoFace:        integrity.KindNoFace,
	verification.VerifyMultipleFaces: integrity.KindMultipleFaces,
}

// StatusLine is the short "last check" text shown for a loop.
func StatusLine(sig integrity.Signal) string {
	switch {
	case sig.Kind == integrity.KindForbidden:
		return "Last check: forbidden object (" + sig.Detail + ")"
	case sig.Source == integrity.SourceHeadPose:
		return "Last check: " + sig.Detail
	default:
		return "Last check: " + strings.ReplaceAll(string(sig.Kind), "_", " ")
	}
}
