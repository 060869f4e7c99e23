package verification

import (
	"fmt"
	"strings"
)

// Outcome is the typed result of one capability call. The concrete type
// depends on the capability: RegisterOutcome, VerifyOutcome, ObjectOutcome
// or HeadPoseOutcome.
type Outcome interface {
	Capability() Capability
	// Label is the wire status string, used in logs and metric labels.
	Label() string
}

type RegisterStatus string

const (
	RegisterRegistered    RegisterStatus = "registered"
	RegisterNoFace        RegisterStatus = "no_face"
	RegisterMultipleFaces RegisterStatus = "multiple_faces"
	RegisterPoorQuality   RegisterStatus = "poor_quality"
)

type RegisterOutcome struct {
	Status RegisterStatus
	// Message explains a PoorQuality rejection.
	Message string
}

func (RegisterOutcome) Capability() Capability { return CapabilityRegister }
func (o RegisterOutcome) Label() string { return string(o.Status) }

type VerifyStatus string

const (
	VerifyMatch         VerifyStatus = "match"
	VerifyMismatch      VerifyStatus = "mismatch"
	VerifyNoFace        VerifyStatus = "no_face"
	VerifyMultipleFaces VerifyStatus = "multiple_faces"
)

type VerifyOutcome struct {
	Status VerifyStatus
}

func (VerifyOutcome) Capability() Capability { return CapabilityVerify }
func (o VerifyOutcome) Label() string { return string(o.Status) }

type ObjectStatus string

const (
	ObjectClear     ObjectStatus = "clear"
	ObjectForbidden ObjectStatus = "forbidden_object"
)

type ObjectOutcome struct {
	Status  ObjectStatus
	Objects []string
}

func (ObjectOutcome) Capability() Capability { return CapabilityObject }
func (o ObjectOutcome) Label() string { return string(o.Status) }

type HeadPoseStatus string

const (
	HeadPoseCentered HeadPoseStatus = "centered"
	HeadPoseAlert    HeadPoseStatus = "alert"
)

// HeadPoseOutcome carries the estimated angles in degrees alongside the
// classification. Direction is the service's label, without the alert
// prefix.
type HeadPoseOutcome struct {
	Status    HeadPoseStatus
	Direction string
	Yaw       float64
	Pitch     float64
	Roll      float64
}

func (HeadPoseOutcome) Capability() Capability { return CapabilityHeadPose }
func (o HeadPoseOutcome) Label() string { return string(o.Status) }

const alertPrefix = "ALERT"

// response is the union of the service's JSON bodies.
type response struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Objects   []string `json:"objects"`
	Direction string   `json:"direction"`
	Yaw       float64  `json:"yaw"`
	Pitch     float64  `json:"pitch"`
	Roll      float64  `json:"roll"`
}

// toOutcome maps a decoded body onto the capability's closed set. Any status
// outside the set is an error: guessing would risk a false detection.
func (r response) toOutcome(c Capability) (Outcome, error) {
	switch c {
	case CapabilityRegister:
		switch s := RegisterStatus(r.Status); s {
		case RegisterRegistered, RegisterNoFace, RegisterMultipleFaces, RegisterPoorQuality:
			return RegisterOutcome{Status: s, Message: r.Message}, nil
		}
	case CapabilityVerify:
		switch s := VerifyStatus(r.Status); s {
		case VerifyMatch, VerifyMismatch, VerifyNoFace, VerifyMultipleFaces:
			return VerifyOutcome{Status: s}, nil
		}
	case CapabilityObject:
		switch s := ObjectStatus(r.Status); s {
		case ObjectClear:
			return ObjectOutcome{Status: s}, nil
		case ObjectForbidden:
			if len(r.Objects) == 0 {
				return nil, fmt.Errorf("forbidden_object without objects")
			}
			return ObjectOutcome{Status: s, Objects: r.Objects}, nil
		}
	case CapabilityHeadPose:
		return r.headPose()
	}
	return nil, fmt.Errorf("unexpected status %q", r.Status)
}

func (r response) headPose() (Outcome, error) {
	if r.Direction == "" {
		return nil, fmt.Errorf("head pose response without direction")
	}
	out := HeadPoseOutcome{
		Status:    HeadPoseCentered,
		Direction: r.Direction,
		Yaw:       r.Yaw,
		Pitch:     r.Pitch,
		Roll:      r.Roll,
	}
	if rest, ok := strings.CutPrefix(r.Direction, alertPrefix); ok {
		out.Status = HeadPoseAlert
		out.Direction = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest), ":"))
	}
	return out, nil
}
