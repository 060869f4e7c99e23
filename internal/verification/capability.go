package verification

// Capability is one remote verification function.
type Capability string

const (
	CapabilityRegister Capability = "register"
	CapabilityVerify   Capability = "verify"
	CapabilityObject   Capability = "object"
	CapabilityHeadPose Capability = "head_pose"
)

// endpoints maps each capability to its path on the verification service.
var endpoints = map[Capability]string{
	CapabilityRegister: "/register-face",
	CapabilityVerify:   "/verify-face",
	CapabilityObject:   "/detect-object",
	CapabilityHeadPose: "/detect-head",
}

// Capabilities lists all supported capabilities in a stable order.
func Capabilities() []Capability {
	return []Capability{CapabilityRegister, CapabilityVerify, CapabilityObject, CapabilityHeadPose}
}

func (c Capability) Valid() bool {
	_, ok := endpoints[c]
	return ok
}

// Endpoint returns the request path for c.
func (c Capability) Endpoint() string {
	return endpoints[c]
}

// RequiresSubject reports whether requests must carry the subject id.
func (c Capability) RequiresSubject() bool {
	return c == CapabilityRegister || c == CapabilityVerify
}
