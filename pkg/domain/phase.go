package domain

// Phase is the lifecycle state of an exam session. Phases only move
// forward: Setup → Active → Submitted.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseActive
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseActive:
		return "active"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (p Phase) IsTerminal() bool {
	return p == PhaseSubmitted
}
