package resource

import "fmt"

// StateKind is the variant tag of a State.
type StateKind string

const (
	// StateAbsent means the resource does not exist on the machine.
	StateAbsent StateKind = "absent"
	// StatePresent means the resource exists; Details is an opaque
	// fingerprint (version, target path, value) used for equality.
	StatePresent StateKind = "present"
	// StateModified means the resource exists but differs from
	// desired. Only a resource implementation may synthesize it.
	StateModified StateKind = "modified"
	// StateUnknown means the state could not be determined.
	StateUnknown StateKind = "unknown"
)

// State is the observed or desired condition of a resource.
type State struct {
	Kind    StateKind
	Details string
	From    string
	To      string
}

// Absent returns the absent state.
func Absent() State {
	return State{Kind: StateAbsent}
}

// Present returns a present state with an optional fingerprint.
func Present(details string) State {
	return State{Kind: StatePresent, Details: details}
}

// Modified returns a drifted state carrying both sides.
func Modified(from, to string) State {
	return State{Kind: StateModified, From: from, To: to}
}

// Unknown returns the indeterminate state.
func Unknown() State {
	return State{Kind: StateUnknown}
}

// Equal reports state equality: the variants must match and, for
// present states, the detail fingerprints must be byte-equal. An empty
// fingerprint is unspecified and matches any fingerprint; packages use
// this because the desired state cannot know which version the tool
// will install.
func (s State) Equal(other State) bool {
	if s.Kind != other.Kind {
		return false
	}
	if s.Kind == StatePresent {
		if s.Details == "" || other.Details == "" {
			return true
		}
		return s.Details == other.Details
	}
	if s.Kind == StateModified {
		return s.From == other.From && s.To == other.To
	}
	return true
}

// IsPresent reports whether the state is a present variant.
func (s State) IsPresent() bool {
	return s.Kind == StatePresent
}

// IsAbsent reports whether the state is the absent variant.
func (s State) IsAbsent() bool {
	return s.Kind == StateAbsent
}

// String renders the state for diff output.
func (s State) String() string {
	switch s.Kind {
	case StateAbsent:
		return "absent"
	case StatePresent:
		if s.Details != "" {
			return fmt.Sprintf("present (%s)", s.Details)
		}
		return "present"
	case StateModified:
		return fmt.Sprintf("%s -> %s", s.From, s.To)
	default:
		return "unknown"
	}
}
