package enums

import "fmt"

// State is a two-letter US state code a sale shipped to.
type State string

const (
	StateNY State = "NY"
	StateCA State = "CA"
	StateIL State = "IL"
	StateTX State = "TX"
	StateAZ State = "AZ"
	StatePA State = "PA"
)

var validStates = []State{
	StateNY,
	StateCA,
	StateIL,
	StateTX,
	StateAZ,
	StatePA,
}

// States returns the state codes in catalog order.
func States() []State {
	out := make([]State, len(validStates))
	copy(out, validStates)
	return out
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// IsValid reports whether the value is a known State.
func (s State) IsValid() bool {
	for _, candidate := range validStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseState converts raw input into a State.
func ParseState(value string) (State, error) {
	for _, candidate := range validStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid state %q", value)
}
