package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start when a session is already
	// starting or running.
	ErrAlreadyRunning = errors.New("scanner is already running")

	// ErrNotRunning is returned by Stop when there is no session.
	ErrNotRunning = errors.New("scanner is not running")
)

// State is the scanner's lifecycle state.
type State int

const (
	Idle State = iota
	Initializing
	Scanning
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Scanning:
		return "scanning"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Initializing, Scanning, Stopping} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown scanner state %q", text)
}
