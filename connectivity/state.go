package connectivity

import (
	"time"
)

// Mode is a module's view of the backend.
type Mode int

const (
	Unknown Mode = iota
	Online
	Offline
)

func (m Mode) String() string {
	switch m {
	case Online:
		return "online"
	case Offline:
		return "offline"
	}
	return "unknown"
}

// State is owned by one controller instance; there is no process-wide copy.
type State struct {
	Mode      Mode
	LastCheck time.Time
}

// Transition moves to mode at the given time and returns the previous mode.
func (s *State) Transition(mode Mode, at time.Time) Mode {
	prev := s.Mode
	s.Mode = mode
	s.LastCheck = at
	return prev
}
