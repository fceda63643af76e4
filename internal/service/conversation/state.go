package conversation

import (
	"strings"
	"sync"
)

// Snapshot is a point-in-time copy of the session flags.
type Snapshot struct {
	Busy  bool   `json:"busy"`
	Input string `json:"input"`
}

// State holds the two session flags: busy and the pending compose text.
type State struct {
	mu        sync.Mutex
	busy      bool
	input     string
	observers []func(Snapshot)
}

// NewState returns an idle state with an empty composer.
func NewState() *State {
	return &State{}
}

// Busy reports whether a send is in flight.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Input returns the pending compose text.
func (s *State) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Snapshot returns both flags at once.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Busy: s.busy, Input: s.input}
}

// SetInput replaces the pending compose text.
func (s *State) SetInput(text string) {
	s.update(func() bool {
		if s.input == text {
			return false
		}
		s.input = text
		return true
	})
}

// OnChange registers fn to be called after every flag change.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// beginText claims the session for text. It fails when busy or text is blank.
func (s *State) beginText(text string) bool {
	var ok bool
	s.update(func() bool {
		ok = s.beginLocked(text)
		return ok
	})
	return ok
}

// beginPending claims the session for the pending input and returns it.
func (s *State) beginPending() (string, bool) {
	var (
		text string
		ok   bool
	)
	s.update(func() bool {
		text = s.input
		ok = s.beginLocked(text)
		return ok
	})
	return text, ok
}

func (s *State) beginLocked(text string) bool {
	if s.busy || strings.TrimSpace(text) == "" {
		return false
	}
	s.busy = true
	s.input = ""
	return true
}

// end releases the busy flag.
func (s *State) end() {
	s.update(func() bool {
		if !s.busy {
			return false
		}
		s.busy = false
		return true
	})
}

func (s *State) update(mutate func() bool) {
	s.mu.Lock()
	changed := mutate()
	snap := Snapshot{Busy: s.busy, Input: s.input}
	observers := append(([]func(Snapshot))(nil), s.observers...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range observers {
		fn(snap)
	}
}
