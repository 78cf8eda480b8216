// Package surface models a dismissable UI surface: a modal, dropdown or
// palette that can be opened, closed explicitly or dismissed by the user
// pressing Escape or interacting outside of it.
package surface

import "sync"

// Reason says why a surface was closed.
type Reason int

const (
	ReasonExplicit Reason = iota
	ReasonEscape
	ReasonOutside
)

func (r Reason) String() string {
	switch r {
	case ReasonEscape:
		return "escape"
	case ReasonOutside:
		return "outside"
	default:
		return "explicit"
	}
}

// KeyEscape is the key name HandleKey reacts to.
const KeyEscape = "esc"

type Surface struct {
	mu        sync.Mutex
	open      bool
	listeners []func(Reason)
}

func New() *Surface {
	return &Surface{}
}

// OnDismiss registers fn to run every time an open surface closes.
func (s *Surface) OnDismiss(fn func(Reason)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Surface) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *Surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Close closes the surface. Closing a closed surface does nothing.
func (s *Surface) Close() {
	s.Dismiss(ReasonExplicit)
}

// Dismiss closes the surface and notifies listeners with reason. It reports
// whether the surface was open.
func (s *Surface) Dismiss(reason Reason) bool {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return false
	}
	s.open = false
	listeners := append([]func(Reason){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
	return true
}

// HandleKey dismisses the surface on Escape and reports whether the key was
// consumed.
func (s *Surface) HandleKey(key string) bool {
	if key != KeyEscape {
		return false
	}
	return s.Dismiss(ReasonEscape)
}

// HandleOutside is called for an interaction outside the surface's content.
func (s *Surface) HandleOutside() bool {
	return s.Dismiss(ReasonOutside)
}
