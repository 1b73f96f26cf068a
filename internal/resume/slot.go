package resume

import "sync/atomic"

// Slot holds the current résumé. A new résumé replaces the old one as a whole.
type Slot struct {
	current atomic.Pointer[Parsed]
}

// Get returns the current résumé or nil when none is loaded.
func (s *Slot) Get() *Parsed {
	return s.current.Load()
}

// Set replaces the current résumé.
func (s *Slot) Set(p *Parsed) {
	s.current.Store(p)
}
