// Package critical provides the process-wide critical section shared by the
// flash driver, the record store and the transceiver.
//
// A Section is not reentrant. Public entry points acquire it once and
// internal helpers assume it is already held.
package critical

import "sync"

// Section serialises access to hardware shared between goroutines.
type Section struct {
	mu sync.Mutex
}

// New returns an unlocked section.
func New() *Section {
	return &Section{}
}

// Enter acquires the section.
func (s *Section) Enter() {
	s.mu.Lock()
}

// Exit releases the section.
func (s *Section) Exit() {
	s.mu.Unlock()
}

// Do runs fn with the section held.
func (s *Section) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// DoErr runs fn with the section held and returns its error.
func (s *Section) DoErr(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
