package ticks

import "sync"

// MaxCallbacks is the number of scheduler slots.
const MaxCallbacks = 8

// ContextAny marks a callback that fires regardless of the current context.
const ContextAny = -1

// Callback is invoked when a scheduled timer expires.
type Callback func()

// ContextFunc returns the identifier of the currently active UI context.
type ContextFunc func() int

type slot struct {
	key   string
	fn    Callback
	dest  int
	timer Timer
}

func (s *slot) empty() bool {
	return s.fn == nil
}

// Scheduler holds up to MaxCallbacks delayed callbacks, ordered by insertion.
// Callbacks are identified by key since Go funcs are not comparable.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	current ContextFunc
	slots   [MaxCallbacks]slot
}

// NewScheduler creates a scheduler. A nil current func means every
// callback fires as if its destination matched.
func NewScheduler(clock Clock, current ContextFunc) *Scheduler {
	return &Scheduler{clock: clock, current: current}
}

// Add schedules fn under key to run after delay milliseconds in context dest.
// When update is set and key is already scheduled, that entry is re-armed.
// When no slot is free the entry is inserted ahead of the first expired one
// and the last entry is dropped. Add returns false if nothing could be scheduled.
func (s *Scheduler) Add(key string, fn Callback, delay uint32, dest int, update bool) bool {
	if fn == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		sl := &s.slots[i]
		switch {
		case sl.empty():
			s.fill(i, key, fn, delay, dest)
			return true

		case update && sl.key == key:
			sl.fn = fn
			sl.dest = dest
			sl.timer.Start(delay)
			return true

		case sl.timer.HasExpired():
			copy(s.slots[i+1:], s.slots[i:MaxCallbacks-1])
			s.fill(i, key, fn, delay, dest)
			return true
		}
	}
	return false
}

func (s *Scheduler) fill(i int, key string, fn Callback, delay uint32, dest int) {
	s.slots[i] = slot{key: key, fn: fn, dest: dest, timer: NewTimer(s.clock)}
	s.slots[i].timer.Start(delay)
}

// Cancel removes the first entry matching key and dest.
func (s *Scheduler) Cancel(key string, dest int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		if s.slots[i].empty() {
			break
		}
		if s.slots[i].key == key && s.slots[i].dest == dest {
			s.removeLocked(i)
			return true
		}
	}
	return false
}

// Pending reports the number of occupied slots.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.slots {
		if s.slots[i].empty() {
			break
		}
		n++
	}
	return n
}

// Scheduled reports whether key is pending for dest.
func (s *Scheduler) Scheduled(key string, dest int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		if s.slots[i].empty() {
			break
		}
		if s.slots[i].key == key && s.slots[i].dest == dest {
			return true
		}
	}
	return false
}

func (s *Scheduler) removeLocked(i int) {
	copy(s.slots[i:], s.slots[i+1:])
	s.slots[MaxCallbacks-1] = slot{}
}

// Handle fires every expired callback. Expired entries are removed even when
// their destination context is not current. The scan restarts from the first
// slot after each invocation because a callback may add or cancel entries.
func (s *Scheduler) Handle() {
	i := 0
	for {
		s.mu.Lock()
		if i >= MaxCallbacks || s.slots[i].empty() {
			s.mu.Unlock()
			return
		}

		var fire Callback
		if s.slots[i].timer.HasExpired() {
			dest := s.slots[i].dest
			if dest == ContextAny || s.current == nil || dest == s.current() {
				fire = s.slots[i].fn
			}
			s.removeLocked(i)
		} else {
			i++
		}
		s.mu.Unlock()

		if fire != nil {
			fire()
			i = 0
		}
	}
}
