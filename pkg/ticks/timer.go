package ticks

// Timer is a one-shot countdown measured against a Clock.
// The zero Timer is disabled.
type Timer struct {
	clock   Clock
	start   uint32
	timeout uint32
}

// NewTimer returns a disabled timer bound to clock.
func NewTimer(clock Clock) Timer {
	return Timer{clock: clock}
}

// Start arms the timer for timeout milliseconds from now.
func (t *Timer) Start(timeout uint32) {
	t.start = t.clock.Millis()
	t.timeout = timeout
}

// Restart re-arms the timer with its previous timeout.
func (t *Timer) Restart() {
	t.start = t.clock.Millis()
}

// Reset disables the timer.
func (t *Timer) Reset() {
	t.start = 0
	t.timeout = 0
}

// HasExpired reports whether at least timeout milliseconds have elapsed
// since Start. The subtraction is wrap-safe.
func (t *Timer) HasExpired() bool {
	return t.clock.Millis()-t.start >= t.timeout
}

// Remaining returns the milliseconds left before expiry, or 0.
func (t *Timer) Remaining() uint32 {
	if t.timeout == 0 {
		return 0
	}
	elapsed := t.clock.Millis() - t.start
	if elapsed >= t.timeout {
		return 0
	}
	return t.timeout - elapsed
}

// IsEnabled reports whether the timer has been started with a non-zero timeout.
func (t *Timer) IsEnabled() bool {
	return t.start != 0 && t.timeout != 0
}

// Timeout returns the configured timeout.
func (t *Timer) Timeout() uint32 {
	return t.timeout
}
