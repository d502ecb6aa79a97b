package registers

import (
	"errors"
	"sync"
)

// ErrInjectedFault is returned by simulated chips while a fault is set.
var ErrInjectedFault = errors.New("injected register fault")

// Write records one register write.
type Write struct {
	Reg   uint8
	Value uint16
}

// AT1846S is an in-memory AT1846S. RegRSSINoise and RegFlags reflect the
// injected signal and CSS state rather than written values.
type AT1846S struct {
	mu    sync.Mutex
	regs  [256]uint16
	log   []Write
	rssi  uint8
	noise uint8
	css   bool
	fault bool
}

// NewAT1846S returns a chip loaded with PowerOnDefaults and no signal.
func NewAT1846S() *AT1846S {
	s := &AT1846S{noise: 0xFF}
	for _, f := range PowerOnDefaults().fields() {
		s.regs[f.reg] = *f.v
	}
	return s
}

// ReadReg returns the value of reg.
func (s *AT1846S) ReadReg(reg uint8) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault {
		return 0, ErrInjectedFault
	}
	switch reg {
	case RegRSSINoise:
		return uint16(s.rssi)<<8 | uint16(s.noise), nil
	case RegFlags:
		if s.css {
			return FlagCSSMatched, nil
		}
		return 0, nil
	}
	return s.regs[reg], nil
}

// WriteReg stores value in reg.
func (s *AT1846S) WriteReg(reg uint8, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault {
		return ErrInjectedFault
	}
	s.regs[reg] = value
	s.log = append(s.log, Write{Reg: reg, Value: value})
	return nil
}

// Reg returns the stored value of reg without side effects.
func (s *AT1846S) Reg(reg uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// Writes returns the write log.
func (s *AT1846S) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.log...)
}

// WritesTo returns the values written to reg in order.
func (s *AT1846S) WritesTo(reg uint8) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint16
	for _, w := range s.log {
		if w.Reg == reg {
			out = append(out, w.Value)
		}
	}
	return out
}

// ClearLog empties the write log.
func (s *AT1846S) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// SetSignal sets the raw RSSI and noise readings.
func (s *AT1846S) SetSignal(rssi, noise uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rssi = rssi
	s.noise = noise
}

// SetCSSDetected sets whether the sub-audio decoder reports a match.
func (s *AT1846S) SetCSSDetected(detected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.css = detected
}

// SetFault makes every access fail while set.
func (s *AT1846S) SetFault(fault bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fault
}

// Frequency returns the frequency programmed in the tuning registers.
func (s *AT1846S) Frequency() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FrequencyFromWord(uint32(s.regs[RegFreqHigh])<<16 | uint32(s.regs[RegFreqLow]))
}
