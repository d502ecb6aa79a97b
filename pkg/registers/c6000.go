package registers

import (
	"fmt"
	"sync"
)

// HR-C6000 register pages
const (
	C6000PageSound  = 0x03
	C6000PageConfig = 0x04
)

// HR-C6000 page 4 registers
const (
	C6000RegReset       = 0x00
	C6000RegMod2Offset  = 0x04
	C6000RegOpenMusic   = 0x06
	C6000RegColourCode  = 0x1F
	C6000RegPhaseReduce = 0x46
	C6000RegTwoPointLo  = 0x47
	C6000RegTwoPointHi  = 0x48
)

// HR-C6000 values
const (
	C6000ResetAll       = 0x3F
	C6000OpenMusicBit   = 0x02
	C6000VocoderSPI     = 0x21
	C6000FillBufferSize = 128
	C6000FillPattern    = 0xAA
)

// PageWrite records one HR-C6000 register write.
type PageWrite struct {
	Page uint8
	Reg  uint8
	Data []byte
}

// C6000 is an in-memory HR-C6000 that records register writes and
// digital-path lifecycle calls.
type C6000 struct {
	mu    sync.Mutex
	pages map[uint8]*[256]byte
	log   []PageWrite
	fault bool

	digital        bool
	inits          int
	terminations   int
	resyncs        int
	slotDetections int
}

// NewC6000 returns a chip with all registers zero.
func NewC6000() *C6000 {
	return &C6000{pages: make(map[uint8]*[256]byte)}
}

func (c *C6000) page(p uint8) *[256]byte {
	pg, ok := c.pages[p]
	if !ok {
		pg = new([256]byte)
		c.pages[p] = pg
	}
	return pg
}

// WritePageReg writes a single byte.
func (c *C6000) WritePageReg(page, reg, value uint8) error {
	return c.WritePageRegs(page, reg, []byte{value})
}

// WritePageRegs writes data to consecutive registers starting at reg.
func (c *C6000) WritePageRegs(page, reg uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault {
		return ErrInjectedFault
	}
	if int(reg)+len(data) > 256 {
		return fmt.Errorf("c6000 write past end of page %d: 0x%02X+%d", page, reg, len(data))
	}
	copy(c.page(page)[reg:], data)
	c.log = append(c.log, PageWrite{Page: page, Reg: reg, Data: append([]byte(nil), data...)})
	return nil
}

// ClearPageRegWithMask sets reg to (current & mask) | value.
func (c *C6000) ClearPageRegWithMask(page, reg, mask, value uint8) error {
	c.mu.Lock()
	cur := c.page(page)[reg]
	c.mu.Unlock()
	return c.WritePageReg(page, reg, cur&mask|value)
}

// PageReg returns a register value.
func (c *C6000) PageReg(page, reg uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page(page)[reg]
}

// Writes returns the write log.
func (c *C6000) Writes() []PageWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PageWrite(nil), c.log...)
}

// ClearLog empties the write log.
func (c *C6000) ClearLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = nil
}

// SetFault makes every access fail while set.
func (c *C6000) SetFault(fault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault = fault
}

// InitDigital starts the DMR path.
func (c *C6000) InitDigital() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault {
		return ErrInjectedFault
	}
	c.digital = true
	c.inits++
	return nil
}

// TerminateDigital stops the DMR path.
func (c *C6000) TerminateDigital() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault {
		return ErrInjectedFault
	}
	c.digital = false
	c.terminations++
	return nil
}

// ResyncTimeSlot requests timeslot resynchronisation.
func (c *C6000) ResyncTimeSlot() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault {
		return ErrInjectedFault
	}
	c.resyncs++
	return nil
}

// ResetTimeSlotDetection clears timeslot detection state.
func (c *C6000) ResetTimeSlotDetection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault {
		return ErrInjectedFault
	}
	c.slotDetections++
	return nil
}

// C6000Stats reports lifecycle call counts.
type C6000Stats struct {
	Digital        bool
	Inits          int
	Terminations   int
	Resyncs        int
	SlotDetections int
}

// Stats returns the lifecycle counters.
func (c *C6000) Stats() C6000Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return C6000Stats{
		Digital:        c.digital,
		Inits:          c.inits,
		Terminations:   c.terminations,
		Resyncs:        c.resyncs,
		SlotDetections: c.slotDetections,
	}
}
