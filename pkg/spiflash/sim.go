package spiflash

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrInjectedFault is returned by Sim transfers selected for failure.
var ErrInjectedFault = errors.New("injected bus fault")

// Sim is an in-memory SPI NOR chip that speaks the command set used by
// Device. Erase sets bytes to 0xFF and programming can only clear bits.
type Sim struct {
	mu sync.Mutex

	mem          []byte
	manufacturer byte
	part         uint16
	wel          bool
	busyPolls    int

	// EraseBusyPolls is the number of status reads that report busy after an erase.
	EraseBusyPolls int
	// ProgramBusyPolls is the number of status reads that report busy after a program.
	ProgramBusyPolls int
	// StuckBusy makes every status read report busy.
	StuckBusy bool

	failAfter int
	failCount int
	commands  map[byte]int
}

// NewSim creates an erased chip with the given part ID.
func NewSim(part uint16) *Sim {
	size := PartCapacity(uint32(part))
	if size == 0 {
		size = 1 << 20
	}
	s := &Sim{
		mem:              make([]byte, size),
		manufacturer:     ManufacturerWinbond,
		part:             part,
		EraseBusyPolls:   3,
		ProgramBusyPolls: 1,
		failAfter:        -1,
		commands:         make(map[byte]int),
	}
	for i := range s.mem {
		s.mem[i] = 0xFF
	}
	return s
}

// FailTransfers makes count transfers fail after skip successful ones.
func (s *Sim) FailTransfers(skip, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = skip
	s.failCount = count
}

// Count returns how many times cmd has been issued.
func (s *Sim) Count(cmd byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands[cmd]
}

// ResetCounts clears the command counters.
func (s *Sim) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = make(map[byte]int)
}

// Size returns the chip capacity.
func (s *Sim) Size() int {
	return len(s.mem)
}

// Bytes returns a copy of the array contents.
func (s *Sim) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.mem))
	copy(out, s.mem)
	return out
}

// Load replaces the array contents starting at offset 0.
func (s *Sim) Load(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) > len(s.mem) {
		return fmt.Errorf("%w: image is %d bytes, chip is %d", ErrOutOfRange, len(data), len(s.mem))
	}
	copy(s.mem, data)
	return nil
}

// LoadFile loads an image file.
func (s *Sim) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read flash image: %w", err)
	}
	return s.Load(data)
}

// SaveFile writes the array contents to path.
func (s *Sim) SaveFile(path string) error {
	if err := os.WriteFile(path, s.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write flash image: %w", err)
	}
	return nil
}

// Transfer implements Bus.
func (s *Sim) Transfer(tx, rx []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx) == 0 {
		return nil
	}
	if s.failAfter == 0 && s.failCount > 0 {
		s.failCount--
		return ErrInjectedFault
	}
	if s.failAfter > 0 {
		s.failAfter--
	}

	cmd := tx[0]
	s.commands[cmd]++

	switch cmd {
	case CmdWriteEnable:
		if s.busyPolls == 0 {
			s.wel = true
		}

	case CmdWriteDisable:
		s.wel = false

	case CmdReadStatus1:
		var sr byte
		if s.StuckBusy || s.busyPolls > 0 {
			sr |= StatusBusy
			if s.busyPolls > 0 {
				s.busyPolls--
			}
		}
		if s.wel {
			sr |= StatusWriteEnable
		}
		fill(rx[1:len(tx)], sr)

	case CmdReadStatus2:
		fill(rx[1:len(tx)], 0)

	case CmdJEDECID:
		id := []byte{s.manufacturer, byte(s.part >> 8), byte(s.part)}
		copy(rx[1:len(tx)], id)

	case CmdRead:
		if len(tx) < 4 {
			return nil
		}
		addr := s.addr(tx)
		for i := 4; i < len(tx); i++ {
			rx[i] = s.mem[(addr+i-4)%len(s.mem)]
		}

	case CmdSectorErase:
		if !s.wel || s.busyPolls > 0 || len(tx) < 4 {
			return nil
		}
		base := s.addr(tx) &^ (SectorSize - 1)
		fill(s.mem[base:base+SectorSize], 0xFF)
		s.wel = false
		s.busyPolls = s.EraseBusyPolls

	case CmdPageProgram:
		if !s.wel || s.busyPolls > 0 || len(tx) < 4 {
			return nil
		}
		addr := s.addr(tx)
		page := addr &^ (PageSize - 1)
		for i, b := range tx[4:] {
			s.mem[page+(addr+i)%PageSize] &= b
		}
		s.wel = false
		s.busyPolls = s.ProgramBusyPolls
	}
	return nil
}

func (s *Sim) addr(tx []byte) int {
	return (int(tx[1])<<16 | int(tx[2])<<8 | int(tx[3])) % len(s.mem)
}

func fill(p []byte, v byte) {
	for i := range p {
		p[i] = v
	}
}
