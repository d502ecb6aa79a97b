package spiflash

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/herlein/trxcore/pkg/critical"
	"github.com/herlein/trxcore/pkg/metrics"
)

// Bus performs one chip-select framed full-duplex SPI transaction.
// rx must be at least as long as tx.
type Bus interface {
	Transfer(tx, rx []byte) error
}

// Device drives a Winbond-compatible SPI NOR flash.
type Device struct {
	bus     Bus
	section *critical.Section
	busy    atomic.Bool
	logger  *log.Logger
	metrics *metrics.Metrics
	delay   func(time.Duration)

	partID uint32
	sector [SectorSize]byte
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Device) { d.metrics = m }
}

// WithDelay replaces the busy-poll sleep, mainly for tests.
func WithDelay(fn func(time.Duration)) Option {
	return func(d *Device) { d.delay = fn }
}

// WithSection shares a critical section with other drivers.
func WithSection(s *critical.Section) Option {
	return func(d *Device) { d.section = s }
}

// New creates a flash device on bus. Init must be called before use.
func New(bus Bus, opts ...Option) *Device {
	d := &Device{
		bus:     bus,
		section: critical.New(),
		logger:  log.Default().WithPrefix("spiflash"),
		delay:   time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init reads the JEDEC ID and checks it against the supported parts.
func (d *Device) Init() error {
	part, err := d.ReadPartID()
	if err != nil {
		return fmt.Errorf("failed to read part ID: %w", err)
	}
	d.partID = part
	d.busy.Store(false)

	if !IsSupportedPart(part) {
		d.logger.Error("unsupported flash", "part", fmt.Sprintf("0x%04X", part))
		return fmt.Errorf("%w: 0x%04X", ErrUnknownPart, part)
	}

	d.logger.Info("flash ready", "part", PartName(part), "capacity", PartCapacity(part))
	return nil
}

// PartID returns the part number found by Init.
func (d *Device) PartID() uint32 {
	return d.partID
}

// Capacity returns the chip size in bytes, or 0 before Init.
func (d *Device) Capacity() uint32 {
	return PartCapacity(d.partID)
}

// acquire takes the busy flag and the critical section. It never waits
// for another caller.
func (d *Device) acquire() error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	d.section.Enter()
	return nil
}

func (d *Device) release() {
	d.section.Exit()
	d.busy.Store(false)
}

func (d *Device) checkRange(addr uint32, n int) error {
	capacity := d.Capacity()
	if capacity == 0 {
		return nil
	}
	if uint64(addr)+uint64(n) > uint64(capacity) {
		return fmt.Errorf("%w: 0x%06X+%d", ErrOutOfRange, addr, n)
	}
	return nil
}

// Read fills p from flash starting at addr.
func (d *Device) Read(addr uint32, p []byte) error {
	if err := d.checkRange(addr, len(p)); err != nil {
		return err
	}
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			d.metrics.FlashRetry()
		}
		if err = d.readLocked(addr, p); err == nil {
			break
		}
	}
	d.metrics.FlashOp("read", err)
	if err != nil {
		return fmt.Errorf("failed to read 0x%06X: %w", addr, err)
	}
	return nil
}

// Write stores p at addr, preserving every other byte of the sectors it
// touches. Each spanned sector is read, spliced, erased and reprogrammed
// in turn. The whole sequence is retried on failure; sectors already
// committed by a failed attempt are not rolled back.
func (d *Device) Write(addr uint32, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := d.checkRange(addr, len(p)); err != nil {
		return err
	}
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			d.metrics.FlashRetry()
			d.logger.Warn("retrying flash write", "addr", fmt.Sprintf("0x%06X", addr), "attempt", attempt+1, "err", err)
		}
		if err = d.writeLocked(addr, p); err == nil {
			break
		}
	}
	d.metrics.FlashOp("write", err)
	if err != nil {
		return fmt.Errorf("failed to write 0x%06X: %w", addr, err)
	}
	return nil
}

func (d *Device) writeLocked(addr uint32, p []byte) error {
	end := addr + uint32(len(p)) - 1
	for sector := addr / SectorSize; sector <= end/SectorSize; sector++ {
		base := sector * SectorSize
		start := max(addr, base)
		stop := min(end, base+SectorSize-1)
		chunk := p[start-addr : stop-addr+1]

		if len(chunk) != SectorSize {
			if err := d.readLocked(base, d.sector[:]); err != nil {
				return err
			}
		}
		copy(d.sector[start-base:], chunk)

		if err := d.eraseLocked(base); err != nil {
			return err
		}
		for i := uint32(0); i < pagesPerSector; i++ {
			if err := d.programLocked(base+i*PageSize, d.sector[i*PageSize:(i+1)*PageSize]); err != nil {
				return err
			}
		}
	}
	return nil
}

// WritePage programs one 256-byte page at addr, which must be page aligned.
// The page must already be erased. Shorter data is padded with 0xFF, which
// leaves those cells unchanged.
func (d *Device) WritePage(addr uint32, p []byte) error {
	if len(p) > PageSize {
		return ErrPageSize
	}
	if addr%PageSize != 0 {
		return fmt.Errorf("%w: 0x%06X", ErrUnaligned, addr)
	}
	if err := d.checkRange(addr, PageSize); err != nil {
		return err
	}
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	page := make([]byte, PageSize)
	for i := copy(page, p); i < PageSize; i++ {
		page[i] = 0xFF
	}
	err := d.programLocked(addr, page)
	d.metrics.FlashOp("program", err)
	return err
}

// EraseSector erases the 4 KiB sector containing addr.
func (d *Device) EraseSector(addr uint32) error {
	if err := d.checkRange(addr&^(SectorSize-1), SectorSize); err != nil {
		return err
	}
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	err := d.eraseLocked(addr)
	d.metrics.FlashOp("erase", err)
	return err
}

// ReadStatusRegister returns SR2 in the high byte and SR1 in the low byte.
func (d *Device) ReadStatusRegister() (uint16, error) {
	if err := d.acquire(); err != nil {
		return 0, err
	}
	defer d.release()

	sr1, err := d.status(CmdReadStatus1)
	if err != nil {
		return 0, fmt.Errorf("failed to read status register 1: %w", err)
	}
	sr2, err := d.status(CmdReadStatus2)
	if err != nil {
		return 0, fmt.Errorf("failed to read status register 2: %w", err)
	}
	return uint16(sr2)<<8 | uint16(sr1), nil
}

// ReadManufacturer returns the JEDEC manufacturer byte.
func (d *Device) ReadManufacturer() (uint8, error) {
	id, err := d.jedec()
	if err != nil {
		return 0, err
	}
	return id[1], nil
}

// ReadPartID returns the memory type and capacity bytes of the JEDEC ID.
func (d *Device) ReadPartID() (uint32, error) {
	id, err := d.jedec()
	if err != nil {
		return 0, err
	}
	return uint32(id[2])<<8 | uint32(id[3]), nil
}

func (d *Device) jedec() ([]byte, error) {
	if err := d.acquire(); err != nil {
		return nil, err
	}
	defer d.release()

	tx := []byte{CmdJEDECID, 0, 0, 0}
	rx := make([]byte, len(tx))
	if err := d.bus.Transfer(tx, rx); err != nil {
		return nil, fmt.Errorf("failed to read JEDEC ID: %w", err)
	}
	return rx, nil
}

func (d *Device) readLocked(addr uint32, p []byte) error {
	tx := make([]byte, 4+len(p))
	tx[0] = CmdRead
	tx[1] = byte(addr >> 16)
	tx[2] = byte(addr >> 8)
	tx[3] = byte(addr)
	rx := make([]byte, len(tx))
	if err := d.bus.Transfer(tx, rx); err != nil {
		return err
	}
	copy(p, rx[4:])
	return nil
}

func (d *Device) writeEnable() error {
	return d.bus.Transfer([]byte{CmdWriteEnable}, make([]byte, 1))
}

func (d *Device) status(cmd byte) (byte, error) {
	rx := make([]byte, 2)
	if err := d.bus.Transfer([]byte{cmd, 0xFF}, rx); err != nil {
		return 0, err
	}
	return rx[1], nil
}

// waitReady polls SR1 once per millisecond until the busy bit clears.
func (d *Device) waitReady(polls int) (bool, error) {
	for i := 0; i < polls; i++ {
		d.delay(time.Millisecond)
		sr, err := d.status(CmdReadStatus1)
		if err != nil {
			return false, err
		}
		if sr&StatusBusy == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (d *Device) eraseLocked(addr uint32) error {
	if err := d.writeEnable(); err != nil {
		return err
	}
	tx := []byte{CmdSectorErase, byte(addr >> 16), byte(addr >> 8), 0x00}
	if err := d.bus.Transfer(tx, make([]byte, len(tx))); err != nil {
		return err
	}
	ready, err := d.waitReady(eraseMaxPolls)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%w at 0x%06X", ErrEraseTimeout, addr)
	}
	d.logger.Debug("sector erased", "addr", fmt.Sprintf("0x%06X", addr))
	return nil
}

func (d *Device) programLocked(addr uint32, page []byte) error {
	if err := d.writeEnable(); err != nil {
		return err
	}
	tx := make([]byte, 4+PageSize)
	tx[0] = CmdPageProgram
	tx[1] = byte(addr >> 16)
	tx[2] = byte(addr >> 8)
	copy(tx[4:], page)
	if err := d.bus.Transfer(tx, make([]byte, len(tx))); err != nil {
		return err
	}
	ready, err := d.waitReady(programMaxPolls)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%w at 0x%06X", ErrProgramTimeout, addr)
	}
	return nil
}
