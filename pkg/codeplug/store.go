// Package codeplug reads and writes the radio's persistent configuration
// (channels, zones, contacts and settings) held across the EEPROM and the
// SPI flash.
package codeplug

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/herlein/trxcore/pkg/metrics"
)

// Memory is a byte-addressable store.
type Memory interface {
	Read(addr uint32, p []byte) error
	Write(addr uint32, p []byte) error
}

// Store owns the codeplug caches. All methods are safe for concurrent use;
// InitCaches must complete before any lookup.
type Store struct {
	mu sync.Mutex

	eeprom      Memory
	flash       Memory
	flashOffset uint32
	logger      *log.Logger
	metrics     *metrics.Metrics

	allChannelsName string
	clearOutOfBand  bool

	channelsPerZone int
	zonesInUse      [zoneInUseBytes]byte

	channelsInUse   [ChannelBanks * channelBankBytes]byte
	channelsTotal   int
	channelsHighest int

	contacts     contactCache
	dtmfContacts []int

	rxGroupLengths [RxGroupsMax]byte
	quickKeys      [QuickKeysCount]uint16

	lucz      [luczTableSize]byte
	luczDirty bool

	aprsCount int
}

// Option configures a Store.
type Option func(*Store)

// WithFlashOffset shifts every flash address, for radios whose codeplug
// does not start at flash address 0.
func WithFlashOffset(offset uint32) Option {
	return func(s *Store) { s.flashOffset = offset }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithAllChannelsName sets the display name of the synthetic zone.
func WithAllChannelsName(name string) Option {
	return func(s *Store) { s.allChannelsName = name }
}

// WithClearOutOfBand strips the out-of-band flag from channels as they are
// written, leaving the caller's copy untouched.
func WithClearOutOfBand() Option {
	return func(s *Store) { s.clearOutOfBand = true }
}

// New creates a store over the EEPROM and flash.
func New(eeprom, flash Memory, opts ...Option) *Store {
	s := &Store{
		eeprom:          eeprom,
		flash:           flash,
		logger:          log.Default().WithPrefix("codeplug"),
		allChannelsName: "All Channels",
		channelsPerZone: ChannelsPerZone16,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) readEEPROM(addr uint32, p []byte) error {
	if err := s.eeprom.Read(addr, p); err != nil {
		return fmt.Errorf("failed to read eeprom 0x%04X: %w", addr, err)
	}
	return nil
}

func (s *Store) writeEEPROM(addr uint32, p []byte) error {
	if err := s.eeprom.Write(addr, p); err != nil {
		return fmt.Errorf("failed to write eeprom 0x%04X: %w", addr, err)
	}
	return nil
}

func (s *Store) readFlash(addr uint32, p []byte) error {
	if err := s.flash.Read(s.flashOffset+addr, p); err != nil {
		return fmt.Errorf("failed to read flash 0x%06X: %w", addr, err)
	}
	return nil
}

func (s *Store) writeFlash(addr uint32, p []byte) error {
	if err := s.flash.Write(s.flashOffset+addr, p); err != nil {
		return fmt.Errorf("failed to write flash 0x%06X: %w", addr, err)
	}
	return nil
}

func (s *Store) read(inFlash bool, addr uint32, p []byte) error {
	if inFlash {
		return s.readFlash(addr, p)
	}
	return s.readEEPROM(addr, p)
}

func (s *Store) write(inFlash bool, addr uint32, p []byte) error {
	if inFlash {
		return s.writeFlash(addr, p)
	}
	return s.writeEEPROM(addr, p)
}

// InitCaches loads every cache from media in dependency order. It stops at
// the first media failure.
func (s *Store) InitCaches() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initAllLocked()
}

func (s *Store) initAllLocked() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"contacts", s.initContactsLocked},
		{"dtmf contacts", s.initDTMFContactsLocked},
		{"channels", s.initChannelsLocked},
		{"zones", s.initZonesLocked},
		{"rx groups", s.initRxGroupsLocked},
		{"quick keys", s.initQuickKeysLocked},
		{"last used channels", s.initLUCZLocked},
		{"aprs", s.initAPRSLocked},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to load %s: %w", step.name, err)
		}
	}

	s.logger.Info("codeplug loaded",
		"channels", s.channelsTotal,
		"zones", s.zonesCountLocked(),
		"contacts", s.contacts.len(),
		"channelsPerZone", s.channelsPerZone)
	return nil
}

// RepeaterWakeAttempts returns the number of repeater wake-up attempts.
func (s *Store) RepeaterWakeAttempts() int {
	return repeaterWakeAttempt
}
