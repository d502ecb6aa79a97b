package codeplug

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// APRSConfig is one APRS beacon profile.
type APRSConfig struct {
	Name       string  `yaml:"name"`
	SSID       uint8   `yaml:"ssid"`
	Latitude   [3]byte `yaml:"latitude"`
	Longitude  [3]byte `yaml:"longitude"`
	Paths      uint8   `yaml:"paths"`
	IconTable  uint8   `yaml:"icon_table"`
	IconSymbol uint8   `yaml:"icon_symbol"`
	Comment    string  `yaml:"comment"`
	Flags      uint16  `yaml:"flags"`
	Index      int     `yaml:"index"`
}

const (
	aprsNameSize    = 8
	aprsCommentSize = 24
)

func decodeAPRS(b []byte, index int) APRSConfig {
	c := APRSConfig{
		Name:       decodeName(b[0:aprsNameSize]),
		SSID:       b[8],
		Paths:      b[15],
		IconTable:  b[17],
		IconSymbol: b[18],
		Comment:    decodeName(b[19 : 19+aprsCommentSize]),
		Flags:      binary.LittleEndian.Uint16(b[60:]),
		Index:      index,
	}
	copy(c.Latitude[:], b[9:12])
	copy(c.Longitude[:], b[12:15])
	return c
}

func aprsValid(b []byte) bool {
	return b[0] != 0xFF && binary.LittleEndian.Uint16(b[62:]) == aprsMagic
}

func aprsAddress(index int) uint32 {
	return uint32(addrAPRSConfigs + (index-1)*APRSRecordSize)
}

// initAPRSLocked counts consecutive valid profiles from slot 1.
func (s *Store) initAPRSLocked() error {
	s.aprsCount = 0
	rec := make([]byte, APRSRecordSize)
	for i := 1; i <= APRSConfigsMax; i++ {
		if err := s.readEEPROM(aprsAddress(i), rec); err != nil {
			return err
		}
		if !aprsValid(rec) {
			break
		}
		s.aprsCount = i
	}
	return nil
}

// APRSConfigCount returns the number of valid APRS profiles.
func (s *Store) APRSConfigCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aprsCount
}

// APRSConfig loads profile index (1-based).
func (s *Store) APRSConfig(index int) (APRSConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 1 || index > s.aprsCount {
		return APRSConfig{}, fmt.Errorf("%w: %d", ErrAPRSNotFound, index)
	}
	rec := make([]byte, APRSRecordSize)
	if err := s.readEEPROM(aprsAddress(index), rec); err != nil {
		return APRSConfig{}, err
	}
	if !aprsValid(rec) {
		return APRSConfig{}, fmt.Errorf("%w: %d", ErrAPRSNotFound, index)
	}
	return decodeAPRS(rec, index), nil
}

// APRSIndexOfName returns the 1-based index of the profile called name,
// or 0.
func (s *Store) APRSIndexOfName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make([]byte, aprsNameSize)
	encodeName(want, name)
	got := make([]byte, aprsNameSize)
	for i := 1; i <= s.aprsCount; i++ {
		if err := s.readEEPROM(aprsAddress(i), got); err != nil {
			return 0
		}
		if bytes.Equal(got, want) {
			return i
		}
	}
	return 0
}
