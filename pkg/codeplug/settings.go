package codeplug

import (
	"encoding/binary"
	"fmt"
)

// DeviceInfo is the factory data block. Band limits are in MHz.
type DeviceInfo struct {
	MinUHF      uint16  `yaml:"min_uhf"`
	MaxUHF      uint16  `yaml:"max_uhf"`
	MinVHF      uint16  `yaml:"min_vhf"`
	MaxVHF      uint16  `yaml:"max_vhf"`
	LastProgram [6]byte `yaml:"last_program"`
	Model       string  `yaml:"model"`
	Serial      string  `yaml:"serial"`
	CPSVersion  string  `yaml:"cps_version"`
	HWVersion   string  `yaml:"hw_version"`
	FWVersion   string  `yaml:"fw_version"`
	DSPVersion  string  `yaml:"dsp_version"`
}

// DeviceInfo reads the factory data block.
func (s *Store) DeviceInfo() (DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, DeviceInfoSize)
	if err := s.readEEPROM(addrDeviceInfo, b); err != nil {
		return DeviceInfo{}, err
	}
	d := DeviceInfo{
		MinUHF:     BCDToUint16(binary.LittleEndian.Uint16(b[0:])),
		MaxUHF:     BCDToUint16(binary.LittleEndian.Uint16(b[2:])),
		MinVHF:     BCDToUint16(binary.LittleEndian.Uint16(b[4:])),
		MaxVHF:     BCDToUint16(binary.LittleEndian.Uint16(b[6:])),
		Model:      decodeName(b[16:24]),
		Serial:     decodeName(b[24:40]),
		CPSVersion: decodeName(b[40:48]),
		HWVersion:  decodeName(b[48:56]),
		FWVersion:  decodeName(b[56:64]),
		DSPVersion: decodeName(b[64:88]),
	}
	copy(d.LastProgram[:], b[8:14])
	return d, nil
}

// GeneralSettings is the radio identity block at the start of the
// general settings area. Raw holds the whole block.
type GeneralSettings struct {
	RadioName string                    `yaml:"radio_name"`
	DMRID     uint32                    `yaml:"dmr_id"`
	Raw       [GeneralSettingsSize]byte `yaml:"-"`
}

// GeneralSettings reads the general settings block.
func (s *Store) GeneralSettings() (GeneralSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var g GeneralSettings
	if err := s.readEEPROM(addrGeneralSettings, g.Raw[:]); err != nil {
		return g, err
	}
	g.RadioName = decodeName(g.Raw[:radioNameSize])
	g.DMRID = readBCD32BE(g.Raw[addrUserDMRID-addrGeneralSettings:])
	return g, nil
}

// RadioName returns the callsign shown on the display.
func (s *Store) RadioName() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, radioNameSize)
	if err := s.readEEPROM(addrUserCallsign, b); err != nil {
		return "", err
	}
	return decodeName(b), nil
}

// UserDMRID returns the radio's own DMR ID.
func (s *Store) UserDMRID() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, 4)
	if err := s.readEEPROM(addrUserDMRID, b); err != nil {
		return 0, err
	}
	return readBCD32BE(b), nil
}

// SetUserDMRID stores the radio's own DMR ID.
func (s *Store) SetUserDMRID(id uint32) error {
	if id == 0 || id > 99999999 {
		return fmt.Errorf("%w: dmr id %d", ErrInvalidIndex, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, 4)
	putBCD32BE(b, id)
	err := s.writeEEPROM(addrUserDMRID, b)
	s.metrics.StoreSave("dmr_id", err)
	return err
}

// BootScreen holds the power-on text.
type BootScreen struct {
	Line1       string `yaml:"line1"`
	Line2       string `yaml:"line2"`
	DisplayType uint8  `yaml:"display_type"`
}

// BootScreen reads the boot lines and display type.
func (s *Store) BootScreen() (BootScreen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := make([]byte, bootLineSize-1)
	var bs BootScreen
	if err := s.readEEPROM(addrBootLine1, line); err != nil {
		return bs, err
	}
	bs.Line1 = decodeName(line)
	if err := s.readEEPROM(addrBootLine2, line); err != nil {
		return bs, err
	}
	bs.Line2 = decodeName(line)

	t := make([]byte, 1)
	if err := s.readEEPROM(addrBootIntroScreen, t); err != nil {
		return bs, err
	}
	bs.DisplayType = t[0]
	return bs, nil
}

// PasswordPin returns the power-on PIN and its digit count. A count of 0
// means no PIN is set.
func (s *Store) PasswordPin() (pin int, digits int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, 6)
	if err := s.readEEPROM(addrBootPasswordPin+1, b); err != nil {
		return 0, 0, err
	}
	if b[0]&0x01 == 0 {
		return 0, 0, nil
	}
	for i := 0; i < 6; i++ {
		nibble := int(b[i/2+3]>>((1-i%2)*4)) & 0x0F
		if nibble == 0x0F {
			break
		}
		pin = pin*10 + nibble
		digits++
	}
	return pin, digits, nil
}

// DTMFDurations are the DTMF timing settings.
type DTMFDurations struct {
	First uint8 `yaml:"first"`
	Other uint8 `yaml:"other"`
	Rate  uint8 `yaml:"rate"`
	Tail  uint8 `yaml:"tail"`
}

const (
	dtmfTailMax     = 10
	dtmfTailDefault = 5
	dtmfRateDefault = 2
)

// DTMFDurations reads the DTMF timings. On failure the returned value has
// a usable Rate so callers can still divide by it.
func (s *Store) DTMFDurations() (DTMFDurations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, 4)
	if err := s.readEEPROM(addrSignallingDTMFDurations, b); err != nil {
		return DTMFDurations{Rate: dtmfRateDefault}, err
	}
	d := DTMFDurations{First: b[0], Other: b[1], Rate: b[2], Tail: b[3]}
	if d.Tail > dtmfTailMax {
		d.Tail = dtmfTailDefault
	}
	return d, nil
}
