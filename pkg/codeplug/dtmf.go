package codeplug

import (
	"fmt"
	"strings"
)

// dtmfSymbols maps code nibbles to keypad symbols.
const dtmfSymbols = "0123456789ABCD*#"

// DTMFContact is a named DTMF dial string.
type DTMFContact struct {
	Name  string `yaml:"name"`
	Code  string `yaml:"code"`
	Index int    `yaml:"index"`
}

func decodeDTMFContact(b []byte, index int) DTMFContact {
	var code strings.Builder
	for _, v := range b[nameSize:DTMFContactRecordSize] {
		if int(v) >= len(dtmfSymbols) {
			break
		}
		code.WriteByte(dtmfSymbols[v])
	}
	return DTMFContact{Name: decodeName(b[:nameSize]), Code: code.String(), Index: index}
}

func encodeDTMFContact(c *DTMFContact) ([]byte, error) {
	b := make([]byte, DTMFContactRecordSize)
	encodeName(b[:nameSize], c.Name)
	code := b[nameSize:]
	for i := range code {
		code[i] = 0xFF
	}
	if len(c.Code) > len(code) {
		return nil, fmt.Errorf("dtmf code %q longer than %d symbols", c.Code, len(code))
	}
	for i := 0; i < len(c.Code); i++ {
		v := strings.IndexByte(dtmfSymbols, c.Code[i])
		if v < 0 {
			return nil, fmt.Errorf("invalid dtmf symbol %q", c.Code[i])
		}
		code[i] = byte(v)
	}
	return b, nil
}

func dtmfContactAddress(index int) uint32 {
	return uint32(addrDTMFContacts + (index-1)*DTMFContactRecordSize)
}

func (s *Store) initDTMFContactsLocked() error {
	s.dtmfContacts = s.dtmfContacts[:0]

	first := make([]byte, 1)
	for i := 1; i <= DTMFContactsMax; i++ {
		if err := s.readEEPROM(dtmfContactAddress(i), first); err != nil {
			return err
		}
		// Zero marks a slot still holding legacy zone data.
		if first[0] != 0xFF && first[0] != 0x00 {
			s.dtmfContacts = append(s.dtmfContacts, i)
		}
	}
	return nil
}

// DTMFContactsCount returns the number of DTMF contacts in use.
func (s *Store) DTMFContactsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dtmfContacts)
}

func (s *Store) dtmfContactLocked(index int) (DTMFContact, error) {
	if len(s.dtmfContacts) == 0 || index < 1 || index > DTMFContactsMax {
		return DTMFContact{}, fmt.Errorf("%w: dtmf contact %d", ErrContactNotFound, index)
	}
	b := make([]byte, DTMFContactRecordSize)
	if err := s.readEEPROM(dtmfContactAddress(index), b); err != nil {
		return DTMFContact{}, err
	}
	return decodeDTMFContact(b, index), nil
}

// DTMFContact loads slot index.
func (s *Store) DTMFContact(index int) (DTMFContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dtmfContactLocked(index)
}

// DTMFContactForNumber returns the number'th (1-based) DTMF contact in use.
func (s *Store) DTMFContactForNumber(number int) (DTMFContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if number < 1 || number > len(s.dtmfContacts) {
		return DTMFContact{}, fmt.Errorf("%w: dtmf contact #%d", ErrContactNotFound, number)
	}
	return s.dtmfContactLocked(s.dtmfContacts[number-1])
}

// SaveDTMFContact writes slot index. An empty name frees the slot.
func (s *Store) SaveDTMFContact(index int, c DTMFContact) error {
	if index < 1 || index > DTMFContactsMax {
		return fmt.Errorf("%w: dtmf contact %d", ErrInvalidIndex, index)
	}
	rec, err := encodeDTMFContact(&c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.writeEEPROM(dtmfContactAddress(index), rec)
	s.metrics.StoreSave("dtmf_contact", err)
	if err != nil {
		return err
	}
	return s.initDTMFContactsLocked()
}
