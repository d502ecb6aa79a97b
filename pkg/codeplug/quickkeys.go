package codeplug

import (
	"encoding/binary"
	"fmt"
)

// QuickKeyEmpty is the function ID of a cleared quick key. Values with this
// bit set are menu functions; values without it are contact indices.
const QuickKeyEmpty = 0x8000

func (s *Store) initQuickKeysLocked() error {
	buf := make([]byte, 2*QuickKeysCount)
	if err := s.readEEPROM(addrQuickKeys, buf); err != nil {
		return err
	}
	for i := range s.quickKeys {
		s.quickKeys[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return nil
}

func quickKeySlot(key byte) (int, error) {
	if key < '0' || key > '9' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuickKey, key)
	}
	return int(key - '0'), nil
}

// QuickKey returns the function ID bound to key '0'-'9', or 0 for any
// other key.
func (s *Store) QuickKey(key byte) uint16 {
	slot, err := quickKeySlot(key)
	if err != nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quickKeys[slot]
}

func quickKeyIsEmpty(v uint16) bool {
	if v == QuickKeyEmpty {
		return true
	}
	return v&QuickKeyEmpty == 0 && (v < ContactsMin || v > ContactsMax)
}

// SetQuickKey binds id to key. Only empty slots may be written, except
// that QuickKeyEmpty is always accepted so a key can be cleared.
func (s *Store) SetQuickKey(key byte, id uint16) error {
	slot, err := quickKeySlot(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != QuickKeyEmpty && !quickKeyIsEmpty(s.quickKeys[slot]) {
		return fmt.Errorf("%w: %c", ErrQuickKeyOccupied, key)
	}

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, id)
	err = s.writeEEPROM(uint32(addrQuickKeys+2*slot), buf)
	s.metrics.StoreSave("quick_key", err)
	if err != nil {
		return err
	}
	s.quickKeys[slot] = id
	return nil
}
