package codeplug

import (
	"bytes"
	"encoding/binary"
)

// The last-used-channel table holds one byte per zone slot (clamped to
// the table size) followed by the All Channels index as a little-endian
// int16, stored zero-based.
const luczAllChannelsOffset = luczZoneSlots

func (s *Store) initLUCZLocked() error {
	tag := make([]byte, len(luczMagic))
	if err := s.readEEPROM(addrLUCZ, tag); err != nil {
		return err
	}
	s.luczDirty = false
	if !bytes.Equal(tag, []byte(luczMagic)) {
		s.lucz = [luczTableSize]byte{}
		return nil
	}
	return s.readEEPROM(addrLUCZ+uint32(len(luczMagic)), s.lucz[:])
}

// LastUsedChannelInZone returns the position last used in zone, or for
// ZoneIndexAllChannels the last used channel number.
func (s *Store) LastUsedChannelInZone(zone int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zone < 0 {
		return int(int16(binary.LittleEndian.Uint16(s.lucz[luczAllChannelsOffset:]))) + 1
	}
	return int(s.lucz[min(zone, luczZoneSlots-1)])
}

// SetLastUsedChannelInZone records channel for zone in memory. Call
// SaveLastUsedChannelInZone to persist it.
func (s *Store) SetLastUsedChannelInZone(zone, channel int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zone < 0 {
		binary.LittleEndian.PutUint16(s.lucz[luczAllChannelsOffset:], uint16(int16(channel-1)))
	} else {
		s.lucz[min(zone, luczZoneSlots-1)] = uint8(channel)
	}
	s.luczDirty = true
}

// SaveLastUsedChannelInZone writes the table when it has changed.
func (s *Store) SaveLastUsedChannelInZone() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.luczDirty {
		return nil
	}
	buf := make([]byte, 0, len(luczMagic)+luczTableSize)
	buf = append(buf, luczMagic...)
	buf = append(buf, s.lucz[:]...)
	err := s.writeEEPROM(addrLUCZ, buf)
	s.metrics.StoreSave("lucz", err)
	if err != nil {
		return err
	}
	s.luczDirty = false
	return nil
}
