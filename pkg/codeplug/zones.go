package codeplug

import (
	"encoding/binary"
	"fmt"
)

// Zone slot markers for Zone.Index.
const (
	ZoneIndexAllChannels = -1
	ZoneIndexNotFound    = -2
)

// Zone is an ordered list of channel indices. Channels has the layout's
// full capacity; unused entries are zero.
type Zone struct {
	Name         string   `yaml:"name"`
	Channels     []uint16 `yaml:"channels"`
	NumChannels  int      `yaml:"num_channels"`
	HighestIndex int      `yaml:"highest_index"`
	Index        int      `yaml:"index"`
}

// IsAllChannels reports whether z is the synthetic zone.
func (z *Zone) IsAllChannels() bool {
	return z.Index == ZoneIndexAllChannels
}

func (s *Store) initZonesLocked() error {
	if err := s.readEEPROM(addrZoneInUse, s.zonesInUse[:]); err != nil {
		return err
	}

	hint := make([]byte, 16)
	if err := s.readEEPROM(addrZoneFormatHint, hint); err != nil {
		return err
	}
	// With 16 channels per zone this byte is the tail of a 0xFF padded zone
	// name. With 80 it is the high byte of a channel number, which is at most 4.
	s.channelsPerZone = ChannelsPerZone16
	if hint[15] <= 0x04 {
		s.channelsPerZone = ChannelsPerZone80
	}
	return nil
}

func (s *Store) zoneRecordSize() int {
	return zoneNameSize + 2*s.channelsPerZone
}

func (s *Store) zonesMaxLocked() int {
	if s.channelsPerZone == ChannelsPerZone80 {
		return ZonesMax80
	}
	return ZonesMaxLegacy
}

func (s *Store) zonesCountLocked() int {
	return 1 + popcount(s.zonesInUse[:])
}

// ChannelsPerZone returns the zone capacity detected by InitCaches.
func (s *Store) ChannelsPerZone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelsPerZone
}

// ZonesCount returns the number of zones including All Channels.
func (s *Store) ZonesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zonesCountLocked()
}

// Zone returns the zone with 0-based ordinal number. The last ordinal is
// the synthetic All Channels zone.
func (s *Store) Zone(number int) (Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := Zone{Channels: make([]uint16, s.channelsPerZone)}

	if number == s.zonesCountLocked()-1 {
		z.Name = s.allChannelsName
		z.NumChannels = s.channelsTotal
		z.HighestIndex = s.channelsHighest
		z.Index = ZoneIndexAllChannels
		return z, nil
	}

	slot := s.zoneSlotLocked(number)
	if slot < 0 {
		z.Index = ZoneIndexNotFound
		return z, fmt.Errorf("%w: %d", ErrZoneNotFound, number)
	}

	buf := make([]byte, s.zoneRecordSize())
	if err := s.readEEPROM(s.zoneAddress(slot), buf); err != nil {
		z.Index = ZoneIndexNotFound
		return z, err
	}

	z.Index = slot
	z.Name = decodeName(buf[:zoneNameSize])
	for i := range z.Channels {
		z.Channels[i] = binary.LittleEndian.Uint16(buf[zoneNameSize+2*i:])
	}
	z.NumChannels = s.channelsPerZone
	for i, ch := range z.Channels {
		if ch == 0 {
			z.NumChannels = i
			break
		}
	}
	z.HighestIndex = z.NumChannels
	return z, nil
}

// zoneSlotLocked maps a zone ordinal to its physical slot by counting set
// bits in the in-use bitmap. It returns -1 when there is no such zone.
func (s *Store) zoneSlotLocked(number int) int {
	if number < 0 {
		return -1
	}
	count := -1
	for i, b := range s.zonesInUse {
		for j := 0; j < 8; j++ {
			if b>>j&0x01 != 0 {
				count++
				if count == number {
					return i*8 + j
				}
			}
		}
	}
	return -1
}

func (s *Store) zoneAddress(slot int) uint32 {
	return uint32(addrZoneList + slot*s.zoneRecordSize())
}

func (s *Store) encodeZone(z *Zone) []byte {
	buf := make([]byte, s.zoneRecordSize())
	encodeName(buf[:zoneNameSize], z.Name)
	for i := 0; i < s.channelsPerZone && i < len(z.Channels); i++ {
		binary.LittleEndian.PutUint16(buf[zoneNameSize+2*i:], z.Channels[i])
	}
	return buf
}

// AddChannelToZone appends channel to z and saves the zone. z is updated
// only when the save succeeds.
func (s *Store) AddChannelToZone(channel uint16, z *Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if z.Index == ZoneIndexAllChannels {
		return ErrSyntheticZone
	}
	if z.Index < 0 {
		return ErrZoneNotFound
	}
	if z.NumChannels >= s.channelsPerZone {
		return ErrZoneFull
	}

	next := *z
	next.Channels = make([]uint16, s.channelsPerZone)
	copy(next.Channels, z.Channels)
	next.Channels[next.NumChannels] = channel
	next.NumChannels++
	next.HighestIndex = next.NumChannels

	err := s.writeEEPROM(s.zoneAddress(z.Index), s.encodeZone(&next))
	s.metrics.StoreSave("zone", err)
	if err != nil {
		return err
	}
	*z = next
	return nil
}

// CreateZone stores an empty zone in the first free slot.
func (s *Store) CreateZone(name string) (Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := -1
	for i := 0; i < s.zonesMaxLocked(); i++ {
		if s.zonesInUse[i/8]>>(i%8)&0x01 == 0 {
			slot = i
			break
		}
	}
	if slot < 0 {
		return Zone{}, ErrNoZoneSlot
	}

	z := Zone{Name: name, Channels: make([]uint16, s.channelsPerZone), Index: slot}
	if err := s.writeEEPROM(s.zoneAddress(slot), s.encodeZone(&z)); err != nil {
		s.metrics.StoreSave("zone", err)
		return Zone{}, err
	}

	s.zonesInUse[slot/8] |= 1 << (slot % 8)
	err := s.writeEEPROM(uint32(addrZoneInUse+slot/8), s.zonesInUse[slot/8:slot/8+1])
	s.metrics.StoreSave("zone", err)
	if err != nil {
		s.zonesInUse[slot/8] &^= 1 << (slot % 8)
		return Zone{}, err
	}
	return z, nil
}

// DeleteZone clears the in-use bit of the zone with ordinal number.
func (s *Store) DeleteZone(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if number == s.zonesCountLocked()-1 {
		return ErrSyntheticZone
	}
	slot := s.zoneSlotLocked(number)
	if slot < 0 {
		return fmt.Errorf("%w: %d", ErrZoneNotFound, number)
	}

	b := s.zonesInUse[slot/8] &^ (1 << (slot % 8))
	err := s.writeEEPROM(uint32(addrZoneInUse+slot/8), []byte{b})
	s.metrics.StoreSave("zone", err)
	if err != nil {
		return err
	}
	s.zonesInUse[slot/8] = b
	return nil
}
