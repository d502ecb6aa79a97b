package codeplug

import "fmt"

// VFO selects one of the two VFO channel slots.
type VFO int

// VFO slots
const (
	VFOA VFO = iota
	VFOB
)

func validChannel(index int) error {
	if index < ChannelsMin || index > ChannelsMax {
		return fmt.Errorf("%w: channel %d", ErrInvalidIndex, index)
	}
	return nil
}

// validFrequencies checks that both of c's frequencies survive encoding.
func validFrequencies(c *Channel) error {
	if err := validFrequency(c.RxFreq); err != nil {
		return fmt.Errorf("rx: %w", err)
	}
	if err := validFrequency(c.TxFreq); err != nil {
		return fmt.Errorf("tx: %w", err)
	}
	return nil
}

func (s *Store) initChannelsLocked() error {
	for bank := 0; bank < ChannelBanks; bank++ {
		inFlash, addr := channelHeaderAddress(bank)
		if err := s.read(inFlash, addr, s.channelsInUse[bank*channelBankBytes:(bank+1)*channelBankBytes]); err != nil {
			return err
		}
	}
	s.recountChannelsLocked()
	return nil
}

func (s *Store) recountChannelsLocked() {
	s.channelsTotal = popcount(s.channelsInUse[:])
	s.channelsHighest = 0
	for index := ChannelsMax; index >= ChannelsMin; index-- {
		if s.channelInUseLocked(index) {
			s.channelsHighest = index
			break
		}
	}
	s.metrics.SetChannelsInUse(s.channelsTotal)
}

func (s *Store) channelInUseLocked(index int) bool {
	if validChannel(index) != nil {
		return false
	}
	i := index - 1
	return s.channelsInUse[i/8]>>(i%8)&0x01 != 0
}

// AllChannelsIndexIsInUse reports whether channel index holds data.
func (s *Store) AllChannelsIndexIsInUse(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelInUseLocked(index)
}

// ChannelsCount returns the number of in-use channels.
func (s *Store) ChannelsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelsTotal
}

// HighestChannelIndex returns the highest in-use channel index, or 0.
func (s *Store) HighestChannelIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelsHighest
}

// AllChannelsIndexSetUsed marks channel index as in use and persists the
// one bitmap byte that changed.
func (s *Store) AllChannelsIndexSetUsed(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setChannelUsedLocked(index, true)
}

// AllChannelsIndexSetUnused clears channel index from the in-use bitmap.
func (s *Store) AllChannelsIndexSetUnused(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setChannelUsedLocked(index, false)
}

func (s *Store) setChannelUsedLocked(index int, used bool) error {
	if err := validChannel(index); err != nil {
		return err
	}
	if s.channelInUseLocked(index) == used {
		return nil
	}

	i := index - 1
	bank := i / ChannelsPerBank
	cacheOffset := i / 8
	if used {
		s.channelsInUse[cacheOffset] |= 1 << (i % 8)
	} else {
		s.channelsInUse[cacheOffset] &^= 1 << (i % 8)
	}

	inFlash, addr := channelHeaderAddress(bank)
	addr += uint32((i % ChannelsPerBank) / 8)
	if err := s.write(inFlash, addr, s.channelsInUse[cacheOffset:cacheOffset+1]); err != nil {
		return err
	}

	if used {
		s.channelsTotal++
		s.channelsHighest = max(s.channelsHighest, index)
		s.metrics.SetChannelsInUse(s.channelsTotal)
		return nil
	}
	s.recountChannelsLocked()
	return nil
}

// Channel loads channel index.
func (s *Store) Channel(index int) (Channel, error) {
	if err := validChannel(index); err != nil {
		return Channel{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, ChannelRecordSize)
	inFlash, addr := channelAddress(index)
	if err := s.read(inFlash, addr, buf); err != nil {
		return Channel{}, err
	}
	return decodeChannel(buf), nil
}

// SaveChannel writes c to channel index and marks the index in use. The
// record is encoded into its own buffer so c is left as passed. Frequencies
// must be whole multiples of 10 Hz no higher than MaxFrequency.
func (s *Store) SaveChannel(index int, c Channel) error {
	if err := validChannel(index); err != nil {
		return err
	}
	if err := validFrequencies(&c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inFlash, addr := channelAddress(index)
	err := s.write(inFlash, addr, encodeChannel(&c, s.clearOutOfBand))
	if err == nil {
		err = s.setChannelUsedLocked(index, true)
	}
	s.metrics.StoreSave("channel", err)
	return err
}

// DeleteChannel clears channel index from the in-use bitmap. The record
// bytes are left on media.
func (s *Store) DeleteChannel(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.setChannelUsedLocked(index, false)
	s.metrics.StoreSave("channel", err)
	return err
}

// VFOChannel loads a VFO slot.
func (s *Store) VFOChannel(v VFO) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, ChannelRecordSize)
	if err := s.readEEPROM(uint32(addrVFOA+int(v)*ChannelRecordSize), buf); err != nil {
		return Channel{}, err
	}
	return decodeChannel(buf), nil
}

// SaveVFOChannel writes a VFO slot.
func (s *Store) SaveVFOChannel(v VFO, c Channel) error {
	if err := validFrequencies(&c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeEEPROM(uint32(addrVFOA+int(v)*ChannelRecordSize), encodeChannel(&c, s.clearOutOfBand))
	s.metrics.StoreSave("vfo", err)
	return err
}
