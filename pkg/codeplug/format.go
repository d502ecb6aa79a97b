package codeplug

import (
	"bytes"
	"encoding/binary"
)

type mediaWrite struct {
	inFlash bool
	addr    uint32
	data    []byte
}

// Format writes an empty codeplug: no channels, zones, contacts, RX
// groups or APRS profiles, cleared quick keys and an empty custom data
// region. Zones use the 80 channel layout. Caches are reloaded afterwards.
func (s *Store) Format() error {
	if err := s.FormatCustomData(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quickKeys := make([]byte, 2*QuickKeysCount)
	for i := 0; i < QuickKeysCount; i++ {
		binary.LittleEndian.PutUint16(quickKeys[2*i:], QuickKeyEmpty)
	}
	lucz := make([]byte, len(luczMagic)+luczTableSize)
	copy(lucz, luczMagic)

	writes := []mediaWrite{
		{false, addrZoneInUse, make([]byte, zoneInUseBytes)},
		{false, addrZoneFormatHint, make([]byte, 16)},
		{false, addrDTMFContacts, bytes.Repeat([]byte{0xFF}, DTMFContactsMax*DTMFContactRecordSize)},
		{false, addrQuickKeys, quickKeys},
		{false, addrAPRSConfigs, bytes.Repeat([]byte{0xFF}, APRSConfigsMax*APRSRecordSize)},
		{false, addrLUCZ, lucz},
		{true, addrContacts, bytes.Repeat([]byte{0xFF}, ContactsMax*ContactRecordSize)},
		{true, addrRxGroupLen, make([]byte, RxGroupsMax)},
	}
	for bank := 0; bank < ChannelBanks; bank++ {
		inFlash, addr := channelHeaderAddress(bank)
		writes = append(writes, mediaWrite{inFlash, addr, make([]byte, channelBankBytes)})
	}

	for _, w := range writes {
		if err := s.write(w.inFlash, w.addr, w.data); err != nil {
			s.metrics.StoreSave("format", err)
			return err
		}
	}
	s.metrics.StoreSave("format", nil)
	s.logger.Info("codeplug formatted")

	return s.initAllLocked()
}
