package codeplug

// EEPROM addresses
const (
	addrZoneBasic      = 0x8000
	addrZoneInUse      = 0x8010
	addrZoneList       = 0x8030
	addrZoneFormatHint = 0x8060 // 16 bytes; byte 15 distinguishes the 16 and 80 channel zone layouts

	addrChannelHeaderEEPROM = 0x3780
	addrChannelEEPROM       = 0x3790

	addrSignallingDTMF          = 0x1400
	addrSignallingDTMFDurations = addrSignallingDTMF + 0x72

	addrDTMFContacts = 0x2F88

	addrGeneralSettings = 0x00E0
	addrUserCallsign    = 0x00E0
	addrUserDMRID       = 0x00E8
	addrDeviceInfo      = 0x0080

	addrBootIntroScreen = 0x7518
	addrBootPasswordPin = 0x7518
	addrBootLine1       = 0x7540
	addrBootLine2       = 0x7550
	addrQuickKeys       = 0x7524
	addrVFOA            = 0x7590

	addrAPRSConfigs = 0x1588
	addrLUCZ        = 0xB700
)

// Flash addresses, relative to the configured flash offset
const (
	addrChannelHeaderFlash = 0x7B1B0
	addrChannelFlash       = 0x7B1C0

	addrContacts     = 0x87620
	addrRxGroupLen   = 0x8D620
	addrRxGroup      = 0x8D6A0
	addrCustomData   = 0x00000
	customDataLimit  = 0x10000
	customDataHeader = 12 // "OpenGD77" tag plus 4 reserved bytes
)

// Record sizes and counts
const (
	ChannelRecordSize     = 56
	ContactRecordSize     = 24
	DTMFContactRecordSize = 32
	RxGroupRecordSize     = 80
	APRSRecordSize        = 64
	DeviceInfoSize        = 96
	GeneralSettingsSize   = 40

	ChannelsMin      = 1
	ChannelsMax      = 1024
	ChannelsPerBank  = 128
	ChannelBanks     = 8
	channelBankBytes = ChannelsPerBank / 8

	ContactsMin     = 1
	ContactsMax     = 1024
	DTMFContactsMax = 63
	RxGroupsMax     = 76
	RxGroupTGMax    = 32
	QuickKeysCount  = 10
	APRSConfigsMax  = 8

	zoneInUseBytes      = 32
	zoneNameSize        = 16
	ZonesMaxLegacy      = 250
	ZonesMax80          = 68
	ChannelsPerZone16   = 16
	ChannelsPerZone80   = 80
	luczZoneSlots       = 80
	luczTableSize       = luczZoneSlots + 2
	nameSize            = 16
	radioNameSize       = 8
	bootLineSize        = 16
	customDataMagic     = "OpenGD77"
	luczMagic           = "LUCZ"
	aprsMagic           = 0x4152
	repeaterWakeAttempt = 4
)

// MaxSquelch is the highest explicit per-channel squelch level.
const MaxSquelch = 21

// DefaultSquelch replaces out-of-range stored squelch values.
const DefaultSquelch = 10

// AllCallID is the talkgroup number that matches every call type.
const AllCallID = 16777215

// Flash bank stride: a 16-byte in-use header followed by 128 channel records.
const channelBankStride = channelBankBytes + ChannelsPerBank*ChannelRecordSize

// channelAddress returns the medium and address of a 1-based channel index.
func channelAddress(index int) (inFlash bool, addr uint32) {
	i := index - 1
	if i < ChannelsPerBank {
		return false, uint32(addrChannelEEPROM + i*ChannelRecordSize)
	}
	i -= ChannelsPerBank
	return true, uint32(addrChannelFlash + channelBankBytes*(i/ChannelsPerBank) + i*ChannelRecordSize)
}

// channelHeaderAddress returns the address of the in-use bitmap for bank.
func channelHeaderAddress(bank int) (inFlash bool, addr uint32) {
	if bank == 0 {
		return false, addrChannelHeaderEEPROM
	}
	return true, uint32(addrChannelHeaderFlash + (bank-1)*channelBankStride)
}
