package codeplug

import "encoding/binary"

// RadioMode is the modulation of a channel and of the transceiver.
type RadioMode uint8

// Radio modes
const (
	RadioModeNone RadioMode = iota
	RadioModeAnalog
	RadioModeDigital
)

func (m RadioMode) String() string {
	switch m {
	case RadioModeNone:
		return "none"
	case RadioModeAnalog:
		return "analog"
	case RadioModeDigital:
		return "digital"
	}
	return "unknown"
}

// Channel is a decoded channel record. Frequencies are in Hz and tones
// are in the in-memory CSS form.
type Channel struct {
	Name          string    `yaml:"name"`
	RxFreq        uint32    `yaml:"rx_freq"`
	TxFreq        uint32    `yaml:"tx_freq"`
	Mode          RadioMode `yaml:"mode"`
	Power         uint8     `yaml:"power"` // 0 uses the radio setting, otherwise level+1
	TOT           uint8     `yaml:"tot"`
	RxTone        uint16    `yaml:"rx_tone"`
	TxTone        uint16    `yaml:"tx_tone"`
	TxSignaling   uint8     `yaml:"tx_signaling"`
	RxSignaling   uint8     `yaml:"rx_signaling"`
	ArtsInterval  uint8     `yaml:"arts_interval"`
	Encrypt       uint8     `yaml:"encrypt"`
	RxColor       uint8     `yaml:"rx_color"`
	RxGroupList   uint8     `yaml:"rx_group_list"`
	TxColor       uint8     `yaml:"tx_color"`
	EmgSystem     uint8     `yaml:"emg_system"`
	Contact       uint16    `yaml:"contact"`
	LibreFlag1    uint8     `yaml:"libre_flag1"`
	Flag1         uint8     `yaml:"flag1"`
	Flag2         uint8     `yaml:"flag2"`
	Flag3         uint8     `yaml:"flag3"`
	Flag4         uint8     `yaml:"flag4"`
	VFOOffsetFreq uint16    `yaml:"vfo_offset_freq"`
	VFOFlag5      uint8     `yaml:"vfo_flag5"`
	Squelch       uint8     `yaml:"squelch"`
	Location      [6]uint8  `yaml:"location"`
}

// Record byte offsets
const (
	chOffName          = 0
	chOffRxFreq        = 16
	chOffTxFreq        = 20
	chOffMode          = 24
	chOffPower         = 25
	chOffLocationLat0  = 26
	chOffTOT           = 27
	chOffLocationLat1  = 28
	chOffLocationLat2  = 29
	chOffLocationLon0  = 30
	chOffLibreFlag1    = 31
	chOffRxTone        = 32
	chOffTxTone        = 34
	chOffLocationLon1  = 36
	chOffTxSignaling   = 37
	chOffLocationLon2  = 38
	chOffRxSignaling   = 39
	chOffArtsInterval  = 40
	chOffEncrypt       = 41
	chOffRxColor       = 42
	chOffRxGroupList   = 43
	chOffTxColor       = 44
	chOffEmgSystem     = 45
	chOffContact       = 46
	chOffFlag1         = 48
	chOffFlag2         = 49
	chOffFlag3         = 50
	chOffFlag4         = 51
	chOffVFOOffsetFreq = 52
	chOffVFOFlag5      = 54
	chOffSquelch       = 55
)

var locationOffsets = [6]int{
	chOffLocationLat0, chOffLocationLat1, chOffLocationLat2,
	chOffLocationLon0, chOffLocationLon1, chOffLocationLon2,
}

// decodeChannel converts a media record to its in-memory form and applies
// the squelch sanity fallback.
func decodeChannel(b []byte) Channel {
	c := Channel{
		Name:          decodeName(b[chOffName : chOffName+nameSize]),
		RxFreq:        readFrequency(b[chOffRxFreq:]),
		TxFreq:        readFrequency(b[chOffTxFreq:]),
		Mode:          RadioModeDigital,
		Power:         b[chOffPower],
		TOT:           b[chOffTOT],
		RxTone:        CSSToInt(binary.LittleEndian.Uint16(b[chOffRxTone:])),
		TxTone:        CSSToInt(binary.LittleEndian.Uint16(b[chOffTxTone:])),
		TxSignaling:   b[chOffTxSignaling],
		RxSignaling:   b[chOffRxSignaling],
		ArtsInterval:  b[chOffArtsInterval],
		Encrypt:       b[chOffEncrypt],
		RxColor:       b[chOffRxColor],
		RxGroupList:   b[chOffRxGroupList],
		TxColor:       b[chOffTxColor],
		EmgSystem:     b[chOffEmgSystem],
		Contact:       binary.LittleEndian.Uint16(b[chOffContact:]),
		LibreFlag1:    b[chOffLibreFlag1],
		Flag1:         b[chOffFlag1],
		Flag2:         b[chOffFlag2],
		Flag3:         b[chOffFlag3],
		Flag4:         b[chOffFlag4],
		VFOOffsetFreq: binary.LittleEndian.Uint16(b[chOffVFOOffsetFreq:]),
		VFOFlag5:      b[chOffVFOFlag5],
		Squelch:       b[chOffSquelch],
	}
	if b[chOffMode] == 0 {
		c.Mode = RadioModeAnalog
	}
	for i, off := range locationOffsets {
		c.Location[i] = b[off]
	}
	if c.Squelch > MaxSquelch {
		c.Squelch = DefaultSquelch
	}
	return c
}

// encodeChannel builds the media record for c into a fresh buffer; c is
// never modified.
func encodeChannel(c *Channel, clearOutOfBand bool) []byte {
	b := make([]byte, ChannelRecordSize)
	encodeName(b[chOffName:chOffName+nameSize], c.Name)
	putFrequency(b[chOffRxFreq:], c.RxFreq)
	putFrequency(b[chOffTxFreq:], c.TxFreq)
	if c.Mode != RadioModeAnalog {
		b[chOffMode] = 1
	}
	b[chOffPower] = c.Power
	b[chOffTOT] = c.TOT
	binary.LittleEndian.PutUint16(b[chOffRxTone:], IntToCSS(c.RxTone))
	binary.LittleEndian.PutUint16(b[chOffTxTone:], IntToCSS(c.TxTone))
	b[chOffTxSignaling] = c.TxSignaling
	b[chOffRxSignaling] = c.RxSignaling
	b[chOffArtsInterval] = c.ArtsInterval
	b[chOffEncrypt] = c.Encrypt
	b[chOffRxColor] = c.RxColor
	b[chOffRxGroupList] = c.RxGroupList
	b[chOffTxColor] = c.TxColor
	b[chOffEmgSystem] = c.EmgSystem
	binary.LittleEndian.PutUint16(b[chOffContact:], c.Contact)
	b[chOffLibreFlag1] = c.LibreFlag1
	if clearOutOfBand {
		b[chOffLibreFlag1] &^= flagTable[FlagOutOfBand].mask
	}
	b[chOffFlag1] = c.Flag1
	b[chOffFlag2] = c.Flag2
	b[chOffFlag3] = c.Flag3
	b[chOffFlag4] = c.Flag4
	binary.LittleEndian.PutUint16(b[chOffVFOOffsetFreq:], c.VFOOffsetFreq)
	b[chOffVFOFlag5] = c.VFOFlag5
	b[chOffSquelch] = c.Squelch
	for i, off := range locationOffsets {
		b[off] = c.Location[i]
	}
	return b
}

// Bandwidth25k reports whether the channel uses 25 kHz bandwidth.
func (c *Channel) Bandwidth25k() bool {
	return c.Flag(FlagBandwidth25k) != 0
}

// Default optional DMR ID fields: rxSignaling 0, artsInterval 22, encrypt 0.
const defaultOptionalDMRID = 0x001600

// OptionalDMRID returns the per-channel DMR ID override, or 0 if unset.
func (c *Channel) OptionalDMRID() uint32 {
	if c.Flag(FlagOptionalDMRID) == 0 {
		return 0
	}
	return uint32(c.RxSignaling)<<16 | uint32(c.ArtsInterval)<<8 | uint32(c.Encrypt)
}

// SetOptionalDMRID stores id in the reused signalling bytes. An id outside
// 1..16777215 clears the override and restores the default byte values.
func (c *Channel) SetOptionalDMRID(id uint32) {
	v := uint32(defaultOptionalDMRID)
	c.SetFlag(FlagOptionalDMRID, 0)
	if id >= 1 && id <= AllCallID {
		v = id
		c.SetFlag(FlagOptionalDMRID, 1)
	}
	c.RxSignaling = uint8(v >> 16)
	c.ArtsInterval = uint8(v >> 8)
	c.Encrypt = uint8(v)
}

// TalkerAliasTx selects what is sent as talker alias on a timeslot.
type TalkerAliasTx uint8

// Talker alias transmit options
const (
	TalkerAliasOff TalkerAliasTx = iota
	TalkerAliasAPRS
	TalkerAliasText
	TalkerAliasBoth
)

// TalkerAliasTx returns the talker alias setting for timeslot ts (0 or 1).
func (c *Channel) TalkerAliasTx(ts int) TalkerAliasTx {
	shift := 0
	if ts != 0 {
		shift = 2
	}
	return TalkerAliasTx((c.Flag1 >> shift) & 0x03)
}

// SetTalkerAliasTx sets the talker alias option for timeslot ts (0 or 1).
func (c *Channel) SetTalkerAliasTx(ts int, v TalkerAliasTx) {
	shift := 0
	if ts != 0 {
		shift = 2
	}
	c.Flag1 = c.Flag1&^(0x03<<shift) | (uint8(v)&0x03)<<shift
}
