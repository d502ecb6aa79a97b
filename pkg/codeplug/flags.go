package codeplug

// ChannelFlag names a bit field within the channel flag bytes.
type ChannelFlag int

// Channel flags
const (
	FlagOptionalDMRID ChannelFlag = iota
	FlagNoBeep
	FlagNoEco
	FlagOutOfBand
	FlagUseLocation
	FlagForceDMO
	FlagTimeslotTwo
	FlagSTE
	FlagNonSTE
	FlagPower
	FlagVOX
	FlagZoneSkip
	FlagAllSkip
	FlagRxOnly
	FlagBandwidth25k
	FlagSquelch
	flagCount
)

type flagField struct {
	offset int
	mask   uint8
	shift  uint8
}

// flagTable is part of the record format.
var flagTable = [flagCount]flagField{
	FlagOptionalDMRID: {chOffLibreFlag1, 0x80, 7},
	FlagNoBeep:        {chOffLibreFlag1, 0x40, 6},
	FlagNoEco:         {chOffLibreFlag1, 0x20, 5},
	FlagOutOfBand:     {chOffLibreFlag1, 0x10, 4},
	FlagUseLocation:   {chOffLibreFlag1, 0x08, 3},
	FlagForceDMO:      {chOffLibreFlag1, 0x04, 2},
	FlagTimeslotTwo:   {chOffFlag2, 0x40, 6},
	FlagSTE:           {chOffFlag3, 0xC0, 6},
	FlagNonSTE:        {chOffFlag3, 0x20, 5},
	FlagPower:         {chOffFlag4, 0x80, 7},
	FlagVOX:           {chOffFlag4, 0x40, 6},
	FlagZoneSkip:      {chOffFlag4, 0x20, 5},
	FlagAllSkip:       {chOffFlag4, 0x10, 4},
	FlagRxOnly:        {chOffFlag4, 0x04, 2},
	FlagBandwidth25k:  {chOffFlag4, 0x02, 1},
	FlagSquelch:       {chOffFlag4, 0x01, 0},
}

func (c *Channel) flagByte(offset int) *uint8 {
	switch offset {
	case chOffLibreFlag1:
		return &c.LibreFlag1
	case chOffFlag1:
		return &c.Flag1
	case chOffFlag2:
		return &c.Flag2
	case chOffFlag3:
		return &c.Flag3
	case chOffFlag4:
		return &c.Flag4
	}
	panic("codeplug: no flag byte at offset")
}

// Flag returns the right-shifted value of f.
func (c *Channel) Flag(f ChannelFlag) uint8 {
	field := flagTable[f]
	return (*c.flagByte(field.offset) & field.mask) >> field.shift
}

// SetFlag stores value in f, truncated to the field width.
func (c *Channel) SetFlag(f ChannelFlag, value uint8) {
	field := flagTable[f]
	b := c.flagByte(field.offset)
	*b = *b&^field.mask | (value<<field.shift)&field.mask
}
