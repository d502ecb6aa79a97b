package codeplug

// CSSType classifies a sub-audible squelch code.
type CSSType uint8

// CSS type flags; DCS may be combined with DCSInverted.
const (
	CSSNone     CSSType = 0x00
	CSSCTCSS    CSSType = 0x01
	CSSDCS      CSSType = 0x02
	CSSInverted CSSType = 0x04
)

// In-memory tone encoding flags.
const (
	CSSToneNone     = 0xFFFF
	CSSDCSFlag      = 0x8000
	CSSDCSInverted  = 0x4000
	cssDCSMask      = 0xC000
	cssDCSCodeMask  = 0x01FF
	cssDCSValueMask = 0x3FFF
)

func (t CSSType) String() string {
	switch {
	case t == CSSNone:
		return "none"
	case t == CSSCTCSS:
		return "ctcss"
	case t&CSSInverted != 0:
		return "dcs-inverted"
	case t&CSSDCS != 0:
		return "dcs"
	}
	return "unknown"
}

// ToneType classifies tone. 0 and CSSToneNone mean no squelch code.
func ToneType(tone uint16) CSSType {
	if tone == CSSToneNone || tone == 0 {
		return CSSNone
	}
	if tone&cssDCSMask == 0 {
		return CSSCTCSS
	}
	if tone&CSSDCSInverted != 0 {
		return CSSDCS | CSSInverted
	}
	return CSSDCS
}

// CSSToInt converts an on-media tone to its in-memory form. CTCSS tones
// become tenths of Hz; DCS codes keep their flag bits.
func CSSToInt(tone uint16) uint16 {
	if ToneType(tone) == CSSCTCSS {
		return uint16(BCDToInt(uint32(tone)))
	}
	if tone == 0 {
		return CSSToneNone
	}
	return tone
}

// IntToCSS converts an in-memory tone to its on-media form.
func IntToCSS(tone uint16) uint16 {
	if ToneType(tone) == CSSCTCSS {
		return uint16(IntToBCD(uint32(tone)))
	}
	if tone == 0 {
		return CSSToneNone
	}
	return tone
}

// DCSTone builds the in-memory value for a DCS code given as its
// octal digits packed one per nibble, e.g. 0x023 for D023.
func DCSTone(code uint16, inverted bool) uint16 {
	v := CSSDCSFlag | (code & 0x0FFF)
	if inverted {
		v |= CSSDCSInverted
	}
	return v
}
