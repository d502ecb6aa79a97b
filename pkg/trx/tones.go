package trx

import "sort"

// CTCSSTones are the standard CTCSS frequencies in tenths of Hz.
var CTCSSTones = [...]uint16{
	670, 693, 719, 744, 770, 797, 825, 854, 885, 915,
	948, 974, 1000, 1035, 1072, 1109, 1148, 1188, 1230, 1273,
	1318, 1365, 1413, 1462, 1514, 1567, 1598, 1622, 1655, 1679,
	1713, 1738, 1773, 1799, 1835, 1862, 1899, 1928, 1966, 1995,
	2035, 2065, 2107, 2181, 2257, 2291, 2336, 2418, 2503, 2541,
}

// DCSToneHz100 is the DCS bit rate in hundredths of Hz, programmed as the
// CTCSS1 frequency when DCS is active.
const DCSToneHz100 = 13440

// DCSEntry pairs a DCS code with its Golay(23,12) parity bits.
type DCSEntry struct {
	Code  uint16 // 9-bit code, e.g. 0o023
	Golay uint16 // 11 parity bits
}

// DCSCodes holds the standard DCS codes sorted by code.
var DCSCodes = [...]DCSEntry{
	{0o023, 0x763}, {0o025, 0x6B7}, {0o026, 0x65D}, {0o031, 0x51F},
	{0o032, 0x5F5}, {0o043, 0x5B6}, {0o047, 0x0FD}, {0o051, 0x7CA},
	{0o054, 0x6F4}, {0o065, 0x5D1}, {0o071, 0x679}, {0o072, 0x693},
	{0o073, 0x2E6}, {0o074, 0x747}, {0o114, 0x35E}, {0o115, 0x72B},
	{0o116, 0x7C1}, {0o125, 0x07B}, {0o131, 0x3D3}, {0o132, 0x339},
	{0o134, 0x2ED}, {0o143, 0x37A}, {0o152, 0x1EC}, {0o155, 0x44D},
	{0o156, 0x4A7}, {0o162, 0x6BC}, {0o165, 0x31D}, {0o172, 0x05F},
	{0o174, 0x18B}, {0o205, 0x6E9}, {0o223, 0x68E}, {0o226, 0x7B0},
	{0o243, 0x45B}, {0o244, 0x1FA}, {0o245, 0x58F}, {0o251, 0x627},
	{0o261, 0x177}, {0o263, 0x5E8}, {0o265, 0x43C}, {0o271, 0x794},
	{0o306, 0x0CF}, {0o311, 0x38D}, {0o315, 0x6C6}, {0o331, 0x23E},
	{0o343, 0x297}, {0o346, 0x3A9}, {0o351, 0x0EB}, {0o364, 0x685},
	{0o365, 0x2F0}, {0o371, 0x158}, {0o411, 0x776}, {0o412, 0x79C},
	{0o413, 0x3E9}, {0o423, 0x4B9}, {0o431, 0x6C5}, {0o432, 0x62F},
	{0o445, 0x7B8}, {0o464, 0x27E}, {0o465, 0x60B}, {0o466, 0x6E1},
	{0o503, 0x3C6}, {0o506, 0x2F8}, {0o516, 0x41B}, {0o532, 0x0E3},
	{0o546, 0x19E}, {0o565, 0x0C7}, {0o606, 0x5D9}, {0o612, 0x671},
	{0o624, 0x0F5}, {0o627, 0x01F}, {0o631, 0x728}, {0o632, 0x7C2},
	{0o654, 0x4C3}, {0o662, 0x247}, {0o664, 0x393}, {0o703, 0x22B},
	{0o712, 0x0BD}, {0o723, 0x398}, {0o731, 0x1E4}, {0o732, 0x10E},
	{0o734, 0x0DA}, {0o743, 0x14D}, {0o754, 0x20F},
}

// NativeToBinaryCodedOctal converts a code stored one octal digit per
// nibble (0x023) to its binary value (0o023).
func NativeToBinaryCodedOctal(native uint16) uint16 {
	var octal uint16
	var shift uint
	for native != 0 {
		octal += (native & 0xF) << shift
		native >>= 4
		shift += 3
	}
	return octal
}

// DCSBitPattern returns the 23-bit word transmitted for a binary DCS code:
// parity in bits 22-12, a fixed 1 in bit 11 and the code in bits 8-0.
// Unknown codes return 0.
func DCSBitPattern(code uint16) uint32 {
	i := sort.Search(len(DCSCodes), func(i int) bool { return DCSCodes[i].Code >= code })
	if i == len(DCSCodes) || DCSCodes[i].Code != code {
		return 0
	}
	return uint32(DCSCodes[i].Golay)<<12 | 0x800 | uint32(code)
}

// DTMF symbols in code order.
const dtmfSymbols = "0123456789ABCD*#"

// DTMF tone pairs in Hz indexed by code.
var (
	dtmfTone1 = [16]uint16{1336, 1209, 1336, 1477, 1209, 1336, 1477, 1209, 1336, 1477, 1633, 1633, 1633, 1633, 1209, 1477}
	dtmfTone2 = [16]uint16{941, 697, 697, 697, 770, 770, 770, 852, 852, 852, 697, 770, 852, 941, 941, 941}
)

// DTMFCode returns the code of a keypad symbol.
func DTMFCode(symbol byte) (int, bool) {
	for i := 0; i < len(dtmfSymbols); i++ {
		if dtmfSymbols[i] == symbol {
			return i, true
		}
	}
	return 0, false
}

// DTMFTones returns the two frequencies in Hz for code.
func DTMFTones(code int) (uint16, uint16, error) {
	if code < 0 || code >= len(dtmfTone1) {
		return 0, 0, ErrInvalidDTMF
	}
	return dtmfTone1[code], dtmfTone2[code], nil
}
