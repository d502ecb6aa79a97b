package codeplug

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// BCDToInt decodes a packed BCD value, one decimal digit per nibble.
func BCDToInt(v uint32) uint32 {
	var result uint32
	multiplier := uint32(1)
	for v != 0 {
		result += (v & 0x0F) * multiplier
		multiplier *= 10
		v >>= 4
	}
	return result
}

// IntToBCD encodes v as packed BCD. Values above 99999999 lose their top digits.
func IntToBCD(v uint32) uint32 {
	var result uint32
	for shift := 0; v != 0 && shift < 32; shift += 4 {
		result |= (v % 10) << shift
		v /= 10
	}
	return result
}

// BCDToUint16 decodes a 16-bit packed BCD value.
func BCDToUint16(v uint16) uint16 {
	return uint16(BCDToInt(uint32(v)))
}

// readBCD32BE decodes a big-endian BCD field, as used for DMR IDs.
func readBCD32BE(b []byte) uint32 {
	return BCDToInt(binary.BigEndian.Uint32(b))
}

func putBCD32BE(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, IntToBCD(v))
}

// Frequencies are held in Hz. On media they are BCD in 10 Hz units.
func readFrequency(b []byte) uint32 {
	return BCDToInt(binary.LittleEndian.Uint32(b)) * 10
}

// MaxFrequency is the highest frequency a record can hold.
const MaxFrequency = 99999999 * 10

func validFrequency(hz uint32) error {
	if hz%10 != 0 || hz > MaxFrequency {
		return fmt.Errorf("%w: %d Hz", ErrInvalidFrequency, hz)
	}
	return nil
}

func putFrequency(b []byte, hz uint32) {
	binary.LittleEndian.PutUint32(b, IntToBCD(hz/10))
}

func popcount(b []byte) int {
	n := 0
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}
