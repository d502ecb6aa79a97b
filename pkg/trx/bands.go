package trx

import (
	"encoding/binary"
	"fmt"
)

// Band is a hardware frequency band.
type Band int

// Hardware bands
const (
	BandVHF Band = iota
	Band220
	BandUHF
	BandCount      = 3
	BandOutOfRange = Band(-1)
)

func (b Band) String() string {
	switch b {
	case BandVHF:
		return "vhf"
	case Band220:
		return "220"
	case BandUHF:
		return "uhf"
	}
	return "out-of-band"
}

// FrequencyRange is an inclusive range in Hz.
type FrequencyRange struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

// Contains reports whether hz lies within r.
func (r FrequencyRange) Contains(hz uint32) bool {
	return hz >= r.Min && hz <= r.Max
}

type hardwareBand struct {
	FrequencyRange
	calTableMin uint32
}

var hardwareBands = [BandCount]hardwareBand{
	BandVHF: {FrequencyRange{127000000, 178000000}, 135000000},
	Band220: {FrequencyRange{190000000, 282000000}, 135000000},
	BandUHF: {FrequencyRange{380000000, 564000000}, 400000000},
}

// DefaultAmateurBands are the transmit limits used when no user table is set.
var DefaultAmateurBands = [BandCount]FrequencyRange{
	BandVHF: {144000000, 148000000},
	Band220: {222000000, 225000000},
	BandUHF: {420000000, 450000000},
}

// BandLimitMode selects how transmit frequencies are checked.
type BandLimitMode uint8

// Band limit modes
const (
	BandLimitsNone BandLimitMode = iota
	BandLimitsUser
	BandLimitsDefault
)

func (m BandLimitMode) String() string {
	switch m {
	case BandLimitsNone:
		return "none"
	case BandLimitsUser:
		return "user"
	case BandLimitsDefault:
		return "default"
	}
	return "unknown"
}

// BandFromFrequency returns the hardware band containing hz, or
// BandOutOfRange.
func BandFromFrequency(hz uint32) Band {
	for i, b := range hardwareBands {
		if b.Contains(hz) {
			return Band(i)
		}
	}
	return BandOutOfRange
}

// NextOrPrevBand returns the band to step to from a frequency that lies
// outside or between the hardware bands. Frequencies inside a band return
// BandOutOfRange.
func NextOrPrevBand(hz uint32, next bool) Band {
	if next {
		if hz > hardwareBands[BandCount-1].Max {
			return BandVHF
		}
		for b := 0; b < BandCount-1; b++ {
			if hz > hardwareBands[b].Max && hz < hardwareBands[b+1].Min {
				return Band(b + 1)
			}
		}
		return BandOutOfRange
	}

	if hz < hardwareBands[0].Min {
		return Band(BandCount - 1)
	}
	for b := 1; b < BandCount; b++ {
		if hz < hardwareBands[b].Min && hz > hardwareBands[b-1].Max {
			return Band(b - 1)
		}
	}
	return BandOutOfRange
}

// HardwareBand returns the tunable range of b.
func HardwareBand(b Band) FrequencyRange {
	if b < 0 || b >= BandCount {
		return FrequencyRange{}
	}
	return hardwareBands[b].FrequencyRange
}

// CalibrationTableMin returns the lowest frequency covered by b's
// calibration table.
func CalibrationTableMin(b Band) uint32 {
	if b < 0 || b >= BandCount {
		return 0
	}
	return hardwareBands[b].calTableMin
}

const bandLimitsSize = BandCount * 8

// ParseBandLimits decodes a band limit custom data block: per band a
// little-endian minimum and maximum in units of 10 Hz.
func ParseBandLimits(data []byte) ([BandCount]FrequencyRange, error) {
	var out [BandCount]FrequencyRange
	if len(data) < bandLimitsSize {
		return out, fmt.Errorf("%w: %d bytes", ErrBandLimits, len(data))
	}
	for i := range out {
		out[i].Min = binary.LittleEndian.Uint32(data[i*8:]) * 10
		out[i].Max = binary.LittleEndian.Uint32(data[i*8+4:]) * 10
		if out[i].Min > out[i].Max {
			return out, fmt.Errorf("%w: band %s min above max", ErrBandLimits, Band(i))
		}
	}
	return out, nil
}

// EncodeBandLimits is the inverse of ParseBandLimits.
func EncodeBandLimits(bands [BandCount]FrequencyRange) []byte {
	buf := make([]byte, bandLimitsSize)
	for i, r := range bands {
		binary.LittleEndian.PutUint32(buf[i*8:], r.Min/10)
		binary.LittleEndian.PutUint32(buf[i*8+4:], r.Max/10)
	}
	return buf
}
