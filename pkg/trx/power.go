package trx

import (
	"fmt"
	"strings"

	"github.com/herlein/trxcore/pkg/calibration"
)

// Platform identifies the radio model, which selects the PA power curve.
type Platform int

// Supported platforms
const (
	PlatformGD77 Platform = iota
	PlatformDM1801
	PlatformRD5R
)

func (p Platform) String() string {
	switch p {
	case PlatformGD77:
		return "gd77"
	case PlatformDM1801:
		return "dm1801"
	case PlatformRD5R:
		return "rd5r"
	}
	return "unknown"
}

// ParsePlatform parses a platform name as printed by String.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "gd77", "gd77s":
		return PlatformGD77, nil
	case "dm1801", "dm1801a":
		return PlatformDM1801, nil
	case "rd5r":
		return PlatformRD5R, nil
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// Power levels
const (
	PowerLevel50mW   = 0
	PowerLevel1W     = 4
	PowerLevel5W     = 8
	PowerLevelUser   = 9
	PowerLevelsCount = 10

	// MaxPADrive is the full scale of the 12-bit PA DAC.
	MaxPADrive = 4095
)

// powerFractions scales the calibration anchors for levels 0-3 and, one
// index lower, levels 5-7. The DAC values are computed in single precision
// so they match the radio's own arithmetic bit for bit.
type powerFractions [BandCount][7]float32

var platformPowerFractions = map[Platform]powerFractions{
	PlatformGD77: {
		{0.59, 0.73, 0.84, 0.93, 0.60, 0.72, 0.77},
		{0.62, 0.75, 0.85, 0.93, 0.49, 0.64, 0.71},
		{0.62, 0.75, 0.85, 0.93, 0.49, 0.64, 0.71},
	},
	PlatformDM1801: {
		{0.28, 0.37, 0.62, 0.82, 0.60, 0.72, 0.77},
		{0.28, 0.37, 0.62, 0.82, 0.49, 0.64, 0.73},
		{0.05, 0.25, 0.51, 0.75, 0.49, 0.64, 0.71},
	},
	PlatformRD5R: {
		{0.37, 0.54, 0.73, 0.87, 0.49, 0.64, 0.73},
		{0.28, 0.37, 0.62, 0.82, 0.49, 0.64, 0.71},
		{0.05, 0.25, 0.45, 0.85, 0.49, 0.64, 0.71},
	},
}

// PADrive returns the DAC value for level on band given the calibration
// anchors and the user overdrive value.
func PADrive(platform Platform, band Band, level uint8, anchors calibration.PowerValues, userPower uint16) uint16 {
	if band < 0 || band >= BandCount {
		band = BandVHF
	}
	frac := platformPowerFractions[platform][band]
	low := float32(anchors.Low)

	var drive float32
	switch {
	case level <= 3:
		drive = low * frac[level]
	case level == PowerLevel1W:
		drive = low
	case level <= 7:
		step := (int(anchors.High) - int(anchors.Low)) / 4
		// Explicit conversion keeps the product rounded before the add.
		drive = float32(float32(int(level-3)*step)*frac[level-1]) + low
	case level == PowerLevel5W:
		drive = float32(anchors.High)
	case level == PowerLevelUser:
		drive = float32(userPower)
	default:
		drive = low
	}

	if drive > MaxPADrive {
		return MaxPADrive
	}
	if drive < 0 {
		return 0
	}
	return uint16(drive)
}
