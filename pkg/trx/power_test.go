package trx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/trx"
)

func TestPADriveAnchors(t *testing.T) {
	anchors := calibration.PowerValues{Low: 1540, High: 2760}

	assert.Equal(t, uint16(1540), trx.PADrive(trx.PlatformGD77, trx.BandVHF, trx.PowerLevel1W, anchors, 0))
	assert.Equal(t, uint16(2760), trx.PADrive(trx.PlatformGD77, trx.BandVHF, trx.PowerLevel5W, anchors, 0))
	assert.Equal(t, uint16(3000), trx.PADrive(trx.PlatformGD77, trx.BandVHF, trx.PowerLevelUser, anchors, 3000))
	assert.Equal(t, uint16(trx.MaxPADrive), trx.PADrive(trx.PlatformGD77, trx.BandVHF, trx.PowerLevelUser, anchors, 5000))
	assert.Equal(t, uint16(1540), trx.PADrive(trx.PlatformGD77, trx.BandVHF, trx.PowerLevelsCount, anchors, 0))
	assert.Equal(t, uint16(1906), trx.PADrive(trx.PlatformGD77, trx.BandVHF, 5, anchors, 0))
}

func TestPADriveSinglePrecision(t *testing.T) {
	tests := []struct {
		low   uint16
		level uint8
		want  uint16
	}{
		{100, 0, 58},
		{200, 0, 117},
		{300, 1, 219},
		{1000, 3, 930},
	}
	for _, tt := range tests {
		anchors := calibration.PowerValues{Low: tt.low, High: 2760}
		assert.Equal(t, tt.want, trx.PADrive(trx.PlatformGD77, trx.BandVHF, tt.level, anchors, 0),
			"low %d level %d", tt.low, tt.level)
	}
}

func TestPADriveMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		platform := trx.Platform(rapid.IntRange(0, 2).Draw(t, "platform"))
		band := trx.Band(rapid.IntRange(0, trx.BandCount-1).Draw(t, "band"))
		low := rapid.Uint16Range(0, trx.MaxPADrive).Draw(t, "low")
		high := rapid.Uint16Range(low, trx.MaxPADrive).Draw(t, "high")
		anchors := calibration.PowerValues{Low: low, High: high}

		prev := uint16(0)
		for level := uint8(0); level <= trx.PowerLevel5W; level++ {
			d := trx.PADrive(platform, band, level, anchors, 0)
			if d < prev {
				t.Fatalf("level %d drive %d below level %d drive %d", level, d, level-1, prev)
			}
			prev = d
		}
	})
}

func TestParsePlatform(t *testing.T) {
	p, err := trx.ParsePlatform("DM1801A")
	require.NoError(t, err)
	assert.Equal(t, trx.PlatformDM1801, p)
	assert.Equal(t, "dm1801", p.String())

	_, err = trx.ParsePlatform("md380")
	assert.Error(t, err)
}
