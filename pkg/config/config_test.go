package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/trx"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, trx.PlatformGD77, c.PlatformID())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"platform", func(c *Config) { c.Platform = "md380" }},
		{"image path", func(c *Config) { c.FlashImage = "" }},
		{"flash part", func(c *Config) { c.FlashPart = 0x1234 }},
		{"flash offset", func(c *Config) { c.FlashOffset = 1 << 20 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"power level", func(c *Config) { c.Radio.TxPowerLevel = trx.PowerLevelsCount }},
		{"user power", func(c *Config) { c.Radio.UserPower = 5000 }},
		{"squelch", func(c *Config) { c.Radio.SquelchDefaults[trx.BandUHF] = 22 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.Platform = "dm1801"
	c.FlashOffset = 0x10000
	c.Radio.SquelchDefaults = [trx.BandCount]uint8{5, 6, 7}
	c.Radio.DMRDisabled = true

	require.NoError(t, SaveToFile(c, path))
	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, trx.PlatformDM1801, got.PlatformID())
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeFile(path, "platform: rd5r\nradio:\n  mic_gain_fm: 20\n"))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rd5r", got.Platform)
	assert.Equal(t, uint8(20), got.Radio.MicGainFM)
	assert.Equal(t, Default().EEPROMImage, got.EEPROMImage)
	assert.Equal(t, trx.DefaultSettings().SquelchDefaults, got.Radio.SquelchDefaults)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, writeFile(path, "platform: [unterminated\n"))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	chip := registers.NewAT1846S()
	snapshot, err := DumpFromChip(chip)
	require.NoError(t, err)
	assert.Equal(t, uint32(146520000), snapshot.Frequency)

	path := filepath.Join(t.TempDir(), "radio.yaml")
	require.NoError(t, SaveSnapshot(snapshot, path))
	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Registers, loaded.Registers)

	other := registers.NewAT1846S()
	require.NoError(t, other.WriteReg(registers.RegFreqHigh, 0))
	require.NoError(t, ApplyToChip(other, loaded))
	assert.Equal(t, uint32(146520000), other.Frequency())

	ctrl := other.WritesTo(registers.RegCtrl)
	require.NotEmpty(t, ctrl)
	assert.Equal(t, registers.Ctrl(false, registers.CtrlRxOff), ctrl[0])
	assert.Equal(t, snapshot.Registers.Ctrl, ctrl[len(ctrl)-1])
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
