package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/spiflash"
)

func TestOpenCodeplugRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.EEPROMImage = filepath.Join(dir, "eeprom.bin")
	c.FlashImage = filepath.Join(dir, "flash.bin")
	noDelay := []spiflash.Option{spiflash.WithDelay(func(time.Duration) {})}

	cp, err := c.OpenCodeplug(nil, noDelay)
	require.NoError(t, err)
	require.NoError(t, cp.Store.Format())

	ch := codeplug.Channel{Name: "Simplex", RxFreq: 433500000, TxFreq: 433500000, Mode: codeplug.RadioModeAnalog,
		RxTone: codeplug.CSSToneNone, TxTone: codeplug.CSSToneNone}
	require.NoError(t, cp.Store.SaveChannel(3, ch))
	require.NoError(t, cp.Save())
	assert.FileExists(t, c.EEPROMImage)
	assert.FileExists(t, c.FlashImage)

	reopened, err := c.OpenCodeplug(nil, noDelay)
	require.NoError(t, err)
	assert.True(t, reopened.Store.AllChannelsIndexIsInUse(3))
	got, err := reopened.Store.Channel(3)
	require.NoError(t, err)
	assert.Equal(t, "Simplex", got.Name)
	assert.Equal(t, uint32(433500000), got.RxFreq)
}

func TestOpenCodeplugRejectsOversizedFlashImage(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.EEPROMImage = filepath.Join(dir, "eeprom.bin")
	c.FlashImage = filepath.Join(dir, "flash.bin")
	require.NoError(t, writeFile(c.FlashImage, string(make([]byte, 2<<20))))

	_, err := c.OpenCodeplug(nil, nil)
	assert.ErrorIs(t, err, spiflash.ErrOutOfRange)
}
