package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/trx"
)

func TestAudioAmpSharedUsers(t *testing.T) {
	a := &AudioAmp{}

	require.NoError(t, a.Enable(trx.AmpModeRF))
	require.NoError(t, a.Enable(trx.AmpModeBeep))
	assert.Equal(t, 1, a.PowerOns())

	require.NoError(t, a.Disable(trx.AmpModeRF))
	assert.Equal(t, trx.AmpModeBeep, a.Status())

	require.NoError(t, a.Disable(trx.AmpModeBeep))
	require.NoError(t, a.Enable(trx.AmpModePrompt))
	assert.Equal(t, 2, a.PowerOns())
}

func TestSimHardware(t *testing.T) {
	s := NewSim()
	hw := s.Hardware()

	require.NoError(t, hw.DAC.SetValue(1234))
	assert.Equal(t, uint16(1234), s.DAC.Value())

	require.NoError(t, hw.Pins.C6000PWD.SetValue(1))
	assert.Equal(t, 1, s.C6000PWD.Get())

	require.NoError(t, hw.Radio.WriteReg(registers.RegFreqHigh, 0))
	require.NoError(t, s.Reset())
	assert.Equal(t, uint32(146520000), s.Radio.Frequency())
	assert.Empty(t, s.Radio.Writes())
}
