package registers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTuningWord(t *testing.T) {
	assert.Equal(t, uint32(2344320), TuningWord(146520000))
	assert.Equal(t, uint32(146520000), FrequencyFromWord(2344320))
	assert.Equal(t, uint32(6976000), TuningWord(436000000))
}

func TestTuningWordRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Frequencies on a 125 Hz raster survive the conversion.
		steps := rapid.Uint32Range(127000000/125, 564000000/125).Draw(t, "steps")
		hz := steps * 125
		got := FrequencyFromWord(TuningWord(hz))
		if got != hz {
			t.Fatalf("round trip of %d gave %d", hz, got)
		}
	})
}

func TestSetGetFrequency(t *testing.T) {
	var reg RegisterMap
	SetFrequency(&reg, 438500000)
	assert.Equal(t, uint16(0x006B), reg.FreqHigh)
	assert.Equal(t, uint32(438500000), GetFrequency(&reg))
}

func TestCtrl(t *testing.T) {
	assert.Equal(t, uint16(0x7026), Ctrl(true, CtrlRxOn))
	assert.Equal(t, uint16(0x4006), Ctrl(false, CtrlRxOff))
	assert.Equal(t, uint16(0x40C6), Ctrl(false, CtrlTxDigital))
}

func TestSetWithMask(t *testing.T) {
	chip := NewAT1846S()
	require.NoError(t, chip.WriteReg(RegPGAGain, 0xFFFF))

	require.NoError(t, SetWithMask(chip, RegPGAGain, 0xF83F, 0x14, 6))
	assert.Equal(t, uint16(0xF83F|0x14<<6), chip.Reg(RegPGAGain))

	require.NoError(t, SetClear(chip, RegCSSMode, 0xF9FF, 0x0600))
	assert.Equal(t, uint16(0x20C2&0xF9FF|0x0600), chip.Reg(RegCSSMode))
}

func TestReadWriteAll(t *testing.T) {
	src := NewAT1846S()
	src.SetSignal(0x40, 0x22)

	want := PowerOnDefaults()
	SetFrequency(want, 145500000)
	want.SquelchTh = 0x0D16
	require.NoError(t, WriteAll(src, want))

	got, err := ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, uint32(145500000), GetFrequency(got))
	assert.Equal(t, uint16(0x0D16), got.SquelchTh)
	assert.Equal(t, uint8(0x40), RSSI(got))
	assert.Equal(t, uint8(0x22), Noise(got))

	for _, w := range src.Writes() {
		assert.False(t, readOnly(w.Reg), "wrote read-only %s", RegName(w.Reg))
	}
}

func TestSimFault(t *testing.T) {
	chip := NewAT1846S()
	chip.SetFault(true)

	_, err := ReadAll(chip)
	require.ErrorIs(t, err, ErrInjectedFault)
	require.ErrorIs(t, SetClear(chip, RegCtrl, 0, 0), ErrInjectedFault)
}

func TestCSSFlags(t *testing.T) {
	chip := NewAT1846S()
	v, err := chip.ReadReg(RegFlags)
	require.NoError(t, err)
	assert.Zero(t, v&FlagCSSMatched)

	chip.SetCSSDetected(true)
	v, err = chip.ReadReg(RegFlags)
	require.NoError(t, err)
	assert.Equal(t, uint16(FlagCSSMatched), v&FlagCSSMatched)
}

func TestRegName(t *testing.T) {
	assert.Equal(t, "CTRL", RegName(RegCtrl))
	assert.Equal(t, "REG_7F", RegName(0x7F))
}

func TestModeProfile(t *testing.T) {
	assert.NotEqual(t, ModeProfile(false, true), ModeProfile(false, false))
	assert.Contains(t, ModeProfile(true, true), RegValue{RegDSPControl, 0x0031})
}

func TestC6000(t *testing.T) {
	c := NewC6000()
	require.NoError(t, c.WritePageReg(C6000PageConfig, C6000RegOpenMusic, 0xFF))
	require.NoError(t, c.ClearPageRegWithMask(C6000PageConfig, C6000RegOpenMusic, 0xFD, 0x00))
	assert.Equal(t, uint8(0xFD), c.PageReg(C6000PageConfig, C6000RegOpenMusic))

	require.NoError(t, c.WritePageRegs(C6000PageSound, 0, make([]byte, C6000FillBufferSize)))
	require.Error(t, c.WritePageRegs(C6000PageSound, 200, make([]byte, 100)))
	assert.Len(t, c.Writes(), 3)

	require.NoError(t, c.InitDigital())
	require.NoError(t, c.ResyncTimeSlot())
	require.NoError(t, c.TerminateDigital())
	st := c.Stats()
	assert.False(t, st.Digital)
	assert.Equal(t, 1, st.Inits)
	assert.Equal(t, 1, st.Resyncs)
	assert.Equal(t, 1, st.Terminations)
}
