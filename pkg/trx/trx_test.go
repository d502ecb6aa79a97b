package trx_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/board"
	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/critical"
	"github.com/herlein/trxcore/pkg/metrics"
	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/ticks"
	"github.com/herlein/trxcore/pkg/trx"
)

func newTestTransceiver(t testing.TB, opts ...trx.Option) (*trx.Transceiver, *board.Sim, *ticks.Counter) {
	t.Helper()
	sim := board.NewSim()
	clock := &ticks.Counter{}
	tr := trx.New(sim.Hardware(), calibration.DefaultTable(), clock, critical.New(), trx.DefaultSettings(), opts...)
	return tr, sim, clock
}

// tuneAnalog puts tr in analog mode on a simplex frequency.
func tuneAnalog(t testing.TB, tr *trx.Transceiver, hz uint32, bw25k bool) {
	t.Helper()
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeAnalog, bw25k))
	require.NoError(t, tr.SetFrequency(hz, hz, trx.DMRModeAuto))
}

func TestSetFrequencyTunesRadio(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	tuneAnalog(t, tr, 438500000, true)

	assert.Equal(t, uint32(438500000), sim.Radio.Frequency())
	assert.Equal(t, registers.Ctrl(true, registers.CtrlRxOn), sim.Radio.Reg(registers.RegCtrl))
	assert.Equal(t, 0, sim.VHFRxAmp.Get())
	assert.Equal(t, 1, sim.UHFRxAmp.Get())

	st := tr.State()
	assert.Equal(t, trx.BandUHF, st.RxBand)
	assert.Equal(t, trx.DMRModeDMO, st.DMRModeRx)
	assert.Equal(t, uint8(trx.PowerLevel1W), st.PowerLevel)
	assert.Equal(t, uint32(438500000), tr.Frequency())
}

func TestSetFrequencyRegisterSequence(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeAnalog, true))
	sim.Radio.ClearLog()

	require.NoError(t, tr.SetFrequency(146520000, 146520000, trx.DMRModeAuto))

	writes := sim.Radio.Writes()
	require.GreaterOrEqual(t, len(writes), 6)
	word := registers.TuningWord(146520000)
	assert.Equal(t, []registers.Write{
		{Reg: registers.RegCtrl, Value: registers.Ctrl(true, registers.CtrlRxOff)},
		{Reg: registers.RegFreqMode, Value: registers.FreqModeNormal},
		{Reg: registers.RegFreqHigh, Value: uint16(word >> 16)},
		{Reg: registers.RegFreqLow, Value: uint16(word)},
		{Reg: registers.RegSquelchTh, Value: registers.SquelchThDefault},
		{Reg: registers.RegCtrl, Value: registers.Ctrl(true, registers.CtrlRxOn)},
	}, writes[:6])
}

func TestSetFrequencyUnchangedSkipsRetune(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	sim.Radio.ClearLog()

	ch := codeplug.Channel{Power: trx.PowerLevel5W + 1}
	tr.SetChannel(ch)
	require.NoError(t, tr.SetFrequency(146520000, 146520000, trx.DMRModeAuto))

	assert.Empty(t, sim.Radio.Writes())
	assert.Equal(t, uint8(trx.PowerLevel5W), tr.PowerLevel())
}

func TestSetFrequencyOutOfBand(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)

	err := tr.SetFrequency(100000000, 100000000, trx.DMRModeAuto)
	assert.ErrorIs(t, err, trx.ErrOutOfBand)
	assert.Empty(t, sim.Radio.Writes())
}

func TestDMRModeSelection(t *testing.T) {
	tr, _, _ := newTestTransceiver(t)
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, false))

	require.NoError(t, tr.SetFrequency(439000000, 430000000, trx.DMRModeAuto))
	assert.Equal(t, trx.DMRModeRMO, tr.State().DMRModeTx)

	require.NoError(t, tr.SetFrequency(439000000, 430000000, trx.DMRModeDMO))
	assert.Equal(t, trx.DMRModeDMO, tr.State().DMRModeTx)
}

func TestHardwareFaultSurfaces(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	sim.Radio.SetFault(true)

	err := tr.SetModeAndBandwidth(codeplug.RadioModeAnalog, true)
	assert.ErrorIs(t, err, registers.ErrInjectedFault)

	sim.Radio.SetFault(false)
	assert.NoError(t, tr.RxOn())
}

func TestModeChanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tr, sim, _ := newTestTransceiver(t, trx.WithMetrics(m))

	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, false))
	assert.True(t, sim.Digital.Stats().Digital)
	assert.Equal(t, 1, sim.TxAudioMux.Get())

	// repeating the mode only resets timeslot detection
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, false))
	assert.Equal(t, 1, sim.Digital.Stats().Inits)
	assert.Equal(t, 1, sim.Digital.Stats().SlotDetections)

	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeAnalog, true))
	assert.False(t, sim.Digital.Stats().Digital)
	assert.Equal(t, 0, sim.TxAudioMux.Get())
	assert.True(t, tr.State().Bandwidth25k)

	expected := `
# HELP trx_mode_changes_total Transceiver mode reprogrammings by target mode
# TYPE trx_mode_changes_total counter
trx_mode_changes_total{mode="analog"} 1
trx_mode_changes_total{mode="digital"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "trx_mode_changes_total"))
}

func TestDigitalForcesNarrow(t *testing.T) {
	tr, _, _ := newTestTransceiver(t)
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, true))
	assert.False(t, tr.State().Bandwidth25k)
}

func TestDMRDisabledForcesAnalog(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	s := trx.DefaultSettings()
	s.DMRDisabled = true
	tr.SetSettings(s)

	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, false))
	assert.Equal(t, codeplug.RadioModeAnalog, tr.Mode())
	assert.Equal(t, 0, sim.Digital.Stats().Inits)
}

func TestCalibrationApplied(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, false)

	// (146.52 - 132.5) / 5 selects point 2
	assert.Equal(t, uint8(0x06), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegPhaseReduce))
	assert.Equal(t, uint8(0x3A), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegMod2Offset))
	assert.Equal(t, uint8(0x02), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegTwoPointHi))
	assert.Equal(t, uint8(0x4F), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegTwoPointLo))
	assert.Equal(t, uint16(0x0D16), sim.Radio.Reg(registers.RegSquelchTh))
	assert.Equal(t, uint16(0x2E2D), sim.Radio.Reg(registers.RegNoise1Th))

	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeAnalog, true))
	require.NoError(t, tr.SetFrequency(438500000, 438500000, trx.DMRModeAuto))
	assert.Equal(t, uint8(0x01), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegTwoPointHi))
	assert.Equal(t, uint8(0xF4), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegTwoPointLo))
	assert.Equal(t, uint16(0x0C15), sim.Radio.Reg(registers.RegSquelchTh))
	assert.Equal(t, uint16(0x2C), sim.Radio.Reg(registers.RegVoiceGainTx)&0x7F)
	assert.Equal(t, uint16(0x2C), tr.VoiceGainTx())
}
