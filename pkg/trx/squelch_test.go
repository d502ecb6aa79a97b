package trx_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/metrics"
	"github.com/herlein/trxcore/pkg/ticks"
	"github.com/herlein/trxcore/pkg/trx"
)

// poll advances one sample period and runs the analog squelch.
func poll(t *testing.T, tr *trx.Transceiver, clock *ticks.Counter) bool {
	t.Helper()
	clock.Advance(trx.SamplePeriod)
	require.NoError(t, tr.ReadRSSIAndNoise(false))
	open, err := tr.CheckAnalogSquelch()
	require.NoError(t, err)
	return open
}

func rfAudioOn(a interface{ Status() trx.AmpMode }) bool {
	return a.Status()&trx.AmpModeRF != 0
}

func TestAnalogSquelchOpensAndCloses(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	require.NoError(t, tr.SetRxCSS(codeplug.CSSToneNone))

	sim.Radio.SetSignal(90, 20)
	assert.True(t, poll(t, tr, clock))
	assert.True(t, rfAudioOn(sim.Audio))
	assert.Equal(t, 1, sim.RxAudioMux.Get())
	assert.Equal(t, 1, sim.LEDGreen.Get())

	sim.Radio.SetSignal(10, 60)
	assert.False(t, poll(t, tr, clock))
	assert.False(t, rfAudioOn(sim.Audio))
	assert.Equal(t, 0, sim.LEDGreen.Get())
}

func TestAnalogSquelchNotPolledBeforePeriod(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)

	sim.Radio.SetSignal(90, 20)
	require.NoError(t, tr.ReadRSSIAndNoise(true))
	clock.Advance(trx.SamplePeriod - 1)
	open, err := tr.CheckAnalogSquelch()
	require.NoError(t, err)
	assert.False(t, open)
}

func TestCSSHoldToleratesDropout(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	tr.SetChannel(codeplug.Channel{RxTone: 885})
	require.NoError(t, tr.SetRxCSS(885))
	require.True(t, tr.State().RxCSSActive)

	sim.Radio.SetSignal(90, 20)
	assert.True(t, poll(t, tr, clock))
	assert.False(t, rfAudioOn(sim.Audio), "carrier without tone keeps audio closed")

	sim.Radio.SetCSSDetected(true)
	assert.True(t, poll(t, tr, clock))
	assert.True(t, rfAudioOn(sim.Audio))

	sim.Radio.SetCSSDetected(false)
	for i := 1; i < 6; i++ {
		assert.True(t, poll(t, tr, clock), "poll %d", i)
		assert.True(t, rfAudioOn(sim.Audio), "poll %d", i)
	}
	assert.False(t, poll(t, tr, clock))
	assert.False(t, rfAudioOn(sim.Audio))
}

func TestCSSRecoveryResetsHold(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	tr.SetChannel(codeplug.Channel{RxTone: 885})
	require.NoError(t, tr.SetRxCSS(885))

	sim.Radio.SetSignal(90, 20)
	sim.Radio.SetCSSDetected(true)
	poll(t, tr, clock)
	require.True(t, rfAudioOn(sim.Audio))

	for i := 0; i < 3; i++ {
		sim.Radio.SetCSSDetected(false)
		for j := 0; j < 5; j++ {
			poll(t, tr, clock)
		}
		sim.Radio.SetCSSDetected(true)
		poll(t, tr, clock)
	}
	assert.True(t, rfAudioOn(sim.Audio))
}

func TestAnalogFilterNoneIgnoresCSS(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	tr.SetAnalogFilter(trx.AnalogFilterNone)
	tr.SetChannel(codeplug.Channel{RxTone: 885})
	require.NoError(t, tr.SetRxCSS(885))
	assert.False(t, tr.State().RxCSSActive)

	sim.Radio.SetSignal(90, 20)
	poll(t, tr, clock)
	assert.True(t, rfAudioOn(sim.Audio))
}

func TestChannelSquelchOverridesBand(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	sim.Radio.SetSignal(50, 60)

	// band default 10 gives a threshold of 43
	assert.False(t, poll(t, tr, clock))

	tr.SetChannel(codeplug.Channel{Squelch: 1})
	assert.True(t, poll(t, tr, clock))

	tr.SetChannel(codeplug.Channel{Squelch: 21})
	sim.Radio.SetSignal(50, 20)
	assert.False(t, poll(t, tr, clock))
}

func TestVoicePromptHoldsAudioPath(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t, trx.WithVoicePrompt(func() bool { return true }))
	tuneAnalog(t, tr, 146520000, true)

	sim.Radio.SetSignal(90, 20)
	assert.True(t, poll(t, tr, clock))
	assert.False(t, rfAudioOn(sim.Audio))
	assert.Equal(t, 0, sim.RxAudioMux.Get())
}

func TestRxBeeps(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)

	sim.Radio.SetSignal(90, 20)
	poll(t, tr, clock)
	assert.Equal(t, trx.RxBeepCarrierStarted|trx.RxBeepCarrierStartedExec, tr.RxBeepState())
	tr.ClearRxBeep(trx.RxBeepCarrierStartedExec)

	sim.Radio.SetSignal(0, 0xFF)
	poll(t, tr, clock)
	assert.Equal(t, trx.RxBeepCarrierEnded, tr.RxBeepState())
}

func TestRxTalkerBeeps(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	s := trx.DefaultSettings()
	s.BeepOptions = trx.BeepRxTalker
	tr.SetSettings(s)
	tuneAnalog(t, tr, 146520000, true)

	sim.Radio.SetSignal(90, 20)
	poll(t, tr, clock)
	sim.Radio.SetSignal(0, 0xFF)
	poll(t, tr, clock)

	assert.Equal(t, trx.RxBeepTalkerStarted|trx.RxBeepTalkerStartedExec|trx.RxBeepTalkerEnded|trx.RxBeepTalkerEndedExec, tr.RxBeepState())
}

func TestTerminateAnalogSquelch(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)
	sim.Radio.SetSignal(90, 20)
	poll(t, tr, clock)
	require.True(t, rfAudioOn(sim.Audio))

	require.NoError(t, tr.TerminateAnalogSquelch())
	assert.False(t, rfAudioOn(sim.Audio))
}

func TestDigitalSquelchDrivesLED(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	require.NoError(t, tr.SetModeAndBandwidth(codeplug.RadioModeDigital, false))
	require.NoError(t, tr.SetFrequency(438500000, 438500000, trx.DMRModeAuto))

	sim.Radio.SetSignal(90, 20)
	clock.Advance(trx.SamplePeriod)
	require.NoError(t, tr.ReadRSSIAndNoise(false))
	signal, err := tr.CheckDigitalSquelch()
	require.NoError(t, err)
	assert.True(t, signal)
	assert.Equal(t, 1, sim.LEDGreen.Get())
	assert.False(t, rfAudioOn(sim.Audio))

	sim.Radio.SetSignal(0, 0xFF)
	clock.Advance(trx.SamplePeriod)
	require.NoError(t, tr.ReadRSSIAndNoise(false))
	signal, err = tr.CheckDigitalSquelch()
	require.NoError(t, err)
	assert.False(t, signal)
	assert.Equal(t, 0, sim.LEDGreen.Get())
}

func TestCarrierDetected(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)
	sim.Radio.SetSignal(90, 20)

	detected, err := tr.CarrierDetected()
	require.NoError(t, err)
	assert.False(t, detected, "mode none never detects")

	tuneAnalog(t, tr, 146520000, true)
	detected, err = tr.CarrierDetected()
	require.NoError(t, err)
	assert.True(t, detected)
}

func TestPostponeRSSIAndNoise(t *testing.T) {
	tr, sim, clock := newTestTransceiver(t)
	tuneAnalog(t, tr, 146520000, true)

	sim.Radio.SetSignal(40, 30)
	require.NoError(t, tr.ReadRSSIAndNoise(true))
	tr.PostponeRSSIAndNoise(100)

	sim.Radio.SetSignal(70, 10)
	clock.Advance(trx.SamplePeriod)
	require.NoError(t, tr.ReadRSSIAndNoise(false))
	rssi, _ := tr.Signal()
	assert.Equal(t, uint8(40), rssi)

	clock.Advance(75)
	require.NoError(t, tr.ReadRSSIAndNoise(false))
	rssi, noise := tr.Signal()
	assert.Equal(t, uint8(70), rssi)
	assert.Equal(t, uint8(10), noise)
}

func TestSignalDBm(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr, sim, _ := newTestTransceiver(t, trx.WithMetrics(metrics.New(reg)))

	tuneAnalog(t, tr, 438500000, true)
	sim.Radio.SetSignal(100, 40)
	require.NoError(t, tr.ReadRSSIAndNoise(true))
	assert.Equal(t, -51, tr.RSSIdBm())
	assert.Equal(t, -111, tr.NoisedBm())
	assert.Equal(t, 60, tr.SNRMargindBm())

	expected := `
# HELP trx_rssi_raw Last raw RSSI reading
# TYPE trx_rssi_raw gauge
trx_rssi_raw 100
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "trx_rssi_raw"))

	tuneAnalog(t, tr, 146520000, true)
	sim.Radio.SetSignal(54, 27)
	require.NoError(t, tr.ReadRSSIAndNoise(true))
	assert.Equal(t, -100, tr.RSSIdBm())
	assert.Equal(t, -132, tr.NoisedBm())
}
