package trx

import (
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
)

// RxBeep records receive beep events for the UI. The *Exec bits are set
// with their event and cleared by the consumer once the beep has played.
type RxBeep uint8

// Receive beep events
const (
	RxBeepCarrierStarted RxBeep = 1 << iota
	RxBeepCarrierStartedExec
	RxBeepCarrierEnded
	RxBeepTalkerStarted
	RxBeepTalkerStartedExec
	RxBeepTalkerEnded
	RxBeepTalkerEndedExec
)

// RxBeepState returns the pending receive beep events.
func (t *Transceiver) RxBeepState() RxBeep {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.rxBeep
}

// ClearRxBeep clears the given events.
func (t *Transceiver) ClearRxBeep(mask RxBeep) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.rxBeep &^= mask
}

func (t *Transceiver) bandSquelchLocked() uint8 {
	return squelchMax - uint8(int(t.settings.SquelchDefaults[t.rxBand])*11>>2)
}

// squelchLevelLocked is the noise level below which a carrier is present.
// A channel squelch of 0 uses the band default.
func (t *Transceiver) squelchLevelLocked() uint8 {
	if t.channel.Squelch != 0 {
		return squelchMax - uint8((int(t.channel.Squelch)-1)*11>>2)
	}
	return t.bandSquelchLocked()
}

// ReadRSSIAndNoise samples the receiver when it is powered and the sample
// timer has expired, or unconditionally when force is set.
func (t *Transceiver) ReadRSSIAndNoise(force bool) error {
	return t.locked(func() { t.readRSSIAndNoiseLocked(force) })
}

func (t *Transceiver) readRSSIAndNoiseLocked(force bool) {
	if !t.poweredUp || (!force && !t.rssiTimer.HasExpired()) {
		return
	}
	v := t.readReg(registers.RegRSSINoise)
	if t.err != nil {
		return
	}
	t.rssi, t.noise = uint8(v>>8), uint8(v)
	t.metrics.SetSignal(t.rssi, t.noise)
	t.rssiTimer.Start(SamplePeriod)
}

// PostponeRSSIAndNoise delays the next sample by ms, or by the sample
// period when ms is 0.
func (t *Transceiver) PostponeRSSIAndNoise(ms uint32) {
	t.cs.Enter()
	defer t.cs.Exit()
	if ms == 0 {
		ms = SamplePeriod
	}
	t.rssiTimer.Start(ms)
}

// CarrierDetected samples the receiver now and reports whether the noise
// is below the squelch level for the current mode.
func (t *Transceiver) CarrierDetected() (bool, error) {
	var detected bool
	err := t.locked(func() {
		t.readRSSIAndNoiseLocked(true)
		switch t.mode {
		case codeplug.RadioModeAnalog:
			detected = t.noise < t.squelchLevelLocked()
		case codeplug.RadioModeDigital:
			detected = t.noise < t.bandSquelchLocked()
		}
	})
	return detected, err
}

// CheckDigitalSquelch runs one digital squelch poll. It only drives the
// green LED and the carrier beep events.
func (t *Transceiver) CheckDigitalSquelch() (bool, error) {
	var signal bool
	err := t.locked(func() {
		if t.squelchTimer.HasExpired() {
			if t.mode != codeplug.RadioModeNone {
				t.digitalSquelchLocked()
			}
			t.squelchTimer.Start(SamplePeriod)
		}
		signal = t.digitalSignal
	})
	return signal, err
}

func (t *Transceiver) digitalSquelchLocked() {
	if t.noise < t.bandSquelchLocked() {
		if t.rxBeep&RxBeepCarrierStarted == 0 {
			t.rxBeep |= RxBeepCarrierStarted | RxBeepCarrierStartedExec
		}
		if !t.digitalSignal {
			t.digitalSignal = true
			t.setPin("green led", t.hw.LEDs.Green, 1)
		}
		return
	}

	if t.digitalSignal {
		t.digitalSignal = false
		t.setPin("green led", t.hw.LEDs.Green, 0)
	}
	if t.rxBeep&RxBeepCarrierStarted != 0 {
		t.rxBeep = RxBeepCarrierEnded
	}
}

func (t *Transceiver) talkerBeeps() bool {
	return t.settings.BeepOptions&BeepRxCarrier == 0 && t.settings.BeepOptions&BeepRxTalker != 0
}

// CheckAnalogSquelch runs one analog squelch poll and reports whether a
// carrier is present. The audio path opens on carrier, and with CSS
// active only once the tone matches. Tone loss under carrier closes the
// audio after cssHoldDelay polls; carrier loss closes it after
// squelchCloseWait polls.
func (t *Transceiver) CheckAnalogSquelch() (bool, error) {
	var signal bool
	err := t.locked(func() {
		if t.mode == codeplug.RadioModeNone {
			return
		}
		if t.squelchTimer.HasExpired() {
			t.analogSquelchLocked()
			t.squelchTimer.Start(SamplePeriod)
		}
		signal = t.analogSignal
	})
	return signal, err
}

func (t *Transceiver) analogSquelchLocked() {
	if t.noise < t.squelchLevelLocked() {
		if !t.analogSignal {
			t.analogSignal = true
			t.setPin("green led", t.hw.LEDs.Green, 1)
			if t.talkerBeeps() {
				if t.rxBeep&RxBeepTalkerStarted == 0 {
					t.rxBeep |= RxBeepTalkerStarted | RxBeepTalkerStartedExec
				}
			} else if t.rxBeep&RxBeepCarrierStarted == 0 {
				t.rxBeep |= RxBeepCarrierStarted | RxBeepCarrierStartedExec
			}
			t.analogTriggeredAudio = true
			t.cssMeasureCount = 0
		}
	} else if t.analogSignal || t.pinValue(t.hw.LEDs.Green) == 1 {
		t.analogSignal = false
		t.setPin("green led", t.hw.LEDs.Green, 0)
		if t.talkerBeeps() {
			if t.rxBeep&RxBeepTalkerStarted != 0 {
				t.rxBeep |= RxBeepTalkerEnded | RxBeepTalkerEndedExec
			}
		} else if t.rxBeep&RxBeepCarrierStarted != 0 {
			t.rxBeep = RxBeepCarrierEnded
		}
		t.analogTriggeredAudio = false
		t.cssMeasureCount = 0
	}

	cssMatched := t.rxCSSActive && t.checkCSSFlagLocked(t.channel.RxTone)

	switch {
	case t.analogSignal && !t.ampEnabled() && (!t.rxCSSActive || cssMatched):
		if t.analogTriggeredAudio && !t.voicePromptPlaying() {
			t.setPin("rx audio mux", t.hw.Pins.RxAudioMux, 1)
			t.enableAmp()
			t.analogTriggeredAudio = false
			t.cssMeasureCount = 0
		}
	case t.analogSignal && t.ampEnabled():
		if !t.rxCSSActive || cssMatched {
			t.cssMeasureCount = 0
			return
		}
		t.cssMeasureCount++
		if t.cssMeasureCount >= cssHoldDelay {
			t.logger.Debug("css lost, closing audio")
			t.disableAmp()
			t.analogSignal = false
			t.analogTriggeredAudio = false
			t.cssMeasureCount = 0
		}
	case !t.analogSignal && t.ampEnabled():
		t.cssMeasureCount++
		if !t.rxCSSActive || t.cssMeasureCount >= squelchCloseWait {
			t.disableAmp()
			t.cssMeasureCount = 0
		}
	}
}

// TerminateAnalogSquelch closes the audio path and clears the analog
// squelch state.
func (t *Transceiver) TerminateAnalogSquelch() error {
	return t.locked(func() {
		t.disableAmp()
		t.analogSignal = false
		t.analogTriggeredAudio = false
		t.cssMeasureCount = 0
	})
}

// ResetSquelchState forgets any detected analog or digital signal.
func (t *Transceiver) ResetSquelchState() {
	t.cs.Enter()
	defer t.cs.Exit()
	t.digitalSignal = false
	t.analogSignal = false
}

// Signal returns the last RSSI and noise samples.
func (t *Transceiver) Signal() (rssi, noise uint8) {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.rssi, t.noise
}

func (t *Transceiver) toDBm(v uint8) int {
	if t.rxBand == BandUHF {
		return -151 + int(v)
	}
	return -164 + int(v)*32/27
}

// RSSIdBm returns the last RSSI sample in dBm.
func (t *Transceiver) RSSIdBm() int {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.toDBm(t.rssi)
}

// NoisedBm returns the last noise sample in dBm.
func (t *Transceiver) NoisedBm() int {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.toDBm(t.noise)
}

// SNRMargindBm returns RSSI minus noise in dB.
func (t *Transceiver) SNRMargindBm() int {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.toDBm(t.rssi) - t.toDBm(t.noise)
}
