package trx

import (
	"fmt"

	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
)

// ctcssMaxThreshold is the tone above which the detection threshold is 1.
const ctcssMaxThreshold = 2400

// dcsPattern returns the Golay encoded pattern for an in-memory DCS tone.
func dcsPattern(tone uint16) uint32 {
	return DCSBitPattern(NativeToBinaryCodedOctal(tone &^ (codeplug.CSSDCSFlag | codeplug.CSSDCSInverted)))
}

func (t *Transceiver) writeDCSLocked(tone uint16, inverted bool) {
	t.writeReg(registers.RegCTCSS1, DCSToneHz100)
	t.writeReg(registers.RegCTCSS2, 0)

	enc := dcsPattern(tone)
	t.writeReg(registers.RegCDCSHigh, uint16(enc>>16&0xFF))
	t.writeReg(registers.RegCDCSLow, uint16(enc))

	mode := uint16(0x0400)
	if inverted {
		mode = 0x0500
	}
	t.setClear(registers.RegCSSMode, 0x383F, mode)
}

func (t *Transceiver) clearCSSLocked() {
	t.writeReg(registers.RegCTCSS1, 0)
	t.writeReg(registers.RegCTCSS2, 0)
	t.setClear(registers.RegCSSMode, 0xF9FF, 0)
}

// SetTxCSS programs the transmit CTCSS tone or DCS code. tone is in the
// in-memory CSS form; CTCSS is in tenths of Hz.
func (t *Transceiver) SetTxCSS(tone uint16) error {
	return t.locked(func() {
		typ := codeplug.ToneType(tone)
		switch {
		case typ == codeplug.CSSNone:
			t.clearCSSLocked()
		case typ == codeplug.CSSCTCSS:
			t.writeReg(registers.RegCTCSS1, tone*10)
			t.writeReg(registers.RegCTCSS2, 0)
			t.writeReg(registers.RegCDCSHigh, 0)
			t.writeReg(registers.RegCDCSLow, 0)
			t.setClear(registers.RegCSSMode, 0xF9FF, 0x0600)
		case typ&codeplug.CSSDCS != 0:
			t.writeDCSLocked(tone, typ&codeplug.CSSInverted != 0)
		}
	})
}

// SetRxCSS programs receive CTCSS or DCS detection and closes the audio
// path. Detection only gates audio when the analog filter is not None.
func (t *Transceiver) SetRxCSS(tone uint16) error {
	return t.locked(func() { t.setRxCSSLocked(tone) })
}

func (t *Transceiver) setRxCSSLocked(tone uint16) {
	typ := codeplug.ToneType(tone)
	if typ == codeplug.CSSNone {
		t.clearCSSLocked()
		t.rxCSSActive = false
		return
	}

	if typ == codeplug.CSSCTCSS {
		threshold := uint16(1)
		if tone <= ctcssMaxThreshold {
			threshold = (2500 - tone) / 100
		}
		t.writeReg(registers.RegCTCSS1, tone*10)
		t.writeReg(registers.RegCTCSS2, 0)
		t.writeReg(registers.RegCSSThreshold, threshold<<8|threshold)
		t.setClear(registers.RegSubAudio, 0xFFE0, 0x0001)
	} else {
		inverted := typ&codeplug.CSSInverted != 0
		t.writeDCSLocked(tone, inverted)
		sel := uint16(0x0002)
		if inverted {
			sel = 0x0004
		}
		t.setClear(registers.RegSubAudio, 0xFFE0, sel)
	}

	t.rxCSSActive = t.settings.AnalogFilter != AnalogFilterNone
	t.disableAmp()
	t.analogSignal = false
	t.analogTriggeredAudio = false
}

// CheckCSSFlag reports whether the receiver has matched tone. A read
// failure reports no match.
func (t *Transceiver) CheckCSSFlag(tone uint16) bool {
	var matched bool
	_ = t.locked(func() { matched = t.checkCSSFlagLocked(tone) })
	return matched
}

func (t *Transceiver) checkCSSFlagLocked(tone uint16) bool {
	if t.err != nil {
		return false
	}
	flags, err := t.hw.Radio.ReadReg(registers.RegFlags)
	if err != nil {
		t.logger.Debug("css flag read failed", "err", err)
		return false
	}
	return codeplug.ToneType(tone) != codeplug.CSSNone && flags&registers.FlagCSSMatched == registers.FlagCSSMatched
}

// SelectVoiceChannel routes the transmit modulator input. Tone and DTMF
// sources save the mic gain and deviation, which any other source
// restores.
func (t *Transceiver) SelectVoiceChannel(ch uint8) error {
	return t.locked(func() { t.selectVoiceChannelLocked(ch) })
}

func (t *Transceiver) selectVoiceChannelLocked(ch uint8) {
	switch ch {
	case registers.VoiceChannelTone1, registers.VoiceChannelTone2, registers.VoiceChannelDTMF:
		t.setClear(registers.RegToneCtrl, 0xFFFF, 0xC000)
		t.setClear(registers.RegFilter, 0xFFFE, 0x0001)
		t.savedVoiceGainTx = t.readReg(registers.RegVoiceGainTx) & 0x7F
		t.savedDeviation = t.readReg(registers.RegXmitterDev) >> 6
		t.updateDeviationLocked(ch)
	default:
		t.setClear(registers.RegFilter, 0xFFFE, 0x0000)
		if t.savedVoiceGainTx != savedUnset {
			t.setWithMask(registers.RegVoiceGainTx, 0xFF80, t.savedVoiceGainTx, 0)
			t.savedVoiceGainTx = savedUnset
		}
		if t.savedDeviation != savedUnset {
			t.setWithMask(registers.RegXmitterDev, 0x003F, t.savedDeviation, 6)
			t.savedDeviation = savedUnset
		}
	}
	t.setClear(registers.RegSubAudio, 0x8FFF, uint16(ch)<<8)
}

// UpdateDeviation applies the calibrated tone or DTMF deviation for ch.
func (t *Transceiver) UpdateDeviation(ch uint8) error {
	return t.locked(func() { t.updateDeviationLocked(ch) })
}

func (t *Transceiver) updateDeviationLocked(ch uint8) {
	band := calibration.BandVHF
	if t.rxBand == BandUHF {
		band = calibration.BandUHF
	}

	var offset int
	switch ch {
	case registers.VoiceChannelTone1, registers.VoiceChannelTone2:
		offset = calibration.DevToneTone
	case registers.VoiceChannelDTMF:
		offset = calibration.DevToneDTMF
	default:
		return
	}
	dev := t.cal.SectionValue(band, calibration.DevTone, calibration.Query{Offset: offset}) & 0x7F
	t.setWithMask(registers.RegVoiceGainTx, 0xFF80, dev, 0)
}

// SetTone1 sets the first tone generator in Hz.
func (t *Transceiver) SetTone1(hz uint16) error {
	return t.locked(func() { t.writeReg(registers.RegTone1Freq, hz*10) })
}

// SetTone2 sets the second tone generator in Hz.
func (t *Transceiver) SetTone2(hz uint16) error {
	return t.locked(func() { t.writeReg(registers.RegTone2Freq, hz*10) })
}

// SetDTMF loads both tone generators with the pair for DTMF code 0..15.
func (t *Transceiver) SetDTMF(code int) error {
	tone1, tone2, err := DTMFTones(code)
	if err != nil {
		return fmt.Errorf("failed to set dtmf: %w", err)
	}
	return t.locked(func() {
		t.writeReg(registers.RegTone1Freq, tone1*10)
		t.writeReg(registers.RegTone2Freq, tone2*10)
	})
}

// SetMicGainFM sets the FM mic gain. Gains above 17 also raise the
// calibrated transmit voice gain.
func (t *Transceiver) SetMicGainFM(gain uint8) error {
	return t.locked(func() { t.setMicGainFMLocked(gain) })
}

func (t *Transceiver) setMicGainFMLocked(gain uint8) {
	gainTx := t.voiceGainTx
	if gain > 17 {
		gainTx += uint16(gain - 16)
	}
	t.setWithMask(registers.RegPGAGain, 0xF83F, uint16(gain), 6)
	t.setWithMask(registers.RegVoiceGainTx, 0xFF80, gainTx, 0)
}

// VoiceGainTx returns the calibrated transmit voice gain.
func (t *Transceiver) VoiceGainTx() uint16 {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.voiceGainTx
}
