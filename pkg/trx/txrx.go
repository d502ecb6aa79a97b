package trx

import (
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
)

// RxAndTxOff disables both the receiver and the transmitter.
func (t *Transceiver) RxAndTxOff() error {
	return t.locked(t.rxAndTxOffLocked)
}

func (t *Transceiver) rxAndTxOffLocked() {
	t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOff))
}

// RxOn enables the receiver and restarts signal polling.
func (t *Transceiver) RxOn() error {
	return t.locked(t.rxOnLocked)
}

func (t *Transceiver) rxOnLocked() {
	t.restartTimers()
	t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOn))
}

// ActivateRx powers down the PA, selects the preamp for the receive band
// and retunes to the receive frequency.
func (t *Transceiver) ActivateRx() error {
	return t.locked(t.activateRxLocked)
}

func (t *Transceiver) activateRxLocked() {
	t.setDAC(0)
	t.setPin("vhf tx amp", t.hw.Pins.VHFTxAmp, 0)
	t.setPin("uhf tx amp", t.hw.Pins.UHFTxAmp, 0)
	t.txPAEnabled = false

	t.selectPreampLocked()
	t.rxAndTxOffLocked()
	if t.rxFreq != t.txFreq {
		t.writeTuningLocked(t.rxWord)
	}
	t.rxOnLocked()
}

// ActivateTx switches the RF path to transmit and drives the PA at the
// configured power. It does nothing in mode None.
func (t *Transceiver) ActivateTx() error {
	return t.locked(t.activateTxLocked)
}

func (t *Transceiver) activateTxLocked() {
	if t.mode == codeplug.RadioModeNone {
		return
	}

	t.txPAEnabled = true
	t.rssi = 0
	t.noise = 0xFF
	t.setPin("vhf rx amp", t.hw.Pins.VHFRxAmp, 0)
	t.setPin("uhf rx amp", t.hw.Pins.UHFRxAmp, 0)

	if t.rxFreq != t.txFreq {
		t.writeTuningLocked(t.txWord)
	}
	t.rxAndTxOffLocked()

	if t.mode == codeplug.RadioModeAnalog {
		t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlTxAnalog))
		t.selectVoiceChannelLocked(registers.VoiceChannelMic)
		t.setMicGainFMLocked(t.settings.MicGainFM)
	} else {
		t.writeReg(registers.RegCtrl, registers.Ctrl(false, registers.CtrlTxDigital))
	}

	if t.txBand == BandVHF {
		t.setPin("uhf tx amp", t.hw.Pins.UHFTxAmp, 0)
		t.setPin("vhf tx amp", t.hw.Pins.VHFTxAmp, 1)
	} else {
		t.setPin("vhf tx amp", t.hw.Pins.VHFTxAmp, 0)
		t.setPin("uhf tx amp", t.hw.Pins.UHFTxAmp, 1)
	}
	t.setDAC(t.paDrive)
}

// SetTX marks transmission enabled and, in analog mode, keys the
// transmitter. Digital keying is left to the DMR layer.
func (t *Transceiver) SetTX() error {
	return t.locked(t.setTXLocked)
}

func (t *Transceiver) setTXLocked() {
	t.configurePADriveLocked(false)
	t.transmissionEnabled = true
	t.metrics.SetTransmitting(true)
	if t.mode == codeplug.RadioModeAnalog {
		t.activateTxLocked()
	}
}

// SetRX clears transmission and, in analog mode, returns to receive.
func (t *Transceiver) SetRX() error {
	return t.locked(func() {
		t.transmissionEnabled = false
		t.metrics.SetTransmitting(false)
		if t.mode == codeplug.RadioModeAnalog {
			t.activateRxLocked()
		}
	})
}

// EnableTransmission lights the red LED and keys up.
func (t *Transceiver) EnableTransmission() error {
	return t.locked(func() {
		t.setPin("green led", t.hw.LEDs.Green, 0)
		t.setPin("red led", t.hw.LEDs.Red, 1)
		t.setTXLocked()
	})
}

// DisableTransmission clears the red LED and returns to receive in every
// mode.
func (t *Transceiver) DisableTransmission() error {
	return t.locked(func() {
		t.setPin("red led", t.hw.LEDs.Red, 0)
		t.transmissionEnabled = false
		t.metrics.SetTransmitting(false)
		t.activateRxLocked()
	})
}

// SetPowerLevel sets the power level used by the next PA update.
func (t *Transceiver) SetPowerLevel(level uint8) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.powerLevel = level
}

// PowerLevel returns the current power level.
func (t *Transceiver) PowerLevel() uint8 {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.powerLevel
}

// PADrive returns the DAC value applied when transmitting.
func (t *Transceiver) PADrive() uint16 {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.paDrive
}

// ConfigurePADriveForBand recomputes the PA drive when the transmit
// frequency or power level changed since the last call, or when override
// is set.
func (t *Transceiver) ConfigurePADriveForBand(override bool) error {
	return t.locked(func() { t.configurePADriveLocked(override) })
}

func (t *Transceiver) configurePADriveLocked(override bool) {
	if t.txFreq == t.lastTxFreq && t.powerLevel == t.lastPowerLevel && !override {
		return
	}
	t.txBand = BandFromFrequency(t.txFreq)
	t.power = t.cal.PowerForFrequency(t.txFreq)
	t.lastTxFreq = t.txFreq
	t.lastPowerLevel = t.powerLevel
	t.updatePADriveLocked()
}

// UpdatePADrive recomputes the PA drive from the current power level and
// calibration anchors.
func (t *Transceiver) UpdatePADrive() error {
	return t.locked(t.updatePADriveLocked)
}

func (t *Transceiver) updatePADriveLocked() {
	t.paDrive = PADrive(t.platform, t.txBand, t.powerLevel, t.power, t.settings.UserPower)
	t.logger.Debug("pa drive", "level", t.powerLevel, "band", t.txBand, "dac", t.paDrive)
}

// PowerUpDownRxAndC6000 powers the receive path, and optionally the
// HR-C6000, up or down for power saving. It refuses while transmitting or
// when already in the requested state. The result reports whether the
// HR-C6000 was powered off.
func (t *Transceiver) PowerUpDownRxAndC6000(up, includeC6000 bool) (bool, error) {
	var status bool
	var refused error
	err := t.locked(func() {
		if t.transmissionEnabled || t.txPAEnabled {
			refused = ErrTransmitting
			return
		}
		if up == t.poweredUp {
			refused = ErrAlreadyInState
			return
		}
		status = t.powerUpDownLocked(up, includeC6000)
	})
	if refused != nil {
		return false, refused
	}
	return status, err
}

func (t *Transceiver) powerUpDownLocked(up, includeC6000 bool) bool {
	status := false
	prompt := t.voicePromptPlaying()

	if up {
		if includeC6000 && !prompt {
			t.setPin("c6000 pwd", t.hw.Pins.C6000PWD, 0)

			fill := make([]byte, registers.C6000FillBufferSize)
			for i := range fill {
				fill[i] = registers.C6000FillPattern
			}
			t.digital("set open music", func() error {
				return t.hw.Digital.ClearPageRegWithMask(registers.C6000PageConfig, registers.C6000RegOpenMusic, 0xFD, registers.C6000OpenMusicBit)
			})
			t.digital("fill sound buffer", func() error {
				return t.hw.Digital.WritePageRegs(registers.C6000PageSound, 0x00, fill)
			})
			t.digital("clear open music", func() error {
				return t.hw.Digital.ClearPageRegWithMask(registers.C6000PageConfig, registers.C6000RegOpenMusic, 0xFD, 0x00)
			})
			t.writePage(registers.C6000PageConfig, registers.C6000RegOpenMusic, registers.C6000VocoderSPI)
		}

		t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOn))
		if t.rxBand == BandVHF {
			t.setPin("vhf rx amp", t.hw.Pins.VHFRxAmp, 1)
		} else {
			t.setPin("uhf rx amp", t.hw.Pins.UHFRxAmp, 1)
		}
	} else {
		t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOff))
		if !prompt && includeC6000 {
			t.setPin("c6000 pwd", t.hw.Pins.C6000PWD, 1)
			status = true
		}
		t.setPin("vhf rx amp", t.hw.Pins.VHFRxAmp, 0)
		t.setPin("uhf rx amp", t.hw.Pins.UHFRxAmp, 0)
	}

	t.poweredUp = up
	t.logger.Debug("rx power", "up", up, "c6000", includeC6000, "c6000_off", status)
	return status
}
