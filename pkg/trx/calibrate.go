package trx

import (
	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
)

const maxCalibrationOffset = 7

// calibrationPoint returns the calibration band for the receive band and
// the transmit frequency step within it, capped at 7.
func (t *Transceiver) calibrationPoint() (calibration.Band, int) {
	band := calibration.BandVHF
	base, step := uint32(132500000), uint32(5000000)
	if t.rxBand == BandUHF {
		band = calibration.BandUHF
		base, step = 400000000, 10000000
	}

	offset := 0
	if t.txFreq > base {
		offset = int(min((t.txFreq-base)/step, maxCalibrationOffset))
	}
	return band, offset
}

func (t *Transceiver) updateC6000CalibrationLocked() {
	band, offset := t.calibrationPoint()

	t.writePage(registers.C6000PageConfig, registers.C6000RegReset, registers.C6000ResetAll)

	v := t.cal.SectionValue(band, calibration.QMod2Offset, calibration.Query{})
	t.writePage(registers.C6000PageConfig, registers.C6000RegMod2Offset, uint8(v))

	q := calibration.Query{Offset: offset}
	v = t.cal.SectionValue(band, calibration.PhaseReduce, q)
	t.writePage(registers.C6000PageConfig, registers.C6000RegPhaseReduce, uint8(v))

	twoPoint := min(t.cal.SectionValue(band, calibration.TwoPointMod, q), 1023)
	t.writePage(registers.C6000PageConfig, registers.C6000RegTwoPointHi, uint8(twoPoint>>8&0x03))
	t.writePage(registers.C6000PageConfig, registers.C6000RegTwoPointLo, uint8(twoPoint))
}

func (t *Transceiver) updateAT1846SCalibrationLocked() {
	band, _ := t.calibrationPoint()
	get := func(s calibration.Section, q calibration.Query) uint16 {
		return t.cal.SectionValue(band, s, q)
	}
	wide := func(w, n calibration.Section) calibration.Section {
		if t.bandwidth25k {
			return w
		}
		return n
	}

	pgaGain := get(calibration.PGAGain, calibration.Query{})
	t.voiceGainTx = get(calibration.VoiceGainTx, calibration.Query{})
	gainTx := get(calibration.GainTx, calibration.Query{})
	t.padrvIBit = get(calibration.PADrvIBit, calibration.Query{})
	xmitterDev := get(wide(calibration.XmitterDevWide, calibration.XmitterDevNarrow), calibration.Query{})

	dacVGain, volume := uint16(0x0C), uint16(0x0C)
	if t.mode == codeplug.RadioModeAnalog {
		dacVGain = get(calibration.DACVGainAnalog, calibration.Query{})
		volume = get(calibration.VolumeAnalog, calibration.Query{})
	}

	noise1 := get(wide(calibration.Noise1ThWide, calibration.Noise1ThNarrow), calibration.Query{})
	noise2 := get(wide(calibration.Noise2ThWide, calibration.Noise2ThNarrow), calibration.Query{})
	rssi3 := get(wide(calibration.RSSI3ThWide, calibration.RSSI3ThNarrow), calibration.Query{})
	sqMod := 3
	if t.bandwidth25k {
		sqMod = 0
	}
	squelch := get(calibration.SquelchTh, calibration.Query{Mod: sqMod})

	t.setWithMask(registers.RegPGAGain, 0xF83F, pgaGain, 6)
	t.setWithMask(registers.RegVoiceGainTx, 0xFF80, t.voiceGainTx, 0)
	t.setWithMask(registers.RegDACGain, 0xF0FF, gainTx, 8)
	t.setWithMask(registers.RegXmitterDev, 0x003F, xmitterDev, 6)
	t.setWithMask(registers.RegDACGain, 0xFF0F, dacVGain, 4)
	t.setWithMask(registers.RegDACGain, 0xFFF0, volume, 0)
	t.setWithMask(registers.RegNoise1Th, 0x0000, noise1, 0)
	t.setWithMask(registers.RegNoise2Th, 0x0000, noise2, 0)
	t.setWithMask(registers.RegRSSI3Th, 0x0000, rssi3, 0)
	t.setWithMask(registers.RegPGAGain, 0x87FF, t.padrvIBit, 11)
	t.setWithMask(registers.RegSquelchTh, 0x0000, squelch, 0)
}
