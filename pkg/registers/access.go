package registers

import "fmt"

// Reader reads a 16-bit AT1846S register.
type Reader interface {
	ReadReg(reg uint8) (uint16, error)
}

// Writer writes a 16-bit AT1846S register.
type Writer interface {
	WriteReg(reg uint8, value uint16) error
}

// ReadWriter combines Reader and Writer.
type ReadWriter interface {
	Reader
	Writer
}

// SetClear updates reg to (current & mask) | value.
func SetClear(rw ReadWriter, reg uint8, mask, value uint16) error {
	cur, err := rw.ReadReg(reg)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", RegName(reg), err)
	}
	if err := rw.WriteReg(reg, cur&mask|value); err != nil {
		return fmt.Errorf("failed to write %s: %w", RegName(reg), err)
	}
	return nil
}

// SetWithMask shifts value into place and merges it with the bits of reg
// kept by mask.
func SetWithMask(rw ReadWriter, reg uint8, mask, value uint16, shift uint) error {
	return SetClear(rw, reg, mask, uint16(uint32(value)<<shift))
}

// fields lists every RegisterMap field in address order.
func (r *RegisterMap) fields() []struct {
	reg uint8
	v   *uint16
} {
	return []struct {
		reg uint8
		v   *uint16
	}{
		{RegFreqMode, &r.FreqMode},
		{RegPGAGain, &r.PGAGain},
		{RegIFTuning, &r.IFTuning},
		{RegRSSINoise, &r.RSSINoise},
		{RegFlags, &r.Flags},
		{RegFreqHigh, &r.FreqHigh},
		{RegFreqLow, &r.FreqLow},
		{RegCtrl, &r.Ctrl},
		{RegAGCTarget, &r.AGCTarget},
		{RegTone1Freq, &r.Tone1Freq},
		{RegTone2Freq, &r.Tone2Freq},
		{RegSubAudio, &r.SubAudio},
		{RegRSSI3Th, &r.RSSI3Th},
		{RegDSPControl, &r.DSPControl},
		{RegVoiceGainTx, &r.VoiceGainTx},
		{RegDACGain, &r.DACGain},
		{RegNoise1Th, &r.Noise1Th},
		{RegSquelchTh, &r.SquelchTh},
		{RegCTCSS1, &r.CTCSS1},
		{RegCDCSHigh, &r.CDCSHigh},
		{RegCDCSLow, &r.CDCSLow},
		{RegCTCSS2, &r.CTCSS2},
		{RegCSSMode, &r.CSSMode},
		{RegFilter, &r.Filter},
		{RegXmitterDev, &r.XmitterDev},
		{RegCSSThreshold, &r.CSSThresh},
		{RegNoise2Th, &r.Noise2Th},
		{RegToneCtrl, &r.ToneCtrl},
	}
}

func readOnly(reg uint8) bool {
	return reg == RegRSSINoise || reg == RegFlags
}

// ReadAll reads every modelled register into a RegisterMap.
func ReadAll(chip Reader) (*RegisterMap, error) {
	reg := &RegisterMap{}
	for _, f := range reg.fields() {
		v, err := chip.ReadReg(f.reg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", RegName(f.reg), err)
		}
		*f.v = v
	}
	return reg, nil
}

// WriteAll writes every writable register from reg.
func WriteAll(chip Writer, reg *RegisterMap) error {
	for _, f := range reg.fields() {
		if readOnly(f.reg) {
			continue
		}
		if err := chip.WriteReg(f.reg, *f.v); err != nil {
			return fmt.Errorf("failed to write %s: %w", RegName(f.reg), err)
		}
	}
	return nil
}

// PowerOnDefaults returns the register state after chip reset and the
// firmware's initial programming.
func PowerOnDefaults() *RegisterMap {
	reg := &RegisterMap{
		FreqMode:    FreqModeNormal,
		PGAGain:     0x7C20,
		IFTuning:    0x1100,
		Ctrl:        Ctrl(false, CtrlRxOff),
		AGCTarget:   0x4495,
		SubAudio:    0x00C3,
		RSSI3Th:     0x7066,
		DSPControl:  0x0030,
		VoiceGainTx: 0x0031,
		DACGain:     0x0BFF,
		Noise1Th:    0x2C2B,
		SquelchTh:   SquelchThDefault,
		CSSMode:     0x20C2,
		Filter:      0x0FFE,
		XmitterDev:  0x0BFF,
		Noise2Th:    0x1B1A,
		ToneCtrl:    0x0000,
	}
	SetFrequency(reg, 146520000)
	return reg
}
