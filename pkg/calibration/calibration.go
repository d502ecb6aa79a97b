// Package calibration provides per-band RF calibration values for the
// transceiver: chip tuning sections and PA drive anchors.
package calibration

import "fmt"

// Band selects one of the two calibration tables. 220 MHz shares VHF.
type Band int

// Calibration bands
const (
	BandVHF Band = iota
	BandUHF
	bandCount
)

func (b Band) String() string {
	if b == BandUHF {
		return "uhf"
	}
	return "vhf"
}

// Section names a calibration value group.
type Section int

// Calibration sections
const (
	QMod2Offset Section = iota
	PhaseReduce
	TwoPointMod
	PGAGain
	VoiceGainTx
	GainTx
	PADrvIBit
	XmitterDevWide
	XmitterDevNarrow
	DACVGainAnalog
	VolumeAnalog
	Noise1ThWide
	Noise1ThNarrow
	Noise2ThWide
	Noise2ThNarrow
	RSSI3ThWide
	RSSI3ThNarrow
	SquelchTh
	DevTone
	sectionCount
)

var sectionNames = [sectionCount]string{
	QMod2Offset:      "q_mod2_offset",
	PhaseReduce:      "phase_reduce",
	TwoPointMod:      "twopoint_mod",
	PGAGain:          "pga_gain",
	VoiceGainTx:      "voice_gain_tx",
	GainTx:           "gain_tx",
	PADrvIBit:        "padrv_ibit",
	XmitterDevWide:   "xmitter_dev_wide",
	XmitterDevNarrow: "xmitter_dev_narrow",
	DACVGainAnalog:   "dac_vgain_analog",
	VolumeAnalog:     "volume_analog",
	Noise1ThWide:     "noise1_th_wide",
	Noise1ThNarrow:   "noise1_th_narrow",
	Noise2ThWide:     "noise2_th_wide",
	Noise2ThNarrow:   "noise2_th_narrow",
	RSSI3ThWide:      "rssi3_th_wide",
	RSSI3ThNarrow:    "rssi3_th_narrow",
	SquelchTh:        "squelch_th",
	DevTone:          "dev_tone",
}

func (s Section) String() string {
	if s < 0 || s >= sectionCount {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// Query selects an entry within a section. Offset is the frequency step
// or tone index; Mod is an additional bandwidth dependent index shift.
type Query struct {
	Offset int
	Mod    int
}

// DevTone offsets
const (
	DevToneDTMF = iota
	DevToneTone
	DevToneCTCSSWide
	DevToneCTCSSNarrow
	DevToneDCSWide
	DevToneDCSNarrow
)

// PowerValues are the PA DAC anchors at 1 W and 5 W.
type PowerValues struct {
	Low  uint16 `yaml:"low"`
	High uint16 `yaml:"high"`
}

// Provider supplies calibration data to the transceiver.
type Provider interface {
	SectionValue(band Band, section Section, q Query) uint16
	PowerForFrequency(hz uint32) PowerValues
}
