// Package registers models the register files of the AT1846S RF transceiver
// and the HR-C6000 DMR baseband chip, and provides simulated chips for host
// runs and tests.
package registers

import "fmt"

// RegisterMap holds the AT1846S registers driven by the transceiver.
// Every register is 16 bits wide.
type RegisterMap struct {
	// Front end
	PGAGain  uint16 `yaml:"pga_gain"`  // 0x0A
	FreqMode uint16 `yaml:"freq_mode"` // 0x05

	// Status
	RSSINoise uint16 `yaml:"rssi_noise"` // 0x1B
	Flags     uint16 `yaml:"flags"`      // 0x1C

	// Frequency
	FreqHigh uint16 `yaml:"freq_high"` // 0x29
	FreqLow  uint16 `yaml:"freq_low"`  // 0x2A

	// Main control
	Ctrl uint16 `yaml:"ctrl"` // 0x30

	// Tone generators
	Tone1Freq uint16 `yaml:"tone1_freq"` // 0x35
	Tone2Freq uint16 `yaml:"tone2_freq"` // 0x36
	SubAudio  uint16 `yaml:"sub_audio"`  // 0x3A

	// Thresholds
	RSSI3Th   uint16 `yaml:"rssi3_th"`   // 0x3F
	Noise1Th  uint16 `yaml:"noise1_th"`  // 0x48
	SquelchTh uint16 `yaml:"squelch_th"` // 0x49
	Noise2Th  uint16 `yaml:"noise2_th"`  // 0x60

	// Transmit audio
	VoiceGainTx uint16 `yaml:"voice_gain_tx"` // 0x41
	DACGain     uint16 `yaml:"dac_gain"`      // 0x44
	XmitterDev  uint16 `yaml:"xmitter_dev"`   // 0x59
	Filter      uint16 `yaml:"filter"`        // 0x57
	ToneCtrl    uint16 `yaml:"tone_ctrl"`     // 0x79

	// Sub-audio coding
	CTCSS1     uint16 `yaml:"ctcss1"`      // 0x4A
	CDCSHigh   uint16 `yaml:"cdcss_high"`  // 0x4B
	CDCSLow    uint16 `yaml:"cdcss_low"`   // 0x4C
	CTCSS2     uint16 `yaml:"ctcss2"`      // 0x4D
	CSSMode    uint16 `yaml:"css_mode"`    // 0x4E
	CSSThresh  uint16 `yaml:"css_thresh"`  // 0x5B
	IFTuning   uint16 `yaml:"if_tuning"`   // 0x15
	AGCTarget  uint16 `yaml:"agc_target"`  // 0x32
	DSPControl uint16 `yaml:"dsp_control"` // 0x40
}

// AT1846S register addresses
const (
	RegFreqMode     = 0x05
	RegPGAGain      = 0x0A
	RegIFTuning     = 0x15
	RegRSSINoise    = 0x1B
	RegFlags        = 0x1C
	RegFreqHigh     = 0x29
	RegFreqLow      = 0x2A
	RegCtrl         = 0x30
	RegAGCTarget    = 0x32
	RegTone1Freq    = 0x35
	RegTone2Freq    = 0x36
	RegSubAudio     = 0x3A
	RegRSSI3Th      = 0x3F
	RegDSPControl   = 0x40
	RegVoiceGainTx  = 0x41
	RegDACGain      = 0x44
	RegNoise1Th     = 0x48
	RegSquelchTh    = 0x49
	RegCTCSS1       = 0x4A
	RegCDCSHigh     = 0x4B
	RegCDCSLow      = 0x4C
	RegCTCSS2       = 0x4D
	RegCSSMode      = 0x4E
	RegFilter       = 0x57
	RegXmitterDev   = 0x59
	RegCSSThreshold = 0x5B
	RegNoise2Th     = 0x60
	RegToneCtrl     = 0x79
)

// Control register states (low byte of RegCtrl)
const (
	CtrlRxOff     = 0x06
	CtrlRxOn      = 0x26
	CtrlTxAnalog  = 0x46
	CtrlTxDigital = 0xC6
)

// Fixed register values
const (
	FreqModeNormal   = 0x8763
	SquelchThDefault = 0x0C15
)

// Voice channel selectors (RegSubAudio[14:12])
const (
	VoiceChannelNone  = 0x00
	VoiceChannelTone1 = 0x10
	VoiceChannelTone2 = 0x20
	VoiceChannelDTMF  = 0x30
	VoiceChannelMic   = 0x40
)

// CSS detection flags (RegFlags low byte)
const (
	FlagCSSCompare = 0x01
	FlagCSSDetect  = 0x04
	FlagCSSMatched = FlagCSSCompare | FlagCSSDetect
)

// Ctrl returns the RegCtrl value for state at the given bandwidth.
func Ctrl(bandwidth25k bool, state uint8) uint16 {
	if bandwidth25k {
		return 0x7000 | uint16(state)
	}
	return 0x4000 | uint16(state)
}

var regNames = map[uint8]string{
	RegFreqMode:     "FREQ_MODE",
	RegPGAGain:      "PGA_GAIN",
	RegIFTuning:     "IF_TUNING",
	RegRSSINoise:    "RSSI_NOISE",
	RegFlags:        "FLAGS",
	RegFreqHigh:     "FREQ_HIGH",
	RegFreqLow:      "FREQ_LOW",
	RegCtrl:         "CTRL",
	RegAGCTarget:    "AGC_TARGET",
	RegTone1Freq:    "TONE1_FREQ",
	RegTone2Freq:    "TONE2_FREQ",
	RegSubAudio:     "SUB_AUDIO",
	RegRSSI3Th:      "RSSI3_TH",
	RegDSPControl:   "DSP_CONTROL",
	RegVoiceGainTx:  "VOICE_GAIN_TX",
	RegDACGain:      "DAC_GAIN",
	RegNoise1Th:     "NOISE1_TH",
	RegSquelchTh:    "SQUELCH_TH",
	RegCTCSS1:       "CTCSS1",
	RegCDCSHigh:     "CDCSS_HIGH",
	RegCDCSLow:      "CDCSS_LOW",
	RegCTCSS2:       "CTCSS2",
	RegCSSMode:      "CSS_MODE",
	RegFilter:       "FILTER",
	RegXmitterDev:   "XMITTER_DEV",
	RegCSSThreshold: "CSS_THRESHOLD",
	RegNoise2Th:     "NOISE2_TH",
	RegToneCtrl:     "TONE_CTRL",
}

// RegName returns a human-readable name for an AT1846S register.
func RegName(reg uint8) string {
	if name, ok := regNames[reg]; ok {
		return name
	}
	return fmt.Sprintf("REG_%02X", reg)
}

// RegValue is one register assignment.
type RegValue struct {
	Reg   uint8
	Value uint16
}

var (
	profileWide = []RegValue{
		{RegIFTuning, 0x1F00},
		{RegAGCTarget, 0x7564},
		{RegDSPControl, 0x0030},
	}
	profileNarrow = []RegValue{
		{RegIFTuning, 0x1100},
		{RegAGCTarget, 0x4495},
		{RegDSPControl, 0x0030},
	}
	profileDigital = []RegValue{
		{RegIFTuning, 0x1100},
		{RegAGCTarget, 0x4495},
		{RegDSPControl, 0x0031},
		{RegSubAudio, 0x00C3},
	}
)

// ModeProfile returns the register set loaded on a mode change.
func ModeProfile(digital, bandwidth25k bool) []RegValue {
	switch {
	case digital:
		return profileDigital
	case bandwidth25k:
		return profileWide
	}
	return profileNarrow
}

// TuningWord converts a frequency in Hz to the 62.5 Hz step word written to
// RegFreqHigh and RegFreqLow.
func TuningWord(hz uint32) uint32 {
	return uint32(uint64(hz) * 16 / 1000)
}

// FrequencyFromWord converts a tuning word back to Hz.
func FrequencyFromWord(word uint32) uint32 {
	return uint32(uint64(word) * 1000 / 16)
}

// GetFrequency returns the tuned frequency in Hz.
func GetFrequency(reg *RegisterMap) uint32 {
	return FrequencyFromWord(uint32(reg.FreqHigh)<<16 | uint32(reg.FreqLow))
}

// SetFrequency sets the frequency registers for hz.
func SetFrequency(reg *RegisterMap, hz uint32) {
	word := TuningWord(hz)
	reg.FreqHigh = uint16(word >> 16)
	reg.FreqLow = uint16(word)
}

// RSSI returns the raw signal strength from RegRSSINoise.
func RSSI(reg *RegisterMap) uint8 {
	return uint8(reg.RSSINoise >> 8)
}

// Noise returns the raw noise level from RegRSSINoise.
func Noise(reg *RegisterMap) uint8 {
	return uint8(reg.RSSINoise)
}
