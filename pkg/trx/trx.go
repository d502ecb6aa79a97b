// Package trx controls the radio's RF path: the AT1846S transceiver, the
// HR-C6000 DMR baseband and the PA, preamp and audio routing lines.
//
// Every exported method of Transceiver enters the shared critical section
// once. Methods named *Locked assume it is held and never take it again.
package trx

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/critical"
	"github.com/herlein/trxcore/pkg/gpio"
	"github.com/herlein/trxcore/pkg/metrics"
	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/ticks"
)

// SamplePeriod is the RSSI and squelch polling period in milliseconds.
const SamplePeriod = 25

const (
	frequencyUnset = math.MaxUint32
	powerUnset     = 0xFF
	savedUnset     = 0xFF

	squelchMax       = 70
	cssHoldDelay     = 6
	squelchCloseWait = 1

	defaultVoiceGainTx = 0x31
)

// DMRMode selects direct or repeater DMR operation.
type DMRMode int

// DMR modes
const (
	DMRModeDMO DMRMode = iota
	DMRModeRMO
	DMRModeAuto
)

func (m DMRMode) String() string {
	switch m {
	case DMRModeDMO:
		return "dmo"
	case DMRModeRMO:
		return "rmo"
	case DMRModeAuto:
		return "auto"
	}
	return "unknown"
}

// BeepOptions selects receive beeps.
type BeepOptions uint8

// Beep options
const (
	BeepRxCarrier BeepOptions = 0x01
	BeepRxTalker  BeepOptions = 0x02
)

// AnalogFilter selects whether sub-audible codes gate the receive audio.
type AnalogFilter uint8

// Analog filter levels
const (
	AnalogFilterNone AnalogFilter = iota
	AnalogFilterCSS
)

// Settings are the user settings the transceiver reads.
type Settings struct {
	SquelchDefaults [BandCount]uint8 `yaml:"squelch_defaults"`
	TxPowerLevel    uint8            `yaml:"tx_power_level"`
	UserPower       uint16           `yaml:"user_power"`
	MicGainFM       uint8            `yaml:"mic_gain_fm"`
	BeepOptions     BeepOptions      `yaml:"beep_options"`
	BandLimits      BandLimitMode    `yaml:"band_limits"`
	AnalogFilter    AnalogFilter     `yaml:"analog_filter"`
	DMRDisabled     bool             `yaml:"dmr_disabled"`
	OverrideTG      uint32           `yaml:"override_tg"`
}

// DefaultSettings returns factory settings.
func DefaultSettings() Settings {
	return Settings{
		SquelchDefaults: [BandCount]uint8{10, 10, 10},
		TxPowerLevel:    PowerLevel1W,
		UserPower:       MaxPADrive,
		MicGainFM:       17,
		BeepOptions:     BeepRxCarrier,
		BandLimits:      BandLimitsDefault,
		AnalogFilter:    AnalogFilterCSS,
	}
}

// Transceiver is the RF state machine.
type Transceiver struct {
	cs       *critical.Section
	hw       Hardware
	cal      calibration.Provider
	clock    ticks.Clock
	settings Settings
	platform Platform
	logger   *log.Logger
	metrics  *metrics.Metrics

	userBands          [BandCount]FrequencyRange
	voicePromptPlaying func() bool

	// first hardware error of the current locked call
	err error

	mode         codeplug.RadioMode
	bandwidth25k bool
	channel      codeplug.Channel

	rxFreq, txFreq uint32
	rxWord, txWord uint32
	rxBand, txBand Band

	colourCode uint8
	timeSlot   int
	dmrModeRx  DMRMode
	dmrModeTx  DMRMode

	powerLevel     uint8
	lastTxFreq     uint32
	lastPowerLevel uint8
	power          calibration.PowerValues
	paDrive        uint16
	padrvIBit      uint16
	voiceGainTx    uint16

	savedVoiceGainTx uint16
	savedDeviation   uint16

	rssi, noise  uint8
	rssiTimer    ticks.Timer
	squelchTimer ticks.Timer

	analogSignal         bool
	analogTriggeredAudio bool
	digitalSignal        bool
	cssMeasureCount      int
	rxCSSActive          bool
	rxBeep               RxBeep

	poweredUp           bool
	transmissionEnabled bool
	txPAEnabled         bool
}

// Option configures a Transceiver.
type Option func(*Transceiver)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Transceiver) { t.logger = l }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transceiver) { t.metrics = m }
}

// WithPlatform selects the PA power curve.
func WithPlatform(p Platform) Option {
	return func(t *Transceiver) { t.platform = p }
}

// WithUserBands sets the transmit limits used by BandLimitsUser.
func WithUserBands(bands [BandCount]FrequencyRange) Option {
	return func(t *Transceiver) { t.userBands = bands }
}

// WithVoicePrompt reports whether a voice prompt owns the audio path.
func WithVoicePrompt(playing func() bool) Option {
	return func(t *Transceiver) { t.voicePromptPlaying = playing }
}

// New returns a transceiver in mode None. The hardware is not touched
// until the first mode or frequency change.
func New(hw Hardware, cal calibration.Provider, clock ticks.Clock, cs *critical.Section, settings Settings, opts ...Option) *Transceiver {
	t := &Transceiver{
		cs:                 cs,
		hw:                 hw,
		cal:                cal,
		clock:              clock,
		settings:           settings,
		platform:           PlatformGD77,
		logger:             log.Default().WithPrefix("trx"),
		userBands:          DefaultAmateurBands,
		voicePromptPlaying: func() bool { return false },
		mode:               codeplug.RadioModeNone,
		rxFreq:             frequencyUnset,
		txFreq:             frequencyUnset,
		rxBand:             BandVHF,
		txBand:             BandVHF,
		colourCode:         1,
		powerLevel:         powerUnset,
		lastTxFreq:         frequencyUnset,
		lastPowerLevel:     powerUnset,
		voiceGainTx:        defaultVoiceGainTx,
		savedVoiceGainTx:   savedUnset,
		savedDeviation:     savedUnset,
		noise:              0xFF,
		rssiTimer:          ticks.NewTimer(clock),
		squelchTimer:       ticks.NewTimer(clock),
		poweredUp:          true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// locked runs fn inside the critical section and returns the first
// hardware error fn ran into.
func (t *Transceiver) locked(fn func()) error {
	t.cs.Enter()
	defer t.cs.Exit()
	fn()
	err := t.err
	t.err = nil
	return err
}

func (t *Transceiver) fail(err error) {
	if t.err == nil {
		t.err = err
		t.logger.Error("hardware access failed", "err", err)
	}
}

func (t *Transceiver) writeReg(reg uint8, value uint16) {
	if t.err != nil {
		return
	}
	if err := t.hw.Radio.WriteReg(reg, value); err != nil {
		t.fail(fmt.Errorf("failed to write %s: %w", registers.RegName(reg), err))
	}
}

func (t *Transceiver) readReg(reg uint8) uint16 {
	if t.err != nil {
		return 0
	}
	v, err := t.hw.Radio.ReadReg(reg)
	if err != nil {
		t.fail(fmt.Errorf("failed to read %s: %w", registers.RegName(reg), err))
		return 0
	}
	return v
}

func (t *Transceiver) setClear(reg uint8, mask, value uint16) {
	if t.err != nil {
		return
	}
	if err := registers.SetClear(t.hw.Radio, reg, mask, value); err != nil {
		t.fail(err)
	}
}

func (t *Transceiver) setWithMask(reg uint8, mask, value uint16, shift uint) {
	t.setClear(reg, mask, uint16(uint32(value)<<shift))
}

func (t *Transceiver) writePage(page, reg, value uint8) {
	if t.err != nil {
		return
	}
	if err := t.hw.Digital.WritePageReg(page, reg, value); err != nil {
		t.fail(fmt.Errorf("failed to write c6000 %d:0x%02X: %w", page, reg, err))
	}
}

func (t *Transceiver) digital(name string, fn func() error) {
	if t.err != nil {
		return
	}
	if err := fn(); err != nil {
		t.fail(fmt.Errorf("failed to %s: %w", name, err))
	}
}

func (t *Transceiver) setPin(name string, p gpio.Pin, v int) {
	if t.err != nil || p == nil {
		return
	}
	if err := p.SetValue(v); err != nil {
		t.fail(fmt.Errorf("failed to set %s: %w", name, err))
	}
}

func (t *Transceiver) pinValue(p gpio.Pin) int {
	if p == nil {
		return 0
	}
	v, err := p.Value()
	if err != nil {
		return 0
	}
	return v
}

func (t *Transceiver) setDAC(v uint16) {
	if t.err != nil {
		return
	}
	if err := t.hw.DAC.SetValue(v); err != nil {
		t.fail(fmt.Errorf("failed to set PA DAC: %w", err))
	}
}

func (t *Transceiver) ampEnabled() bool {
	return t.hw.Audio.Status()&AmpModeRF != 0
}

func (t *Transceiver) enableAmp() {
	if t.err != nil {
		return
	}
	if err := t.hw.Audio.Enable(AmpModeRF); err != nil {
		t.fail(fmt.Errorf("failed to enable audio amp: %w", err))
	}
	t.metrics.SetSquelchOpen(true)
}

func (t *Transceiver) disableAmp() {
	if t.err != nil {
		return
	}
	if err := t.hw.Audio.Disable(AmpModeRF); err != nil {
		t.fail(fmt.Errorf("failed to disable audio amp: %w", err))
	}
	t.metrics.SetSquelchOpen(false)
}

func (t *Transceiver) restartTimers() {
	t.rssiTimer.Start(SamplePeriod)
	t.squelchTimer.Start(SamplePeriod)
}

// SetModeAndBandwidth switches between None, Analog and Digital. A change
// of mode or bandwidth fully reprograms both chips; repeating the current
// setting only resets receive state. With DMR disabled Digital becomes
// Analog, and Digital always runs at 12.5 kHz.
func (t *Transceiver) SetModeAndBandwidth(mode codeplug.RadioMode, bandwidth25k bool) error {
	return t.locked(func() { t.setModeAndBandwidthLocked(mode, bandwidth25k) })
}

func (t *Transceiver) setModeAndBandwidthLocked(mode codeplug.RadioMode, bandwidth25k bool) {
	t.digitalSignal = false
	t.analogSignal = false
	t.restartTimers()
	t.cssMeasureCount = 0

	if t.settings.DMRDisabled && mode == codeplug.RadioModeDigital {
		mode = codeplug.RadioModeAnalog
	}

	if mode == t.mode && bandwidth25k == t.bandwidth25k {
		switch mode {
		case codeplug.RadioModeAnalog:
			t.disableAmp()
		case codeplug.RadioModeDigital:
			t.digital("reset timeslot detection", t.hw.Digital.ResetTimeSlotDetection)
		}
		return
	}

	t.logger.Debug("reprogramming", "from", t.mode, "to", mode, "bw25k", bandwidth25k)
	t.mode = mode
	t.metrics.ModeChange(mode.String())

	switch mode {
	case codeplug.RadioModeNone:
		t.setPin("rx audio mux", t.hw.Pins.RxAudioMux, 0)
		t.digital("terminate digital", t.hw.Digital.TerminateDigital)
		t.loadModeProfileLocked()
		t.updateC6000CalibrationLocked()
		t.updateAT1846SCalibrationLocked()
	case codeplug.RadioModeAnalog:
		t.bandwidth25k = bandwidth25k
		t.setPin("tx audio mux", t.hw.Pins.TxAudioMux, 0)
		t.digital("terminate digital", t.hw.Digital.TerminateDigital)
		t.loadModeProfileLocked()
		t.updateC6000CalibrationLocked()
		t.updateAT1846SCalibrationLocked()
	case codeplug.RadioModeDigital:
		t.bandwidth25k = false
		t.loadModeProfileLocked()
		t.updateC6000CalibrationLocked()
		t.updateAT1846SCalibrationLocked()
		t.setPin("tx audio mux", t.hw.Pins.TxAudioMux, 1)
		t.setPin("rx audio mux", t.hw.Pins.RxAudioMux, 0)
		t.digital("init digital", t.hw.Digital.InitDigital)
	}
}

// loadModeProfileLocked writes the AT1846S register profile for the
// current mode. None uses the digital profile.
func (t *Transceiver) loadModeProfileLocked() {
	for _, rv := range registers.ModeProfile(t.mode != codeplug.RadioModeAnalog, t.bandwidth25k) {
		t.writeReg(rv.Reg, rv.Value)
	}
}

// SetChannel sets the channel whose power, squelch, tone and timeslot
// settings the transceiver follows.
func (t *Transceiver) SetChannel(ch codeplug.Channel) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.channel = ch
}

// SetFrequency tunes the receiver to rx and remembers tx for transmit. The
// power level is refreshed from the channel even when the frequencies are
// unchanged. With DMRModeAuto equal frequencies select DMO, otherwise RMO.
func (t *Transceiver) SetFrequency(rx, tx uint32, dmrMode DMRMode) error {
	if BandFromFrequency(rx) == BandOutOfRange {
		return fmt.Errorf("%w: rx %d Hz", ErrOutOfBand, rx)
	}
	return t.locked(func() { t.setFrequencyLocked(rx, tx, dmrMode) })
}

func (t *Transceiver) setFrequencyLocked(rx, tx uint32, dmrMode DMRMode) {
	if t.channel.Power != 0 {
		t.powerLevel = t.channel.Power - 1
	} else {
		t.powerLevel = t.settings.TxPowerLevel
	}

	switch {
	case dmrMode != DMRModeAuto:
		t.dmrModeRx, t.dmrModeTx = dmrMode, dmrMode
	case rx == tx:
		t.dmrModeRx, t.dmrModeTx = DMRModeDMO, DMRModeDMO
	default:
		t.dmrModeRx, t.dmrModeTx = DMRModeRMO, DMRModeRMO
	}

	if rx == t.rxFreq && tx == t.txFreq {
		return
	}

	t.rxBand = BandFromFrequency(rx)
	t.rxFreq = rx
	t.txFreq = tx
	t.rxWord = registers.TuningWord(rx)
	t.txWord = registers.TuningWord(tx)
	t.logger.Debug("tuning", "rx", rx, "tx", tx, "band", t.rxBand)

	if t.mode == codeplug.RadioModeDigital {
		t.digital("terminate digital", t.hw.Digital.TerminateDigital)
	}

	t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOff))
	t.writeReg(registers.RegFreqMode, registers.FreqModeNormal)
	t.writeTuningLocked(t.rxWord)
	t.writeReg(registers.RegSquelchTh, registers.SquelchThDefault)
	t.writeReg(registers.RegCtrl, registers.Ctrl(t.bandwidth25k, registers.CtrlRxOn))

	t.updateC6000CalibrationLocked()
	t.updateAT1846SCalibrationLocked()

	if !t.txPAEnabled {
		t.selectPreampLocked()
	}

	if t.mode == codeplug.RadioModeDigital {
		t.digital("init digital", t.hw.Digital.InitDigital)
	}
	t.restartTimers()
}

func (t *Transceiver) writeTuningLocked(word uint32) {
	t.writeReg(registers.RegFreqHigh, uint16(word>>16))
	t.writeReg(registers.RegFreqLow, uint16(word))
}

func (t *Transceiver) selectPreampLocked() {
	if t.rxBand == BandVHF {
		t.setPin("vhf rx amp", t.hw.Pins.VHFRxAmp, 1)
		t.setPin("uhf rx amp", t.hw.Pins.UHFRxAmp, 0)
	} else {
		t.setPin("vhf rx amp", t.hw.Pins.VHFRxAmp, 0)
		t.setPin("uhf rx amp", t.hw.Pins.UHFRxAmp, 1)
	}
}

// Frequency returns the transmit frequency while transmitting, otherwise
// the receive frequency.
func (t *Transceiver) Frequency() uint32 {
	t.cs.Enter()
	defer t.cs.Exit()
	if t.transmissionEnabled {
		return t.txFreq
	}
	return t.rxFreq
}

// InAmateurBand reports whether hz may be transmitted on under the
// configured band limits.
func (t *Transceiver) InAmateurBand(hz uint32) bool {
	t.cs.Enter()
	defer t.cs.Exit()

	switch t.settings.BandLimits {
	case BandLimitsUser:
		return t.userBands[BandVHF].Contains(hz) || t.userBands[BandUHF].Contains(hz)
	case BandLimitsDefault:
		for _, r := range DefaultAmateurBands {
			if r.Contains(hz) {
				return true
			}
		}
		return false
	}
	return true
}

// SetUserBands replaces the user band limits, e.g. after reading them from
// the codeplug custom data.
func (t *Transceiver) SetUserBands(bands [BandCount]FrequencyRange) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.userBands = bands
}

// SetSettings replaces the user settings.
func (t *Transceiver) SetSettings(s Settings) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.settings = s
}

// State is a snapshot of the transceiver.
type State struct {
	Mode                codeplug.RadioMode
	Bandwidth25k        bool
	RxFreq              uint32
	TxFreq              uint32
	RxBand              Band
	TxBand              Band
	PowerLevel          uint8
	PADrive             uint16
	ColourCode          uint8
	TimeSlot            int
	DMRModeRx           DMRMode
	DMRModeTx           DMRMode
	RSSI                uint8
	Noise               uint8
	PoweredUp           bool
	TransmissionEnabled bool
	TxPAEnabled         bool
	RxCSSActive         bool
}

// State returns a snapshot.
func (t *Transceiver) State() State {
	t.cs.Enter()
	defer t.cs.Exit()
	return State{
		Mode:                t.mode,
		Bandwidth25k:        t.bandwidth25k,
		RxFreq:              t.rxFreq,
		TxFreq:              t.txFreq,
		RxBand:              t.rxBand,
		TxBand:              t.txBand,
		PowerLevel:          t.powerLevel,
		PADrive:             t.paDrive,
		ColourCode:          t.colourCode,
		TimeSlot:            t.timeSlot,
		DMRModeRx:           t.dmrModeRx,
		DMRModeTx:           t.dmrModeTx,
		RSSI:                t.rssi,
		Noise:               t.noise,
		PoweredUp:           t.poweredUp,
		TransmissionEnabled: t.transmissionEnabled,
		TxPAEnabled:         t.txPAEnabled,
		RxCSSActive:         t.rxCSSActive,
	}
}

// Mode returns the current radio mode.
func (t *Transceiver) Mode() codeplug.RadioMode {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.mode
}

// AnalogFilter returns the receive filter level.
func (t *Transceiver) AnalogFilter() AnalogFilter {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.settings.AnalogFilter
}

// SetAnalogFilter sets the receive filter level used by the next SetRxCSS.
func (t *Transceiver) SetAnalogFilter(f AnalogFilter) {
	t.cs.Enter()
	defer t.cs.Exit()
	t.settings.AnalogFilter = f
}
