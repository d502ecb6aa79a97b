package trx

import (
	"github.com/herlein/trxcore/pkg/gpio"
	"github.com/herlein/trxcore/pkg/registers"
)

// RadioChip is the AT1846S register interface.
type RadioChip interface {
	registers.ReadWriter
}

// DigitalChip is the HR-C6000 DMR baseband.
type DigitalChip interface {
	WritePageReg(page, reg, value uint8) error
	WritePageRegs(page, reg uint8, data []byte) error
	ClearPageRegWithMask(page, reg, mask, value uint8) error
	InitDigital() error
	TerminateDigital() error
	ResyncTimeSlot() error
	ResetTimeSlotDetection() error
}

// DAC drives the PA bias.
type DAC interface {
	SetValue(v uint16) error
}

// AmpMode is a bitmask of audio amplifier users.
type AmpMode uint8

// Audio amplifier users
const (
	AmpModeRF     AmpMode = 0x01
	AmpModeBeep   AmpMode = 0x02
	AmpModePrompt AmpMode = 0x04
)

// AudioAmp is the speaker amplifier shared by RF audio, beeps and prompts.
// It stays powered while any user has it enabled.
type AudioAmp interface {
	Enable(mode AmpMode) error
	Disable(mode AmpMode) error
	Status() AmpMode
}

// Pins are the RF path control lines.
type Pins struct {
	VHFRxAmp   gpio.Pin
	UHFRxAmp   gpio.Pin
	VHFTxAmp   gpio.Pin
	UHFTxAmp   gpio.Pin
	RxAudioMux gpio.Pin
	TxAudioMux gpio.Pin
	C6000PWD   gpio.Pin
}

// LEDs are the status indicators.
type LEDs struct {
	Green gpio.Pin
	Red   gpio.Pin
}

// Hardware bundles everything the transceiver drives.
type Hardware struct {
	Radio   RadioChip
	Digital DigitalChip
	Pins    Pins
	LEDs    LEDs
	DAC     DAC
	Audio   AudioAmp
}
