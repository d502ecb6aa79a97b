// Package board assembles the transceiver hardware for host runs: the
// simulated AT1846S and HR-C6000, the PA DAC, the audio amplifier and the
// control lines, either in memory or on a GPIO character device.
package board

import (
	"fmt"
	"sync"

	"github.com/herlein/trxcore/pkg/gpio"
	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/trx"
)

// DAC is an in-memory PA bias DAC.
type DAC struct {
	mu     sync.Mutex
	value  uint16
	writes int
}

// SetValue stores v.
func (d *DAC) SetValue(v uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
	d.writes++
	return nil
}

// Value returns the last value set.
func (d *DAC) Value() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// AudioAmp is an in-memory speaker amplifier. It is powered while any
// mode is enabled.
type AudioAmp struct {
	mu      sync.Mutex
	status  trx.AmpMode
	powerOn int
}

// Enable adds mode to the amplifier users.
func (a *AudioAmp) Enable(mode trx.AmpMode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == 0 {
		a.powerOn++
	}
	a.status |= mode
	return nil
}

// Disable removes mode from the amplifier users.
func (a *AudioAmp) Disable(mode trx.AmpMode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status &^= mode
	return nil
}

// Status returns the enabled modes.
func (a *AudioAmp) Status() trx.AmpMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// PowerOns returns how many times the amplifier went from off to on.
func (a *AudioAmp) PowerOns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.powerOn
}

// Sim is a complete simulated board.
type Sim struct {
	Radio   *registers.AT1846S
	Digital *registers.C6000
	DAC     *DAC
	Audio   *AudioAmp

	VHFRxAmp, UHFRxAmp     *gpio.MemPin
	VHFTxAmp, UHFTxAmp     *gpio.MemPin
	RxAudioMux, TxAudioMux *gpio.MemPin
	C6000PWD               *gpio.MemPin
	LEDGreen, LEDRed       *gpio.MemPin
}

// NewSim returns a board with both chips at their power-on state.
func NewSim() *Sim {
	return &Sim{
		Radio:      registers.NewAT1846S(),
		Digital:    registers.NewC6000(),
		DAC:        &DAC{},
		Audio:      &AudioAmp{},
		VHFRxAmp:   &gpio.MemPin{},
		UHFRxAmp:   &gpio.MemPin{},
		VHFTxAmp:   &gpio.MemPin{},
		UHFTxAmp:   &gpio.MemPin{},
		RxAudioMux: &gpio.MemPin{},
		TxAudioMux: &gpio.MemPin{},
		C6000PWD:   &gpio.MemPin{},
		LEDGreen:   &gpio.MemPin{},
		LEDRed:     &gpio.MemPin{},
	}
}

// Hardware returns the board as seen by the transceiver.
func (s *Sim) Hardware() trx.Hardware {
	return trx.Hardware{
		Radio:   s.Radio,
		Digital: s.Digital,
		Pins: trx.Pins{
			VHFRxAmp:   s.VHFRxAmp,
			UHFRxAmp:   s.UHFRxAmp,
			VHFTxAmp:   s.VHFTxAmp,
			UHFTxAmp:   s.UHFTxAmp,
			RxAudioMux: s.RxAudioMux,
			TxAudioMux: s.TxAudioMux,
			C6000PWD:   s.C6000PWD,
		},
		LEDs:  trx.LEDs{Green: s.LEDGreen, Red: s.LEDRed},
		DAC:   s.DAC,
		Audio: s.Audio,
	}
}

// Reset reprograms the AT1846S with its power-on register set and clears
// both write logs.
func (s *Sim) Reset() error {
	if err := registers.WriteAll(s.Radio, registers.PowerOnDefaults()); err != nil {
		return fmt.Errorf("failed to reset radio: %w", err)
	}
	s.Radio.ClearLog()
	s.Digital.ClearLog()
	return nil
}

// WithLines replaces the in-memory control lines of hw with the requested
// GPIO lines.
func WithLines(hw trx.Hardware, set *gpio.Set) trx.Hardware {
	hw.Pins = trx.Pins{
		VHFRxAmp:   set.VHFRxAmp,
		UHFRxAmp:   set.UHFRxAmp,
		VHFTxAmp:   set.VHFTxAmp,
		UHFTxAmp:   set.UHFTxAmp,
		RxAudioMux: set.RxAudioMux,
		TxAudioMux: set.TxAudioMux,
		C6000PWD:   set.C6000PWD,
	}
	hw.LEDs = trx.LEDs{Green: set.LEDGreen, Red: set.LEDRed}
	return hw
}
