package gpio

import (
	"errors"
	"fmt"
)

// Offsets maps each board output to a line offset on one chip.
type Offsets struct {
	VHFRxAmp   int `yaml:"vhf_rx_amp"`
	UHFRxAmp   int `yaml:"uhf_rx_amp"`
	VHFTxAmp   int `yaml:"vhf_tx_amp"`
	UHFTxAmp   int `yaml:"uhf_tx_amp"`
	RxAudioMux int `yaml:"rx_audio_mux"`
	TxAudioMux int `yaml:"tx_audio_mux"`
	C6000PWD   int `yaml:"c6000_pwd"`
	LEDGreen   int `yaml:"led_green"`
	LEDRed     int `yaml:"led_red"`
}

// Set holds the requested lines.
type Set struct {
	VHFRxAmp, UHFRxAmp     *Line
	VHFTxAmp, UHFTxAmp     *Line
	RxAudioMux, TxAudioMux *Line
	C6000PWD               *Line
	LEDGreen, LEDRed       *Line
}

// RequestSet requests every line in o. On failure lines already requested
// are released.
func RequestSet(chip string, o Offsets, consumer string) (*Set, error) {
	s := &Set{}
	targets := []struct {
		name   string
		offset int
		dst    **Line
	}{
		{"vhf_rx_amp", o.VHFRxAmp, &s.VHFRxAmp},
		{"uhf_rx_amp", o.UHFRxAmp, &s.UHFRxAmp},
		{"vhf_tx_amp", o.VHFTxAmp, &s.VHFTxAmp},
		{"uhf_tx_amp", o.UHFTxAmp, &s.UHFTxAmp},
		{"rx_audio_mux", o.RxAudioMux, &s.RxAudioMux},
		{"tx_audio_mux", o.TxAudioMux, &s.TxAudioMux},
		{"c6000_pwd", o.C6000PWD, &s.C6000PWD},
		{"led_green", o.LEDGreen, &s.LEDGreen},
		{"led_red", o.LEDRed, &s.LEDRed},
	}
	for _, t := range targets {
		l, err := Request(chip, t.offset, consumer)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to request %s: %w", t.name, err)
		}
		*t.dst = l
	}
	return s, nil
}

// Close releases every requested line.
func (s *Set) Close() error {
	var errs []error
	for _, l := range []*Line{
		s.VHFRxAmp, s.UHFRxAmp, s.VHFTxAmp, s.UHFTxAmp,
		s.RxAudioMux, s.TxAudioMux, s.C6000PWD, s.LEDGreen, s.LEDRed,
	} {
		if l != nil {
			errs = append(errs, l.Close())
		}
	}
	return errors.Join(errs...)
}
