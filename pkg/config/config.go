// Package config holds the host configuration shared by the trxcore tools:
// where the codeplug images live, how the flash is reached, which radio
// platform is simulated and the radio's user settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/herlein/trxcore/pkg/gpio"
	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/spiflash"
	"github.com/herlein/trxcore/pkg/trx"
)

// ErrInvalidConfig indicates a configuration that fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the YAML host configuration.
type Config struct {
	Platform string `yaml:"platform"`

	EEPROMImage string `yaml:"eeprom_image"`
	FlashImage  string `yaml:"flash_image"`
	FlashOffset uint32 `yaml:"flash_offset"`
	FlashPart   uint16 `yaml:"flash_part"`

	// Programmer selects a CH341A when the flash is read over USB
	Programmer string `yaml:"programmer,omitempty"`

	LogLevel        string `yaml:"log_level"`
	MetricsAddr     string `yaml:"metrics_addr,omitempty"`
	CalibrationFile string `yaml:"calibration_file,omitempty"`

	GPIOChip  string       `yaml:"gpio_chip,omitempty"`
	GPIOLines gpio.Offsets `yaml:"gpio_lines"`

	Radio trx.Settings `yaml:"radio"`
}

// Default returns a configuration for a stock GD-77 with images in the
// working directory.
func Default() *Config {
	return &Config{
		Platform:    trx.PlatformGD77.String(),
		EEPROMImage: "eeprom.bin",
		FlashImage:  "flash.bin",
		FlashPart:   spiflash.PartW25Q80,
		LogLevel:    "info",
		MetricsAddr: ":9146",
		GPIOLines: gpio.Offsets{
			VHFRxAmp:   0,
			UHFRxAmp:   1,
			VHFTxAmp:   2,
			UHFTxAmp:   3,
			RxAudioMux: 4,
			TxAudioMux: 5,
			C6000PWD:   6,
			LEDGreen:   7,
			LEDRed:     8,
		},
		Radio: trx.DefaultSettings(),
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := trx.ParsePlatform(c.Platform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.EEPROMImage == "" || c.FlashImage == "" {
		return fmt.Errorf("%w: image paths must be set", ErrInvalidConfig)
	}

	if !spiflash.IsSupportedPart(uint32(c.FlashPart)) {
		return fmt.Errorf("%w: unsupported flash part 0x%04X", ErrInvalidConfig, c.FlashPart)
	}

	if capacity := spiflash.PartCapacity(uint32(c.FlashPart)); c.FlashOffset >= capacity {
		return fmt.Errorf("%w: flash offset 0x%X beyond %d byte part", ErrInvalidConfig, c.FlashOffset, capacity)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Radio.TxPowerLevel >= trx.PowerLevelsCount {
		return fmt.Errorf("%w: power level %d", ErrInvalidConfig, c.Radio.TxPowerLevel)
	}

	if c.Radio.UserPower > trx.MaxPADrive {
		return fmt.Errorf("%w: user power %d above %d", ErrInvalidConfig, c.Radio.UserPower, trx.MaxPADrive)
	}

	for band, sq := range c.Radio.SquelchDefaults {
		if sq > 21 {
			return fmt.Errorf("%w: squelch %d for %s", ErrInvalidConfig, sq, trx.Band(band))
		}
	}

	return nil
}

// PlatformID returns the parsed platform.
func (c *Config) PlatformID() trx.Platform {
	p, err := trx.ParsePlatform(c.Platform)
	if err != nil {
		return trx.PlatformGD77
	}
	return p
}

// Level returns the parsed log level, or info.
func (c *Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// RadioSnapshot is the AT1846S register state at a point in time.
type RadioSnapshot struct {
	Timestamp time.Time             `yaml:"timestamp"`
	Frequency uint32                `yaml:"frequency_hz"`
	Registers registers.RegisterMap `yaml:"registers"`
}

// DumpFromChip reads every AT1846S register.
func DumpFromChip(chip registers.Reader) (*RadioSnapshot, error) {
	registerMap, err := registers.ReadAll(chip)
	if err != nil {
		return nil, fmt.Errorf("failed to read registers: %w", err)
	}

	return &RadioSnapshot{
		Timestamp: time.Now(),
		Frequency: registers.GetFrequency(registerMap),
		Registers: *registerMap,
	}, nil
}

// ApplyToChip writes a snapshot back. The chip is taken out of receive
// while the registers are loaded and the snapshot's control value is
// written last.
func ApplyToChip(chip registers.Writer, snapshot *RadioSnapshot) error {
	if err := chip.WriteReg(registers.RegCtrl, registers.Ctrl(false, registers.CtrlRxOff)); err != nil {
		return fmt.Errorf("failed to stop receiver: %w", err)
	}

	if err := registers.WriteAll(chip, &snapshot.Registers); err != nil {
		return fmt.Errorf("failed to write registers: %w", err)
	}

	if err := chip.WriteReg(registers.RegCtrl, snapshot.Registers.Ctrl); err != nil {
		return fmt.Errorf("failed to restore control register: %w", err)
	}

	return nil
}
