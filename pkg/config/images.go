package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/eeprom"
	"github.com/herlein/trxcore/pkg/spiflash"
)

// Codeplug is a store opened over the configured memories.
type Codeplug struct {
	Store  *codeplug.Store
	EEPROM *eeprom.Image
	Flash  *spiflash.Device

	// image is nil when the flash is a live chip
	image     *spiflash.Sim
	imagePath string
}

// OpenCodeplug opens the EEPROM image and the flash, then loads the store
// caches. With a nil bus the flash is simulated from FlashImage; a missing
// image file starts erased.
func (c *Config) OpenCodeplug(bus spiflash.Bus, flashOpts []spiflash.Option, opts ...codeplug.Option) (*Codeplug, error) {
	img, err := eeprom.Open(c.EEPROMImage)
	if err != nil {
		return nil, err
	}

	cp := &Codeplug{EEPROM: img}
	if bus == nil {
		cp.image = spiflash.NewSim(c.FlashPart)
		cp.imagePath = c.FlashImage
		err := cp.image.LoadFile(c.FlashImage)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		bus = cp.image
	}

	cp.Flash = spiflash.New(bus, flashOpts...)
	if err := cp.Flash.Init(); err != nil {
		return nil, fmt.Errorf("failed to open flash: %w", err)
	}

	opts = append([]codeplug.Option{codeplug.WithFlashOffset(c.FlashOffset)}, opts...)
	cp.Store = codeplug.New(img, cp.Flash, opts...)
	if err := cp.Store.InitCaches(); err != nil {
		return nil, fmt.Errorf("failed to load codeplug: %w", err)
	}
	return cp, nil
}

// Save writes the EEPROM image back, and the flash image when the flash
// is simulated. A live chip is already up to date.
func (cp *Codeplug) Save() error {
	if err := cp.EEPROM.Save(); err != nil {
		return err
	}
	if cp.image != nil {
		return cp.image.SaveFile(cp.imagePath)
	}
	return nil
}
