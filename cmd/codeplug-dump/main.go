// codeplug-dump: Dump a radio codeplug to YAML
//
// This tool opens the codeplug held in an EEPROM image and either a flash
// image or the live flash chip on a CH341A programmer, and writes its
// channels, zones, contacts and settings as YAML to stdout or a file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/config"
	"github.com/herlein/trxcore/pkg/spiflash"
	"github.com/herlein/trxcore/pkg/trx"
	"github.com/herlein/trxcore/pkg/usbspi"
)

type channelEntry struct {
	Index            int `yaml:"index"`
	codeplug.Channel `yaml:",inline"`
}

type quickKeyEntry struct {
	Key      string `yaml:"key"`
	Function uint16 `yaml:"function"`
}

type dump struct {
	Device       codeplug.DeviceInfo      `yaml:"device"`
	Settings     codeplug.GeneralSettings `yaml:"settings"`
	BootScreen   codeplug.BootScreen      `yaml:"boot_screen"`
	BandLimits   []trx.FrequencyRange     `yaml:"band_limits,omitempty"`
	Zones        []codeplug.Zone          `yaml:"zones"`
	Channels     []channelEntry           `yaml:"channels"`
	Contacts     []codeplug.Contact       `yaml:"contacts"`
	DTMFContacts []codeplug.DTMFContact   `yaml:"dtmf_contacts,omitempty"`
	RxGroups     []codeplug.RxGroup       `yaml:"rx_groups,omitempty"`
	QuickKeys    []quickKeyEntry          `yaml:"quick_keys,omitempty"`
}

func main() {
	configPath := pflag.StringP("config", "c", "", "Configuration file (default: "+config.DefaultPath()+")")
	eepromPath := pflag.String("eeprom", "", "EEPROM image (overrides config)")
	flashPath := pflag.String("flash", "", "Flash image (overrides config)")
	useCH341 := pflag.Bool("ch341", false, "Read the flash from a CH341A programmer instead of an image")
	deviceSel := pflag.StringP("device", "d", "", usbspi.SelectorUsage())
	outputFile := pflag.StringP("output", "o", "", "Output file (default: stdout)")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output")
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *eepromPath != "" {
		cfg.EEPROMImage = *eepromPath
	}
	if *flashPath != "" {
		cfg.FlashImage = *flashPath
	}
	if *deviceSel != "" {
		cfg.Programmer = *deviceSel
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "codeplug-dump", Level: cfg.Level()})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var bus spiflash.Bus
	if *useCH341 {
		context := gousb.NewContext()
		defer context.Close()
		device, err := usbspi.Open(context, usbspi.Selector(cfg.Programmer))
		if err != nil {
			logger.Fatal("Failed to open programmer", "err", err)
		}
		defer device.Close()
		logger.Debug("Connected", "device", device)
		bus = device
	}

	cp, err := cfg.OpenCodeplug(bus,
		[]spiflash.Option{spiflash.WithLogger(logger.WithPrefix("spiflash"))},
		codeplug.WithLogger(logger.WithPrefix("codeplug")))
	if err != nil {
		logger.Fatal("Failed to open codeplug", "err", err)
	}

	d, err := collect(cp.Store, logger)
	if err != nil {
		logger.Fatal("Failed to read codeplug", "err", err)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		logger.Fatal("Failed to marshal codeplug", "err", err)
	}

	if *outputFile == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		logger.Fatal("Failed to write output", "err", err)
	}
	fmt.Printf("Codeplug saved to: %s\n", *outputFile)
	if *verbose {
		printSummary(d)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func collect(s *codeplug.Store, logger *log.Logger) (*dump, error) {
	d := &dump{}
	var err error

	if d.Device, err = s.DeviceInfo(); err != nil {
		return nil, err
	}
	if d.Settings, err = s.GeneralSettings(); err != nil {
		return nil, err
	}
	if d.BootScreen, err = s.BootScreen(); err != nil {
		return nil, err
	}

	if raw, err := s.CustomData(codeplug.CustomDataBandLimits); err == nil {
		limits, err := trx.ParseBandLimits(raw)
		if err != nil {
			logger.Warn("Ignoring band limits", "err", err)
		} else {
			d.BandLimits = limits[:]
		}
	}

	// The last ordinal is the synthetic All Channels zone.
	for i := 0; i < s.ZonesCount()-1; i++ {
		z, err := s.Zone(i)
		if err != nil {
			return nil, err
		}
		z.Channels = z.Channels[:z.NumChannels]
		d.Zones = append(d.Zones, z)
	}

	for i := codeplug.ChannelsMin; i <= s.HighestChannelIndex(); i++ {
		if !s.AllChannelsIndexIsInUse(i) {
			continue
		}
		ch, err := s.Channel(i)
		if err != nil {
			return nil, err
		}
		d.Channels = append(d.Channels, channelEntry{Index: i, Channel: ch})
	}

	if d.Contacts, err = s.Contacts(); err != nil {
		return nil, err
	}

	for n := 1; n <= s.DTMFContactsCount(); n++ {
		c, err := s.DTMFContactForNumber(n)
		if err != nil {
			return nil, err
		}
		d.DTMFContacts = append(d.DTMFContacts, c)
	}

	for i := 1; i <= codeplug.RxGroupsMax; i++ {
		g, err := s.RxGroup(i)
		if errors.Is(err, codeplug.ErrRxGroupNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		d.RxGroups = append(d.RxGroups, g)
	}

	for key := byte('0'); key <= '9'; key++ {
		if id := s.QuickKey(key); id != 0 && id != codeplug.QuickKeyEmpty {
			d.QuickKeys = append(d.QuickKeys, quickKeyEntry{Key: string(key), Function: id})
		}
	}
	return d, nil
}

func printSummary(d *dump) {
	fmt.Println("\nCodeplug Summary:")
	fmt.Printf("  Radio Name:   %s\n", d.Settings.RadioName)
	fmt.Printf("  DMR ID:       %d\n", d.Settings.DMRID)
	fmt.Printf("  Channels:     %d\n", len(d.Channels))
	fmt.Printf("  Zones:        %d\n", len(d.Zones))
	fmt.Printf("  Contacts:     %d\n", len(d.Contacts))
	fmt.Printf("  RX Groups:    %d\n", len(d.RxGroups))
}
