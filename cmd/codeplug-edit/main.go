// codeplug-edit: Modify a radio codeplug
//
// This tool opens the codeplug held in an EEPROM image and a flash image
// (or the live flash on a CH341A programmer), applies one edit and writes
// the images back. A YAML file produced by codeplug-dump can be loaded
// with the load command.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/config"
	"github.com/herlein/trxcore/pkg/spiflash"
	"github.com/herlein/trxcore/pkg/usbspi"
)

const usage = `Usage: %s [options] <command> [arguments]

Commands:
  format                          Write an empty codeplug
  load <file.yaml>                Load channels, zones and contacts from a dump
  add-channel [flags]             Store a channel (see add-channel --help)
  delete-channel <index>          Remove a channel
  add-contact [flags]             Store a DMR contact (see add-contact --help)
  quick-key <0-9> <function>      Bind a quick key (function 0x8000 clears it)
  set-dmr-id <id>                 Set the radio's DMR ID

Options:
`

func main() {
	configPath := pflag.StringP("config", "c", "", "Configuration file (default: "+config.DefaultPath()+")")
	eepromPath := pflag.String("eeprom", "", "EEPROM image (overrides config)")
	flashPath := pflag.String("flash", "", "Flash image (overrides config)")
	useCH341 := pflag.Bool("ch341", false, "Write the flash through a CH341A programmer instead of an image")
	deviceSel := pflag.StringP("device", "d", "", usbspi.SelectorUsage())
	format := pflag.Bool("format", false, "Format the codeplug before applying the command")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output")
	pflag.CommandLine.SetInterspersed(false)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 1 {
		pflag.Usage()
		os.Exit(1)
	}

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

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "codeplug-edit", Level: cfg.Level()})
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
		bus = device
	}

	cp, err := cfg.OpenCodeplug(bus,
		[]spiflash.Option{spiflash.WithLogger(logger.WithPrefix("spiflash"))},
		codeplug.WithLogger(logger.WithPrefix("codeplug")),
		codeplug.WithClearOutOfBand())
	if err != nil {
		logger.Fatal("Failed to open codeplug", "err", err)
	}

	if *format || args[0] == "format" {
		logger.Info("Formatting codeplug")
		if err := cp.Store.Format(); err != nil {
			logger.Fatal("Failed to format codeplug", "err", err)
		}
	}

	if err := run(cp.Store, logger, args[0], args[1:]); err != nil {
		logger.Fatal("Edit failed", "command", args[0], "err", err)
	}

	if err := cp.Save(); err != nil {
		logger.Fatal("Failed to save codeplug", "err", err)
	}
	logger.Info("Codeplug saved", "eeprom", cfg.EEPROMImage)
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

func run(s *codeplug.Store, logger *log.Logger, command string, args []string) error {
	switch command {
	case "format":
		return nil
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("load needs a file")
		}
		return load(s, logger, args[0])
	case "add-channel":
		return addChannel(s, args)
	case "delete-channel":
		if len(args) != 1 {
			return fmt.Errorf("delete-channel needs an index")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid channel index: %s", args[0])
		}
		return s.DeleteChannel(index)
	case "add-contact":
		return addContact(s, args)
	case "quick-key":
		if len(args) != 2 || len(args[0]) != 1 {
			return fmt.Errorf("quick-key needs a key and a function")
		}
		id, err := strconv.ParseUint(args[1], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid function: %s", args[1])
		}
		return s.SetQuickKey(args[0][0], uint16(id))
	case "set-dmr-id":
		if len(args) != 1 {
			return fmt.Errorf("set-dmr-id needs an id")
		}
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DMR ID: %s", args[0])
		}
		return s.SetUserDMRID(uint32(id))
	}
	return fmt.Errorf("unknown command %q", command)
}

func addChannel(s *codeplug.Store, args []string) error {
	fs := pflag.NewFlagSet("add-channel", pflag.ContinueOnError)
	index := fs.Int("index", 0, "Channel index (default: first free)")
	name := fs.String("name", "", "Channel name")
	rx := fs.Float64("rx", 0, "Receive frequency in MHz")
	tx := fs.Float64("tx", 0, "Transmit frequency in MHz (default: rx)")
	mode := fs.String("mode", "analog", "analog or digital")
	wide := fs.Bool("wide", false, "25 kHz bandwidth")
	rxTone := fs.String("rx-tone", "none", "Receive CTCSS in Hz, DCS as D023N or D023I, or none")
	txTone := fs.String("tx-tone", "none", "Transmit CTCSS or DCS")
	colour := fs.Uint8("cc", 1, "DMR colour code")
	timeslot := fs.Int("ts", 1, "DMR timeslot")
	squelch := fs.Uint8("squelch", 0, "Squelch 1-21, 0 uses the radio default")
	zoneName := fs.String("zone", "", "Append the channel to this zone, creating it if needed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" || *rx == 0 {
		return fmt.Errorf("add-channel needs --name and --rx")
	}
	if *tx == 0 {
		*tx = *rx
	}

	ch := codeplug.Channel{
		Name:    *name,
		RxFreq:  uint32(*rx*1e6 + 0.5),
		TxFreq:  uint32(*tx*1e6 + 0.5),
		RxColor: *colour,
		TxColor: *colour,
		Squelch: *squelch,
	}

	switch strings.ToLower(*mode) {
	case "analog", "fm":
		ch.Mode = codeplug.RadioModeAnalog
	case "digital", "dmr":
		ch.Mode = codeplug.RadioModeDigital
	default:
		return fmt.Errorf("invalid mode: %s", *mode)
	}
	if *wide {
		ch.SetFlag(codeplug.FlagBandwidth25k, 1)
	}
	if *timeslot == 2 {
		ch.SetFlag(codeplug.FlagTimeslotTwo, 1)
	}

	var err error
	if ch.RxTone, err = parseTone(*rxTone); err != nil {
		return err
	}
	if ch.TxTone, err = parseTone(*txTone); err != nil {
		return err
	}

	if *index == 0 {
		*index = firstFreeChannel(s)
		if *index == 0 {
			return fmt.Errorf("no free channel slot")
		}
	}
	if err := s.SaveChannel(*index, ch); err != nil {
		return err
	}
	fmt.Printf("Channel %d saved: %s\n", *index, ch.Name)

	if *zoneName == "" {
		return nil
	}
	return addToZone(s, *zoneName, uint16(*index))
}

func addContact(s *codeplug.Store, args []string) error {
	fs := pflag.NewFlagSet("add-contact", pflag.ContinueOnError)
	index := fs.Int("index", 0, "Contact index (default: first free)")
	name := fs.String("name", "", "Contact name")
	number := fs.Uint32("number", 0, "Talkgroup or DMR ID")
	callType := fs.String("type", "group", "group, private or all")
	timeslot := fs.Int("ts", 0, "Timeslot override 1 or 2, 0 for none")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("add-contact needs --name")
	}

	c := codeplug.Contact{Name: *name, Number: *number, Reserve1: codeplug.ContactFlagNoTSOverride}
	switch strings.ToLower(*callType) {
	case "group", "tg":
		c.CallType = codeplug.CallTypeGroup
	case "private", "pc":
		c.CallType = codeplug.CallTypePrivate
	case "all":
		c.CallType = codeplug.CallTypeAll
		c.Number = codeplug.AllCallID
	default:
		return fmt.Errorf("invalid call type: %s", *callType)
	}
	switch *timeslot {
	case 0:
	case 1, 2:
		c.Reserve1 = uint8(*timeslot-1) << 1
	default:
		return fmt.Errorf("invalid timeslot: %d", *timeslot)
	}

	if *index == 0 {
		*index = s.ContactFreeIndex()
		if *index == 0 {
			return fmt.Errorf("no free contact slot")
		}
	}
	if err := s.SaveContact(*index, c); err != nil {
		return err
	}
	fmt.Printf("Contact %d saved: %s (%s %d)\n", *index, c.Name, c.CallType, c.Number)
	return nil
}

// parseTone converts "none", a CTCSS frequency in Hz or a DCS code such as
// D023N or D754I to the in-memory tone form.
func parseTone(s string) (uint16, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "NONE" {
		return codeplug.CSSToneNone, nil
	}

	if strings.HasPrefix(s, "D") {
		inverted := strings.HasSuffix(s, "I")
		code := strings.TrimRight(s[1:], "NI")
		v, err := strconv.ParseUint(code, 8, 16)
		if err != nil || v > 0777 {
			return 0, fmt.Errorf("invalid DCS code: %s", s)
		}
		tone := uint16(codeplug.CSSDCSFlag) | uint16(v)
		if inverted {
			tone |= codeplug.CSSDCSInverted
		}
		return tone, nil
	}

	hz, err := strconv.ParseFloat(s, 64)
	if err != nil || hz < 60 || hz > 260 {
		return 0, fmt.Errorf("invalid CTCSS tone: %s", s)
	}
	return uint16(hz*10 + 0.5), nil
}

func firstFreeChannel(s *codeplug.Store) int {
	for i := codeplug.ChannelsMin; i <= codeplug.ChannelsMax; i++ {
		if !s.AllChannelsIndexIsInUse(i) {
			return i
		}
	}
	return 0
}

func findZone(s *codeplug.Store, name string) (codeplug.Zone, bool, error) {
	for i := 0; i < s.ZonesCount()-1; i++ {
		z, err := s.Zone(i)
		if err != nil {
			return z, false, err
		}
		if z.Name == name {
			return z, true, nil
		}
	}
	return codeplug.Zone{}, false, nil
}

func addToZone(s *codeplug.Store, name string, channel uint16) error {
	z, found, err := findZone(s, name)
	if err != nil {
		return err
	}
	if !found {
		if z, err = s.CreateZone(name); err != nil {
			return err
		}
	}
	return s.AddChannelToZone(channel, &z)
}

type channelEntry struct {
	Index            int `yaml:"index"`
	codeplug.Channel `yaml:",inline"`
}

type quickKeyEntry struct {
	Key      string `yaml:"key"`
	Function uint16 `yaml:"function"`
}

type loadFile struct {
	Settings     *codeplug.GeneralSettings `yaml:"settings"`
	Zones        []codeplug.Zone           `yaml:"zones"`
	Channels     []channelEntry            `yaml:"channels"`
	Contacts     []codeplug.Contact        `yaml:"contacts"`
	DTMFContacts []codeplug.DTMFContact    `yaml:"dtmf_contacts"`
	QuickKeys    []quickKeyEntry           `yaml:"quick_keys"`
}

func load(s *codeplug.Store, logger *log.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var f loadFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal codeplug: %w", err)
	}

	if f.Settings != nil && f.Settings.DMRID != 0 {
		if err := s.SetUserDMRID(f.Settings.DMRID); err != nil {
			return err
		}
	}

	for _, c := range f.Contacts {
		if err := s.SaveContact(c.Index, c); err != nil {
			return fmt.Errorf("contact %d: %w", c.Index, err)
		}
	}
	for _, c := range f.DTMFContacts {
		if err := s.SaveDTMFContact(c.Index, c); err != nil {
			return fmt.Errorf("dtmf contact %d: %w", c.Index, err)
		}
	}
	for _, ch := range f.Channels {
		if err := s.SaveChannel(ch.Index, ch.Channel); err != nil {
			return fmt.Errorf("channel %d: %w", ch.Index, err)
		}
	}
	for _, z := range f.Zones {
		for _, ch := range z.Channels {
			if ch == 0 {
				continue
			}
			if err := addToZone(s, z.Name, ch); err != nil {
				return fmt.Errorf("zone %q: %w", z.Name, err)
			}
		}
	}
	for _, q := range f.QuickKeys {
		if len(q.Key) != 1 {
			return fmt.Errorf("invalid quick key %q", q.Key)
		}
		if err := s.SetQuickKey(q.Key[0], q.Function); err != nil {
			return fmt.Errorf("quick key %s: %w", q.Key, err)
		}
	}

	logger.Info("Codeplug loaded",
		"channels", len(f.Channels),
		"zones", len(f.Zones),
		"contacts", len(f.Contacts))
	return nil
}
