// flash-id: Identify the SPI flash attached to a CH341A programmer
//
// This tool lists connected CH341A programmers, or opens one and reads the
// JEDEC ID, manufacturer and status register of the flash chip on its SPI
// bus. With --dump the whole chip is read into a file that codeplug-dump
// can use as a flash image.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"github.com/herlein/trxcore/pkg/spiflash"
	"github.com/herlein/trxcore/pkg/usbspi"
)

func main() {
	deviceSel := pflag.StringP("device", "d", "", usbspi.SelectorUsage())
	listOnly := pflag.BoolP("list", "l", false, "List programmers only")
	dumpPath := pflag.String("dump", "", "Read the whole flash into this file")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "flash-id"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	context := gousb.NewContext()
	defer context.Close()

	if *listOnly {
		listDevices(context)
		return
	}

	device, err := usbspi.Open(context, usbspi.Selector(*deviceSel))
	if err != nil {
		logger.Fatal("Failed to open programmer", "err", err)
	}
	defer device.Close()
	logger.Debug("Connected", "device", device)

	flash := spiflash.New(device, spiflash.WithLogger(logger))

	part, err := flash.ReadPartID()
	if err != nil {
		logger.Fatal("Failed to read part ID", "err", err)
	}
	manufacturer, err := flash.ReadManufacturer()
	if err != nil {
		logger.Fatal("Failed to read manufacturer", "err", err)
	}
	status, err := flash.ReadStatusRegister()
	if err != nil {
		logger.Fatal("Failed to read status register", "err", err)
	}

	fmt.Printf("Programmer:    %s\n", device)
	fmt.Printf("Manufacturer:  0x%02X\n", manufacturer)
	fmt.Printf("Part:          %s (0x%04X)\n", spiflash.PartName(part), part)
	fmt.Printf("Capacity:      %d bytes\n", spiflash.PartCapacity(part))
	fmt.Printf("Status:        0x%04X\n", status)
	if !spiflash.IsSupportedPart(part) {
		fmt.Println("Warning:       part is not supported for codeplug access")
	}

	if *dumpPath == "" {
		return
	}

	if err := flash.Init(); err != nil {
		logger.Fatal("Failed to initialise flash", "err", err)
	}
	data := make([]byte, flash.Capacity())
	logger.Info("Reading flash", "bytes", len(data))
	if err := flash.Read(0, data); err != nil {
		logger.Fatal("Failed to read flash", "err", err)
	}
	if err := os.WriteFile(*dumpPath, data, 0644); err != nil {
		logger.Fatal("Failed to write dump", "err", err)
	}
	fmt.Printf("Flash saved to: %s\n", *dumpPath)
}

func listDevices(context *gousb.Context) {
	devices, err := usbspi.FindAllDevices(context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate devices: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No CH341A programmers found")
		return
	}

	fmt.Printf("Found %d CH341A programmer(s):\n", len(devices))
	for i, device := range devices {
		defer device.Close()
		fmt.Printf("  #%d  %d:%d  %s %s\n", i, device.Bus, device.Address, device.Manufacturer, device.Product)
	}
	fmt.Println()
	fmt.Println("Use -d flag to select a programmer:")
	fmt.Println("  -d \"#0\"      Select by index")
	fmt.Println("  -d \"1:10\"    Select by bus:address")
}
