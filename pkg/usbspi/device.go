// Package usbspi drives a CH341A USB programmer as an SPI bus so the radio's
// flash chip can be read and written from a host.
package usbspi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

const transferTimeout = time.Second

// Device represents a CH341A programmer.
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	epOut        *gousb.OutEndpoint
	Manufacturer string
	Product      string
	Bus          int
	Address      int
	mu           sync.Mutex
}

// FindAllDevices opens every connected CH341A.
func FindAllDevices(ctx *gousb.Context) ([]*Device, error) {
	devices := []*Device{}

	usbDevices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}

	return devices, nil
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()

	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(EndpointIn & 0x0F)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(EndpointOut)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	d := &Device{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          usbDev.Desc.Bus,
		Address:      usbDev.Desc.Address,
	}

	if err := d.write(configure()); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to configure SPI mode: %w", err)
	}
	if err := d.write(chipSelect(false)); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to release chip select: %w", err)
	}

	return d, nil
}

// String identifies the programmer by USB location.
func (d *Device) String() string {
	return fmt.Sprintf("CH341A bus %d addr %d", d.Bus, d.Address)
}

// Close releases the USB interface.
func (d *Device) Close() error {
	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

func (d *Device) write(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
	defer cancel()

	n, err := d.epOut.WriteContext(ctx, data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return nil
}

func (d *Device) read(p []byte) error {
	for got := 0; got < len(p); {
		ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
		n, err := d.epIn.ReadContext(ctx, p[got:])
		cancel()
		if err != nil {
			return err
		}
		got += n
	}
	return nil
}

// Transfer clocks tx out on MOSI with chip select asserted and stores the
// bytes clocked in on MISO in rx. It implements spiflash.Bus.
func (d *Device) Transfer(tx, rx []byte) error {
	if len(rx) < len(tx) {
		return fmt.Errorf("receive buffer too small: %d < %d", len(rx), len(tx))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(chipSelect(true)); err != nil {
		return fmt.Errorf("failed to assert chip select: %w", err)
	}

	pos := 0
	in := make([]byte, spiPayload)
	for _, pkt := range spiPackets(tx) {
		n := len(pkt) - 1
		if err := d.write(pkt); err != nil {
			d.write(chipSelect(false))
			return fmt.Errorf("failed to send SPI packet: %w", err)
		}
		if err := d.read(in[:n]); err != nil {
			d.write(chipSelect(false))
			return fmt.Errorf("failed to receive SPI packet: %w", err)
		}
		reverseInto(rx[pos:pos+n], in[:n])
		pos += n
	}

	if err := d.write(chipSelect(false)); err != nil {
		return fmt.Errorf("failed to release chip select: %w", err)
	}
	return nil
}
