package usbspi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// Selector identifies a programmer when several are attached.
// Supported formats:
//   - ""         : first available device
//   - "bus:addr" : USB bus and address (e.g., "1:10")
//   - "#N"       : Nth device, 0-indexed (e.g., "#0")
type Selector string

type selection struct {
	index int
	bus   int
	addr  int
	byLoc bool
}

func (s Selector) parse() (selection, error) {
	sel := string(s)
	switch {
	case sel == "":
		return selection{}, nil

	case strings.HasPrefix(sel, "#"):
		index, err := strconv.Atoi(sel[1:])
		if err != nil || index < 0 {
			return selection{}, fmt.Errorf("invalid device index: %s", sel)
		}
		return selection{index: index}, nil

	case strings.Contains(sel, ":"):
		parts := strings.SplitN(sel, ":", 2)
		bus, err := strconv.Atoi(parts[0])
		if err != nil {
			return selection{}, fmt.Errorf("invalid bus number: %s", parts[0])
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return selection{}, fmt.Errorf("invalid address number: %s", parts[1])
		}
		return selection{bus: bus, addr: addr, byLoc: true}, nil
	}
	return selection{}, fmt.Errorf("invalid device selector: %s", sel)
}

// Open opens the CH341A matching s and closes every other one found.
func Open(ctx *gousb.Context, s Selector) (*Device, error) {
	want, err := s.parse()
	if err != nil {
		return nil, err
	}

	devices, err := FindAllDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no CH341A programmers found")
	}

	var selected *Device
	for i, d := range devices {
		match := i == want.index
		if want.byLoc {
			match = d.Bus == want.bus && d.Address == want.addr
		}
		if match && selected == nil {
			selected = d
			continue
		}
		d.Close()
	}

	if selected == nil {
		if want.byLoc {
			return nil, fmt.Errorf("no CH341A found at bus %d address %d", want.bus, want.addr)
		}
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", want.index, len(devices))
	}
	return selected, nil
}

// SelectorUsage returns help text for a device selector flag.
func SelectorUsage() string {
	return `Programmer selector. Formats:
    ""        - Use first available device
    "bus:addr"- Match by USB location (e.g., "1:10")
    "#N"      - Use Nth device, 0-indexed (e.g., "#0", "#1")`
}
