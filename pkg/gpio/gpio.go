// Package gpio drives the board's digital output lines: PA and preamp
// power, audio muxes, the HR-C6000 power-down pin and the LEDs.
package gpio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// ErrNoAccess indicates the GPIO character device cannot be opened.
var ErrNoAccess = errors.New("gpio chip not accessible")

// Pin is a single output line.
type Pin interface {
	SetValue(v int) error
	Value() (int, error)
}

// Line is a kernel GPIO line requested through the character device.
type Line struct {
	line   *gpiocdev.Line
	chip   string
	offset int
}

// CheckAccess reports whether the current user may open chip, e.g.
// "gpiochip0".
func CheckAccess(chip string) error {
	path := filepath.Join("/dev", chip)
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoAccess, path, err)
	}
	return nil
}

// Request claims offset on chip as an output driven low.
func Request(chip string, offset int, consumer string) (*Line, error) {
	if err := CheckAccess(chip); err != nil {
		return nil, err
	}
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	return &Line{line: l, chip: chip, offset: offset}, nil
}

// SetValue drives the line.
func (l *Line) SetValue(v int) error {
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("failed to set %s line %d: %w", l.chip, l.offset, err)
	}
	return nil
}

// Value reads back the line.
func (l *Line) Value() (int, error) {
	v, err := l.line.Value()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s line %d: %w", l.chip, l.offset, err)
	}
	return v, nil
}

// Close releases the line.
func (l *Line) Close() error {
	return l.line.Close()
}

// MemPin is an in-memory output line that counts transitions.
type MemPin struct {
	mu      sync.Mutex
	value   int
	changes int
}

// SetValue stores v.
func (p *MemPin) SetValue(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v != p.value {
		p.changes++
	}
	p.value = v
	return nil
}

// Value returns the last value set.
func (p *MemPin) Value() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, nil
}

// Get returns the last value set.
func (p *MemPin) Get() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Changes returns the number of value transitions.
func (p *MemPin) Changes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changes
}
