// Package eeprom models the radio's small byte-addressable I2C EEPROM.
package eeprom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Size is the capacity of the AT24C512 fitted to the supported radios.
const Size = 64 * 1024

var (
	// ErrOutOfRange indicates an access beyond the end of the device
	ErrOutOfRange = errors.New("eeprom address out of range")

	// ErrWriteFault indicates an injected write failure
	ErrWriteFault = errors.New("eeprom write failed")
)

// Image is an in-memory EEPROM, optionally backed by a file.
type Image struct {
	mu   sync.Mutex
	data []byte
	path string

	// FailWrites makes every Write return ErrWriteFault.
	FailWrites bool
}

// New returns an erased image of Size bytes.
func New() *Image {
	return NewSized(Size)
}

// NewSized returns an erased image of size bytes.
func NewSized(size int) *Image {
	img := &Image{data: make([]byte, size)}
	for i := range img.data {
		img.data[i] = 0xFF
	}
	return img
}

// Open loads an image from path. A missing file yields an erased image
// that Save will create.
func Open(path string) (*Image, error) {
	img := New()
	img.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return img, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read eeprom image: %w", err)
	}
	if len(data) > len(img.data) {
		return nil, fmt.Errorf("%w: image is %d bytes", ErrOutOfRange, len(data))
	}
	copy(img.data, data)
	return img, nil
}

// Save writes the image back to the file it was opened from.
func (m *Image) Save() error {
	if m.path == "" {
		return fmt.Errorf("eeprom image has no backing file")
	}
	return m.SaveAs(m.path)
}

// SaveAs writes the image to path.
func (m *Image) SaveAs(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, m.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}
	return nil
}

// Bytes returns a copy of the contents.
func (m *Image) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

func (m *Image) check(addr uint32, n int) error {
	if uint64(addr)+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("%w: 0x%04X+%d", ErrOutOfRange, addr, n)
	}
	return nil
}

// Read fills p from addr.
func (m *Image) Read(addr uint32, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(addr, len(p)); err != nil {
		return err
	}
	copy(p, m.data[addr:])
	return nil
}

// Write stores p at addr.
func (m *Image) Write(addr uint32, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFault
	}
	if err := m.check(addr, len(p)); err != nil {
		return err
	}
	copy(m.data[addr:], p)
	return nil
}
