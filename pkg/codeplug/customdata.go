package codeplug

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// CustomDataType identifies a block in the flash custom data region.
type CustomDataType uint32

// Custom data block types
const (
	CustomDataImage        CustomDataType = 1
	CustomDataBeep         CustomDataType = 2
	CustomDataSatelliteTLE CustomDataType = 3
	CustomDataBandLimits   CustomDataType = 0x100
	CustomDataEmpty        CustomDataType = 0xFFFFFFFF
)

const blockHeaderSize = 8

type blockHeader struct {
	typ    CustomDataType
	length uint32
}

// findBlockLocked walks the block chain for typ. It returns the header
// address, or 0 when the chain ends first.
func (s *Store) findBlockLocked(typ CustomDataType) (uint32, blockHeader, error) {
	tag := make([]byte, len(customDataMagic))
	if err := s.readFlash(addrCustomData, tag); err != nil {
		return 0, blockHeader{}, err
	}
	if !bytes.Equal(tag, []byte(customDataMagic)) {
		return 0, blockHeader{}, ErrNoCustomDataRegion
	}

	raw := make([]byte, blockHeaderSize)
	for addr := uint32(customDataHeader); addr < customDataLimit; {
		if err := s.readFlash(addrCustomData+addr, raw); err != nil {
			return 0, blockHeader{}, err
		}
		h := blockHeader{
			typ:    CustomDataType(binary.LittleEndian.Uint32(raw)),
			length: binary.LittleEndian.Uint32(raw[4:]),
		}
		if h.typ == typ {
			return addr, h, nil
		}
		if h.length == 0 || h.length == 0xFFFFFFFF {
			return 0, h, nil
		}
		addr += blockHeaderSize + h.length
	}
	return 0, blockHeader{}, nil
}

// CustomData returns the payload of the block of type typ.
func (s *Store) CustomData(typ CustomDataType) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, h, err := s.findBlockLocked(typ)
	if err != nil {
		return nil, err
	}
	if addr == 0 {
		return nil, fmt.Errorf("%w: type %d", ErrCustomDataNotFound, typ)
	}
	if h.length > customDataLimit {
		return nil, fmt.Errorf("%w: type %d has length %d", ErrCustomDataNotFound, typ, h.length)
	}
	data := make([]byte, h.length)
	if err := s.readFlash(addrCustomData+addr+blockHeaderSize, data); err != nil {
		return nil, err
	}
	return data, nil
}

// SetCustomData stores data as the block of type typ. An existing block is
// overwritten in place and must keep its length; a new block takes the
// first empty slot.
func (s *Store) SetCustomData(typ CustomDataType, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, h, err := s.findBlockLocked(typ)
	if err != nil {
		return err
	}
	if addr == 0 {
		addr, h, err = s.findBlockLocked(CustomDataEmpty)
		if err != nil {
			return err
		}
		if addr == 0 || h.length != 0xFFFFFFFF || addr+blockHeaderSize+uint32(len(data)) >= customDataLimit {
			return fmt.Errorf("%w: %d bytes", ErrCustomDataNoSpace, len(data))
		}
		h = blockHeader{typ: typ, length: uint32(len(data))}
	}
	if h.length != uint32(len(data)) {
		return fmt.Errorf("%w: have %d, got %d", ErrCustomDataResize, h.length, len(data))
	}

	buf := make([]byte, blockHeaderSize+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(h.typ))
	binary.LittleEndian.PutUint32(buf[4:], h.length)
	copy(buf[blockHeaderSize:], data)
	err = s.writeFlash(addrCustomData+addr, buf)
	s.metrics.StoreSave("custom_data", err)
	return err
}

// FormatCustomData writes the region anchor and an empty chain. Existing
// blocks are lost.
func (s *Store) FormatCustomData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := bytes.Repeat([]byte{0xFF}, customDataHeader+blockHeaderSize)
	copy(buf, customDataMagic)
	err := s.writeFlash(addrCustomData, buf)
	s.metrics.StoreSave("custom_data", err)
	return err
}
