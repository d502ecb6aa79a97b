package spiflash

import "errors"

// Flash errors
var (
	// ErrBusy indicates another operation is in progress on the device
	ErrBusy = errors.New("flash is busy")

	// ErrUnknownPart indicates the JEDEC part ID is not a supported chip
	ErrUnknownPart = errors.New("unsupported flash part")

	// ErrEraseTimeout indicates the chip stayed busy after a sector erase
	ErrEraseTimeout = errors.New("sector erase timed out")

	// ErrProgramTimeout indicates the chip stayed busy after a page program
	ErrProgramTimeout = errors.New("page program timed out")

	// ErrOutOfRange indicates an access beyond the chip capacity
	ErrOutOfRange = errors.New("address out of range")

	// ErrPageSize indicates a page write with more than PageSize bytes
	ErrPageSize = errors.New("page data exceeds page size")

	// ErrUnaligned indicates a page write at an address not on a page boundary
	ErrUnaligned = errors.New("address not page aligned")
)
