package spiflash

// Command opcodes
const (
	CmdWriteEnable  = 0x06
	CmdWriteDisable = 0x04
	CmdReadStatus1  = 0x05
	CmdReadStatus2  = 0x35
	CmdPageProgram  = 0x02
	CmdSectorErase  = 0x20
	CmdJEDECID      = 0x9F
	CmdRead         = 0x03
)

// Status register 1 bits
const (
	StatusBusy        = 0x01
	StatusWriteEnable = 0x02
)

// Geometry
const (
	SectorSize = 4096
	PageSize   = 256

	pagesPerSector = SectorSize / PageSize
)

// Supported Winbond parts, keyed by the last two JEDEC ID bytes.
const (
	PartW25Q80   = 0x4014 // 1 MiB, stock GD-77
	PartW25Q16   = 0x4015 // 2 MiB, DM-1801
	PartW25Q64   = 0x4017 // 8 MiB
	PartW25Q128  = 0x4018 // 16 MiB
	PartW25Q128J = 0x7018 // 16 MiB
)

// ManufacturerWinbond is the JEDEC manufacturer byte for Winbond.
const ManufacturerWinbond = 0xEF

const (
	eraseMaxPolls   = 500 // sector erase can take up to 500 ms
	programMaxPolls = 5   // page program is typically under 3 ms
	maxAttempts     = 3
)

// IsSupportedPart reports whether part is one of the accepted IDs.
func IsSupportedPart(part uint32) bool {
	switch part {
	case PartW25Q80, PartW25Q16, PartW25Q64, PartW25Q128, PartW25Q128J:
		return true
	}
	return false
}

// PartCapacity returns the size in bytes encoded in the part ID's capacity byte.
func PartCapacity(part uint32) uint32 {
	shift := part & 0xFF
	if shift < 16 || shift > 24 {
		return 0
	}
	return 1 << shift
}

// PartName returns a human readable name for part.
func PartName(part uint32) string {
	switch part {
	case PartW25Q80:
		return "W25Q80"
	case PartW25Q16:
		return "W25Q16"
	case PartW25Q64:
		return "W25Q64"
	case PartW25Q128:
		return "W25Q128"
	case PartW25Q128J:
		return "W25Q128JV"
	}
	return "unknown"
}
