package codeplug

import "errors"

// Codeplug errors
var (
	// ErrInvalidIndex indicates a record index outside its valid range
	ErrInvalidIndex = errors.New("record index out of range")

	// ErrInvalidFrequency indicates a frequency that cannot be stored as
	// eight BCD digits of 10 Hz
	ErrInvalidFrequency = errors.New("frequency not representable")

	// ErrZoneFull indicates the zone already holds its maximum number of channels
	ErrZoneFull = errors.New("zone is full")

	// ErrSyntheticZone indicates an attempt to modify the All Channels zone
	ErrSyntheticZone = errors.New("the all channels zone cannot be modified")

	// ErrZoneNotFound indicates no in-use zone has the requested number
	ErrZoneNotFound = errors.New("zone not found")

	// ErrNoZoneSlot indicates every zone slot is in use
	ErrNoZoneSlot = errors.New("no free zone slot")

	// ErrContactNotFound indicates the contact index is empty or invalid
	ErrContactNotFound = errors.New("contact not found")

	// ErrRxGroupNotFound indicates the RX group slot is empty or invalid
	ErrRxGroupNotFound = errors.New("rx group not found")

	// ErrInvalidQuickKey indicates a key other than '0'-'9'
	ErrInvalidQuickKey = errors.New("quick key must be 0-9")

	// ErrQuickKeyOccupied indicates the quick key slot already holds a function
	ErrQuickKeyOccupied = errors.New("quick key slot is not empty")

	// ErrNoCustomDataRegion indicates the flash lacks the custom data anchor tag
	ErrNoCustomDataRegion = errors.New("custom data region not formatted")

	// ErrCustomDataNotFound indicates no block of the requested type exists
	ErrCustomDataNotFound = errors.New("custom data block not found")

	// ErrCustomDataResize indicates a block update with a different length
	ErrCustomDataResize = errors.New("custom data block length cannot change")

	// ErrCustomDataNoSpace indicates the region has no room for a new block
	ErrCustomDataNoSpace = errors.New("no space for custom data block")

	// ErrAPRSNotFound indicates the APRS configuration slot is empty or invalid
	ErrAPRSNotFound = errors.New("aprs configuration not found")
)
