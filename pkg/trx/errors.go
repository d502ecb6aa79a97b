package trx

import "errors"

// Transceiver errors
var (
	// ErrTransmitting indicates the request is refused while transmitting
	ErrTransmitting = errors.New("transmission in progress")

	// ErrAlreadyInState indicates the receiver is already in the requested power state
	ErrAlreadyInState = errors.New("already in requested power state")

	// ErrOutOfBand indicates a frequency outside every hardware band
	ErrOutOfBand = errors.New("frequency out of band")

	// ErrInvalidDTMF indicates a DTMF code outside 0-15
	ErrInvalidDTMF = errors.New("invalid DTMF code")

	// ErrBandLimits indicates a malformed band limit block
	ErrBandLimits = errors.New("invalid band limits")
)
