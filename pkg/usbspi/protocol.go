package usbspi

import "math/bits"

// USB identity of the WCH CH341A in SPI/I2C mode
const (
	VendorID  = 0x1a86
	ProductID = 0x5512
)

// Bulk endpoints
const (
	EndpointOut = 0x02
	EndpointIn  = 0x82

	packetSize = 32
)

// Stream command bytes
const (
	cmdSPIStream = 0xA8
	cmdI2CStream = 0xAA
	cmdUIOStream = 0xAB

	i2cSet = 0x60
	i2cEnd = 0x00

	uioOut = 0x80
	uioDir = 0x40
	uioEnd = 0x20

	// I2C speed selector also sets the SPI bit order; 0x01 is 100 kHz, MSB first.
	speed100k = 0x01
)

// spiPayload is the number of data bytes that fit after the command byte.
const spiPayload = packetSize - 1

// chipSelect builds the UIO stream that drives the CS pin (D0).
func chipSelect(active bool) []byte {
	if active {
		return []byte{cmdUIOStream, uioOut | 0x36, uioDir | 0x3F, uioEnd}
	}
	return []byte{cmdUIOStream, uioOut | 0x37, uioEnd}
}

// configure builds the stream that selects the bus speed.
func configure() []byte {
	return []byte{cmdI2CStream, i2cSet | speed100k, i2cEnd}
}

// spiPackets splits tx into SPI stream packets with bit-reversed payloads.
// The CH341A shifts LSB first so every byte is mirrored on the way in and out.
func spiPackets(tx []byte) [][]byte {
	var packets [][]byte
	for len(tx) > 0 {
		n := min(len(tx), spiPayload)
		pkt := make([]byte, n+1)
		pkt[0] = cmdSPIStream
		for i, b := range tx[:n] {
			pkt[i+1] = bits.Reverse8(b)
		}
		packets = append(packets, pkt)
		tx = tx[n:]
	}
	return packets
}

// reverseInto mirrors each received byte into dst.
func reverseInto(dst, src []byte) {
	for i, b := range src {
		dst[i] = bits.Reverse8(b)
	}
}
