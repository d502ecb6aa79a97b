package codeplug

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// NameCodec is the single-byte character set used for record names.
var NameCodec = charmap.ISO8859_1

var nameEncoder = encoding.ReplaceUnsupported(NameCodec.NewEncoder())

// decodeName converts an 0xFF padded name field into a string. Both 0xFF
// and NUL terminate the name.
func decodeName(b []byte) string {
	for i, c := range b {
		if c == 0x00 || c == 0xFF {
			b = b[:i]
			break
		}
	}
	out, _, err := transform.Bytes(NameCodec.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// encodeName writes s into dst padded with 0xFF.
func encodeName(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0xFF
	}
	out, _, err := transform.Bytes(nameEncoder, []byte(s))
	if err != nil {
		out = []byte(s)
	}
	if i := bytes.IndexByte(out, 0); i >= 0 {
		out = out[:i]
	}
	copy(dst, out)
}
