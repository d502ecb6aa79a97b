package codeplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBCD(t *testing.T) {
	assert.Equal(t, uint32(14652000), BCDToInt(0x14652000))
	assert.Equal(t, uint32(0x14652000), IntToBCD(14652000))
	assert.Equal(t, uint16(480), BCDToUint16(0x0480))

	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint32Range(0, 99999999).Draw(t, "v")
		if got := BCDToInt(IntToBCD(v)); got != v {
			t.Fatalf("BCDToInt(IntToBCD(%d)) = %d", v, got)
		}
	})
}

func TestCSS(t *testing.T) {
	assert.Equal(t, uint16(0x0885), IntToCSS(885))
	assert.Equal(t, uint16(885), CSSToInt(0x0885))
	assert.Equal(t, uint16(CSSToneNone), IntToCSS(0))
	assert.Equal(t, uint16(CSSToneNone), CSSToInt(CSSToneNone))

	d023 := DCSTone(0x023, false)
	assert.Equal(t, CSSDCS, ToneType(d023))
	assert.Equal(t, d023, IntToCSS(d023))
	assert.Equal(t, CSSDCS|CSSInverted, ToneType(DCSTone(0x023, true)))
	assert.Equal(t, "dcs-inverted", ToneType(DCSTone(0x023, true)).String())
	assert.Equal(t, CSSCTCSS, ToneType(1318))
	assert.Equal(t, CSSNone, ToneType(0))

	rapid.Check(t, func(t *rapid.T) {
		tone := rapid.Uint16Range(670, 2541).Draw(t, "tone")
		assert.Equal(t, tone, CSSToInt(IntToCSS(tone)))
	})
}

func TestNameCodec(t *testing.T) {
	b := make([]byte, nameSize)
	encodeName(b, "Zürich")
	assert.Equal(t, byte(0xFC), b[1])
	assert.Equal(t, byte(0xFF), b[nameSize-1])
	assert.Equal(t, "Zürich", decodeName(b))

	encodeName(b, "a very long channel name")
	assert.Equal(t, "a very long chan", decodeName(b))

	assert.Equal(t, "ab", decodeName([]byte{'a', 'b', 0x00, 'c'}))
}

func TestChannelFlags(t *testing.T) {
	var c Channel
	c.SetFlag(FlagSTE, 3)
	c.SetFlag(FlagNonSTE, 1)
	assert.Equal(t, uint8(0xE0), c.Flag3)
	assert.Equal(t, uint8(3), c.Flag(FlagSTE))

	c.SetFlag(FlagSTE, 0)
	assert.Equal(t, uint8(0x20), c.Flag3)

	c.SetFlag(FlagTimeslotTwo, 1)
	c.SetFlag(FlagPower, 1)
	c.SetFlag(FlagRxOnly, 1)
	assert.Equal(t, uint8(0x40), c.Flag2)
	assert.Equal(t, uint8(0x84), c.Flag4)

	// Values wider than the field are masked.
	c.SetFlag(FlagSquelch, 0xFF)
	assert.Equal(t, uint8(0x85), c.Flag4)
}

func TestOptionalDMRID(t *testing.T) {
	var c Channel
	assert.Zero(t, c.OptionalDMRID())

	c.SetOptionalDMRID(2345678)
	assert.Equal(t, uint32(2345678), c.OptionalDMRID())
	assert.Equal(t, uint8(1), c.Flag(FlagOptionalDMRID))

	c.SetOptionalDMRID(0)
	assert.Zero(t, c.OptionalDMRID())
	assert.Equal(t, uint8(22), c.ArtsInterval)
}

func TestTalkerAliasTx(t *testing.T) {
	var c Channel
	c.SetTalkerAliasTx(0, TalkerAliasAPRS)
	c.SetTalkerAliasTx(1, TalkerAliasBoth)
	assert.Equal(t, TalkerAliasAPRS, c.TalkerAliasTx(0))
	assert.Equal(t, TalkerAliasBoth, c.TalkerAliasTx(1))
	assert.Equal(t, uint8(0x0D), c.Flag1)
}
