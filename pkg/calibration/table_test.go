package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionValueClamps(t *testing.T) {
	tbl := DefaultTable()

	assert.Equal(t, uint16(0x05), tbl.SectionValue(BandVHF, PhaseReduce, Query{}))
	assert.Equal(t, uint16(0x07), tbl.SectionValue(BandVHF, PhaseReduce, Query{Offset: 4}))
	assert.Equal(t, uint16(0x08), tbl.SectionValue(BandVHF, PhaseReduce, Query{Offset: 50}))
	assert.Equal(t, uint16(0x05), tbl.SectionValue(BandVHF, PhaseReduce, Query{Offset: -3}))

	// Mod shifts the index.
	assert.Equal(t, uint16(0x0D16), tbl.SectionValue(BandUHF, SquelchTh, Query{Offset: 0, Mod: 3}))
	assert.Equal(t, uint16(0), tbl.SectionValue(BandVHF, Section(99), Query{}))
}

func TestBandsDiffer(t *testing.T) {
	tbl := DefaultTable()
	assert.NotEqual(t,
		tbl.SectionValue(BandVHF, TwoPointMod, Query{}),
		tbl.SectionValue(BandUHF, TwoPointMod, Query{}))
}

func TestPowerForFrequency(t *testing.T) {
	tbl := DefaultTable()

	assert.Equal(t, tbl.VHF.Power[0], tbl.PowerForFrequency(130000000))
	assert.Equal(t, tbl.VHF.Power[2], tbl.PowerForFrequency(146520000))
	assert.Equal(t, tbl.VHF.Power[PowerPoints-1], tbl.PowerForFrequency(222000000))
	assert.Equal(t, tbl.UHF.Power[0], tbl.PowerForFrequency(380000000))
	assert.Equal(t, tbl.UHF.Power[3], tbl.PowerForFrequency(435000000))
}

func TestLoadTableMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	doc := `
uhf:
  sections:
    twopoint_mod: [0x123]
  power:
    - {low: 1000, high: 2000}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	tbl, err := LoadTable(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x123), tbl.SectionValue(BandUHF, TwoPointMod, Query{}))
	assert.Equal(t, PowerValues{Low: 1000, High: 2000}, tbl.UHF.Power[0])
	assert.Equal(t, DefaultTable().UHF.Power[1], tbl.UHF.Power[1])
	assert.Equal(t, DefaultTable().VHF.Sections["pga_gain"], tbl.VHF.Sections["pga_gain"])
}

func TestSaveAndLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	tbl := DefaultTable()
	tbl.VHF.Sections["pga_gain"] = []uint16{0x1F}

	require.NoError(t, SaveTable(tbl, path))
	loaded, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1F), loaded.SectionValue(BandVHF, PGAGain, Query{}))
}

func TestLoadTableErrors(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vhf: [oops"), 0644))
	_, err = LoadTable(path)
	require.Error(t, err)
}
