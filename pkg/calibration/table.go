package calibration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Power table layout: eight points per band starting at the band's
// calibration base frequency.
const (
	PowerPoints  = 8
	vhfPowerBase = 135000000
	vhfPowerStep = 5000000
	uhfPowerBase = 400000000
	uhfPowerStep = 10000000

	// UHFThreshold splits the power tables.
	UHFThreshold = 300000000
)

// BandTable is the calibration data of one band.
type BandTable struct {
	Sections map[string][]uint16 `yaml:"sections"`
	Power    []PowerValues       `yaml:"power"`
}

// Table is an in-memory Provider.
type Table struct {
	VHF BandTable `yaml:"vhf"`
	UHF BandTable `yaml:"uhf"`
}

// DefaultTable returns factory-typical values.
func DefaultTable() *Table {
	vhf := BandTable{
		Sections: map[string][]uint16{
			"q_mod2_offset":      {0x3A},
			"phase_reduce":       {0x05, 0x05, 0x06, 0x06, 0x07, 0x07, 0x08, 0x08},
			"twopoint_mod":       {0x24F},
			"pga_gain":           {0x14},
			"voice_gain_tx":      {0x31},
			"gain_tx":            {0x07},
			"padrv_ibit":         {0x0F},
			"xmitter_dev_wide":   {0x2D0},
			"xmitter_dev_narrow": {0x168},
			"dac_vgain_analog":   {0x0C},
			"volume_analog":      {0x0A},
			"noise1_th_wide":     {0x2C2B},
			"noise1_th_narrow":   {0x2E2D},
			"noise2_th_wide":     {0x1B1A},
			"noise2_th_narrow":   {0x1D1C},
			"rssi3_th_wide":      {0x7066},
			"rssi3_th_narrow":    {0x7268},
			"squelch_th":         {0x0C15, 0x0C15, 0x0C15, 0x0D16, 0x0D16, 0x0D16},
			"dev_tone":           {0x1E, 0x18, 0x0C, 0x06, 0x0C, 0x06},
		},
	}
	uhf := BandTable{Sections: make(map[string][]uint16, len(vhf.Sections))}
	for k, v := range vhf.Sections {
		uhf.Sections[k] = append([]uint16(nil), v...)
	}
	uhf.Sections["q_mod2_offset"] = []uint16{0x40}
	uhf.Sections["twopoint_mod"] = []uint16{0x1F4}
	uhf.Sections["voice_gain_tx"] = []uint16{0x2C}

	vhf.Power = make([]PowerValues, PowerPoints)
	uhf.Power = make([]PowerValues, PowerPoints)
	for i := 0; i < PowerPoints; i++ {
		vhf.Power[i] = PowerValues{Low: uint16(1500 + 20*i), High: uint16(2700 + 30*i)}
		uhf.Power[i] = PowerValues{Low: uint16(1700 + 25*i), High: uint16(3000 + 35*i)}
	}
	return &Table{VHF: vhf, UHF: uhf}
}

// LoadTable reads a YAML table. Sections and power points missing from the
// file keep their defaults.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration: %w", err)
	}

	var file Table
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse calibration: %w", err)
	}

	t := DefaultTable()
	t.VHF.merge(&file.VHF)
	t.UHF.merge(&file.UHF)
	return t, nil
}

func (b *BandTable) merge(src *BandTable) {
	for name, v := range src.Sections {
		if len(v) > 0 {
			b.Sections[name] = v
		}
	}
	for i, p := range src.Power {
		if i < PowerPoints && (p.Low != 0 || p.High != 0) {
			b.Power[i] = p
		}
	}
}

// SaveTable writes t as YAML.
func SaveTable(t *Table, path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration: %w", err)
	}
	return nil
}

func (t *Table) band(b Band) *BandTable {
	if b == BandUHF {
		return &t.UHF
	}
	return &t.VHF
}

// SectionValue returns the entry at q.Offset+q.Mod, clamped to the last
// entry of the section. Unknown sections read as 0.
func (t *Table) SectionValue(band Band, section Section, q Query) uint16 {
	values := t.band(band).Sections[section.String()]
	if len(values) == 0 {
		return 0
	}
	i := min(max(q.Offset+q.Mod, 0), len(values)-1)
	return values[i]
}

// PowerForFrequency returns the PA anchors for the nearest lower table
// point.
func (t *Table) PowerForFrequency(hz uint32) PowerValues {
	band, base, step := &t.VHF, uint32(vhfPowerBase), uint32(vhfPowerStep)
	if hz >= UHFThreshold {
		band, base, step = &t.UHF, uhfPowerBase, uhfPowerStep
	}
	i := 0
	if hz > base {
		i = min(int((hz-base)/step), PowerPoints-1)
	}
	return band.Power[i]
}
