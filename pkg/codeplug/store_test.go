package codeplug

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/herlein/trxcore/pkg/eeprom"
	"github.com/herlein/trxcore/pkg/spiflash"
)

func noDelay(time.Duration) {}

type testMedia struct {
	eeprom *eeprom.Image
	sim    *spiflash.Sim
	flash  *spiflash.Device
}

func newMedia(t testing.TB) testMedia {
	sim := spiflash.NewSim(spiflash.PartW25Q80)
	flash := spiflash.New(sim, spiflash.WithDelay(noDelay))
	require.NoError(t, flash.Init())
	return testMedia{eeprom: eeprom.New(), sim: sim, flash: flash}
}

// newTestStore returns a store over freshly formatted media.
func newTestStore(t testing.TB, opts ...Option) (*Store, testMedia) {
	m := newMedia(t)
	s := New(m.eeprom, m.flash, opts...)
	require.NoError(t, s.Format())
	return s, m
}

func sampleChannel() Channel {
	c := Channel{
		Name:    "2m Calling",
		RxFreq:  146520000,
		TxFreq:  146520000,
		Mode:    RadioModeAnalog,
		RxTone:  CSSToneNone,
		TxTone:  1000,
		Squelch: 5,
	}
	c.SetFlag(FlagBandwidth25k, 1)
	return c
}

func TestFormattedMediaIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, 1, s.ZonesCount())
	assert.Equal(t, 0, s.ChannelsCount())
	assert.Equal(t, 0, s.HighestChannelIndex())
	assert.Equal(t, ChannelsPerZone80, s.ChannelsPerZone())
	assert.Equal(t, 0, s.ContactsCount(CallTypeGroup))
	assert.Equal(t, 0, s.DTMFContactsCount())
	assert.Equal(t, 0, s.APRSConfigCount())
	assert.Equal(t, 0, s.RxGroupsCount())
	assert.Equal(t, 1, s.ContactFreeIndex())
	assert.Equal(t, 4, s.RepeaterWakeAttempts())
}

func TestChannelRoundTripEEPROM(t *testing.T) {
	s, m := newTestStore(t)

	require.NoError(t, s.SaveChannel(1, sampleChannel()))

	got, err := s.Channel(1)
	require.NoError(t, err)
	assert.Equal(t, sampleChannel(), got)
	assert.Equal(t, uint32(146520000), got.RxFreq)
	assert.True(t, got.Bandwidth25k())
	assert.True(t, s.AllChannelsIndexIsInUse(1))
	assert.Equal(t, 1, s.ChannelsCount())

	// 14652000 in 10 Hz units, little-endian BCD.
	raw := m.eeprom.Bytes()[addrChannelEEPROM+chOffRxFreq : addrChannelEEPROM+chOffRxFreq+4]
	assert.Equal(t, []byte{0x00, 0x20, 0x65, 0x14}, raw)
}

func TestChannelRoundTripFlash(t *testing.T) {
	s, _ := newTestStore(t)

	c := sampleChannel()
	c.Name = "Flash"
	c.Mode = RadioModeDigital
	c.RxColor, c.TxColor = 1, 1
	for _, index := range []int{129, 300, 1024} {
		require.NoError(t, s.SaveChannel(index, c))
		got, err := s.Channel(index)
		require.NoError(t, err)
		assert.Equal(t, c, got, "channel %d", index)
	}
	assert.Equal(t, 3, s.ChannelsCount())
	assert.Equal(t, 1024, s.HighestChannelIndex())

	// The cache matches a fresh scan of the media.
	require.NoError(t, s.InitCaches())
	assert.Equal(t, 3, s.ChannelsCount())
	assert.True(t, s.AllChannelsIndexIsInUse(300))
}

func TestSaveChannelLeavesCallerUntouched(t *testing.T) {
	s, m := newTestStore(t, WithClearOutOfBand())

	c := sampleChannel()
	c.SetFlag(FlagOutOfBand, 1)
	want := c
	require.NoError(t, s.SaveChannel(2, c))
	assert.Equal(t, want, c)

	stored := m.eeprom.Bytes()[addrChannelEEPROM+ChannelRecordSize+chOffLibreFlag1]
	assert.Zero(t, stored&flagTable[FlagOutOfBand].mask)
}

func TestSquelchFallback(t *testing.T) {
	s, _ := newTestStore(t)

	c := sampleChannel()
	c.Squelch = 30
	require.NoError(t, s.SaveChannel(5, c))
	got, err := s.Channel(5)
	require.NoError(t, err)
	assert.Equal(t, uint8(DefaultSquelch), got.Squelch)
}

func TestChannelRoundTripProperty(t *testing.T) {
	s, _ := newTestStore(t)

	rapid.Check(t, func(t *rapid.T) {
		index := rapid.IntRange(ChannelsMin, ChannelsMax).Draw(t, "index")
		tone := rapid.OneOf(
			rapid.Just(uint16(CSSToneNone)),
			rapid.Uint16Range(670, 2541),
			rapid.Custom(func(t *rapid.T) uint16 {
				return DCSTone(rapid.Uint16Range(0, 0x777).Draw(t, "code"), rapid.Bool().Draw(t, "inv"))
			}),
		)
		c := Channel{
			Name:         rapid.StringMatching(`[A-Za-z0-9 ]{0,16}`).Draw(t, "name"),
			RxFreq:       rapid.Uint32Range(0, 99999999).Draw(t, "rx") * 10,
			TxFreq:       rapid.Uint32Range(0, 99999999).Draw(t, "tx") * 10,
			Mode:         rapid.SampledFrom([]RadioMode{RadioModeAnalog, RadioModeDigital}).Draw(t, "mode"),
			Power:        rapid.Uint8().Draw(t, "power"),
			RxTone:       tone.Draw(t, "rxTone"),
			TxTone:       tone.Draw(t, "txTone"),
			RxColor:      rapid.Uint8Range(0, 15).Draw(t, "cc"),
			Contact:      rapid.Uint16().Draw(t, "contact"),
			LibreFlag1:   rapid.Uint8().Draw(t, "libre"),
			Flag4:        rapid.Uint8().Draw(t, "flag4"),
			Squelch:      rapid.Uint8Range(0, MaxSquelch).Draw(t, "sql"),
			ArtsInterval: rapid.Uint8().Draw(t, "arts"),
		}
		require.NoError(t, s.SaveChannel(index, c))
		got, err := s.Channel(index)
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.True(t, s.AllChannelsIndexIsInUse(index))
	})
}

func TestChannelInvalidIndex(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Channel(0)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.ErrorIs(t, s.SaveChannel(1025, Channel{}), ErrInvalidIndex)
	assert.False(t, s.AllChannelsIndexIsInUse(2000))
}

func TestSaveChannelRejectsUnrepresentableFrequency(t *testing.T) {
	tests := []struct {
		name   string
		rx, tx uint32
	}{
		{"rx not 10 Hz step", 146520005, 146520000},
		{"tx not 10 Hz step", 146520000, 146520005},
		{"rx above nine digits", 1240000000, 146520000},
		{"tx above nine digits", 146520000, 1240000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			c := sampleChannel()
			c.RxFreq, c.TxFreq = tt.rx, tt.tx

			assert.ErrorIs(t, s.SaveChannel(1, c), ErrInvalidFrequency)
			assert.False(t, s.AllChannelsIndexIsInUse(1))
			assert.Equal(t, 0, s.ChannelsCount())
			assert.ErrorIs(t, s.SaveVFOChannel(VFOA, c), ErrInvalidFrequency)
		})
	}

	s, _ := newTestStore(t)
	c := sampleChannel()
	c.RxFreq, c.TxFreq = MaxFrequency, MaxFrequency
	require.NoError(t, s.SaveChannel(1, c))
	got, err := s.Channel(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxFrequency), got.RxFreq)
}

func TestDeleteChannelRecountsHighest(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SaveChannel(3, sampleChannel()))
	require.NoError(t, s.SaveChannel(700, sampleChannel()))
	assert.Equal(t, 700, s.HighestChannelIndex())

	require.NoError(t, s.DeleteChannel(700))
	assert.Equal(t, 3, s.HighestChannelIndex())
	assert.Equal(t, 1, s.ChannelsCount())
}

func TestVFOChannels(t *testing.T) {
	s, _ := newTestStore(t)

	a := sampleChannel()
	b := sampleChannel()
	b.RxFreq = 433500000
	require.NoError(t, s.SaveVFOChannel(VFOA, a))
	require.NoError(t, s.SaveVFOChannel(VFOB, b))

	got, err := s.VFOChannel(VFOB)
	require.NoError(t, err)
	assert.Equal(t, b, got)
	got, err = s.VFOChannel(VFOA)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestZones(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 1; i <= 4; i++ {
		require.NoError(t, s.SaveChannel(i, sampleChannel()))
	}

	z, err := s.CreateZone("Local")
	require.NoError(t, err)
	_, err = s.CreateZone("Travel")
	require.NoError(t, err)
	assert.Equal(t, 3, s.ZonesCount())

	require.NoError(t, s.AddChannelToZone(1, &z))
	require.NoError(t, s.AddChannelToZone(4, &z))
	assert.Equal(t, 2, z.NumChannels)

	got, err := s.Zone(0)
	require.NoError(t, err)
	assert.Equal(t, "Local", got.Name)
	assert.Equal(t, []uint16{1, 4}, got.Channels[:got.NumChannels])

	all, err := s.Zone(2)
	require.NoError(t, err)
	assert.True(t, all.IsAllChannels())
	assert.Equal(t, "All Channels", all.Name)
	assert.Equal(t, 4, all.NumChannels)
	assert.ErrorIs(t, s.AddChannelToZone(1, &all), ErrSyntheticZone)

	_, err = s.Zone(9)
	assert.ErrorIs(t, err, ErrZoneNotFound)

	require.NoError(t, s.DeleteZone(0))
	assert.Equal(t, 2, s.ZonesCount())
	got, err = s.Zone(0)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.Name)
}

func TestZoneFull(t *testing.T) {
	s, _ := newTestStore(t)

	z, err := s.CreateZone("Big")
	require.NoError(t, err)
	for i := 1; i <= ChannelsPerZone80; i++ {
		require.NoError(t, s.AddChannelToZone(uint16(i), &z))
	}
	before := z
	assert.ErrorIs(t, s.AddChannelToZone(81, &z), ErrZoneFull)
	assert.Equal(t, before, z)
}

func TestChannelsPerZoneDetection(t *testing.T) {
	m := newMedia(t)
	s := New(m.eeprom, m.flash)
	require.NoError(t, s.Format())
	assert.Equal(t, ChannelsPerZone80, s.ChannelsPerZone())

	// A 0xFF padded name byte at 0x806F selects the 16 channel layout.
	require.NoError(t, m.eeprom.Write(addrZoneFormatHint+15, []byte{0xFF}))
	require.NoError(t, s.InitCaches())
	assert.Equal(t, ChannelsPerZone16, s.ChannelsPerZone())
}

func TestSaveFailureReportsError(t *testing.T) {
	s, m := newTestStore(t)

	m.eeprom.FailWrites = true
	assert.Error(t, s.SaveChannel(1, sampleChannel()))
	assert.False(t, s.AllChannelsIndexIsInUse(1))

	m.eeprom.FailWrites = false
	m.sim.FailTransfers(0, 1000)
	assert.Error(t, s.SaveChannel(200, sampleChannel()))
}

func TestQuickKeys(t *testing.T) {
	s, m := newTestStore(t)

	assert.Equal(t, uint16(QuickKeyEmpty), s.QuickKey('3'))
	require.NoError(t, s.SetQuickKey('3', 42))
	assert.Equal(t, uint16(42), s.QuickKey('3'))

	// Occupied slots are protected until cleared.
	assert.ErrorIs(t, s.SetQuickKey('3', 7), ErrQuickKeyOccupied)
	require.NoError(t, s.SetQuickKey('3', QuickKeyEmpty))
	require.NoError(t, s.SetQuickKey('3', 0x8012))
	assert.ErrorIs(t, s.SetQuickKey('3', 7), ErrQuickKeyOccupied)

	assert.ErrorIs(t, s.SetQuickKey('x', 1), ErrInvalidQuickKey)
	assert.Zero(t, s.QuickKey('x'))

	// A contact index outside 1..1024 counts as empty.
	require.NoError(t, m.eeprom.Write(addrQuickKeys+2*5, []byte{0x00, 0x10}))
	require.NoError(t, s.InitCaches())
	require.NoError(t, s.SetQuickKey('5', 9))
}

func TestCustomData(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CustomData(CustomDataBeep)
	assert.ErrorIs(t, err, ErrCustomDataNotFound)

	beep := []byte{1, 2, 3, 4}
	require.NoError(t, s.SetCustomData(CustomDataBeep, beep))
	limits := bytes.Repeat([]byte{0xA5}, 40)
	require.NoError(t, s.SetCustomData(CustomDataBandLimits, limits))

	got, err := s.CustomData(CustomDataBeep)
	require.NoError(t, err)
	assert.Equal(t, beep, got)
	got, err = s.CustomData(CustomDataBandLimits)
	require.NoError(t, err)
	assert.Equal(t, limits, got)

	require.NoError(t, s.SetCustomData(CustomDataBeep, []byte{9, 9, 9, 9}))
	assert.ErrorIs(t, s.SetCustomData(CustomDataBeep, []byte{1}), ErrCustomDataResize)
	got, err = s.CustomData(CustomDataBeep)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got)

	assert.ErrorIs(t, s.SetCustomData(CustomDataImage, make([]byte, customDataLimit)), ErrCustomDataNoSpace)
}

func TestCustomDataNeedsAnchor(t *testing.T) {
	m := newMedia(t)
	s := New(m.eeprom, m.flash)
	_, err := s.CustomData(CustomDataImage)
	assert.ErrorIs(t, err, ErrNoCustomDataRegion)
}

func TestLastUsedChannelInZone(t *testing.T) {
	m := newMedia(t)
	s := New(m.eeprom, m.flash)
	require.NoError(t, s.Format())

	s.SetLastUsedChannelInZone(2, 7)
	s.SetLastUsedChannelInZone(ZoneIndexAllChannels, 513)
	s.SetLastUsedChannelInZone(200, 3)
	require.NoError(t, s.SaveLastUsedChannelInZone())

	fresh := New(m.eeprom, m.flash)
	require.NoError(t, fresh.InitCaches())
	assert.Equal(t, 7, fresh.LastUsedChannelInZone(2))
	assert.Equal(t, 513, fresh.LastUsedChannelInZone(ZoneIndexAllChannels))
	assert.Equal(t, 3, fresh.LastUsedChannelInZone(luczZoneSlots-1))

	// Without the tag the table reads as zeros.
	require.NoError(t, m.eeprom.Write(addrLUCZ, []byte("XXXX")))
	require.NoError(t, fresh.InitCaches())
	assert.Zero(t, fresh.LastUsedChannelInZone(2))
}

func TestUserSettings(t *testing.T) {
	s, m := newTestStore(t)

	require.NoError(t, s.SetUserDMRID(2345678))
	id, err := s.UserDMRID()
	require.NoError(t, err)
	assert.Equal(t, uint32(2345678), id)

	require.NoError(t, m.eeprom.Write(addrUserCallsign, []byte{'N', '0', 'C', 'A', 'L', 'L', 0xFF, 0xFF}))
	name, err := s.RadioName()
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", name)

	g, err := s.GeneralSettings()
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", g.RadioName)
	assert.Equal(t, uint32(2345678), g.DMRID)
}

func TestDeviceInfo(t *testing.T) {
	s, m := newTestStore(t)

	b := make([]byte, DeviceInfoSize)
	binary.LittleEndian.PutUint16(b[0:], 0x0400)
	binary.LittleEndian.PutUint16(b[2:], 0x0480)
	binary.LittleEndian.PutUint16(b[4:], 0x0136)
	binary.LittleEndian.PutUint16(b[6:], 0x0174)
	copy(b[16:], "GD-77\xff\xff\xff")
	require.NoError(t, m.eeprom.Write(addrDeviceInfo, b))

	d, err := s.DeviceInfo()
	require.NoError(t, err)
	assert.Equal(t, uint16(400), d.MinUHF)
	assert.Equal(t, uint16(480), d.MaxUHF)
	assert.Equal(t, uint16(136), d.MinVHF)
	assert.Equal(t, uint16(174), d.MaxVHF)
	assert.Equal(t, "GD-77", d.Model)
}

func TestPasswordPin(t *testing.T) {
	s, m := newTestStore(t)

	require.NoError(t, m.eeprom.Write(addrBootPasswordPin+1, []byte{0x00, 0, 0, 0x12, 0x34, 0xFF}))
	_, digits, err := s.PasswordPin()
	require.NoError(t, err)
	assert.Zero(t, digits)

	require.NoError(t, m.eeprom.Write(addrBootPasswordPin+1, []byte{0x01}))
	pin, digits, err := s.PasswordPin()
	require.NoError(t, err)
	assert.Equal(t, 4, digits)
	assert.Equal(t, 1234, pin)
}

func TestBootScreen(t *testing.T) {
	s, m := newTestStore(t)

	line := make([]byte, bootLineSize)
	encodeName(line, "Hello")
	require.NoError(t, m.eeprom.Write(addrBootLine1, line))
	encodeName(line, "World")
	require.NoError(t, m.eeprom.Write(addrBootLine2, line))
	require.NoError(t, m.eeprom.Write(addrBootIntroScreen, []byte{1}))

	bs, err := s.BootScreen()
	require.NoError(t, err)
	assert.Equal(t, BootScreen{Line1: "Hello", Line2: "World", DisplayType: 1}, bs)
}

func TestDTMFDurations(t *testing.T) {
	s, m := newTestStore(t)

	require.NoError(t, m.eeprom.Write(addrSignallingDTMFDurations, []byte{3, 1, 4, 0x80}))
	d, err := s.DTMFDurations()
	require.NoError(t, err)
	assert.Equal(t, DTMFDurations{First: 3, Other: 1, Rate: 4, Tail: 5}, d)
}

func TestDTMFContacts(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SaveDTMFContact(4, DTMFContact{Name: "Link", Code: "*12#"}))
	require.NoError(t, s.SaveDTMFContact(2, DTMFContact{Name: "Echo", Code: "A0"}))
	assert.Equal(t, 2, s.DTMFContactsCount())

	c, err := s.DTMFContactForNumber(2)
	require.NoError(t, err)
	assert.Equal(t, DTMFContact{Name: "Link", Code: "*12#", Index: 4}, c)

	_, err = s.DTMFContactForNumber(3)
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.Error(t, s.SaveDTMFContact(1, DTMFContact{Name: "Bad", Code: "12X"}))
}

func TestAPRSConfigs(t *testing.T) {
	s, m := newTestStore(t)

	rec := make([]byte, APRSRecordSize)
	for i, name := range []string{"Home", "Mobile"} {
		encodeName(rec[:aprsNameSize], name)
		rec[8] = uint8(9 + i)
		encodeName(rec[19:19+aprsCommentSize], "trxcore")
		binary.LittleEndian.PutUint16(rec[62:], aprsMagic)
		require.NoError(t, m.eeprom.Write(aprsAddress(i+1), rec))
	}
	require.NoError(t, s.InitCaches())

	assert.Equal(t, 2, s.APRSConfigCount())
	c, err := s.APRSConfig(2)
	require.NoError(t, err)
	assert.Equal(t, "Mobile", c.Name)
	assert.Equal(t, uint8(10), c.SSID)
	assert.Equal(t, "trxcore", c.Comment)
	assert.Equal(t, 2, s.APRSIndexOfName("Mobile"))
	assert.Zero(t, s.APRSIndexOfName("Nope"))

	_, err = s.APRSConfig(3)
	assert.ErrorIs(t, err, ErrAPRSNotFound)
}
