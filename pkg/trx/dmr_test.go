package trx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
	"github.com/herlein/trxcore/pkg/trx"
)

func TestSetDMRColourCode(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)

	require.NoError(t, tr.SetDMRColourCode(5))
	assert.Equal(t, uint8(0x50), sim.Digital.PageReg(registers.C6000PageConfig, registers.C6000RegColourCode))
	assert.Equal(t, uint8(5), tr.ColourCode())

	sim.Digital.SetFault(true)
	assert.ErrorIs(t, tr.SetDMRColourCode(7), registers.ErrInjectedFault)
	assert.Equal(t, uint8(5), tr.ColourCode())
}

func TestSetDMRTimeSlot(t *testing.T) {
	tr, sim, _ := newTestTransceiver(t)

	require.NoError(t, tr.SetDMRTimeSlot(1, false))
	assert.Equal(t, 1, tr.TimeSlot())
	assert.Equal(t, 0, sim.Digital.Stats().Resyncs)

	require.NoError(t, tr.SetDMRTimeSlot(0, true))
	assert.Equal(t, 0, tr.TimeSlot())
	assert.Equal(t, 1, sim.Digital.Stats().Resyncs)
}

func TestUpdateTimeSlotForContact(t *testing.T) {
	tsTwo := codeplug.Channel{}
	tsTwo.SetFlag(codeplug.FlagTimeslotTwo, 1)

	tests := []struct {
		name       string
		channel    codeplug.Channel
		reserve1   uint8
		overrideTG uint32
		manual     int
		want       int
	}{
		{"contact without override uses ts1", tsTwo, 0x00, 0, 0, 0},
		{"contact override ts2", codeplug.Channel{}, 0x02, 0, 0, 1},
		{"contact opts out uses channel", tsTwo, codeplug.ContactFlagNoTSOverride, 0, 0, 1},
		{"talkgroup override uses channel", tsTwo, 0x02, 9, 0, 1},
		{"manual override wins", tsTwo, 0x00, 0, 1, 0},
		{"manual override with opt out", codeplug.Channel{}, codeplug.ContactFlagNoTSOverride, 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sim, _ := newTestTransceiver(t)
			s := trx.DefaultSettings()
			s.OverrideTG = tt.overrideTG
			tr.SetSettings(s)
			tr.SetChannel(tt.channel)

			err := tr.UpdateTimeSlotForContact(codeplug.Contact{Reserve1: tt.reserve1}, tt.manual)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.TimeSlot())
			assert.Equal(t, 1, sim.Digital.Stats().Resyncs)
		})
	}
}
