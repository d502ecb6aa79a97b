package trx

import (
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/registers"
)

// SetDMRColourCode sets the colour code, 0..15.
func (t *Transceiver) SetDMRColourCode(cc uint8) error {
	return t.locked(func() {
		t.writePage(registers.C6000PageConfig, registers.C6000RegColourCode, cc<<4)
		if t.err == nil {
			t.colourCode = cc
		}
	})
}

// ColourCode returns the DMR colour code.
func (t *Transceiver) ColourCode() uint8 {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.colourCode
}

// SetDMRTimeSlot selects timeslot 0 or 1 and optionally resyncs the
// HR-C6000 to it.
func (t *Transceiver) SetDMRTimeSlot(ts int, resync bool) error {
	return t.locked(func() {
		t.timeSlot = ts
		if resync {
			t.digital("resync timeslot", t.hw.Digital.ResyncTimeSlot)
		}
	})
}

// TimeSlot returns the DMR timeslot, 0 or 1.
func (t *Transceiver) TimeSlot() int {
	t.cs.Enter()
	defer t.cs.Exit()
	return t.timeSlot
}

// UpdateTimeSlotForContact picks the timeslot for transmitting to contact
// on the current channel and resyncs. manualOverride is the user's
// timeslot override for the channel, 1 or 2, or 0 for none. Unless
// talkgroup override is on or the contact opts out, the contact's own
// timeslot override applies when there is no manual override.
func (t *Transceiver) UpdateTimeSlotForContact(contact codeplug.Contact, manualOverride int) error {
	return t.locked(func() {
		contactMayOverride := t.settings.OverrideTG == 0 && contact.Reserve1&codeplug.ContactFlagNoTSOverride == 0
		switch {
		case manualOverride != 0:
			t.timeSlot = manualOverride - 1
		case contactMayOverride && contact.Reserve1&codeplug.ContactTSOverrideMask != 0:
			t.timeSlot = 1
		case contactMayOverride:
			t.timeSlot = 0
		case t.channel.Flag(codeplug.FlagTimeslotTwo) != 0:
			t.timeSlot = 1
		default:
			t.timeSlot = 0
		}
		t.digital("resync timeslot", t.hw.Digital.ResyncTimeSlot)
	})
}
