package codeplug

import (
	"fmt"
	"sort"
)

// CallType is the kind of DMR call a contact places.
type CallType uint8

// Call types
const (
	CallTypeGroup   CallType = 0
	CallTypePrivate CallType = 1
	CallTypeAll     CallType = 2
	callTypeCount            = 3
	callTypeErased  CallType = 0xFF
)

func (c CallType) String() string {
	switch c {
	case CallTypeGroup:
		return "group"
	case CallTypePrivate:
		return "private"
	case CallTypeAll:
		return "all"
	}
	return "unknown"
}

// Contact timeslot override bits in Reserve1.
const (
	ContactFlagNoTSOverride = 0x01
	ContactTSOverrideMask   = 0x06
)

// PCCallFlag marks a private call in a packed ID.
const PCCallFlag = 0x01

// Contact is a decoded DMR contact.
type Contact struct {
	Name      string   `yaml:"name"`
	Number    uint32   `yaml:"number"`
	CallType  CallType `yaml:"call_type"`
	RxTone    uint8    `yaml:"rx_tone"`
	RingStyle uint8    `yaml:"ring_style"`
	Reserve1  uint8    `yaml:"reserve1"`
	Index     int      `yaml:"index"`
}

// Contact record offsets
const (
	ctOffName      = 0
	ctOffNumber    = 16
	ctOffCallType  = 20
	ctOffRxTone    = 21
	ctOffRingStyle = 22
	ctOffReserve1  = 23
)

// PackedID returns the number with the private call flag in bits 24-31.
func (c *Contact) PackedID() uint32 {
	if c.CallType == CallTypePrivate {
		return c.Number | PCCallFlag<<24
	}
	return c.Number
}

// TimeslotOverride returns the forced timeslot (1 or 2) or 0 when the
// contact does not override the channel timeslot.
func (c *Contact) TimeslotOverride() int {
	if c.Reserve1&ContactFlagNoTSOverride != 0 {
		return 0
	}
	return int(c.Reserve1&ContactTSOverrideMask)>>1 + 1
}

// SetTimeslotOverride sets the forced timeslot; 0 removes the override.
func (c *Contact) SetTimeslotOverride(ts int) {
	if ts == 0 {
		c.Reserve1 |= ContactFlagNoTSOverride
		return
	}
	c.Reserve1 = c.Reserve1&^(ContactFlagNoTSOverride|ContactTSOverrideMask) | uint8((ts-1)<<1)&ContactTSOverrideMask
}

func decodeContact(b []byte, index int) Contact {
	return Contact{
		Name:      decodeName(b[ctOffName : ctOffName+nameSize]),
		Number:    readBCD32BE(b[ctOffNumber:]),
		CallType:  CallType(b[ctOffCallType]),
		RxTone:    b[ctOffRxTone],
		RingStyle: b[ctOffRingStyle],
		Reserve1:  b[ctOffReserve1],
		Index:     index,
	}
}

func encodeContact(c *Contact) []byte {
	b := make([]byte, ContactRecordSize)
	encodeName(b[ctOffName:ctOffName+nameSize], c.Name)
	putBCD32BE(b[ctOffNumber:], c.Number)
	b[ctOffCallType] = uint8(c.CallType)
	b[ctOffRxTone] = c.RxTone
	b[ctOffRingStyle] = c.RingStyle
	b[ctOffReserve1] = c.Reserve1
	return b
}

// fallbackContact is returned for invalid indices.
func fallbackContact() Contact {
	return Contact{Name: "TG 9", Number: 9, CallType: CallTypeGroup, Reserve1: 0xFF, Index: -1}
}

type cacheEntry struct {
	tag   uint32 // callType<<24 | number
	index int
}

func (e cacheEntry) callType() CallType { return CallType(e.tag >> 24) }
func (e cacheEntry) number() uint32     { return e.tag & 0xFFFFFF }

// known reports whether the entry's call type is group, private or all.
// Records with any other type stay cached but never match a lookup.
func (e cacheEntry) known() bool { return e.callType() < callTypeCount }

func makeTag(number uint32, ct CallType) uint32 {
	return number&0xFFFFFF | uint32(ct)<<24
}

// contactCache is sorted by storage index.
type contactCache struct {
	entries []cacheEntry
	counts  [callTypeCount]int
}

func (c *contactCache) len() int {
	return len(c.entries)
}

func (c *contactCache) reset() {
	c.entries = c.entries[:0]
	c.counts = [callTypeCount]int{}
}

func (c *contactCache) adjust(ct CallType, delta int) {
	if ct < callTypeCount {
		c.counts[ct] += delta
	}
}

func (c *contactCache) find(index int) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].index >= index })
	return i, i < len(c.entries) && c.entries[i].index == index
}

func (c *contactCache) upsert(index int, number uint32, ct CallType) {
	i, found := c.find(index)
	if found {
		c.adjust(c.entries[i].callType(), -1)
		c.entries[i].tag = makeTag(number, ct)
		c.adjust(ct, 1)
		return
	}
	c.entries = append(c.entries, cacheEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = cacheEntry{tag: makeTag(number, ct), index: index}
	c.adjust(ct, 1)
}

func (c *contactCache) remove(index int) {
	i, found := c.find(index)
	if !found {
		return
	}
	c.adjust(c.entries[i].callType(), -1)
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
}

// freeIndex returns the first gap in the index run, one past the last
// index when dense, or 0 when every slot is used.
func (c *contactCache) freeIndex() int {
	last := 0
	for _, e := range c.entries {
		if e.index != last+1 {
			return last + 1
		}
		last = e.index
	}
	if last < ContactsMax {
		return last + 1
	}
	return 0
}

func validContact(index int) error {
	if index < ContactsMin || index > ContactsMax {
		return fmt.Errorf("%w: contact %d", ErrInvalidIndex, index)
	}
	return nil
}

func contactAddress(index int) uint32 {
	return uint32(addrContacts + (index-1)*ContactRecordSize)
}

func (s *Store) initContactsLocked() error {
	s.contacts.reset()

	// One bulk read of the whole table is far cheaper than 1024 transactions.
	table := make([]byte, ContactsMax*ContactRecordSize)
	if err := s.readFlash(addrContacts, table); err != nil {
		return err
	}
	for i := 0; i < ContactsMax; i++ {
		rec := table[i*ContactRecordSize : (i+1)*ContactRecordSize]
		if rec[ctOffName] == 0xFF {
			continue
		}
		ct := CallType(rec[ctOffCallType])
		s.contacts.entries = append(s.contacts.entries, cacheEntry{
			tag:   makeTag(readBCD32BE(rec[ctOffNumber:]), ct),
			index: i + 1,
		})
		s.contacts.adjust(ct, 1)
	}
	s.publishContactsLocked()
	return nil
}

func (s *Store) publishContactsLocked() {
	for ct := CallType(0); ct < callTypeCount; ct++ {
		s.metrics.SetContacts(ct.String(), s.contacts.counts[ct])
	}
}

// ContactsCount returns the number of cached contacts of callType.
func (s *Store) ContactsCount(callType CallType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callType >= callTypeCount {
		return 0
	}
	return s.contacts.counts[callType]
}

func (s *Store) contactLocked(index int) (Contact, error) {
	if s.contacts.len() == 0 || validContact(index) != nil {
		return fallbackContact(), fmt.Errorf("%w: %d", ErrContactNotFound, index)
	}
	buf := make([]byte, ContactRecordSize)
	if err := s.readFlash(contactAddress(index), buf); err != nil {
		return fallbackContact(), err
	}
	return decodeContact(buf, index), nil
}

// Contact loads contact index. An invalid index yields a TG 9 contact
// together with ErrContactNotFound.
func (s *Store) Contact(index int) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contactLocked(index)
}

// ContactForNumberInType returns the number'th (1-based) contact of callType.
func (s *Store) ContactForNumberInType(number int, callType CallType) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.contacts.entries {
		if !e.known() || e.callType() != callType {
			continue
		}
		number--
		if number == 0 {
			return s.contactLocked(e.index)
		}
	}
	return Contact{}, fmt.Errorf("%w: #%d of type %s", ErrContactNotFound, number, callType)
}

// ContactIndexByTGorPC is ContactIndexByTGorPCFromNumber starting at 0.
func (s *Store) ContactIndexByTGorPC(id uint32, callType CallType, ts int) (int, Contact, bool) {
	return s.ContactIndexByTGorPCFromNumber(0, id, callType, ts)
}

// ContactIndexByTGorPCFromNumber scans the cache from position start for a
// contact with the given ID and call type. The all-call ID matches any call
// type. When ts is 1 or 2, a contact whose timeslot override equals ts is
// preferred; otherwise the first match is returned. The result is the cache
// position, or -1.
func (s *Store) ContactIndexByTGorPCFromNumber(start int, id uint32, callType CallType, ts int) (int, Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	firstMatch := -1
	reserve := make([]byte, 1)
	for i := max(start, 0); i < s.contacts.len(); i++ {
		e := s.contacts.entries[i]
		if !e.known() || e.number() != id || (id != AllCallID && e.callType() != callType) {
			continue
		}
		if ts <= 0 {
			c, err := s.contactLocked(e.index)
			return i, c, err == nil
		}
		if err := s.readFlash(contactAddress(e.index)+ctOffReserve1, reserve); err != nil {
			continue
		}
		if reserve[0]&ContactFlagNoTSOverride == 0 && int(reserve[0]&ContactTSOverrideMask)>>1 == ts-1 {
			c, err := s.contactLocked(e.index)
			return i, c, err == nil
		}
		if firstMatch < 0 {
			firstMatch = i
		}
	}

	if firstMatch >= 0 {
		c, err := s.contactLocked(s.contacts.entries[firstMatch].index)
		return firstMatch, c, err == nil
	}
	return -1, Contact{}, false
}

// ContactsContainsPC reports whether a private contact with id exists.
func (s *Store) ContactsContainsPC(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := makeTag(id, CallTypePrivate)
	for _, e := range s.contacts.entries {
		if e.tag == want {
			return true
		}
	}
	return false
}

// ContactFreeIndex returns a free contact slot, or 0 when full.
func (s *Store) ContactFreeIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contacts.freeIndex()
}

// SaveContact writes c to slot index and updates the cache. A contact
// whose name is empty or whose call type is 0xFF is treated as a deletion.
func (s *Store) SaveContact(index int, c Contact) error {
	if err := validContact(index); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := encodeContact(&c)
	err := s.writeFlash(contactAddress(index), rec)
	s.metrics.StoreSave("contact", err)
	if err != nil {
		return err
	}

	if rec[ctOffName] == 0xFF || c.CallType == callTypeErased {
		s.contacts.remove(index)
	} else {
		s.contacts.upsert(index, c.Number, c.CallType)
	}
	s.publishContactsLocked()
	return nil
}

// DeleteContact erases slot index.
func (s *Store) DeleteContact(index int) error {
	return s.SaveContact(index, Contact{CallType: callTypeErased})
}

// ContactInAnyRxGroup reports whether any RX group references contact index.
func (s *Store) ContactInAnyRxGroup(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for g := 1; g <= RxGroupsMax; g++ {
		ids, _, err := s.rxGroupContactsLocked(g)
		if err != nil {
			continue
		}
		for _, id := range ids {
			if int(id) == index {
				return true
			}
		}
	}
	return false
}

// contactEntries returns a copy of the cache, used by tests and dumps.
func (s *Store) contactEntries() []cacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cacheEntry(nil), s.contacts.entries...)
}

// Contacts returns every cached contact in index order.
func (s *Store) Contacts() ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Contact, 0, s.contacts.len())
	for _, e := range s.contacts.entries {
		c, err := s.contactLocked(e.index)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
