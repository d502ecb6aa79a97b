package codeplug

import (
	"encoding/binary"
	"fmt"
)

// RxGroup is a receive group list: the contacts whose talkgroups are
// monitored on a channel.
type RxGroup struct {
	Name       string   `yaml:"name"`
	Contacts   []uint16 `yaml:"contacts"`
	TalkGroups []uint32 `yaml:"talk_groups"`
	Index      int      `yaml:"index"`
}

func (s *Store) initRxGroupsLocked() error {
	return s.readFlash(addrRxGroupLen, s.rxGroupLengths[:])
}

func (s *Store) rxGroupInUseLocked(index int) bool {
	if index < 1 || index > RxGroupsMax {
		return false
	}
	n := s.rxGroupLengths[index-1]
	return n != 0 && n != 0xFF
}

// rxGroupContactsLocked returns the contact indices of group index up to the
// first zero entry, and the group name.
func (s *Store) rxGroupContactsLocked(index int) ([]uint16, string, error) {
	if !s.rxGroupInUseLocked(index) {
		return nil, "", fmt.Errorf("%w: %d", ErrRxGroupNotFound, index)
	}

	rec := make([]byte, RxGroupRecordSize)
	if err := s.readFlash(uint32(addrRxGroup+(index-1)*RxGroupRecordSize), rec); err != nil {
		return nil, "", err
	}

	ids := make([]uint16, 0, RxGroupTGMax)
	for i := 0; i < RxGroupTGMax; i++ {
		id := binary.LittleEndian.Uint16(rec[nameSize+2*i:])
		if id == 0 {
			break
		}
		ids = append(ids, id)
	}
	return ids, decodeName(rec[:nameSize]), nil
}

// RxGroup loads group index (1-based) and resolves the talkgroup number of
// each member contact.
func (s *Store) RxGroup(index int) (RxGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, name, err := s.rxGroupContactsLocked(index)
	if err != nil {
		return RxGroup{Index: index}, err
	}

	g := RxGroup{Name: name, Contacts: ids, TalkGroups: make([]uint32, len(ids)), Index: index}
	for i, id := range ids {
		c, err := s.contactLocked(int(id))
		if err != nil {
			s.logger.Debug("rx group references missing contact", "group", index, "contact", id)
		}
		g.TalkGroups[i] = c.Number
	}
	return g, nil
}

// RxGroupsCount returns the number of groups in use.
func (s *Store) RxGroupsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := 1; i <= RxGroupsMax; i++ {
		if s.rxGroupInUseLocked(i) {
			n++
		}
	}
	return n
}
