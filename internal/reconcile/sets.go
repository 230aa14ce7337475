// Package reconcile turns the follower and following id lists into bounded,
// randomized follow and unfollow actions while growing the permanent ignore set.
package reconcile

import "github.com/edgard/followbot/internal/social"

// IDSet is a membership index over an id list.
type IDSet map[social.UserID]struct{}

// NewIDSet indexes ids. Duplicates collapse.
func NewIDSet(ids []social.UserID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set.
func (s IDSet) Has(id social.UserID) bool {
	_, ok := s[id]
	return ok
}

// IgnoreSet is the append-only set of accounts that must never be followed
// automatically again. Insertion order is kept so it serializes stably.
type IgnoreSet struct {
	ids   []social.UserID
	index IDSet
}

// NewIgnoreSet builds an ignore set from ids, dropping duplicates.
func NewIgnoreSet(ids ...social.UserID) *IgnoreSet {
	s := &IgnoreSet{index: make(IDSet, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether the set grew.
func (s *IgnoreSet) Add(id social.UserID) bool {
	if s.index == nil {
		s.index = make(IDSet)
	}
	if s.index.Has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Has reports whether id is ignored.
func (s *IgnoreSet) Has(id social.UserID) bool {
	return s.index.Has(id)
}

// Len returns the number of ignored ids.
func (s *IgnoreSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ignored ids in insertion order.
func (s *IgnoreSet) IDs() []social.UserID {
	out := make([]social.UserID, len(s.ids))
	copy(out, s.ids)
	return out
}
