package inherit

import (
	"sync"
	"weak"
)

// reservationSet holds the keys reserved at one level. Each entry remembers,
// weakly, which levels asked for the reservation; once every holder has been
// collected the entry reads as absent and the next sweep drops it. A root
// never pins the child levels that reserved keys through it.
//
// A "not reserved" answer may therefore be stale.
type reservationSet struct {
	mu      sync.RWMutex
	entries map[Key][]weak.Pointer[Level]
}

func newReservationSet() *reservationSet {
	return &reservationSet{entries: make(map[Key][]weak.Pointer[Level])}
}

func (s *reservationSet) add(key Key, holder *Level) {
	ptr := weak.Make(holder)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries[key] {
		if existing == ptr {
			return
		}
	}
	s.entries[key] = append(s.entries[key], ptr)
}

func (s *reservationSet) contains(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, holder := range s.entries[key] {
		if holder.Value() != nil {
			return true
		}
	}
	return false
}

func (s *reservationSet) keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, 0, len(s.entries))
	for key, holders := range s.entries {
		for _, holder := range holders {
			if holder.Value() != nil {
				out = append(out, key)
				break
			}
		}
	}
	return out
}

// sweep drops dead holders and empty entries, returning the number of keys
// removed.
func (s *reservationSet) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, holders := range s.entries {
		live := holders[:0]
		for _, holder := range holders {
			if holder.Value() != nil {
				live = append(live, holder)
			}
		}
		if len(live) == 0 {
			delete(s.entries, key)
			removed++
			continue
		}
		s.entries[key] = live
	}
	return removed
}
