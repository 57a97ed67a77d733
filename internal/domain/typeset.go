package domain

import (
	"encoding/json"
	"sort"
)

// TypeSet is an immutable set of request-type ids. Operations return new
// sets; the receiver is never modified, so a set held by an older RangeSet
// snapshot stays valid.
type TypeSet struct {
	m map[string]struct{}
}

// NewTypeSet returns a set containing ids.
func NewTypeSet(ids ...string) TypeSet {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return TypeSet{m: m}
}

// Has reports membership.
func (s TypeSet) Has(id string) bool {
	_, ok := s.m[id]
	return ok
}

// Len returns the number of ids in the set.
func (s TypeSet) Len() int { return len(s.m) }

// IsEmpty reports whether the set has no ids.
func (s TypeSet) IsEmpty() bool { return len(s.m) == 0 }

// IDs returns the ids sorted ascending.
func (s TypeSet) IDs() []string {
	out := make([]string, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// With returns a copy of the set that includes id.
func (s TypeSet) With(id string) TypeSet {
	m := make(map[string]struct{}, len(s.m)+1)
	for k := range s.m {
		m[k] = struct{}{}
	}
	m[id] = struct{}{}
	return TypeSet{m: m}
}

// Without returns a copy of the set that excludes id.
func (s TypeSet) Without(id string) TypeSet {
	m := make(map[string]struct{}, len(s.m))
	for k := range s.m {
		if k != id {
			m[k] = struct{}{}
		}
	}
	return TypeSet{m: m}
}

// Equal reports whether both sets hold the same ids.
func (s TypeSet) Equal(o TypeSet) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for k := range s.m {
		if _, ok := o.m[k]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}
