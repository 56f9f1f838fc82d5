package models

import "encoding/json"

// LikedSet is the insertion-ordered set of post ids the local client has
// marked as liked. The zero value is an empty set.
type LikedSet struct {
	ids []int
}

// NewLikedSet builds a set from ids, dropping duplicates.
func NewLikedSet(ids []int) *LikedSet {
	s := &LikedSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id is in the set.
func (s *LikedSet) Contains(id int) bool {
	return s.index(id) >= 0
}

// Add inserts id. It reports false if id was already present.
func (s *LikedSet) Add(id int) bool {
	if s.Contains(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove deletes id. It reports false if id was not present.
func (s *LikedSet) Remove(id int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return true
}

// IDs returns a copy of the members in insertion order.
func (s *LikedSet) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *LikedSet) Len() int {
	return len(s.ids)
}

// MarshalJSON encodes the set as a JSON integer array.
func (s *LikedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON integer array. null yields an empty set.
func (s *LikedSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = *NewLikedSet(ids)
	return nil
}

func (s *LikedSet) index(id int) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}
