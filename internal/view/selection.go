package view

import (
	"maps"
	"slices"
)

// Selection is a set of selected record IDs. The zero value is not usable;
// call NewSelection.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle flips membership of id.
func (s *Selection) Toggle(id int64) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// ToggleAll deselects exactly the visible IDs when all of them are selected,
// and selects all of them otherwise. IDs outside visible are never touched.
func (s *Selection) ToggleAll(visible []int64) {
	if s.AllSelected(visible) {
		for _, id := range visible {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// AllSelected reports whether visible is non-empty and every ID in it is
// selected.
func (s *Selection) AllSelected(visible []int64) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected IDs.
func (s *Selection) Len() int { return len(s.ids) }

// Clear deselects everything.
func (s *Selection) Clear() { clear(s.ids) }

// IDs returns the selected IDs in ascending order.
func (s *Selection) IDs() []int64 {
	return slices.Sorted(maps.Keys(s.ids))
}
