package canvas

import (
	"maps"
	"slices"
)

// Selection tracks selected cards, sections and connections. A plain click
// replaces the whole selection; an additive click toggles one id in its own set.
type Selection struct {
	cards       map[string]struct{}
	sections    map[string]struct{}
	connections map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{
		cards:       map[string]struct{}{},
		sections:    map[string]struct{}{},
		connections: map[string]struct{}{},
	}
}

func (s *Selection) SelectCard(id string, additive bool) { s.pick(s.cards, id, additive) }

func (s *Selection) SelectSection(id string, additive bool) { s.pick(s.sections, id, additive) }

func (s *Selection) SelectConnection(id string, additive bool) {
	s.pick(s.connections, id, additive)
}

// Clear empties every set.
func (s *Selection) Clear() {
	clear(s.cards)
	clear(s.sections)
	clear(s.connections)
}

// Forget drops id from whichever set holds it, e.g. after the entity is deleted.
func (s *Selection) Forget(id string) {
	delete(s.cards, id)
	delete(s.sections, id)
	delete(s.connections, id)
}

func (s *Selection) HasCard(id string) bool {
	_, ok := s.cards[id]
	return ok
}

func (s *Selection) HasSection(id string) bool {
	_, ok := s.sections[id]
	return ok
}

func (s *Selection) HasConnection(id string) bool {
	_, ok := s.connections[id]
	return ok
}

// Cards returns the selected card ids in sorted order.
func (s *Selection) Cards() []string { return sortedKeys(s.cards) }

func (s *Selection) Sections() []string { return sortedKeys(s.sections) }

func (s *Selection) Connections() []string { return sortedKeys(s.connections) }

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool {
	return len(s.cards) == 0 && len(s.sections) == 0 && len(s.connections) == 0
}

func (s *Selection) pick(set map[string]struct{}, id string, additive bool) {
	if !additive {
		s.Clear()
		set[id] = struct{}{}
		return
	}
	if _, ok := set[id]; ok {
		delete(set, id)
		return
	}
	set[id] = struct{}{}
}

func sortedKeys(m map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(m))
}
