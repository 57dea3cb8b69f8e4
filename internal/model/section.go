package model

import "time"

// Default section frame size, used when a create request omits width/height.
const (
	DefaultSectionWidth  = 400
	DefaultSectionHeight = 300
)

// Section is a rectangular frame that groups cards.
//
// Position is the canonical top-left corner; Bounds.X/Y are kept equal to it
// by MoveTo, and every code path that changes the position goes through it.
type Section struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"boardId,omitempty"`
	Name        string    `json:"name"`
	Position    Point     `json:"position"`
	Bounds      Bounds    `json:"bounds"`
	Color       string    `json:"color,omitempty"`
	IsCollapsed bool      `json:"isCollapsed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewSection builds a section at pos with the given frame size. Negative sizes
// are clamped to zero.
func NewSection(name string, pos Point, size Size) Section {
	s := Section{Name: name}
	s.MoveTo(pos)
	s.Resize(size)
	return s
}

// MoveTo sets the section's top-left corner.
func (s *Section) MoveTo(p Point) {
	s.Position = p
	s.Bounds.X = p.X
	s.Bounds.Y = p.Y
}

// Resize sets the frame size; negative dimensions become zero.
func (s *Section) Resize(size Size) {
	s.Bounds.Width = nonNegative(size.Width)
	s.Bounds.Height = nonNegative(size.Height)
}

// Size returns the frame size.
func (s Section) Size() Size {
	return Size{Width: s.Bounds.Width, Height: s.Bounds.Height}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
