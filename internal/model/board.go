package model

import "time"

// Board is one canvas document. It owns its sections, cards and connections.
type Board struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	Sections    []Section    `json:"sections"`
	Cards       []Card       `json:"cards"`
	Connections []Connection `json:"connections"`
	Viewport    Viewport     `json:"viewport"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// BoardSummary is a board without its nested entities, as shown in board lists.
type BoardSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Zoom        float64   `json:"zoom"`
	PanX        float64   `json:"panX"`
	PanY        float64   `json:"panY"`
	CardCount   int       `json:"cardCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary strips the nested entities and counts the cards.
func (b *Board) Summary() BoardSummary {
	return BoardSummary{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Thumbnail:   b.Thumbnail,
		Zoom:        b.Viewport.Zoom,
		PanX:        b.Viewport.PanX,
		PanY:        b.Viewport.PanY,
		CardCount:   len(b.Cards),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := *b
	out.Sections = append([]Section(nil), b.Sections...)
	out.Connections = append([]Connection(nil), b.Connections...)
	out.Cards = make([]Card, len(b.Cards))
	for i, c := range b.Cards {
		out.Cards[i] = c.Clone()
	}
	return &out
}

// Extent returns the rectangle covering every section and card, and false if
// the board is empty.
func (b *Board) Extent() (Bounds, bool) {
	var ext Bounds
	found := false
	add := func(r Bounds) {
		if !found {
			ext, found = r, true
			return
		}
		ext = ext.Union(r)
	}
	for _, s := range b.Sections {
		add(s.Bounds)
	}
	for _, c := range b.Cards {
		add(c.Bounds())
	}
	return ext, found
}
