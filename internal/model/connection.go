package model

import (
	"fmt"
	"time"
)

// Side names the edge of a card a connection attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Default anchor sides used when a create request omits them.
const (
	DefaultFromSide = SideBottom
	DefaultToSide   = SideTop
)

// Valid reports whether s is one of the four named sides.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// ParseSide converts a string to a Side. An empty string yields def.
func ParseSide(v string, def Side) (Side, error) {
	if v == "" {
		return def, nil
	}
	s := Side(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid anchor side %q", v)
	}
	return s, nil
}

// Anchor is one end of a connection: a card and the side it attaches to.
// The JSON key "position" matches the wire format used by the web client.
type Anchor struct {
	CardID string `json:"cardId"`
	Side   Side   `json:"position"`
}

// Connection is a directed link between two cards.
type Connection struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId,omitempty"`
	From      Anchor    `json:"from"`
	To        Anchor    `json:"to"`
	Color     string    `json:"color,omitempty"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Touches reports whether either endpoint references cardID.
func (c Connection) Touches(cardID string) bool {
	return c.From.CardID == cardID || c.To.CardID == cardID
}

// Joins reports whether c links a and b in either direction.
func (c Connection) Joins(a, b string) bool {
	return (c.From.CardID == a && c.To.CardID == b) ||
		(c.From.CardID == b && c.To.CardID == a)
}
