package snapshot

import (
	"context"
	"slices"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/workspace"
)

var _ workspace.Persister = (*Store)(nil)

// LoadBoard returns a copy of the stored board.
func (s *Store) LoadBoard(_ context.Context, id string) (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, apperror.NotFound("board", id)
	}
	return s.doc.Boards[i].Clone(), nil
}

func (s *Store) SaveViewport(_ context.Context, boardID string, vp model.Viewport) error {
	return s.mutate(boardID, func(b *model.Board) error {
		vp.Zoom = model.ClampZoom(vp.Zoom)
		b.Viewport = vp
		return nil
	})
}

func (s *Store) CreateSection(_ context.Context, boardID string, sec model.Section) error {
	return s.mutate(boardID, func(b *model.Board) error {
		if slices.ContainsFunc(b.Sections, func(x model.Section) bool { return x.ID == sec.ID }) {
			return apperror.Conflict("section", sec.ID)
		}
		b.Sections = append(b.Sections, sec)
		return nil
	})
}

func (s *Store) UpdateSection(_ context.Context, boardID string, sec model.Section) error {
	return s.mutate(boardID, func(b *model.Board) error {
		i := slices.IndexFunc(b.Sections, func(x model.Section) bool { return x.ID == sec.ID })
		if i < 0 {
			return apperror.NotFound("section", sec.ID)
		}
		b.Sections[i] = sec
		return nil
	})
}

// DeleteSection removes the section and unsections its cards, matching the
// server's cascade.
func (s *Store) DeleteSection(_ context.Context, boardID, id string) error {
	return s.mutate(boardID, func(b *model.Board) error {
		i := slices.IndexFunc(b.Sections, func(x model.Section) bool { return x.ID == id })
		if i < 0 {
			return apperror.NotFound("section", id)
		}
		b.Sections = slices.Delete(b.Sections, i, i+1)
		for j := range b.Cards {
			if b.Cards[j].InSection(id) {
				b.Cards[j].SectionID = nil
			}
		}
		return nil
	})
}

func (s *Store) CreateCard(_ context.Context, boardID string, c model.Card) error {
	return s.mutate(boardID, func(b *model.Board) error {
		if slices.ContainsFunc(b.Cards, func(x model.Card) bool { return x.ID == c.ID }) {
			return apperror.Conflict("card", c.ID)
		}
		b.Cards = append(b.Cards, c.Clone())
		return nil
	})
}

func (s *Store) UpdateCard(_ context.Context, boardID string, c model.Card) error {
	return s.mutate(boardID, func(b *model.Board) error {
		i := slices.IndexFunc(b.Cards, func(x model.Card) bool { return x.ID == c.ID })
		if i < 0 {
			return apperror.NotFound("card", c.ID)
		}
		b.Cards[i] = c.Clone()
		return nil
	})
}

// DeleteCard removes the card and every connection touching it.
func (s *Store) DeleteCard(_ context.Context, boardID, id string) error {
	return s.mutate(boardID, func(b *model.Board) error {
		i := slices.IndexFunc(b.Cards, func(x model.Card) bool { return x.ID == id })
		if i < 0 {
			return apperror.NotFound("card", id)
		}
		b.Cards = slices.Delete(b.Cards, i, i+1)
		b.Connections = slices.DeleteFunc(b.Connections, func(c model.Connection) bool { return c.Touches(id) })
		return nil
	})
}

func (s *Store) CreateConnection(_ context.Context, boardID string, c model.Connection) error {
	return s.mutate(boardID, func(b *model.Board) error {
		for _, x := range b.Connections {
			if x.ID == c.ID {
				return apperror.Conflict("connection", c.ID)
			}
			if x.Joins(c.From.CardID, c.To.CardID) {
				return apperror.Duplicate("connection", c.From.CardID+" <-> "+c.To.CardID)
			}
		}
		b.Connections = append(b.Connections, c)
		return nil
	})
}

func (s *Store) DeleteConnection(_ context.Context, boardID, id string) error {
	return s.mutate(boardID, func(b *model.Board) error {
		i := slices.IndexFunc(b.Connections, func(x model.Connection) bool { return x.ID == id })
		if i < 0 {
			return apperror.NotFound("connection", id)
		}
		b.Connections = slices.Delete(b.Connections, i, i+1)
		return nil
	})
}
