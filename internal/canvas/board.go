package canvas

import (
	"slices"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

// Undo reverts one mutation. It only touches the entities that mutation
// changed, so it stays correct when later, unrelated mutations have been
// applied in between. Entities that have since disappeared are skipped.
type Undo func()

// Chain runs undos in reverse order.
func Chain(undos ...Undo) Undo {
	return func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}
}

// Board is the in-memory aggregate of one board. Every mutation of sections,
// cards and connections funnels through it so the invariants hold:
//   - a card's section id references a section of this board
//   - no connection references a missing card
//   - no self connections, at most one connection per unordered card pair
//   - section dimensions are never negative
//
// Board is not safe for concurrent use; package workspace serialises access.
type Board struct {
	m     *model.Board
	now   func() time.Time
	newID func() string
}

// Option configures a Board.
type Option func(*Board)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDs replaces the xid generator.
func WithIDs(newID func() string) Option {
	return func(b *Board) { b.newID = newID }
}

// NewBoard wraps m. The aggregate takes ownership of m.
func NewBoard(m *model.Board, opts ...Option) *Board {
	b := &Board{
		m:     m,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(b)
	}
	m.Viewport.Zoom = model.ClampZoom(m.Viewport.Zoom)
	return b
}

// ID returns the board ID.
func (b *Board) ID() string { return b.m.ID }

// Snapshot returns a deep copy of the current state.
func (b *Board) Snapshot() *model.Board { return b.m.Clone() }

// SetViewport stores the viewport on the board model.
func (b *Board) SetViewport(vp model.Viewport) {
	vp.Zoom = model.ClampZoom(vp.Zoom)
	b.m.Viewport = vp
}

// Card looks up a card by ID.
func (b *Board) Card(id string) (model.Card, bool) {
	i := b.cardIndex(id)
	if i < 0 {
		return model.Card{}, false
	}
	return b.m.Cards[i].Clone(), true
}

// Section looks up a section by ID.
func (b *Board) Section(id string) (model.Section, bool) {
	i := b.sectionIndex(id)
	if i < 0 {
		return model.Section{}, false
	}
	return b.m.Sections[i], true
}

// Connection looks up a connection by ID.
func (b *Board) Connection(id string) (model.Connection, bool) {
	i := b.connectionIndex(id)
	if i < 0 {
		return model.Connection{}, false
	}
	return b.m.Connections[i], true
}

// ============================================================
// Sections
// ============================================================

// NewSection is the input of AddSection. A zero Size means the default frame.
type NewSection struct {
	ID       string
	Name     string
	Position model.Point
	Size     model.Size
	Color    string
}

// SectionPatch holds the fields UpdateSection may change. Nil means unchanged.
type SectionPatch struct {
	Name        *string
	Position    *model.Point
	Width       *float64
	Height      *float64
	Color       *string
	IsCollapsed *bool
}

// AddSection places a new section. A blank name is a validation error.
func (b *Board) AddSection(in NewSection) (model.Section, Undo, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Section{}, nil, apperror.ValidationFailed("name", "section name is required")
	}
	size := in.Size
	if size == (model.Size{}) {
		size = model.Size{Width: model.DefaultSectionWidth, Height: model.DefaultSectionHeight}
	}
	if size.Width < 0 || size.Height < 0 {
		return model.Section{}, nil, apperror.ValidationFailed("size", "section size must not be negative")
	}
	id, err := b.claimID(in.ID, b.sectionIndex)
	if err != nil {
		return model.Section{}, nil, err
	}

	now := b.now()
	s := model.NewSection(name, in.Position, size)
	s.ID = id
	s.BoardID = b.m.ID
	s.Color = in.Color
	s.CreatedAt, s.UpdatedAt = now, now

	b.m.Sections = append(b.m.Sections, s)
	b.touch(now)
	return s, b.removeSectionUndo(id), nil
}

// UpdateSection merges p into the section. Changing Position here does not
// move member cards; use MoveSection for that.
func (b *Board) UpdateSection(id string, p SectionPatch) (model.Section, Undo, error) {
	i := b.sectionIndex(id)
	if i < 0 {
		return model.Section{}, nil, apperror.NotFound("section", id)
	}
	if (p.Width != nil && *p.Width < 0) || (p.Height != nil && *p.Height < 0) {
		return model.Section{}, nil, apperror.ValidationFailed("size", "section size must not be negative")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return model.Section{}, nil, apperror.ValidationFailed("name", "section name is required")
	}

	prev := b.m.Sections[i]
	s := &b.m.Sections[i]
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Position != nil {
		s.MoveTo(*p.Position)
	}
	size := s.Size()
	if p.Width != nil {
		size.Width = *p.Width
	}
	if p.Height != nil {
		size.Height = *p.Height
	}
	s.Resize(size)
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.IsCollapsed != nil {
		s.IsCollapsed = *p.IsCollapsed
	}
	now := b.now()
	s.UpdatedAt = now
	b.touch(now)
	return *s, b.restoreSectionUndo(prev), nil
}

// MoveSection moves the section's top-left corner to pos and translates its
// member cards by the same delta. It returns the section and the moved cards.
func (b *Board) MoveSection(id string, pos model.Point) (model.Section, []model.Card, Undo, error) {
	i := b.sectionIndex(id)
	if i < 0 {
		return model.Section{}, nil, nil, apperror.NotFound("section", id)
	}
	prev := b.m.Sections[i]
	delta := pos.Sub(prev.Position)
	now := b.now()

	s := &b.m.Sections[i]
	s.MoveTo(pos)
	s.UpdatedAt = now

	undos := []Undo{b.restoreSectionUndo(prev)}
	var moved []model.Card
	for j := range b.m.Cards {
		c := &b.m.Cards[j]
		if !c.InSection(id) {
			continue
		}
		undos = append(undos, b.restoreCardUndo(c.Clone()))
		c.Position = c.Position.Add(delta)
		c.UpdatedAt = now
		moved = append(moved, c.Clone())
	}
	b.touch(now)
	return *s, moved, Chain(undos...), nil
}

// DeleteSection removes the section and unsections its cards. Cards are never
// deleted with their section. It returns the ids of the unsectioned cards.
func (b *Board) DeleteSection(id string) ([]string, Undo, error) {
	i := b.sectionIndex(id)
	if i < 0 {
		return nil, nil, apperror.NotFound("section", id)
	}
	removed := b.m.Sections[i]
	b.m.Sections = slices.Delete(b.m.Sections, i, i+1)

	now := b.now()
	var released []string
	for j := range b.m.Cards {
		c := &b.m.Cards[j]
		if c.InSection(id) {
			c.SectionID = nil
			c.UpdatedAt = now
			released = append(released, c.ID)
		}
	}
	b.touch(now)

	undo := func() {
		if b.sectionIndex(removed.ID) >= 0 {
			return
		}
		at := min(i, len(b.m.Sections))
		b.m.Sections = slices.Insert(b.m.Sections, at, removed)
		for _, cardID := range released {
			if k := b.cardIndex(cardID); k >= 0 && b.m.Cards[k].SectionID == nil {
				b.m.Cards[k].SectionID = model.StringPtr(removed.ID)
			}
		}
	}
	return released, undo, nil
}

// SectionAt returns the top-most expanded section whose bounds contain p.
// Later sections are drawn above earlier ones.
func (b *Board) SectionAt(p model.Point) (model.Section, bool) {
	for i := len(b.m.Sections) - 1; i >= 0; i-- {
		s := b.m.Sections[i]
		if s.IsCollapsed {
			continue
		}
		if s.Bounds.Contains(p) {
			return s, true
		}
	}
	return model.Section{}, false
}

// ============================================================
// Cards
// ============================================================

// NewCard is the input of AddCard.
type NewCard struct {
	ID        string
	Position  model.Point
	SectionID *string
	NoteID    string
	Content   model.Content
}

// CardPatch holds the fields UpdateCard may change. Content fields that do
// not apply to the card's variant are ignored.
type CardPatch struct {
	Position  *model.Point
	SectionID model.Optional[string]
	Content   ContentPatch
}

// ContentPatch is a shallow merge over whichever content variant a card has.
type ContentPatch struct {
	Title        *string
	Content      *string
	AccentColor  *string
	ImageURL     *string
	Caption      *string
	URL          *string
	Description  *string
	Favicon      *string
	PreviewImage *string
}

// AddCard places a new card, optionally inside an existing section.
func (b *Board) AddCard(in NewCard) (model.Card, Undo, error) {
	if in.Content == nil {
		return model.Card{}, nil, apperror.ValidationFailed("type", "card content is required")
	}
	if in.SectionID != nil && b.sectionIndex(*in.SectionID) < 0 {
		return model.Card{}, nil, apperror.NotFound("section", *in.SectionID)
	}
	id, err := b.claimID(in.ID, b.cardIndex)
	if err != nil {
		return model.Card{}, nil, err
	}

	now := b.now()
	c := model.Card{
		ID:        id,
		BoardID:   b.m.ID,
		Position:  in.Position,
		NoteID:    in.NoteID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.SectionID != nil {
		c.SectionID = model.StringPtr(*in.SectionID)
	}
	b.m.Cards = append(b.m.Cards, c)
	b.touch(now)
	return c.Clone(), b.removeCardUndo(id), nil
}

// UpdateCard applies p to a card and returns the updated card.
func (b *Board) UpdateCard(id string, p CardPatch) (model.Card, Undo, error) {
	i := b.cardIndex(id)
	if i < 0 {
		return model.Card{}, nil, apperror.NotFound("card", id)
	}
	if p.SectionID.Set && p.SectionID.Value != nil && b.sectionIndex(*p.SectionID.Value) < 0 {
		return model.Card{}, nil, apperror.NotFound("section", *p.SectionID.Value)
	}

	prev := b.m.Cards[i].Clone()
	c := &b.m.Cards[i]
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.SectionID.Set {
		c.SectionID = nil
		if p.SectionID.Value != nil {
			c.SectionID = model.StringPtr(*p.SectionID.Value)
		}
	}
	c.Content = p.Content.apply(c.Content)
	now := b.now()
	c.UpdatedAt = now
	b.touch(now)
	return c.Clone(), b.restoreCardUndo(prev), nil
}

// MoveCard sets the card's position only.
func (b *Board) MoveCard(id string, pos model.Point) (model.Card, Undo, error) {
	return b.UpdateCard(id, CardPatch{Position: &pos})
}

// DeleteCard removes the card and every connection touching it. It returns the
// removed connections.
func (b *Board) DeleteCard(id string) ([]model.Connection, Undo, error) {
	i := b.cardIndex(id)
	if i < 0 {
		return nil, nil, apperror.NotFound("card", id)
	}
	removed := b.m.Cards[i]
	b.m.Cards = slices.Delete(b.m.Cards, i, i+1)

	var dropped []model.Connection
	b.m.Connections = slices.DeleteFunc(b.m.Connections, func(conn model.Connection) bool {
		if conn.Touches(id) {
			dropped = append(dropped, conn)
			return true
		}
		return false
	})
	b.touch(b.now())

	undo := func() {
		if b.cardIndex(removed.ID) >= 0 {
			return
		}
		c := removed.Clone()
		if c.SectionID != nil && b.sectionIndex(*c.SectionID) < 0 {
			c.SectionID = nil
		}
		b.m.Cards = slices.Insert(b.m.Cards, min(i, len(b.m.Cards)), c)
		for _, conn := range dropped {
			if b.canRestore(conn) {
				b.m.Connections = append(b.m.Connections, conn)
			}
		}
	}
	return dropped, undo, nil
}

// DuplicateCard copies the card's content into a new card offset by
// (DuplicateOffset, DuplicateOffset) in the same section.
func (b *Board) DuplicateCard(id string) (model.Card, Undo, error) {
	src, ok := b.Card(id)
	if !ok {
		return model.Card{}, nil, apperror.NotFound("card", id)
	}
	return b.AddCard(NewCard{
		Position:  src.Position.Add(model.Point{X: model.DuplicateOffset, Y: model.DuplicateOffset}),
		SectionID: src.SectionID,
		Content:   src.Content,
	})
}

// DropTarget returns the section a card would join if dropped where it is
// now: the top-most expanded section containing the card's centre, or nil.
func (b *Board) DropTarget(cardID string) (*string, error) {
	c, ok := b.Card(cardID)
	if !ok {
		return nil, apperror.NotFound("card", cardID)
	}
	s, ok := b.SectionAt(c.Bounds().Center())
	if !ok {
		return nil, nil
	}
	return model.StringPtr(s.ID), nil
}

// ============================================================
// Connections
// ============================================================

// NewConnection is the input of AddConnection. Empty sides default to
// bottom (from) and top (to).
type NewConnection struct {
	ID    string
	From  model.Anchor
	To    model.Anchor
	Color string
	Label string
}

// AddConnection links two different cards at most once per pair.
func (b *Board) AddConnection(in NewConnection) (model.Connection, Undo, error) {
	from, to := in.From, in.To
	if from.Side == "" {
		from.Side = model.DefaultFromSide
	}
	if to.Side == "" {
		to.Side = model.DefaultToSide
	}
	if !from.Side.Valid() {
		return model.Connection{}, nil, apperror.ValidationFailed("fromAnchor", "invalid anchor side "+string(from.Side))
	}
	if !to.Side.Valid() {
		return model.Connection{}, nil, apperror.ValidationFailed("toAnchor", "invalid anchor side "+string(to.Side))
	}
	if from.CardID == to.CardID {
		return model.Connection{}, nil, apperror.ValidationFailed("toCardId", "a card cannot connect to itself")
	}
	for _, cardID := range []string{from.CardID, to.CardID} {
		if b.cardIndex(cardID) < 0 {
			return model.Connection{}, nil, apperror.NotFound("card", cardID)
		}
	}
	if b.joined(from.CardID, to.CardID) {
		return model.Connection{}, nil, apperror.Duplicate("connection", from.CardID+" <-> "+to.CardID)
	}
	id, err := b.claimID(in.ID, b.connectionIndex)
	if err != nil {
		return model.Connection{}, nil, err
	}

	now := b.now()
	conn := model.Connection{
		ID:        id,
		BoardID:   b.m.ID,
		From:      from,
		To:        to,
		Color:     in.Color,
		Label:     in.Label,
		CreatedAt: now,
	}
	b.m.Connections = append(b.m.Connections, conn)
	b.touch(now)

	undo := func() {
		if k := b.connectionIndex(id); k >= 0 {
			b.m.Connections = slices.Delete(b.m.Connections, k, k+1)
		}
	}
	return conn, undo, nil
}

// DeleteConnection removes a connection.
func (b *Board) DeleteConnection(id string) (Undo, error) {
	i := b.connectionIndex(id)
	if i < 0 {
		return nil, apperror.NotFound("connection", id)
	}
	removed := b.m.Connections[i]
	b.m.Connections = slices.Delete(b.m.Connections, i, i+1)
	b.touch(b.now())

	return func() {
		if b.canRestore(removed) {
			b.m.Connections = slices.Insert(b.m.Connections, min(i, len(b.m.Connections)), removed)
		}
	}, nil
}

// ============================================================
// helpers
// ============================================================

func (p ContentPatch) apply(c model.Content) model.Content {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	switch v := c.(type) {
	case model.TextContent:
		set(&v.Title, p.Title)
		set(&v.Content, p.Content)
		set(&v.AccentColor, p.AccentColor)
		return v
	case model.MediaContent:
		set(&v.ImageURL, p.ImageURL)
		set(&v.Title, p.Title)
		set(&v.Caption, p.Caption)
		return v
	case model.LinkContent:
		set(&v.Title, p.Title)
		set(&v.URL, p.URL)
		set(&v.Description, p.Description)
		set(&v.Favicon, p.Favicon)
		set(&v.PreviewImage, p.PreviewImage)
		return v
	}
	return c
}

// claimID returns want, or a fresh id when want is empty. A wanted id that is
// already taken is a conflict.
func (b *Board) claimID(want string, index func(string) int) (string, error) {
	if want == "" {
		return b.newID(), nil
	}
	if index(want) >= 0 {
		return "", apperror.Conflict("entity", want)
	}
	return want, nil
}

func (b *Board) touch(now time.Time) { b.m.UpdatedAt = now }

func (b *Board) joined(a, c string) bool {
	return slices.ContainsFunc(b.m.Connections, func(conn model.Connection) bool {
		return conn.Joins(a, c)
	})
}

func (b *Board) canRestore(conn model.Connection) bool {
	return b.connectionIndex(conn.ID) < 0 &&
		b.cardIndex(conn.From.CardID) >= 0 &&
		b.cardIndex(conn.To.CardID) >= 0 &&
		!b.joined(conn.From.CardID, conn.To.CardID)
}

func (b *Board) removeSectionUndo(id string) Undo {
	return func() {
		if k := b.sectionIndex(id); k >= 0 {
			b.m.Sections = slices.Delete(b.m.Sections, k, k+1)
			for j := range b.m.Cards {
				if b.m.Cards[j].InSection(id) {
					b.m.Cards[j].SectionID = nil
				}
			}
		}
	}
}

func (b *Board) restoreSectionUndo(prev model.Section) Undo {
	return func() {
		if k := b.sectionIndex(prev.ID); k >= 0 {
			b.m.Sections[k] = prev
		}
	}
}

func (b *Board) removeCardUndo(id string) Undo {
	return func() {
		if k := b.cardIndex(id); k >= 0 {
			b.m.Cards = slices.Delete(b.m.Cards, k, k+1)
			b.m.Connections = slices.DeleteFunc(b.m.Connections, func(conn model.Connection) bool {
				return conn.Touches(id)
			})
		}
	}
}

func (b *Board) restoreCardUndo(prev model.Card) Undo {
	return func() {
		k := b.cardIndex(prev.ID)
		if k < 0 {
			return
		}
		if prev.SectionID != nil && b.sectionIndex(*prev.SectionID) < 0 {
			prev.SectionID = nil
		}
		b.m.Cards[k] = prev
	}
}

func (b *Board) sectionIndex(id string) int {
	return slices.IndexFunc(b.m.Sections, func(s model.Section) bool { return s.ID == id })
}

func (b *Board) cardIndex(id string) int {
	return slices.IndexFunc(b.m.Cards, func(c model.Card) bool { return c.ID == id })
}

func (b *Board) connectionIndex(id string) int {
	return slices.IndexFunc(b.m.Connections, func(c model.Connection) bool { return c.ID == id })
}
