package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Card footprint assumed by layout, rendering and drop hit-testing.
const (
	CardWidth  = 260
	CardHeight = 150
)

// DuplicateOffset is how far a duplicated card is shifted from its source.
const DuplicateOffset = 20

// CardKind discriminates the Content variants.
type CardKind string

const (
	KindText  CardKind = "text"
	KindMedia CardKind = "media"
	KindLink  CardKind = "link"
)

// Valid reports whether k names a known variant.
func (k CardKind) Valid() bool {
	switch k {
	case KindText, KindMedia, KindLink:
		return true
	}
	return false
}

// Content is the variant-specific payload of a card. The set of
// implementations is closed: TextContent, MediaContent and LinkContent.
type Content interface {
	Kind() CardKind
	// Heading is the line shown in a card's header.
	Heading() string
	isContent()
}

// TextContent is a titled block of free text.
type TextContent struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	AccentColor string `json:"accentColor,omitempty"`
}

// MediaContent is an image with optional title and caption.
type MediaContent struct {
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// LinkContent is a bookmarked URL with optional preview metadata.
type LinkContent struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description,omitempty"`
	Favicon      string `json:"favicon,omitempty"`
	PreviewImage string `json:"previewImage,omitempty"`
}

func (TextContent) Kind() CardKind  { return KindText }
func (MediaContent) Kind() CardKind { return KindMedia }
func (LinkContent) Kind() CardKind  { return KindLink }

func (c TextContent) Heading() string { return c.Title }
func (c LinkContent) Heading() string { return c.Title }

func (c MediaContent) Heading() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Caption
}

func (TextContent) isContent()  {}
func (MediaContent) isContent() {}
func (LinkContent) isContent()  {}

// Card is a positioned content unit on a board.
type Card struct {
	ID        string
	BoardID   string
	Position  Point
	SectionID *string
	NoteID    string
	Content   Content
	// Note is the server-side note the card's title and body come from. It
	// is only populated by the REST server.
	Note      *Note
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Kind returns the content variant, or "" if the card has no content.
func (c Card) Kind() CardKind {
	if c.Content == nil {
		return ""
	}
	return c.Content.Kind()
}

// Bounds returns the card's footprint in world space.
func (c Card) Bounds() Bounds {
	return Bounds{X: c.Position.X, Y: c.Position.Y, Width: CardWidth, Height: CardHeight}
}

// InSection reports whether the card belongs to the section with the given id.
func (c Card) InSection(id string) bool {
	return c.SectionID != nil && *c.SectionID == id
}

// Clone returns a copy that shares no pointers with c.
func (c Card) Clone() Card {
	out := c
	if c.SectionID != nil {
		id := *c.SectionID
		out.SectionID = &id
	}
	if c.Note != nil {
		n := *c.Note
		n.Tags = append([]string(nil), c.Note.Tags...)
		out.Note = &n
	}
	return out
}

// StringPtr returns a pointer to s. Used for optional section ids.
func StringPtr(s string) *string { return &s }

// cardJSON is the flattened wire shape of a card: the content fields sit next
// to the common ones and "type" selects which of them are meaningful.
type cardJSON struct {
	ID           string    `json:"id"`
	BoardID      string    `json:"boardId,omitempty"`
	Type         CardKind  `json:"type"`
	Position     Point     `json:"position"`
	SectionID    *string   `json:"sectionId"`
	NoteID       string    `json:"noteId,omitempty"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content,omitempty"`
	AccentColor  string    `json:"accentColor,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	URL          string    `json:"url,omitempty"`
	Description  string    `json:"description,omitempty"`
	Favicon      string    `json:"favicon,omitempty"`
	PreviewImage string    `json:"previewImage,omitempty"`
	Note         *Note     `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarshalJSON writes the card in its flattened, type-discriminated form.
func (c Card) MarshalJSON() ([]byte, error) {
	out := cardJSON{
		ID:        c.ID,
		BoardID:   c.BoardID,
		Position:  c.Position,
		Note:      c.Note,
		SectionID: c.SectionID,
		NoteID:    c.NoteID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	switch v := c.Content.(type) {
	case TextContent:
		out.Type = KindText
		out.Title, out.Content, out.AccentColor = v.Title, v.Content, v.AccentColor
	case MediaContent:
		out.Type = KindMedia
		out.ImageURL, out.Title, out.Caption = v.ImageURL, v.Title, v.Caption
	case LinkContent:
		out.Type = KindLink
		out.Title, out.URL = v.Title, v.URL
		out.Description, out.Favicon, out.PreviewImage = v.Description, v.Favicon, v.PreviewImage
	case nil:
		return nil, fmt.Errorf("card %s: missing content", c.ID)
	default:
		return nil, fmt.Errorf("card %s: unknown content %T", c.ID, v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened form. A missing "type" is treated as text.
func (c *Card) UnmarshalJSON(data []byte) error {
	var in cardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	content, err := contentFromJSON(in)
	if err != nil {
		return err
	}
	*c = Card{
		ID:        in.ID,
		BoardID:   in.BoardID,
		Note:      in.Note,
		Position:  in.Position,
		SectionID: in.SectionID,
		NoteID:    in.NoteID,
		Content:   content,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	return nil
}

func contentFromJSON(in cardJSON) (Content, error) {
	switch in.Type {
	case KindText, "":
		return TextContent{Title: in.Title, Content: in.Content, AccentColor: in.AccentColor}, nil
	case KindMedia:
		return MediaContent{ImageURL: in.ImageURL, Title: in.Title, Caption: in.Caption}, nil
	case KindLink:
		return LinkContent{
			Title:        in.Title,
			URL:          in.URL,
			Description:  in.Description,
			Favicon:      in.Favicon,
			PreviewImage: in.PreviewImage,
		}, nil
	}
	return nil, fmt.Errorf("card %s: unknown type %q", in.ID, in.Type)
}
