// Package api defines the JSON bodies of the REST interface. The handlers
// decode and validate them; the REST persistence client builds them from
// model records.
//
// KEY CONCEPTS:
//   - Create requests carry an optional client-chosen "id". Re-sending a
//     create with the same id is answered with the stored record.
//   - Update requests use pointer fields: a nil pointer means "leave as is".
//     sectionId needs a third state (explicit null unsections the card), so
//     it is a model.Optional.
//   - Positions travel as flat posX/posY fields.
package api

import (
	"github.com/sakif/canvaid/internal/model"
)

type CreateBoardRequest struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

type UpdateBoardRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Thumbnail   *string         `json:"thumbnail,omitempty"`
	Viewport    *model.Viewport `json:"viewport,omitempty"`
}

type CreateSectionRequest struct {
	ID      string   `json:"id,omitempty" validate:"omitempty,max=64"`
	BoardID string   `json:"boardId" validate:"required"`
	Name    string   `json:"name" validate:"required,max=200"`
	PosX    float64  `json:"posX"`
	PosY    float64  `json:"posY"`
	Width   *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height  *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	Color   string   `json:"color,omitempty"`
}

type UpdateSectionRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	PosX        *float64 `json:"posX,omitempty"`
	PosY        *float64 `json:"posY,omitempty"`
	Width       *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height      *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	IsCollapsed *bool    `json:"isCollapsed,omitempty"`
	Color       *string  `json:"color,omitempty"`
}

// CreateCardRequest creates a card and, unless NoteID is given, the note
// holding its title and body. The variant fields that apply depend on Type.
type CreateCardRequest struct {
	ID        string  `json:"id,omitempty" validate:"omitempty,max=64"`
	BoardID   string  `json:"boardId" validate:"required"`
	SectionID *string `json:"sectionId,omitempty"`
	PosX      float64 `json:"posX"`
	PosY      float64 `json:"posY"`
	Type      string  `json:"type,omitempty" validate:"omitempty,oneof=text media link"`
	NoteID    string  `json:"noteId,omitempty"`

	Title        string   `json:"title,omitempty" validate:"max=500"`
	Content      string   `json:"content,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
	Color        string   `json:"color,omitempty"`
	AccentColor  string   `json:"accentColor,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Caption      string   `json:"caption,omitempty"`
	URL          string   `json:"url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Favicon      string   `json:"favicon,omitempty"`
	PreviewImage string   `json:"previewImage,omitempty"`
}

type UpdateCardRequest struct {
	PosX      *float64               `json:"posX,omitempty"`
	PosY      *float64               `json:"posY,omitempty"`
	SectionID model.Optional[string] `json:"sectionId,omitzero"`

	Title        *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Content      *string `json:"content,omitempty"`
	AccentColor  *string `json:"accentColor,omitempty"`
	ImageURL     *string `json:"imageUrl,omitempty"`
	Caption      *string `json:"caption,omitempty"`
	URL          *string `json:"url,omitempty"`
	Description  *string `json:"description,omitempty"`
	Favicon      *string `json:"favicon,omitempty"`
	PreviewImage *string `json:"previewImage,omitempty"`
}

type CreateConnectionRequest struct {
	ID         string `json:"id,omitempty" validate:"omitempty,max=64"`
	BoardID    string `json:"boardId" validate:"required"`
	FromCardID string `json:"fromCardId" validate:"required"`
	ToCardID   string `json:"toCardId" validate:"required"`
	FromAnchor string `json:"fromAnchor,omitempty" validate:"omitempty,oneof=top right bottom left"`
	ToAnchor   string `json:"toAnchor,omitempty" validate:"omitempty,oneof=top right bottom left"`
	Color      string `json:"color,omitempty"`
	Label      string `json:"label,omitempty" validate:"max=200"`
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=500"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
	Color   string   `json:"color,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
