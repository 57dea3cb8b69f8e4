package api

import "github.com/sakif/canvaid/internal/model"

// NewSectionRequest describes s as a create request on boardID.
func NewSectionRequest(boardID string, s model.Section) CreateSectionRequest {
	w, h := s.Bounds.Width, s.Bounds.Height
	return CreateSectionRequest{
		ID:      s.ID,
		BoardID: boardID,
		Name:    s.Name,
		PosX:    s.Position.X,
		PosY:    s.Position.Y,
		Width:   &w,
		Height:  &h,
		Color:   s.Color,
	}
}

// SectionUpdate sets every mutable field of s.
func SectionUpdate(s model.Section) UpdateSectionRequest {
	return UpdateSectionRequest{
		Name:        &s.Name,
		PosX:        &s.Position.X,
		PosY:        &s.Position.Y,
		Width:       &s.Bounds.Width,
		Height:      &s.Bounds.Height,
		IsCollapsed: &s.IsCollapsed,
		Color:       &s.Color,
	}
}

// NewCardRequest describes c as a create request on boardID.
func NewCardRequest(boardID string, c model.Card) CreateCardRequest {
	req := CreateCardRequest{
		ID:        c.ID,
		BoardID:   boardID,
		SectionID: c.SectionID,
		PosX:      c.Position.X,
		PosY:      c.Position.Y,
		Type:      string(c.Kind()),
		NoteID:    c.NoteID,
	}
	switch v := c.Content.(type) {
	case model.TextContent:
		req.Title, req.Content, req.AccentColor = v.Title, v.Content, v.AccentColor
	case model.MediaContent:
		req.ImageURL, req.Title, req.Caption = v.ImageURL, v.Title, v.Caption
	case model.LinkContent:
		req.Title, req.URL = v.Title, v.URL
		req.Description, req.Favicon, req.PreviewImage = v.Description, v.Favicon, v.PreviewImage
	}
	return req
}

// CardUpdate sets the placement of c and every field of its variant.
// sectionId is always sent, as null for an unsectioned card.
func CardUpdate(c model.Card) UpdateCardRequest {
	req := UpdateCardRequest{
		PosX:      &c.Position.X,
		PosY:      &c.Position.Y,
		SectionID: model.OptionalOf(c.SectionID),
	}
	switch v := c.Content.(type) {
	case model.TextContent:
		req.Title, req.Content, req.AccentColor = &v.Title, &v.Content, &v.AccentColor
	case model.MediaContent:
		req.ImageURL, req.Title, req.Caption = &v.ImageURL, &v.Title, &v.Caption
	case model.LinkContent:
		req.Title, req.URL = &v.Title, &v.URL
		req.Description, req.Favicon, req.PreviewImage = &v.Description, &v.Favicon, &v.PreviewImage
	}
	return req
}

// NewConnectionRequest describes c as a create request on boardID.
func NewConnectionRequest(boardID string, c model.Connection) CreateConnectionRequest {
	return CreateConnectionRequest{
		ID:         c.ID,
		BoardID:    boardID,
		FromCardID: c.From.CardID,
		ToCardID:   c.To.CardID,
		FromAnchor: string(c.From.Side),
		ToAnchor:   string(c.To.Side),
		Color:      c.Color,
		Label:      c.Label,
	}
}
