package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/metrics"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

type CardService struct {
	repo    repository.CardRepository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewCardService(repo repository.CardRepository, m *metrics.Collector, logger *slog.Logger) *CardService {
	return &CardService{repo: repo, metrics: m, logger: logger}
}

// CreateCardInput is a new card with its content fields flattened. Kind
// selects which of the fields are used; empty means text. Without NoteID a
// note is created from Title, Content, Tags and Color.
type CreateCardInput struct {
	ID        string
	BoardID   string
	SectionID *string
	Position  model.Point
	Kind      model.CardKind
	NoteID    string

	Title        string
	Content      string
	Tags         []string
	Color        string
	AccentColor  string
	ImageURL     string
	Caption      string
	URL          string
	Description  string
	Favicon      string
	PreviewImage string
}

// CardPatch lists the card fields to change. Content fields that do not
// belong to the card's variant are ignored. SectionID set to null
// unsections the card.
type CardPatch struct {
	PosX      *float64
	PosY      *float64
	SectionID model.Optional[string]

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

func (s *CardService) Create(ctx context.Context, in CreateCardInput) (*model.Card, error) {
	boardID, err := requireBoard(in.BoardID)
	if err != nil {
		return nil, err
	}
	content, err := buildContent(in)
	if err != nil {
		return nil, err
	}
	if err := checkContent(content); err != nil {
		return nil, err
	}
	if len(in.Content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		existing, err := s.repo.GetCard(ctx, id)
		switch {
		case err == nil:
			if err := sameBoard("card", id, boardID, existing.BoardID); err != nil {
				return nil, err
			}
			return existing, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("creating card: %w", err)
		}
	}

	card := &model.Card{
		ID:        id,
		BoardID:   boardID,
		Position:  in.Position,
		SectionID: blankToNil(in.SectionID),
		NoteID:    strings.TrimSpace(in.NoteID),
		Content:   content,
	}
	if card.NoteID == "" {
		tags := in.Tags
		if tags == nil {
			tags = []string{}
		}
		card.Note = &model.Note{
			Title:   strings.TrimSpace(in.Title),
			Content: in.Content,
			Tags:    tags,
			Color:   in.Color,
		}
	}

	if err := s.repo.CreateCard(ctx, card); err != nil {
		logFailure(s.logger, "failed to create card", err, slog.String("board", boardID))
		return nil, fmt.Errorf("creating card: %w", err)
	}

	s.metrics.Created(metrics.KindCard)
	if in.NoteID == "" {
		s.metrics.Created(metrics.KindNote)
	}
	s.logger.Info("card created",
		slog.String("id", card.ID),
		slog.String("board", boardID),
		slog.String("type", string(card.Kind())),
	)
	return card, nil
}

func (s *CardService) Get(ctx context.Context, id string) (*model.Card, error) {
	id, err := requireID("card", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCard(ctx, id)
}

// Update merges patch into the stored card and its note.
func (s *CardService) Update(ctx context.Context, id string, patch CardPatch) (*model.Card, error) {
	id, err := requireID("card", id)
	if err != nil {
		return nil, err
	}
	card, err := s.repo.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PosX != nil {
		card.Position.X = *patch.PosX
	}
	if patch.PosY != nil {
		card.Position.Y = *patch.PosY
	}
	if patch.SectionID.Set {
		card.SectionID = blankToNil(patch.SectionID.Value)
	}
	card.Content = patchContent(card.Content, patch)
	if err := checkContent(card.Content); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCard(ctx, card); err != nil {
		logFailure(s.logger, "failed to update card", err, slog.String("id", id))
		return nil, fmt.Errorf("updating card: %w", err)
	}
	return card, nil
}

// Delete removes the card and every connection touching it.
func (s *CardService) Delete(ctx context.Context, id string) error {
	id, err := requireID("card", id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCard(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete card", err, slog.String("id", id))
		return err
	}
	s.metrics.Deleted(metrics.KindCard)
	s.logger.Info("card deleted", slog.String("id", id))
	return nil
}

func buildContent(in CreateCardInput) (model.Content, error) {
	kind := in.Kind
	if kind == "" {
		kind = model.KindText
	}
	title := strings.TrimSpace(in.Title)
	switch kind {
	case model.KindText:
		return model.TextContent{Title: title, Content: in.Content, AccentColor: in.AccentColor}, nil
	case model.KindMedia:
		return model.MediaContent{ImageURL: strings.TrimSpace(in.ImageURL), Title: title, Caption: in.Caption}, nil
	case model.KindLink:
		return model.LinkContent{
			Title:        title,
			URL:          strings.TrimSpace(in.URL),
			Description:  in.Description,
			Favicon:      in.Favicon,
			PreviewImage: in.PreviewImage,
		}, nil
	}
	return nil, apperror.ValidationFailed("type", fmt.Sprintf("unknown card type %q", kind))
}

func patchContent(c model.Content, p CardPatch) model.Content {
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

func checkContent(c model.Content) error {
	if len(c.Heading()) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	switch v := c.(type) {
	case model.TextContent:
		if len(v.Content) > MaxContentLength {
			return apperror.ValidationFailed("content",
				fmt.Sprintf("content must be %d characters or less", MaxContentLength))
		}
	case model.MediaContent:
		if v.ImageURL == "" {
			return apperror.ValidationFailed("imageUrl", "media cards need an image URL")
		}
	case model.LinkContent:
		if v.URL == "" {
			return apperror.ValidationFailed("url", "link cards need a URL")
		}
	}
	return nil
}

func blankToNil(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
