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

type SectionService struct {
	repo    repository.SectionRepository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewSectionService(repo repository.SectionRepository, m *metrics.Collector, logger *slog.Logger) *SectionService {
	return &SectionService{repo: repo, metrics: m, logger: logger}
}

// CreateSectionInput describes a new section. Nil Width/Height take the
// default 400×300 frame.
type CreateSectionInput struct {
	ID       string
	BoardID  string
	Name     string
	Position model.Point
	Width    *float64
	Height   *float64
	Color    string
}

type SectionPatch struct {
	Name        *string
	PosX        *float64
	PosY        *float64
	Width       *float64
	Height      *float64
	IsCollapsed *bool
	Color       *string
}

func (s *SectionService) Create(ctx context.Context, in CreateSectionInput) (*model.Section, error) {
	boardID, err := requireBoard(in.BoardID)
	if err != nil {
		return nil, err
	}
	name, err := checkName("name", "section", in.Name)
	if err != nil {
		return nil, err
	}
	size := model.Size{Width: model.DefaultSectionWidth, Height: model.DefaultSectionHeight}
	if in.Width != nil {
		size.Width = *in.Width
	}
	if in.Height != nil {
		size.Height = *in.Height
	}
	if size.Width < 0 || size.Height < 0 {
		return nil, apperror.ValidationFailed("width", "section width and height must not be negative")
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		existing, err := s.repo.GetSection(ctx, id)
		switch {
		case err == nil:
			if err := sameBoard("section", id, boardID, existing.BoardID); err != nil {
				return nil, err
			}
			return existing, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("creating section: %w", err)
		}
	}

	section := model.NewSection(name, in.Position, size)
	section.ID = id
	section.BoardID = boardID
	section.Color = strings.TrimSpace(in.Color)

	if err := s.repo.CreateSection(ctx, &section); err != nil {
		logFailure(s.logger, "failed to create section", err, slog.String("board", boardID))
		return nil, fmt.Errorf("creating section: %w", err)
	}

	s.metrics.Created(metrics.KindSection)
	s.logger.Info("section created",
		slog.String("id", section.ID),
		slog.String("board", boardID),
	)
	return &section, nil
}

func (s *SectionService) Get(ctx context.Context, id string) (*model.Section, error) {
	id, err := requireID("section", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetSection(ctx, id)
}

// Update merges patch into the stored section. Only the section row changes;
// member cards are repositioned by their own updates.
func (s *SectionService) Update(ctx context.Context, id string, patch SectionPatch) (*model.Section, error) {
	id, err := requireID("section", id)
	if err != nil {
		return nil, err
	}
	section, err := s.repo.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if section.Name, err = checkName("name", "section", *patch.Name); err != nil {
			return nil, err
		}
	}
	pos := section.Position
	if patch.PosX != nil {
		pos.X = *patch.PosX
	}
	if patch.PosY != nil {
		pos.Y = *patch.PosY
	}
	section.MoveTo(pos)

	size := section.Size()
	if patch.Width != nil {
		size.Width = *patch.Width
	}
	if patch.Height != nil {
		size.Height = *patch.Height
	}
	if size.Width < 0 || size.Height < 0 {
		return nil, apperror.ValidationFailed("width", "section width and height must not be negative")
	}
	section.Resize(size)

	if patch.IsCollapsed != nil {
		section.IsCollapsed = *patch.IsCollapsed
	}
	if patch.Color != nil {
		section.Color = strings.TrimSpace(*patch.Color)
	}

	if err := s.repo.UpdateSection(ctx, section); err != nil {
		logFailure(s.logger, "failed to update section", err, slog.String("id", id))
		return nil, fmt.Errorf("updating section: %w", err)
	}
	return section, nil
}

// Delete removes the section. Its cards stay on the board, unsectioned.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	id, err := requireID("section", id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSection(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete section", err, slog.String("id", id))
		return err
	}
	s.metrics.Deleted(metrics.KindSection)
	s.logger.Info("section deleted", slog.String("id", id))
	return nil
}

func requireBoard(boardID string) (string, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return "", apperror.ValidationFailed("boardId", "board ID is required")
	}
	return boardID, nil
}
