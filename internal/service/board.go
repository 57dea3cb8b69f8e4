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

type BoardService struct {
	repo    repository.BoardRepository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewBoardService(repo repository.BoardRepository, m *metrics.Collector, logger *slog.Logger) *BoardService {
	return &BoardService{repo: repo, metrics: m, logger: logger}
}

type CreateBoardInput struct {
	ID          string
	Name        string
	Description string
}

// BoardPatch lists the board fields to change; nil leaves a field alone.
type BoardPatch struct {
	Name        *string
	Description *string
	Thumbnail   *string
	Viewport    *model.Viewport
}

// Create stores an empty board with the default viewport (zoom 1, no pan).
func (s *BoardService) Create(ctx context.Context, in CreateBoardInput) (*model.Board, error) {
	name, err := checkName("name", "board", in.Name)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		existing, err := s.repo.GetBoard(ctx, id)
		switch {
		case err == nil:
			return existing, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("creating board: %w", err)
		}
	}

	board := &model.Board{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Sections:    []model.Section{},
		Cards:       []model.Card{},
		Connections: []model.Connection{},
		Viewport:    model.DefaultViewport(),
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		logFailure(s.logger, "failed to create board", err, slog.String("name", name))
		return nil, fmt.Errorf("creating board: %w", err)
	}

	s.metrics.Created(metrics.KindBoard)
	s.logger.Info("board created", slog.String("id", board.ID), slog.String("name", board.Name))
	return board, nil
}

// Get returns the board with all its sections, cards and connections.
func (s *BoardService) Get(ctx context.Context, id string) (*model.Board, error) {
	id, err := requireID("board", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBoard(ctx, id)
}

// List returns board summaries, most recently updated first.
func (s *BoardService) List(ctx context.Context, limit, offset int) ([]model.BoardSummary, error) {
	boards, err := s.repo.ListBoards(ctx, listOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list boards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return boards, nil
}

// Update merges patch into the stored board. The viewport zoom is clamped.
func (s *BoardService) Update(ctx context.Context, id string, patch BoardPatch) (*model.Board, error) {
	id, err := requireID("board", id)
	if err != nil {
		return nil, err
	}
	board, err := s.repo.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if board.Name, err = checkName("name", "board", *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		board.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Thumbnail != nil {
		board.Thumbnail = *patch.Thumbnail
	}
	if patch.Viewport != nil {
		board.Viewport = *patch.Viewport
		board.Viewport.Zoom = model.ClampZoom(board.Viewport.Zoom)
	}

	if err := s.repo.UpdateBoard(ctx, board); err != nil {
		logFailure(s.logger, "failed to update board", err, slog.String("id", id))
		return nil, fmt.Errorf("updating board: %w", err)
	}
	return board, nil
}

// Delete removes the board; its sections, cards and connections go with it.
func (s *BoardService) Delete(ctx context.Context, id string) error {
	id, err := requireID("board", id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBoard(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete board", err, slog.String("id", id))
		return err
	}
	s.metrics.Deleted(metrics.KindBoard)
	s.logger.Info("board deleted", slog.String("id", id))
	return nil
}

// Import writes a complete board (for example one read from a snapshot
// file), replacing any stored board with the same id.
func (s *BoardService) Import(ctx context.Context, board *model.Board) error {
	if _, err := requireID("board", board.ID); err != nil {
		return err
	}
	name, err := checkName("name", "board", board.Name)
	if err != nil {
		return err
	}
	board.Name = name

	if err := s.repo.ImportBoard(ctx, board); err != nil {
		logFailure(s.logger, "failed to import board", err, slog.String("id", board.ID))
		return fmt.Errorf("importing board: %w", err)
	}
	s.logger.Info("board imported",
		slog.String("id", board.ID),
		slog.Int("sections", len(board.Sections)),
		slog.Int("cards", len(board.Cards)),
		slog.Int("connections", len(board.Connections)),
	)
	return nil
}
