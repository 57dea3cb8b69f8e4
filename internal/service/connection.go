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

type ConnectionService struct {
	repo    repository.ConnectionRepository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewConnectionService(repo repository.ConnectionRepository, m *metrics.Collector, logger *slog.Logger) *ConnectionService {
	return &ConnectionService{repo: repo, metrics: m, logger: logger}
}

// CreateConnectionInput links two cards. Empty anchors default to the
// bottom of the source and the top of the target.
type CreateConnectionInput struct {
	ID         string
	BoardID    string
	FromCardID string
	ToCardID   string
	FromAnchor string
	ToAnchor   string
	Color      string
	Label      string
}

// Create stores the connection. A card cannot be connected to itself, both
// cards must be on the board, and a pair of cards has at most one
// connection whichever way it points.
func (s *ConnectionService) Create(ctx context.Context, in CreateConnectionInput) (*model.Connection, error) {
	boardID, err := requireBoard(in.BoardID)
	if err != nil {
		return nil, err
	}
	from := strings.TrimSpace(in.FromCardID)
	to := strings.TrimSpace(in.ToCardID)
	if from == "" {
		return nil, apperror.ValidationFailed("fromCardId", "source card ID is required")
	}
	if to == "" {
		return nil, apperror.ValidationFailed("toCardId", "target card ID is required")
	}
	if from == to {
		return nil, apperror.ValidationFailed("toCardId", "a card cannot be connected to itself")
	}
	fromSide, err := model.ParseSide(in.FromAnchor, model.DefaultFromSide)
	if err != nil {
		return nil, apperror.ValidationFailed("fromAnchor", err.Error())
	}
	toSide, err := model.ParseSide(in.ToAnchor, model.DefaultToSide)
	if err != nil {
		return nil, apperror.ValidationFailed("toAnchor", err.Error())
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		existing, err := s.repo.GetConnection(ctx, id)
		switch {
		case err == nil:
			if err := sameBoard("connection", id, boardID, existing.BoardID); err != nil {
				return nil, err
			}
			return existing, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("creating connection: %w", err)
		}
	}

	conn := &model.Connection{
		ID:      id,
		BoardID: boardID,
		From:    model.Anchor{CardID: from, Side: fromSide},
		To:      model.Anchor{CardID: to, Side: toSide},
		Color:   strings.TrimSpace(in.Color),
		Label:   strings.TrimSpace(in.Label),
	}
	if err := s.repo.CreateConnection(ctx, conn); err != nil {
		logFailure(s.logger, "failed to create connection", err, slog.String("board", boardID))
		return nil, fmt.Errorf("creating connection: %w", err)
	}

	s.metrics.Created(metrics.KindConnection)
	s.logger.Info("connection created",
		slog.String("id", conn.ID),
		slog.String("from", from),
		slog.String("to", to),
	)
	return conn, nil
}

func (s *ConnectionService) Delete(ctx context.Context, id string) error {
	id, err := requireID("connection", id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteConnection(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete connection", err, slog.String("id", id))
		return err
	}
	s.metrics.Deleted(metrics.KindConnection)
	return nil
}
