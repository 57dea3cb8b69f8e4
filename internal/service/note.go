package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/metrics"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

const MaxTags = 20

type NoteService struct {
	repo    repository.NoteRepository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewNoteService(repo repository.NoteRepository, m *metrics.Collector, logger *slog.Logger) *NoteService {
	return &NoteService{repo: repo, metrics: m, logger: logger}
}

// Create stores a note that is not yet on any board.
func (s *NoteService) Create(ctx context.Context, title, content string, tags []string, color string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "note title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("note title must be %d characters or less", MaxTitleLength))
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	if len(tags) > MaxTags {
		return nil, apperror.ValidationFailed("tags", fmt.Sprintf("a note has at most %d tags", MaxTags))
	}

	note := &model.Note{
		Title:   title,
		Content: content,
		Tags:    cleanTags(tags),
		Color:   strings.TrimSpace(color),
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		logFailure(s.logger, "failed to create note", err)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.metrics.Created(metrics.KindNote)
	s.logger.Info("note created", slog.String("id", note.ID))
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	id, err := requireID("note", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetNote(ctx, id)
}

// ListNotesInput pages and filters List.
type ListNotesInput struct {
	Limit  int
	Offset int
	// Tag keeps notes carrying this tag. Surrounding space is ignored.
	Tag string
	// Tagged keeps notes with at least one tag.
	Tagged bool
}

// List returns notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, in ListNotesInput) ([]model.Note, error) {
	filter := repository.NoteFilter{Tag: strings.TrimSpace(in.Tag), Tagged: in.Tagged}
	notes, err := s.repo.ListNotes(ctx, filter, listOptions(in.Limit, in.Offset))
	if err != nil {
		s.logger.Error("failed to list notes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// cleanTags trims tags and drops empty and repeated ones, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
