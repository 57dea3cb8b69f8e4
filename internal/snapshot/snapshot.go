// Package snapshot persists boards without a server: every board lives in one
// JSON document, {"boards": [...]}, under the fixed file name FileName.
//
// KEY CONCEPTS:
//   - Load wholesale, save wholesale. Each mutation rewrites the whole file
//     through a temp file and a rename, so a crash never leaves half a
//     document behind.
//   - A mutation is applied to a copy of the board and only swapped in once
//     the file is written. A failed save leaves memory and disk unchanged.
//   - Store implements workspace.Persister, so the canvas runs against it
//     exactly as it runs against the REST client.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

// FileName is the snapshot document's name inside its directory.
const FileName = "canvaid-boards.json"

// Document is the on-disk shape.
type Document struct {
	Boards []*model.Board `json:"boards"`
}

type Store struct {
	mu     sync.Mutex
	path   string
	doc    Document
	saved  []byte // last bytes written or read, to recognise our own writes
	logger *slog.Logger
	now    func() time.Time
}

// Open reads dir/FileName, starting empty when the file does not exist yet.
// The directory is created if needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}
	s := &Store{
		path:   filepath.Join(dir, FileName),
		doc:    Document{Boards: []*model.Board{}},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if _, err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the snapshot file's location.
func (s *Store) Path() string { return s.path }

// reload replaces the in-memory document with the file's contents. It
// reports false when the file holds what was last saved or read.
func (s *Store) reload() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("snapshot: reading %s: %w", s.path, err)
	}
	if bytes.Equal(data, s.saved) {
		return false, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("snapshot: decoding %s: %w", s.path, err)
	}
	if doc.Boards == nil {
		doc.Boards = []*model.Board{}
	}
	s.doc = doc
	s.saved = data
	return true, nil
}

// Reload re-reads the file, e.g. after another process changed it.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

func (s *Store) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encoding: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: writing: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: writing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: writing: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("snapshot: replacing %s: %w", s.path, err)
	}
	s.saved = data
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.doc.Boards, func(b *model.Board) bool { return b.ID == id })
}

// mutate applies fn to a copy of the board and commits it once the file is
// saved.
func (s *Store) mutate(boardID string, fn func(b *model.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(boardID)
	if i < 0 {
		return apperror.NotFound("board", boardID)
	}
	b := s.doc.Boards[i].Clone()
	if err := fn(b); err != nil {
		return err
	}
	b.UpdatedAt = s.now()

	next := Document{Boards: slices.Clone(s.doc.Boards)}
	next.Boards[i] = b
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// ListBoards returns summaries, most recently updated first.
func (s *Store) ListBoards(_ context.Context) ([]model.BoardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.BoardSummary, 0, len(s.doc.Boards))
	for _, b := range s.doc.Boards {
		out = append(out, b.Summary())
	}
	slices.SortStableFunc(out, func(a, b model.BoardSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// CreateBoard adds an empty board with the default viewport.
func (s *Store) CreateBoard(ctx context.Context, name string) (*model.Board, error) {
	if name == "" {
		return nil, apperror.ValidationFailed("name", "board name is required")
	}
	now := s.now()
	b := &model.Board{
		ID:          xid.New().String(),
		Name:        name,
		Sections:    []model.Section{},
		Cards:       []model.Card{},
		Connections: []model.Connection{},
		Viewport:    model.DefaultViewport(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.PutBoard(ctx, b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// PutBoard stores b, replacing a board with the same id. Nothing is written
// once ctx is done.
func (s *Store) PutBoard(ctx context.Context, b *model.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.ID == "" {
		return apperror.ValidationFailed("id", "board id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Document{Boards: slices.Clone(s.doc.Boards)}
	if i := s.index(b.ID); i >= 0 {
		next.Boards[i] = b.Clone()
	} else {
		next.Boards = append(next.Boards, b.Clone())
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return apperror.NotFound("board", id)
	}
	next := Document{Boards: slices.Delete(slices.Clone(s.doc.Boards), i, i+1)}
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}
