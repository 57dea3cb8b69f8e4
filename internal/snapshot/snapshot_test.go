package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/workspace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, quietLogger())
	require.NoError(t, err)
	return s, dir
}

func readDoc(t *testing.T, path string) Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, dir := openStore(t)

	boards, err := s.ListBoards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boards)
	assert.Equal(t, filepath.Join(dir, FileName), s.Path())
	assert.NoFileExists(t, s.Path())
}

func TestStore_SavesWholesale(t *testing.T) {
	s, dir := openStore(t)
	ctx := context.Background()

	board, err := s.CreateBoard(ctx, "Plan")
	require.NoError(t, err)

	card := model.Card{ID: "c1", Position: model.Point{X: 1, Y: 2}, Content: model.TextContent{Title: "T"}}
	require.NoError(t, s.CreateCard(ctx, board.ID, card))
	require.NoError(t, s.SaveViewport(ctx, board.ID, model.Viewport{Zoom: 9, PanX: 3}))

	doc := readDoc(t, s.Path())
	require.Len(t, doc.Boards, 1)
	assert.Equal(t, "Plan", doc.Boards[0].Name)
	require.Len(t, doc.Boards[0].Cards, 1)
	assert.Equal(t, model.TextContent{Title: "T"}, doc.Boards[0].Cards[0].Content)
	assert.Equal(t, model.MaxZoom, doc.Boards[0].Viewport.Zoom)

	// A second store over the same directory sees the same boards.
	again, err := Open(dir, quietLogger())
	require.NoError(t, err)
	loaded, err := again.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Cards, 1)
}

func TestStore_Cascades(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	board, err := s.CreateBoard(ctx, "Plan")
	require.NoError(t, err)

	sec := model.NewSection("S", model.Point{}, model.Size{Width: 400, Height: 300})
	sec.ID = "s1"
	require.NoError(t, s.CreateSection(ctx, board.ID, sec))
	for _, id := range []string{"a", "b"} {
		c := model.Card{ID: id, SectionID: model.StringPtr("s1"), Content: model.TextContent{Title: id}}
		require.NoError(t, s.CreateCard(ctx, board.ID, c))
	}
	conn := model.Connection{ID: "k", From: model.Anchor{CardID: "a"}, To: model.Anchor{CardID: "b"}}
	require.NoError(t, s.CreateConnection(ctx, board.ID, conn))

	dup := model.Connection{ID: "k2", From: model.Anchor{CardID: "b"}, To: model.Anchor{CardID: "a"}}
	assert.True(t, errors.Is(s.CreateConnection(ctx, board.ID, dup), apperror.ErrConflict))

	require.NoError(t, s.DeleteSection(ctx, board.ID, "s1"))
	loaded, _ := s.LoadBoard(ctx, board.ID)
	assert.Empty(t, loaded.Sections)
	for _, c := range loaded.Cards {
		assert.Nil(t, c.SectionID)
	}

	require.NoError(t, s.DeleteCard(ctx, board.ID, "a"))
	loaded, _ = s.LoadBoard(ctx, board.ID)
	assert.Len(t, loaded.Cards, 1)
	assert.Empty(t, loaded.Connections)
}

func TestStore_FailedSaveLeavesStateAlone(t *testing.T) {
	s, dir := openStore(t)
	ctx := context.Background()
	board, err := s.CreateBoard(ctx, "Plan")
	require.NoError(t, err)

	// Replace the directory with a file so the temp file cannot be created.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0o644))
	t.Cleanup(func() { os.Remove(dir) })

	err = s.CreateCard(ctx, board.ID, model.Card{ID: "c", Content: model.TextContent{}})
	require.Error(t, err)

	loaded, err := s.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Cards)
}

func TestStore_CreateBoardHonoursContext(t *testing.T) {
	s, _ := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateBoard(ctx, "Plan")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, s.Path())

	boards, err := s.ListBoards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boards)
}

func TestStore_UnknownBoard(t *testing.T) {
	s, _ := openStore(t)
	err := s.CreateCard(context.Background(), "ghost", model.Card{ID: "c", Content: model.TextContent{}})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestStore_BacksAWorkspace(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	board, err := s.CreateBoard(ctx, "Plan")
	require.NoError(t, err)

	ws := workspace.New(s, quietLogger())
	require.NoError(t, ws.Open(ctx, board.ID))

	card, err := ws.AddCard(canvas.NewCard{Position: model.Point{X: 10, Y: 10}, Content: model.TextContent{Title: "Hi"}})
	require.NoError(t, err)
	_, err = ws.DuplicateCard(card.ID)
	require.NoError(t, err)
	ws.Wait()
	assert.Empty(t, ws.Err())

	loaded, err := s.LoadBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Cards, 2)
}

func TestWatch_ReloadsExternalChanges(t *testing.T) {
	s, dir := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	other, err := Open(dir, quietLogger())
	require.NoError(t, err)
	_, err = other.CreateBoard(context.Background(), "From elsewhere")
	require.NoError(t, err)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
	boards, err := s.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "From elsewhere", boards[0].Name)

	cancel()
	assert.NoError(t, <-done)
}

func TestReloadAfterCancelIsSkipped(t *testing.T) {
	s, dir := openStore(t)
	other, err := Open(dir, quietLogger())
	require.NoError(t, err)
	_, err = other.CreateBoard(context.Background(), "From elsewhere")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	s.reloadAndNotify(ctx, func() { called = true })

	assert.False(t, called)
	boards, err := s.ListBoards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boards, "a cancelled watch must not reload")

	s.reloadAndNotify(context.Background(), func() { called = true })
	assert.True(t, called)
}
