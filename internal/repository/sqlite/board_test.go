package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateBoard(t *testing.T) {
	db := newTestDB(t)

	b := &model.Board{Name: "Plan"}
	if err := db.CreateBoard(context.Background(), b); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	if b.ID == "" {
		t.Error("CreateBoard() did not set ID")
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("CreateBoard() did not set timestamps")
	}
	if b.Viewport.Zoom != 1 {
		t.Errorf("Viewport.Zoom = %v, want 1", b.Viewport.Zoom)
	}
}

func TestCreateBoard_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	createTestBoard(t, db, "first")

	b := &model.Board{ID: "fixed", Name: "a"}
	if err := db.CreateBoard(context.Background(), b); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	err := db.CreateBoard(context.Background(), &model.Board{ID: "fixed", Name: "b"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateBoard() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetBoard_Full(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")
	s := createTestSection(t, db, b.ID, "Ideas", model.Point{X: 100, Y: 100})
	a := createTestCard(t, db, b.ID, &s.ID, "Idea A")
	c := createTestCard(t, db, b.ID, nil, "Idea B")
	createTestConnection(t, db, b.ID, a.ID, c.ID)

	got, err := db.GetBoard(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if len(got.Sections) != 1 || len(got.Cards) != 2 || len(got.Connections) != 1 {
		t.Fatalf("GetBoard() = %d sections, %d cards, %d connections; want 1, 2, 1",
			len(got.Sections), len(got.Cards), len(got.Connections))
	}
	if got.Sections[0].Bounds != (model.Bounds{X: 100, Y: 100, Width: 400, Height: 300}) {
		t.Errorf("section bounds = %+v", got.Sections[0].Bounds)
	}
	card := got.Cards[0]
	if card.Note == nil || card.Note.Title != "Idea A" {
		t.Errorf("card note = %+v, want title Idea A", card.Note)
	}
	if card.SectionID == nil || *card.SectionID != s.ID {
		t.Errorf("card section = %v, want %s", card.SectionID, s.ID)
	}
}

func TestGetBoard_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBoard(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetBoard() error = %v, want ErrNotFound", err)
	}
}

func TestListBoards_OrderAndCounts(t *testing.T) {
	db := newTestDB(t)
	older := createTestBoard(t, db, "older")
	newer := createTestBoard(t, db, "newer")
	createTestCard(t, db, newer.ID, nil, "x")

	// Touch the older board so it becomes the most recently updated.
	time.Sleep(5 * time.Millisecond)
	createTestCard(t, db, older.ID, nil, "y")
	createTestCard(t, db, older.ID, nil, "z")

	boards, err := db.ListBoards(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("ListBoards() returned %d boards, want 2", len(boards))
	}
	if boards[0].ID != older.ID {
		t.Errorf("first board = %s, want %s", boards[0].Name, older.Name)
	}
	if boards[0].CardCount != 2 || boards[1].CardCount != 1 {
		t.Errorf("card counts = %d, %d; want 2, 1", boards[0].CardCount, boards[1].CardCount)
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateBoard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")

	b.Name = "Renamed"
	b.Viewport = model.Viewport{Zoom: 9, PanX: 10, PanY: -20}
	if err := db.UpdateBoard(ctx, b); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}

	got, err := db.GetBoard(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	want := model.Viewport{Zoom: model.MaxZoom, PanX: 10, PanY: -20}
	if got.Viewport != want {
		t.Errorf("Viewport = %+v, want %+v", got.Viewport, want)
	}
}

func TestUpdateBoard_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.UpdateBoard(context.Background(), &model.Board{ID: "ghost", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateBoard() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBoard_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")
	s := createTestSection(t, db, b.ID, "S", model.Point{})
	a := createTestCard(t, db, b.ID, &s.ID, "A")
	c := createTestCard(t, db, b.ID, nil, "B")
	conn := createTestConnection(t, db, b.ID, a.ID, c.ID)

	if err := db.DeleteBoard(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBoard() error = %v", err)
	}

	if _, err := db.GetSection(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("section survived board delete: %v", err)
	}
	if _, err := db.GetCard(ctx, a.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("card survived board delete: %v", err)
	}
	if _, err := db.GetConnection(ctx, conn.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("connection survived board delete: %v", err)
	}
	if _, err := db.GetNote(ctx, a.NoteID); err != nil {
		t.Errorf("notes must outlive boards: %v", err)
	}
	if err := db.DeleteBoard(ctx, b.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteBoard() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// IMPORT TESTS
// =========================================================================

func TestImportBoard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	secID := "sec1"
	board := &model.Board{
		ID:       "imported",
		Name:     "From file",
		Viewport: model.Viewport{Zoom: 1.5, PanX: 3, PanY: 4},
		Sections: []model.Section{model.NewSection("S", model.Point{X: 1, Y: 2}, model.Size{Width: 10, Height: 20})},
		Cards: []model.Card{
			{ID: "c1", SectionID: &secID, Content: model.TextContent{Title: "One", Content: "body"}},
			{ID: "c2", Content: model.LinkContent{Title: "Go", URL: "https://go.dev"}},
		},
		Connections: []model.Connection{
			{ID: "k1", From: model.Anchor{CardID: "c1", Side: model.SideRight}, To: model.Anchor{CardID: "c2", Side: model.SideLeft}},
		},
	}
	board.Sections[0].ID = secID

	if err := db.ImportBoard(ctx, board); err != nil {
		t.Fatalf("ImportBoard() error = %v", err)
	}
	// Importing again replaces rather than duplicates.
	if err := db.ImportBoard(ctx, board); err != nil {
		t.Fatalf("second ImportBoard() error = %v", err)
	}

	got, err := db.GetBoard(ctx, "imported")
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if len(got.Sections) != 1 || len(got.Cards) != 2 || len(got.Connections) != 1 {
		t.Fatalf("imported board = %d sections, %d cards, %d connections; want 1, 2, 1",
			len(got.Sections), len(got.Cards), len(got.Connections))
	}
	if link, ok := got.Cards[1].Content.(model.LinkContent); !ok || link.URL != "https://go.dev" {
		t.Errorf("second card content = %#v, want link to go.dev", got.Cards[1].Content)
	}
	if got.Connections[0].From.Side != model.SideRight {
		t.Errorf("from side = %q, want right", got.Connections[0].From.Side)
	}
}
