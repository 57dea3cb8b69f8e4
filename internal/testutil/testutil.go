// Package testutil holds fixtures shared by the service, handler and CLI
// tests: an in-memory SQLite store and a quiet logger.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository/sqlite"
)

// NewTestDB opens a migrated in-memory database that is closed when the test ends.
func NewTestDB(t testing.TB) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SeedBoard stores a board holding one section with a card inside it, a loose
// card and a connection between the two cards.
func SeedBoard(t testing.TB, db *sqlite.DB, name string) *model.Board {
	t.Helper()
	ctx := context.Background()

	board := &model.Board{Name: name, Viewport: model.DefaultViewport()}
	if err := db.CreateBoard(ctx, board); err != nil {
		t.Fatalf("seeding board: %v", err)
	}

	section := model.NewSection("Inbox", model.Point{X: 0, Y: 0}, model.Size{
		Width:  model.DefaultSectionWidth,
		Height: model.DefaultSectionHeight,
	})
	section.BoardID = board.ID
	if err := db.CreateSection(ctx, &section); err != nil {
		t.Fatalf("seeding section: %v", err)
	}

	inside := &model.Card{
		BoardID:   board.ID,
		SectionID: model.StringPtr(section.ID),
		Position:  model.Point{X: 40, Y: 60},
		Content:   model.TextContent{Title: "Inside", Content: "first"},
	}
	loose := &model.Card{
		BoardID:  board.ID,
		Position: model.Point{X: 600, Y: 100},
		Content:  model.LinkContent{Title: "Go", URL: "https://go.dev"},
	}
	for _, c := range []*model.Card{inside, loose} {
		if err := db.CreateCard(ctx, c); err != nil {
			t.Fatalf("seeding card: %v", err)
		}
	}

	conn := &model.Connection{
		BoardID: board.ID,
		From:    model.Anchor{CardID: inside.ID, Side: model.SideRight},
		To:      model.Anchor{CardID: loose.ID, Side: model.SideLeft},
	}
	if err := db.CreateConnection(ctx, conn); err != nil {
		t.Fatalf("seeding connection: %v", err)
	}

	stored, err := db.GetBoard(ctx, board.ID)
	if err != nil {
		t.Fatalf("reloading seeded board: %v", err)
	}
	return stored
}
