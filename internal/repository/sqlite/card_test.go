package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

func TestCreateCard_CreatesNote(t *testing.T) {
	db := newTestDB(t)
	b := createTestBoard(t, db, "Plan")

	c := createTestCard(t, db, b.ID, nil, "Idea")
	if c.NoteID == "" || c.Note == nil {
		t.Fatalf("CreateCard() did not create a note: %+v", c)
	}
	if c.Note.Title != "Idea" || c.Note.Content != "Idea body" {
		t.Errorf("note = %+v", c.Note)
	}
}

func TestCreateCard_UntitledGetsDefaultNoteTitle(t *testing.T) {
	db := newTestDB(t)
	b := createTestBoard(t, db, "Plan")

	c := &model.Card{BoardID: b.ID, Content: model.TextContent{}}
	if err := db.CreateCard(context.Background(), c); err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	if got := c.Content.(model.TextContent).Title; got != DefaultNoteTitle {
		t.Errorf("title = %q, want %q", got, DefaultNoteTitle)
	}
}

func TestCreateCard_ExistingNote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")
	note := &model.Note{Title: "Shared", Content: "shared body"}
	if err := db.CreateNote(ctx, note); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	c := &model.Card{BoardID: b.ID, NoteID: note.ID, Content: model.TextContent{Title: "ignored"}}
	if err := db.CreateCard(ctx, c); err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	text := c.Content.(model.TextContent)
	if text.Title != "Shared" || text.Content != "shared body" {
		t.Errorf("content = %+v, want the note's title and body", text)
	}

	missing := &model.Card{BoardID: b.ID, NoteID: "ghost", Content: model.TextContent{}}
	if err := db.CreateCard(ctx, missing); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateCard(missing note) error = %v, want ErrNotFound", err)
	}
}

func TestCreateCard_SectionOnOtherBoard(t *testing.T) {
	db := newTestDB(t)
	b1 := createTestBoard(t, db, "one")
	b2 := createTestBoard(t, db, "two")
	s := createTestSection(t, db, b2.ID, "S", model.Point{})

	c := &model.Card{BoardID: b1.ID, SectionID: &s.ID, Content: model.TextContent{Title: "x"}}
	err := db.CreateCard(context.Background(), c)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateCard() error = %v, want ErrNotFound", err)
	}
}

func TestCreateCard_Variants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")

	tests := []struct {
		name    string
		content model.Content
	}{
		{"text", model.TextContent{Title: "T", Content: "body", AccentColor: "#f00"}},
		{"media", model.MediaContent{ImageURL: "https://img.example/a.png", Title: "Pic", Caption: "cap"}},
		{"link", model.LinkContent{Title: "Go", URL: "https://go.dev", Description: "d", Favicon: "f", PreviewImage: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &model.Card{BoardID: b.ID, Content: tt.content}
			if err := db.CreateCard(ctx, c); err != nil {
				t.Fatalf("CreateCard() error = %v", err)
			}
			got, err := db.GetCard(ctx, c.ID)
			if err != nil {
				t.Fatalf("GetCard() error = %v", err)
			}
			if got.Content != tt.content {
				t.Errorf("content = %#v, want %#v", got.Content, tt.content)
			}
		})
	}
}

func TestUpdateCard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")
	s := createTestSection(t, db, b.ID, "S", model.Point{})
	c := createTestCard(t, db, b.ID, nil, "Idea")

	c.Position = model.Point{X: 12, Y: 34}
	c.SectionID = &s.ID
	c.Content = model.TextContent{Title: "Better idea", Content: "new"}
	if err := db.UpdateCard(ctx, c); err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}

	got, err := db.GetCard(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if got.Position != (model.Point{X: 12, Y: 34}) {
		t.Errorf("Position = %+v", got.Position)
	}
	if got.SectionID == nil || *got.SectionID != s.ID {
		t.Errorf("SectionID = %v, want %s", got.SectionID, s.ID)
	}
	if got.Note.Title != "Better idea" || got.Note.Content != "new" {
		t.Errorf("note not updated: %+v", got.Note)
	}

	got.SectionID = nil
	if err := db.UpdateCard(ctx, got); err != nil {
		t.Fatalf("UpdateCard(unsection) error = %v", err)
	}
	if got.SectionID != nil {
		t.Errorf("SectionID = %v, want nil", *got.SectionID)
	}
}

func TestUpdateCard_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.UpdateCard(context.Background(), &model.Card{ID: "ghost", Content: model.TextContent{}})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateCard() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCard_RemovesConnections(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	b := createTestBoard(t, db, "Plan")
	a := createTestCard(t, db, b.ID, nil, "A")
	c := createTestCard(t, db, b.ID, nil, "B")
	d := createTestCard(t, db, b.ID, nil, "C")
	createTestConnection(t, db, b.ID, a.ID, c.ID)
	createTestConnection(t, db, b.ID, d.ID, a.ID)
	keep := createTestConnection(t, db, b.ID, c.ID, d.ID)

	if err := db.DeleteCard(ctx, a.ID); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}

	got, err := db.GetBoard(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if len(got.Connections) != 1 || got.Connections[0].ID != keep.ID {
		t.Errorf("connections = %+v, want only %s", got.Connections, keep.ID)
	}
	for _, conn := range got.Connections {
		if conn.Touches(a.ID) {
			t.Errorf("connection %s still references deleted card", conn.ID)
		}
	}
}
