package sqlite

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

func TestCreateAndGetNote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n := &model.Note{Title: "Reading list", Content: "…", Tags: []string{"books", "todo"}, Color: "#fc0"}
	if err := db.CreateNote(ctx, n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	got, err := db.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if !reflect.DeepEqual(got.Tags, []string{"books", "todo"}) {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.Color != "#fc0" {
		t.Errorf("Color = %q", got.Color)
	}

	if _, err := db.GetNote(ctx, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetNote() error = %v, want ErrNotFound", err)
	}
}

func TestListNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		if err := db.CreateNote(ctx, &model.Note{Title: title}); err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
	}

	notes, err := db.ListNotes(ctx, repository.NoteFilter{}, repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 2 {
		t.Errorf("ListNotes() returned %d notes, want 2", len(notes))
	}
	for _, n := range notes {
		if n.Tags == nil {
			t.Errorf("note %s has nil tags, want empty slice", n.ID)
		}
	}
}

func TestListNotesFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seed := map[string][]string{
		"books":  {"books", "todo"},
		"todo":   {"todo"},
		"plain":  nil,
		"prefix": {"bookshelf"},
	}
	for title, tags := range seed {
		if err := db.CreateNote(ctx, &model.Note{Title: title, Tags: tags}); err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter repository.NoteFilter
		want   []string
	}{
		{"no filter", repository.NoteFilter{}, []string{"books", "plain", "prefix", "todo"}},
		{"exact tag", repository.NoteFilter{Tag: "books"}, []string{"books"}},
		{"shared tag", repository.NoteFilter{Tag: "todo"}, []string{"books", "todo"}},
		{"unknown tag", repository.NoteFilter{Tag: "nope"}, []string{}},
		{"tagged", repository.NoteFilter{Tagged: true}, []string{"books", "prefix", "todo"}},
		{"tag and tagged", repository.NoteFilter{Tag: "todo", Tagged: true}, []string{"books", "todo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := db.ListNotes(ctx, tt.filter, repository.ListOptions{Limit: 10})
			if err != nil {
				t.Fatalf("ListNotes() error = %v", err)
			}
			got := []string{}
			for _, n := range notes {
				got = append(got, n.Title)
			}
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListNotes() titles = %v, want %v", got, tt.want)
			}
		})
	}
}
