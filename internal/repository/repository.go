// Package repository declares the storage ports of the REST server. The
// services depend on these interfaces; package sqlite implements them.
package repository

import (
	"context"

	"github.com/sakif/canvaid/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// NoteFilter narrows ListNotes. The zero value matches every note.
type NoteFilter struct {
	// Tag keeps notes carrying this exact tag.
	Tag string
	// Tagged keeps notes with at least one tag.
	Tagged bool
}

// BoardRepository stores boards. GetBoard returns the board with every
// section, card (with its note) and connection.
type BoardRepository interface {
	CreateBoard(ctx context.Context, board *model.Board) error
	GetBoard(ctx context.Context, id string) (*model.Board, error)
	ListBoards(ctx context.Context, opts ListOptions) ([]model.BoardSummary, error)
	UpdateBoard(ctx context.Context, board *model.Board) error
	// DeleteBoard removes the board with its sections, cards and connections.
	DeleteBoard(ctx context.Context, id string) error
	// ImportBoard writes a complete board, replacing any board with the same id.
	ImportBoard(ctx context.Context, board *model.Board) error
}

type SectionRepository interface {
	CreateSection(ctx context.Context, section *model.Section) error
	GetSection(ctx context.Context, id string) (*model.Section, error)
	UpdateSection(ctx context.Context, section *model.Section) error
	// DeleteSection removes the section and clears section_id on its cards in
	// the same transaction.
	DeleteSection(ctx context.Context, id string) error
}

type CardRepository interface {
	// CreateCard inserts card. When card.NoteID is empty, card.Note is
	// inserted first in the same transaction and linked.
	CreateCard(ctx context.Context, card *model.Card) error
	GetCard(ctx context.Context, id string) (*model.Card, error)
	// UpdateCard writes the card's placement and content, including the
	// title and body held by its note.
	UpdateCard(ctx context.Context, card *model.Card) error
	// DeleteCard removes the card and every connection touching it.
	DeleteCard(ctx context.Context, id string) error
}

type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context, filter NoteFilter, opts ListOptions) ([]model.Note, error)
}

type ConnectionRepository interface {
	// CreateConnection rejects self connections, endpoints on other boards
	// and a second connection between the same unordered pair of cards.
	CreateConnection(ctx context.Context, conn *model.Connection) error
	GetConnection(ctx context.Context, id string) (*model.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
}
