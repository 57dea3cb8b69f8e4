package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

const noteColumns = `id, title, content, tags, color, created_at, updated_at`

func scanNote(r rowScanner) (model.Note, error) {
	var n model.Note
	var tags string
	if err := r.Scan(&n.ID, &n.Title, &n.Content, &tags, &n.Color, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return model.Note{}, err
	}
	var err error
	n.Tags, err = decodeTags(tags)
	return n, err
}

func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = xid.New().String()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if err := insertNote(ctx, db.conn, note); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("note", note.ID)
		}
		return fmt.Errorf("sqlite: creating note: %w", err)
	}
	return nil
}

func insertNote(ctx context.Context, q DBTX, n *model.Note) error {
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, tags, n.Color, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	n, err := getNote(ctx, db.conn, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}
	return n, nil
}

func getNote(ctx context.Context, q DBTX, id string) (*model.Note, error) {
	n, err := scanNote(q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, err
	}
	return &n, nil
}

// ListNotes returns the notes matching filter, most recently updated first.
// Tags are matched inside the JSON array with json_each.
func (db *DB) ListNotes(ctx context.Context, filter repository.NoteFilter, opts repository.ListOptions) ([]model.Note, error) {
	limit, offset := pageBounds(opts)

	var where []string
	var args []any
	if filter.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.Tagged {
		where = append(where, `json_array_length(notes.tags) > 0`)
	}
	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0, limit)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}
	return notes, nil
}

// Tags are stored as a JSON array in a TEXT column.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	tags := []string{}
	if s == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
