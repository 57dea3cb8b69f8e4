package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/repository"
)

// COMPILE-TIME INTERFACE CHECKS:
// If *DB stops satisfying one of the ports, the build fails here instead of
// wherever the server is wired together.
var (
	_ repository.BoardRepository      = (*DB)(nil)
	_ repository.SectionRepository    = (*DB)(nil)
	_ repository.CardRepository       = (*DB)(nil)
	_ repository.NoteRepository       = (*DB)(nil)
	_ repository.ConnectionRepository = (*DB)(nil)
)

// CreateBoard inserts a new board. An empty ID gets a fresh xid; timestamps
// are always set here.
func (db *DB) CreateBoard(ctx context.Context, board *model.Board) error {
	if board.ID == "" {
		board.ID = xid.New().String()
	}
	now := time.Now().UTC()
	board.CreatedAt = now
	board.UpdatedAt = now
	board.Viewport.Zoom = model.ClampZoom(board.Viewport.Zoom)

	if err := insertBoard(ctx, db.conn, board); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("board", board.ID)
		}
		return fmt.Errorf("sqlite: creating board: %w", err)
	}
	return nil
}

func insertBoard(ctx context.Context, q DBTX, board *model.Board) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO boards (id, name, description, thumbnail, zoom, pan_x, pan_y, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		board.ID, board.Name, board.Description, board.Thumbnail,
		board.Viewport.Zoom, board.Viewport.PanX, board.Viewport.PanY,
		board.CreatedAt, board.UpdatedAt,
	)
	return err
}

// GetBoard loads the board and everything on it.
//
// FOUR QUERIES, NOT ONE JOIN:
// A single JOIN across sections, cards and connections would multiply rows
// (every section × every card × ...). One query per child table keeps each
// result set flat and each Scan simple.
func (db *DB) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	var b model.Board
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, thumbnail, zoom, pan_x, pan_y, created_at, updated_at
		 FROM boards WHERE id = ?`,
		id,
	).Scan(
		&b.ID, &b.Name, &b.Description, &b.Thumbnail,
		&b.Viewport.Zoom, &b.Viewport.PanX, &b.Viewport.PanY,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("board", id)
		}
		return nil, fmt.Errorf("sqlite: getting board %s: %w", id, err)
	}

	if b.Sections, err = listSections(ctx, db.conn, id); err != nil {
		return nil, fmt.Errorf("sqlite: getting board %s: %w", id, err)
	}
	if b.Cards, err = listCards(ctx, db.conn, id); err != nil {
		return nil, fmt.Errorf("sqlite: getting board %s: %w", id, err)
	}
	if b.Connections, err = listConnections(ctx, db.conn, id); err != nil {
		return nil, fmt.Errorf("sqlite: getting board %s: %w", id, err)
	}
	return &b, nil
}

// ListBoards returns summaries, most recently updated first, each with its
// card count.
func (db *DB) ListBoards(ctx context.Context, opts repository.ListOptions) ([]model.BoardSummary, error) {
	limit, offset := pageBounds(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.name, b.description, b.thumbnail, b.zoom, b.pan_x, b.pan_y,
		        (SELECT COUNT(*) FROM cards c WHERE c.board_id = b.id),
		        b.created_at, b.updated_at
		 FROM boards b
		 ORDER BY b.updated_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing boards: %w", err)
	}
	defer rows.Close()

	boards := make([]model.BoardSummary, 0, limit)
	for rows.Next() {
		var s model.BoardSummary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.Thumbnail,
			&s.Zoom, &s.PanX, &s.PanY, &s.CardCount,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning board row: %w", err)
		}
		boards = append(boards, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating boards: %w", err)
	}
	return boards, nil
}

// UpdateBoard writes name, description, thumbnail and viewport.
func (db *DB) UpdateBoard(ctx context.Context, board *model.Board) error {
	board.UpdatedAt = time.Now().UTC()
	board.Viewport.Zoom = model.ClampZoom(board.Viewport.Zoom)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE boards
		 SET name = ?, description = ?, thumbnail = ?, zoom = ?, pan_x = ?, pan_y = ?, updated_at = ?
		 WHERE id = ?`,
		board.Name, board.Description, board.Thumbnail,
		board.Viewport.Zoom, board.Viewport.PanX, board.Viewport.PanY,
		board.UpdatedAt, board.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating board %s: %w", board.ID, err)
	}
	return requireAffected(result, apperror.NotFound("board", board.ID))
}

// DeleteBoard relies on ON DELETE CASCADE for sections, cards and connections.
// Notes are shared between boards and stay.
func (db *DB) DeleteBoard(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting board %s: %w", id, err)
	}
	return requireAffected(result, apperror.NotFound("board", id))
}

// ImportBoard replaces a board wholesale inside one transaction. Cards whose
// note is missing get a note built from their content.
func (db *DB) ImportBoard(ctx context.Context, board *model.Board) error {
	if board.ID == "" {
		return apperror.ValidationFailed("id", "board id is required")
	}
	if board.CreatedAt.IsZero() {
		board.CreatedAt = time.Now().UTC()
	}
	if board.UpdatedAt.IsZero() {
		board.UpdatedAt = board.CreatedAt
	}
	board.Viewport.Zoom = model.ClampZoom(board.Viewport.Zoom)

	err := db.withinTx(ctx, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, board.ID); err != nil {
			return fmt.Errorf("clearing board: %w", err)
		}
		if err := insertBoard(ctx, tx, board); err != nil {
			return fmt.Errorf("inserting board: %w", err)
		}
		for i := range board.Sections {
			s := &board.Sections[i]
			s.BoardID = board.ID
			stampSection(s, board.CreatedAt)
			if err := insertSection(ctx, tx, s); err != nil {
				return fmt.Errorf("inserting section %s: %w", s.ID, err)
			}
		}
		for i := range board.Cards {
			c := &board.Cards[i]
			c.BoardID = board.ID
			if c.CreatedAt.IsZero() {
				c.CreatedAt, c.UpdatedAt = board.CreatedAt, board.CreatedAt
			}
			if err := importNote(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting note for card %s: %w", c.ID, err)
			}
			if err := insertCard(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting card %s: %w", c.ID, err)
			}
		}
		for i := range board.Connections {
			conn := &board.Connections[i]
			conn.BoardID = board.ID
			if conn.CreatedAt.IsZero() {
				conn.CreatedAt = board.CreatedAt
			}
			if err := insertConnection(ctx, tx, conn); err != nil {
				return fmt.Errorf("inserting connection %s: %w", conn.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: importing board %s: %w", board.ID, err)
	}
	return nil
}

func stampSection(s *model.Section, at time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = at
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}

func pageBounds(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset = max(opts.Offset, 0)
	return limit, offset
}
