package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

const sectionColumns = `id, board_id, name, pos_x, pos_y, width, height, color, is_collapsed, created_at, updated_at`

// rowScanner is the part of *sql.Row and *sql.Rows that scan helpers need.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(r rowScanner) (model.Section, error) {
	var s model.Section
	var pos model.Point
	var size model.Size
	err := r.Scan(
		&s.ID, &s.BoardID, &s.Name, &pos.X, &pos.Y, &size.Width, &size.Height,
		&s.Color, &s.IsCollapsed, &s.CreatedAt, &s.UpdatedAt,
	)
	s.MoveTo(pos)
	s.Resize(size)
	return s, err
}

// CreateSection inserts a section on an existing board.
func (db *DB) CreateSection(ctx context.Context, section *model.Section) error {
	if section.ID == "" {
		section.ID = xid.New().String()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now
	section.MoveTo(section.Position)

	err := db.withinTx(ctx, func(tx DBTX) error {
		if err := boardExists(ctx, tx, section.BoardID); err != nil {
			return err
		}
		if err := insertSection(ctx, tx, section); err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("section", section.ID)
			}
			return err
		}
		return touchBoard(ctx, tx, section.BoardID, now)
	})
	if err != nil {
		return fmt.Errorf("sqlite: creating section: %w", err)
	}
	return nil
}

func insertSection(ctx context.Context, q DBTX, s *model.Section) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO sections (`+sectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.BoardID, s.Name, s.Position.X, s.Position.Y,
		s.Bounds.Width, s.Bounds.Height, s.Color, s.IsCollapsed,
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (db *DB) GetSection(ctx context.Context, id string) (*model.Section, error) {
	s, err := scanSection(db.conn.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("section", id)
		}
		return nil, fmt.Errorf("sqlite: getting section %s: %w", id, err)
	}
	return &s, nil
}

// UpdateSection writes every mutable column. Callers merge partial updates
// into the loaded record first.
func (db *DB) UpdateSection(ctx context.Context, section *model.Section) error {
	now := time.Now().UTC()
	section.UpdatedAt = now
	section.MoveTo(section.Position)

	err := db.withinTx(ctx, func(tx DBTX) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE sections
			 SET name = ?, pos_x = ?, pos_y = ?, width = ?, height = ?, color = ?, is_collapsed = ?, updated_at = ?
			 WHERE id = ?`,
			section.Name, section.Position.X, section.Position.Y,
			section.Bounds.Width, section.Bounds.Height, section.Color, section.IsCollapsed,
			section.UpdatedAt, section.ID,
		)
		if err != nil {
			return err
		}
		if err := requireAffected(result, apperror.NotFound("section", section.ID)); err != nil {
			return err
		}
		return touchBoard(ctx, tx, section.BoardID, now)
	})
	if err != nil {
		return fmt.Errorf("sqlite: updating section %s: %w", section.ID, err)
	}
	return nil
}

// DeleteSection unsections the member cards and removes the section in one
// transaction. The explicit UPDATE duplicates ON DELETE SET NULL so the
// cascade holds even on a connection opened without foreign_keys.
func (db *DB) DeleteSection(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := db.withinTx(ctx, func(tx DBTX) error {
		var boardID string
		err := tx.QueryRowContext(ctx, `SELECT board_id FROM sections WHERE id = ?`, id).Scan(&boardID)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("section", id)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET section_id = NULL, updated_at = ? WHERE section_id = ?`, now, id,
		); err != nil {
			return fmt.Errorf("unsectioning cards: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id); err != nil {
			return err
		}
		return touchBoard(ctx, tx, boardID, now)
	})
	if err != nil {
		return fmt.Errorf("sqlite: deleting section %s: %w", id, err)
	}
	return nil
}

func listSections(ctx context.Context, q DBTX, boardID string) ([]model.Section, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE board_id = ? ORDER BY created_at, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning section row: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func boardExists(ctx context.Context, q DBTX, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM boards WHERE id = ?`, id).Scan(&one)
	if isNoRows(err) {
		return apperror.NotFound("board", id)
	}
	return err
}

// touchBoard bumps boards.updated_at so board lists order by last edit.
func touchBoard(ctx context.Context, q DBTX, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE boards SET updated_at = ? WHERE id = ?`, at, id)
	return err
}
