package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

const connectionColumns = `id, board_id, from_card_id, to_card_id, from_anchor, to_anchor, color, label, created_at`

func scanConnection(r rowScanner) (model.Connection, error) {
	var c model.Connection
	var fromSide, toSide string
	err := r.Scan(
		&c.ID, &c.BoardID, &c.From.CardID, &c.To.CardID, &fromSide, &toSide,
		&c.Color, &c.Label, &c.CreatedAt,
	)
	c.From.Side = model.Side(fromSide)
	c.To.Side = model.Side(toSide)
	return c, err
}

// CreateConnection checks the endpoints inside the transaction so the answer
// is authoritative: both cards must exist on the connection's board, they
// must differ, and the unordered pair must be new.
func (db *DB) CreateConnection(ctx context.Context, conn *model.Connection) error {
	if conn.ID == "" {
		conn.ID = xid.New().String()
	}
	if conn.From.Side == "" {
		conn.From.Side = model.DefaultFromSide
	}
	if conn.To.Side == "" {
		conn.To.Side = model.DefaultToSide
	}
	conn.CreatedAt = time.Now().UTC()

	err := db.withinTx(ctx, func(tx DBTX) error {
		if conn.From.CardID == conn.To.CardID {
			return apperror.ValidationFailed("toCardId", "a card cannot connect to itself")
		}
		for _, cardID := range []string{conn.From.CardID, conn.To.CardID} {
			var owner string
			err := tx.QueryRowContext(ctx, `SELECT board_id FROM cards WHERE id = ?`, cardID).Scan(&owner)
			if isNoRows(err) || (err == nil && owner != conn.BoardID) {
				return apperror.NotFound("card", cardID)
			}
			if err != nil {
				return err
			}
		}
		if err := insertConnection(ctx, tx, conn); err != nil {
			if isUniqueViolation(err) {
				return db.uniqueConflict(ctx, tx, conn)
			}
			return err
		}
		return touchBoard(ctx, tx, conn.BoardID, conn.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("sqlite: creating connection: %w", err)
	}
	return nil
}

// uniqueConflict tells a reused id apart from a duplicate card pair.
func (db *DB) uniqueConflict(ctx context.Context, q DBTX, conn *model.Connection) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM connections WHERE id = ?`, conn.ID).Scan(&one)
	if err == nil {
		return apperror.Conflict("connection", conn.ID)
	}
	return apperror.Duplicate("connection", conn.From.CardID+" <-> "+conn.To.CardID)
}

func insertConnection(ctx context.Context, q DBTX, c *model.Connection) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BoardID, c.From.CardID, c.To.CardID, string(c.From.Side), string(c.To.Side),
		c.Color, c.Label, c.CreatedAt,
	)
	return err
}

func (db *DB) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	c, err := scanConnection(db.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("connection", id)
		}
		return nil, fmt.Errorf("sqlite: getting connection %s: %w", id, err)
	}
	return &c, nil
}

func (db *DB) DeleteConnection(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting connection %s: %w", id, err)
	}
	return requireAffected(result, apperror.NotFound("connection", id))
}

func listConnections(ctx context.Context, q DBTX, boardID string) ([]model.Connection, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE board_id = ? ORDER BY created_at, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	conns := []model.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection row: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
