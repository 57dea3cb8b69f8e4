// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// The whole board store is one file next to the binary. No database server to
// run, and ":memory:" gives every test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C compiler.
//
// SCHEMA OVERVIEW:
//
//	boards ─┬─< sections
//	        ├─< cards >── notes
//	        └─< connections (from_card_id, to_card_id → cards)
//
// Deleting a board cascades to its sections, cards and connections. Deleting
// a card cascades to its connections. Deleting a section sets section_id to
// NULL on its cards; cards never disappear with their section.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository port.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/canvaid.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// PER-CONNECTION PRAGMAS:
// foreign_keys is a per-connection setting in SQLite, and database/sql opens
// connections lazily. Passing it through the DSN (_pragma=...) makes the
// driver apply it to every connection in the pool, not just the first one.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database. One
	// connection keeps the schema and data visible to every query.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers continue while a write is in progress. Unlike
	// foreign_keys it is stored in the database file itself.
	if !isMemory(dbPath) {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isMemory(dbPath string) bool {
	return strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start. Columns added
// after the first release go through addColumnIfNotExists so older database
// files pick them up.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS boards (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			zoom        REAL NOT NULL DEFAULT 1,
			pan_x       REAL NOT NULL DEFAULT 0,
			pan_y       REAL NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_boards_updated_at ON boards(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating boards table: %w", err)
	}

	// Thumbnails arrived after boards.
	if err := db.addColumnIfNotExists("boards", "thumbnail", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding thumbnail to boards: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sections (
			id           TEXT PRIMARY KEY,
			board_id     TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			name         TEXT NOT NULL,
			pos_x        REAL NOT NULL DEFAULT 0,
			pos_y        REAL NOT NULL DEFAULT 0,
			width        REAL NOT NULL DEFAULT 400 CHECK (width >= 0),
			height       REAL NOT NULL DEFAULT 300 CHECK (height >= 0),
			color        TEXT NOT NULL DEFAULT '',
			is_collapsed INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sections_board_id ON sections(board_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sections table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			tags       TEXT NOT NULL DEFAULT '[]',
			color      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			id            TEXT PRIMARY KEY,
			board_id      TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			section_id    TEXT REFERENCES sections(id) ON DELETE SET NULL,
			note_id       TEXT NOT NULL REFERENCES notes(id),
			type          TEXT NOT NULL DEFAULT 'text',
			accent_color  TEXT NOT NULL DEFAULT '',
			image_url     TEXT NOT NULL DEFAULT '',
			caption       TEXT NOT NULL DEFAULT '',
			url           TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			favicon       TEXT NOT NULL DEFAULT '',
			preview_image TEXT NOT NULL DEFAULT '',
			pos_x         REAL NOT NULL DEFAULT 0,
			pos_y         REAL NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_cards_board_id ON cards(board_id);
		CREATE INDEX IF NOT EXISTS idx_cards_section_id ON cards(section_id);
	`)
	if err != nil {
		return fmt.Errorf("creating cards table: %w", err)
	}

	// The expression index makes (a,b) and (b,a) collide: one connection per
	// unordered pair of cards.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS connections (
			id           TEXT PRIMARY KEY,
			board_id     TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			from_card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			to_card_id   TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			from_anchor  TEXT NOT NULL DEFAULT 'bottom',
			to_anchor    TEXT NOT NULL DEFAULT 'top',
			color        TEXT NOT NULL DEFAULT '',
			label        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (from_card_id <> to_card_id)
		);
		CREATE INDEX IF NOT EXISTS idx_connections_board_id ON connections(board_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair ON connections(
			min(from_card_id, to_card_id), max(from_card_id, to_card_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating connections table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
