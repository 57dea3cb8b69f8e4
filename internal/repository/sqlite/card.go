package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/model"
)

// DefaultNoteTitle names notes created for untitled cards.
const DefaultNoteTitle = "New Note"

// CARD STORAGE:
// A card row holds the placement (board, section, position) and the fields
// specific to its variant. The title and body live on the note the card
// references, so the same note can appear on several boards.
const cardSelect = `
	SELECT c.id, c.board_id, c.section_id, c.note_id, c.type,
	       c.accent_color, c.image_url, c.caption, c.url, c.description, c.favicon, c.preview_image,
	       c.pos_x, c.pos_y, c.created_at, c.updated_at,
	       n.id, n.title, n.content, n.tags, n.color, n.created_at, n.updated_at
	FROM cards c
	JOIN notes n ON n.id = c.note_id`

// cardRow mirrors one row of cardSelect.
type cardRow struct {
	id, boardID, noteID, typ                           string
	sectionID                                          sql.NullString
	accent, imageURL, caption, url, desc, favicon, img string
	pos                                                model.Point
	createdAt, updatedAt                               time.Time
	note                                               model.Note
	tags                                               string
}

func scanCard(r rowScanner) (model.Card, error) {
	var row cardRow
	err := r.Scan(
		&row.id, &row.boardID, &row.sectionID, &row.noteID, &row.typ,
		&row.accent, &row.imageURL, &row.caption, &row.url, &row.desc, &row.favicon, &row.img,
		&row.pos.X, &row.pos.Y, &row.createdAt, &row.updatedAt,
		&row.note.ID, &row.note.Title, &row.note.Content, &row.tags, &row.note.Color,
		&row.note.CreatedAt, &row.note.UpdatedAt,
	)
	if err != nil {
		return model.Card{}, err
	}
	if row.note.Tags, err = decodeTags(row.tags); err != nil {
		return model.Card{}, fmt.Errorf("decoding tags of note %s: %w", row.note.ID, err)
	}
	return row.toModel(), nil
}

func (row cardRow) toModel() model.Card {
	c := model.Card{
		ID:        row.id,
		BoardID:   row.boardID,
		Position:  row.pos,
		NoteID:    row.noteID,
		CreatedAt: row.createdAt,
		UpdatedAt: row.updatedAt,
	}
	if row.sectionID.Valid {
		c.SectionID = model.StringPtr(row.sectionID.String)
	}
	note := row.note
	c.Note = &note

	switch model.CardKind(row.typ) {
	case model.KindMedia:
		c.Content = model.MediaContent{ImageURL: row.imageURL, Title: note.Title, Caption: row.caption}
	case model.KindLink:
		c.Content = model.LinkContent{
			Title:        note.Title,
			URL:          row.url,
			Description:  row.desc,
			Favicon:      row.favicon,
			PreviewImage: row.img,
		}
	default:
		c.Content = model.TextContent{Title: note.Title, Content: note.Content, AccentColor: row.accent}
	}
	return c
}

// cardColumns is the card-row half of a card's content.
type cardColumns struct {
	typ                                                model.CardKind
	accent, imageURL, caption, url, desc, favicon, img string
}

func columnsOf(content model.Content) cardColumns {
	switch v := content.(type) {
	case model.TextContent:
		return cardColumns{typ: model.KindText, accent: v.AccentColor}
	case model.MediaContent:
		return cardColumns{typ: model.KindMedia, imageURL: v.ImageURL, caption: v.Caption}
	case model.LinkContent:
		return cardColumns{
			typ: model.KindLink, url: v.URL, desc: v.Description,
			favicon: v.Favicon, img: v.PreviewImage,
		}
	}
	return cardColumns{typ: model.KindText}
}

// noteFields returns the note title and, for text cards, the body. A nil body
// leaves the note's content untouched.
func noteFields(content model.Content) (title string, body *string) {
	switch v := content.(type) {
	case model.TextContent:
		return v.Title, &v.Content
	case model.MediaContent:
		return v.Title, nil
	case model.LinkContent:
		return v.Title, nil
	}
	return "", nil
}

// CreateCard inserts the card, creating its note first when NoteID is empty.
// On return card carries the stored note and the content read back from it.
func (db *DB) CreateCard(ctx context.Context, card *model.Card) error {
	if card.ID == "" {
		card.ID = xid.New().String()
	}
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now

	err := db.withinTx(ctx, func(tx DBTX) error {
		if err := boardExists(ctx, tx, card.BoardID); err != nil {
			return err
		}
		if err := sectionOnBoard(ctx, tx, card.SectionID, card.BoardID); err != nil {
			return err
		}
		if card.NoteID == "" {
			note := noteFor(card)
			note.ID = xid.New().String()
			note.CreatedAt, note.UpdatedAt = now, now
			if err := insertNote(ctx, tx, &note); err != nil {
				return fmt.Errorf("creating note: %w", err)
			}
			card.NoteID = note.ID
		} else if _, err := getNote(ctx, tx, card.NoteID); err != nil {
			return err
		}
		if err := insertCard(ctx, tx, card); err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("card", card.ID)
			}
			return err
		}
		if err := touchBoard(ctx, tx, card.BoardID, now); err != nil {
			return err
		}
		stored, err := getCard(ctx, tx, card.ID)
		if err != nil {
			return err
		}
		*card = *stored
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: creating card: %w", err)
	}
	return nil
}

// noteFor builds the note a new card owns: the card's Note if given, else
// one derived from the content.
func noteFor(card *model.Card) model.Note {
	if card.Note != nil {
		n := *card.Note
		if n.Title == "" {
			n.Title = DefaultNoteTitle
		}
		return n
	}
	title, body := noteFields(card.Content)
	if title == "" {
		title = DefaultNoteTitle
	}
	n := model.Note{Title: title, Tags: []string{}}
	if body != nil {
		n.Content = *body
	}
	return n
}

func insertCard(ctx context.Context, q DBTX, c *model.Card) error {
	cols := columnsOf(c.Content)
	_, err := q.ExecContext(ctx,
		`INSERT INTO cards (id, board_id, section_id, note_id, type,
		                    accent_color, image_url, caption, url, description, favicon, preview_image,
		                    pos_x, pos_y, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BoardID, nullable(c.SectionID), c.NoteID, string(cols.typ),
		cols.accent, cols.imageURL, cols.caption, cols.url, cols.desc, cols.favicon, cols.img,
		c.Position.X, c.Position.Y, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (db *DB) GetCard(ctx context.Context, id string) (*model.Card, error) {
	c, err := getCard(ctx, db.conn, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting card %s: %w", id, err)
	}
	return c, nil
}

func getCard(ctx context.Context, q DBTX, id string) (*model.Card, error) {
	c, err := scanCard(q.QueryRowContext(ctx, cardSelect+` WHERE c.id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("card", id)
		}
		return nil, err
	}
	return &c, nil
}

// UpdateCard writes placement and variant columns, then the note's title and
// (for text cards) body.
func (db *DB) UpdateCard(ctx context.Context, card *model.Card) error {
	now := time.Now().UTC()
	err := db.withinTx(ctx, func(tx DBTX) error {
		current, err := getCard(ctx, tx, card.ID)
		if err != nil {
			return err
		}
		if err := sectionOnBoard(ctx, tx, card.SectionID, current.BoardID); err != nil {
			return err
		}

		cols := columnsOf(card.Content)
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards
			 SET section_id = ?, type = ?, accent_color = ?, image_url = ?, caption = ?, url = ?,
			     description = ?, favicon = ?, preview_image = ?, pos_x = ?, pos_y = ?, updated_at = ?
			 WHERE id = ?`,
			nullable(card.SectionID), string(cols.typ), cols.accent, cols.imageURL, cols.caption, cols.url,
			cols.desc, cols.favicon, cols.img, card.Position.X, card.Position.Y, now, card.ID,
		); err != nil {
			return err
		}

		title, body := noteFields(card.Content)
		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET title = ?, content = COALESCE(?, content), updated_at = ? WHERE id = ?`,
			title, nullable(body), now, current.NoteID,
		); err != nil {
			return fmt.Errorf("updating note: %w", err)
		}
		if err := touchBoard(ctx, tx, current.BoardID, now); err != nil {
			return err
		}

		stored, err := getCard(ctx, tx, card.ID)
		if err != nil {
			return err
		}
		*card = *stored
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: updating card %s: %w", card.ID, err)
	}
	return nil
}

// DeleteCard removes the card and every connection that touches it.
func (db *DB) DeleteCard(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := db.withinTx(ctx, func(tx DBTX) error {
		var boardID string
		err := tx.QueryRowContext(ctx, `SELECT board_id FROM cards WHERE id = ?`, id).Scan(&boardID)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("card", id)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM connections WHERE from_card_id = ? OR to_card_id = ?`, id, id,
		); err != nil {
			return fmt.Errorf("deleting connections: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
			return err
		}
		return touchBoard(ctx, tx, boardID, now)
	})
	if err != nil {
		return fmt.Errorf("sqlite: deleting card %s: %w", id, err)
	}
	return nil
}

func listCards(ctx context.Context, q DBTX, boardID string) ([]model.Card, error) {
	rows, err := q.QueryContext(ctx, cardSelect+` WHERE c.board_id = ? ORDER BY c.created_at, c.id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// sectionOnBoard checks that a non-nil section id names a section of boardID.
func sectionOnBoard(ctx context.Context, q DBTX, sectionID *string, boardID string) error {
	if sectionID == nil {
		return nil
	}
	var owner string
	err := q.QueryRowContext(ctx, `SELECT board_id FROM sections WHERE id = ?`, *sectionID).Scan(&owner)
	if isNoRows(err) || (err == nil && owner != boardID) {
		return apperror.NotFound("section", *sectionID)
	}
	return err
}

// importNote upserts the note a card points at, creating one from the card's
// content when the card has none.
func importNote(ctx context.Context, q DBTX, c *model.Card) error {
	if c.NoteID == "" {
		c.NoteID = xid.New().String()
	}
	note := noteFor(c)
	note.ID = c.NoteID
	if note.CreatedAt.IsZero() {
		note.CreatedAt, note.UpdatedAt = c.CreatedAt, c.UpdatedAt
	}
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, tags, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, content = excluded.content,
		                               updated_at = excluded.updated_at`,
		note.ID, note.Title, note.Content, tags, note.Color, note.CreatedAt, note.UpdatedAt,
	)
	return err
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
