package workspace

import (
	"context"

	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
)

// AddSection adds a section and persists it.
func (w *Workspace) AddSection(in canvas.NewSection) (model.Section, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Section{}, ErrNoBoard
	}
	s, undo, err := w.board.AddSection(in)
	if err != nil {
		return model.Section{}, err
	}
	boardID := w.board.ID()
	w.persist("create section", undo, func(ctx context.Context) error {
		return w.store.CreateSection(ctx, boardID, s)
	})
	return s, nil
}

// UpdateSection applies p to a section and persists it.
func (w *Workspace) UpdateSection(id string, p canvas.SectionPatch) (model.Section, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Section{}, ErrNoBoard
	}
	s, undo, err := w.board.UpdateSection(id, p)
	if err != nil {
		return model.Section{}, err
	}
	boardID := w.board.ID()
	w.persist("update section", undo, func(ctx context.Context) error {
		return w.store.UpdateSection(ctx, boardID, s)
	})
	return s, nil
}

// DeleteSection removes the section locally, unsectioning its cards. The
// store performs the same cascade on its side.
func (w *Workspace) DeleteSection(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return ErrNoBoard
	}
	_, undo, err := w.board.DeleteSection(id)
	if err != nil {
		return err
	}
	w.selection.Forget(id)
	boardID := w.board.ID()
	w.persist("delete section", undo, func(ctx context.Context) error {
		return w.store.DeleteSection(ctx, boardID, id)
	})
	return nil
}

// AddCard adds a card and persists it.
func (w *Workspace) AddCard(in canvas.NewCard) (model.Card, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Card{}, ErrNoBoard
	}
	c, undo, err := w.board.AddCard(in)
	if err != nil {
		return model.Card{}, err
	}
	w.persistCreateCard(c, undo)
	return c, nil
}

// UpdateCard applies p to a card and persists the whole card.
func (w *Workspace) UpdateCard(id string, p canvas.CardPatch) (model.Card, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Card{}, ErrNoBoard
	}
	c, undo, err := w.board.UpdateCard(id, p)
	if err != nil {
		return model.Card{}, err
	}
	w.persistUpdateCard(c, undo)
	return c, nil
}

// DuplicateCard copies a card (+20,+20, same section) and selects the copy.
func (w *Workspace) DuplicateCard(id string) (model.Card, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Card{}, ErrNoBoard
	}
	c, undo, err := w.board.DuplicateCard(id)
	if err != nil {
		return model.Card{}, err
	}
	w.selection.SelectCard(c.ID, false)
	w.persistCreateCard(c, undo)
	return c, nil
}

// DeleteCard removes a card and every connection touching it.
func (w *Workspace) DeleteCard(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return ErrNoBoard
	}
	dropped, undo, err := w.board.DeleteCard(id)
	if err != nil {
		return err
	}
	w.selection.Forget(id)
	for _, conn := range dropped {
		w.selection.Forget(conn.ID)
	}
	boardID := w.board.ID()
	w.persist("delete card", undo, func(ctx context.Context) error {
		return w.store.DeleteCard(ctx, boardID, id)
	})
	return nil
}

// AddConnection links two cards. Self connections and duplicates of an
// existing pair are rejected and leave the board unchanged.
func (w *Workspace) AddConnection(in canvas.NewConnection) (model.Connection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return model.Connection{}, ErrNoBoard
	}
	return w.addConnectionLocked(in)
}

func (w *Workspace) addConnectionLocked(in canvas.NewConnection) (model.Connection, error) {
	conn, undo, err := w.board.AddConnection(in)
	if err != nil {
		return model.Connection{}, err
	}
	boardID := w.board.ID()
	w.persist("create connection", undo, func(ctx context.Context) error {
		return w.store.CreateConnection(ctx, boardID, conn)
	})
	return conn, nil
}

// DeleteConnection removes a connection.
func (w *Workspace) DeleteConnection(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return ErrNoBoard
	}
	undo, err := w.board.DeleteConnection(id)
	if err != nil {
		return err
	}
	w.selection.Forget(id)
	boardID := w.board.ID()
	w.persist("delete connection", undo, func(ctx context.Context) error {
		return w.store.DeleteConnection(ctx, boardID, id)
	})
	return nil
}

// DeleteSelection deletes every selected card, section and connection.
// Connections go first so card cascades do not report them missing.
func (w *Workspace) DeleteSelection() error {
	w.mu.Lock()
	conns := w.selection.Connections()
	cards := w.selection.Cards()
	sections := w.selection.Sections()
	w.mu.Unlock()

	for _, id := range conns {
		if err := w.DeleteConnection(id); err != nil && !isGone(err) {
			return err
		}
	}
	for _, id := range cards {
		if err := w.DeleteCard(id); err != nil && !isGone(err) {
			return err
		}
	}
	for _, id := range sections {
		if err := w.DeleteSection(id); err != nil && !isGone(err) {
			return err
		}
	}
	return nil
}

func (w *Workspace) persistCreateCard(c model.Card, undo canvas.Undo) {
	boardID := w.board.ID()
	w.persist("create card", undo, func(ctx context.Context) error {
		return w.store.CreateCard(ctx, boardID, c)
	})
}

func (w *Workspace) persistUpdateCard(c model.Card, undo canvas.Undo) {
	boardID := w.board.ID()
	w.persist("update card", undo, func(ctx context.Context) error {
		return w.store.UpdateCard(ctx, boardID, c)
	})
}
