package workspace

import (
	"context"
	"fmt"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
)

// BeginDrag starts moving a card or section. pointer is in screen space.
func (w *Workspace) BeginDrag(kind canvas.DragKind, id string, pointer model.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return ErrNoBoard
	}
	switch kind {
	case canvas.DragCard:
		if _, ok := w.board.Card(id); !ok {
			return apperror.NotFound("card", id)
		}
	case canvas.DragSection:
		if _, ok := w.board.Section(id); !ok {
			return apperror.NotFound("section", id)
		}
	default:
		return fmt.Errorf("workspace: BeginDrag does not handle %q drags", kind)
	}
	if err := w.drag.Start(kind, id, w.screenToWorld(pointer)); err != nil {
		return err
	}
	w.dragUndo = nil
	return nil
}

// BeginConnect starts drawing a connection out of the given card edge.
func (w *Workspace) BeginConnect(from model.Anchor, pointer model.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return ErrNoBoard
	}
	if _, ok := w.board.Card(from.CardID); !ok {
		return apperror.NotFound("card", from.CardID)
	}
	if err := w.drag.Start(canvas.DragConnection, from.CardID, w.screenToWorld(pointer)); err != nil {
		return err
	}
	w.dragFrom = from
	w.dragUndo = nil
	return nil
}

// DragTo follows the pointer. Card and section positions are committed
// locally on every step; nothing is persisted until Drop.
func (w *Workspace) DragTo(pointer model.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return
	}
	step, ok := w.drag.Update(w.screenToWorld(pointer))
	if !ok {
		return
	}
	st := w.drag.State()

	var undo canvas.Undo
	var err error
	switch st.Kind {
	case canvas.DragCard:
		c, found := w.board.Card(st.ID)
		if !found {
			w.abortDragLocked()
			return
		}
		_, undo, err = w.board.MoveCard(st.ID, c.Position.Add(step))
	case canvas.DragSection:
		s, found := w.board.Section(st.ID)
		if !found {
			w.abortDragLocked()
			return
		}
		_, _, undo, err = w.board.MoveSection(st.ID, s.Position.Add(step))
	case canvas.DragConnection:
		return
	}
	if err != nil {
		w.abortDragLocked()
		return
	}
	// The first step's undo restores the pre-drag state.
	if w.dragUndo == nil {
		w.dragUndo = undo
	}
}

// DragState exposes the live drag, e.g. for drawing a pending connection.
func (w *Workspace) DragState() canvas.DragState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drag.State()
}

// Drop ends the active drag and persists the result. UIs call it on pointer
// up, pointer leave and focus loss alike. A dropped card joins the top-most
// expanded section under its centre, or leaves its section when dropped on
// empty canvas.
func (w *Workspace) Drop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.drag.End()
	undo := w.dragUndo
	w.dragUndo = nil
	if !st.Active() || w.board == nil || undo == nil {
		w.resyncIfStaleLocked()
		return
	}

	switch st.Kind {
	case canvas.DragCard:
		c, ok := w.board.Card(st.ID)
		if !ok {
			w.resyncIfStaleLocked()
			return
		}
		target, err := w.board.DropTarget(st.ID)
		if err == nil && !sameSection(c.SectionID, target) {
			updated, reassign, err := w.board.UpdateCard(st.ID, canvas.CardPatch{SectionID: model.OptionalOf(target)})
			if err == nil {
				c = updated
				undo = canvas.Chain(undo, reassign)
			}
		}
		w.persistUpdateCard(c, undo)
	case canvas.DragSection:
		s, ok := w.board.Section(st.ID)
		if !ok {
			w.resyncIfStaleLocked()
			return
		}
		boardID := w.board.ID()
		w.persist("move section", undo, func(ctx context.Context) error {
			return w.store.UpdateSection(ctx, boardID, s)
		})
		for _, c := range w.board.Snapshot().Cards {
			if c.InSection(s.ID) {
				w.persistUpdateCard(c, nil)
			}
		}
	}
}

// ConnectTo finishes a BeginConnect drag on the given card edge.
func (w *Workspace) ConnectTo(to model.Anchor) (model.Connection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.drag.State()
	if !st.Active() || st.Kind != canvas.DragConnection {
		return model.Connection{}, fmt.Errorf("workspace: no connection drag in progress")
	}
	w.drag.End()
	if w.board == nil {
		return model.Connection{}, ErrNoBoard
	}
	conn, err := w.addConnectionLocked(canvas.NewConnection{From: w.dragFrom, To: to})
	if err != nil {
		w.resyncIfStaleLocked()
	}
	return conn, err
}

// CancelDrag ends the drag and puts the entity back where it started.
func (w *Workspace) CancelDrag() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.abortDragLocked()
}

func (w *Workspace) abortDragLocked() {
	w.drag.End()
	if w.dragUndo != nil {
		w.dragUndo()
		w.dragUndo = nil
	}
	w.resyncIfStaleLocked()
}

func sameSection(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
