package workspace

import (
	"errors"

	"github.com/sakif/canvaid/internal/apperror"
	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
)

// HandleWheel applies a wheel event to the viewport. It reports false when no
// board is open.
func (w *Workspace) HandleWheel(e canvas.WheelEvent) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return false
	}
	w.viewport.HandleWheel(e)
	return true
}

// HandleKey applies the keyboard bindings. Escape clears the selection.
// Nothing happens while no board is open.
func (w *Workspace) HandleKey(e canvas.KeyEvent) canvas.KeyAction {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.board == nil {
		return canvas.KeyIgnored
	}
	action := w.viewport.HandleKey(e)
	if action == canvas.KeyClearSelection {
		w.selection.Clear()
	}
	return action
}

// SetViewport merges a viewport patch, e.g. from a pan drag on the background.
func (w *Workspace) SetViewport(p canvas.ViewportPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewport.Set(p)
}

// ZoomIn steps the zoom up.
func (w *Workspace) ZoomIn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewport.ZoomIn()
}

// ZoomOut steps the zoom down.
func (w *Workspace) ZoomOut() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewport.ZoomOut()
}

// ResetZoom restores the default viewport.
func (w *Workspace) ResetZoom() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewport.Reset()
}

// Selection is a read-only copy of the selection sets.
type Selection struct {
	Cards       []string
	Sections    []string
	Connections []string
}

// Selection returns a copy of the current selection.
func (w *Workspace) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Selection{
		Cards:       w.selection.Cards(),
		Sections:    w.selection.Sections(),
		Connections: w.selection.Connections(),
	}
}

// SelectCard selects a card. additive toggles it instead of replacing the selection.
func (w *Workspace) SelectCard(id string, additive bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.SelectCard(id, additive)
}

// SelectSection is SelectCard for sections.
func (w *Workspace) SelectSection(id string, additive bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.SelectSection(id, additive)
}

// SelectConnection is SelectCard for connections.
func (w *Workspace) SelectConnection(id string, additive bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.SelectConnection(id, additive)
}

// ClearSelection deselects everything.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.Clear()
}

func isGone(err error) bool { return errors.Is(err, apperror.ErrNotFound) }

// screenToWorld must be called with w.mu held.
func (w *Workspace) screenToWorld(p model.Point) model.Point {
	return canvas.ToWorld(p, w.viewport.State())
}
