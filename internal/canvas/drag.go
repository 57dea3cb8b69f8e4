package canvas

import (
	"errors"

	"github.com/sakif/canvaid/internal/model"
)

// DragKind is the kind of entity being dragged.
type DragKind string

const (
	DragCard       DragKind = "card"
	DragSection    DragKind = "section"
	DragConnection DragKind = "connection"
)

// ErrDragInProgress is returned by Start while another drag is active.
var ErrDragInProgress = errors.New("canvas: drag already in progress")

// DragState describes the active drag. The zero value means idle.
type DragState struct {
	Kind    DragKind
	ID      string
	Start   model.Point
	Current model.Point
}

// Active reports whether a drag is in progress.
func (d DragState) Active() bool { return d.ID != "" }

// Delta is the total pointer movement since Start.
func (d DragState) Delta() model.Point { return d.Current.Sub(d.Start) }

// Drag tracks at most one dragged entity. It records positions only; moving
// the entity is the caller's job.
type Drag struct {
	state DragState
}

func (d *Drag) State() DragState { return d.state }

// Start begins dragging id from start.
func (d *Drag) Start(kind DragKind, id string, start model.Point) error {
	if d.state.Active() {
		return ErrDragInProgress
	}
	d.state = DragState{Kind: kind, ID: id, Start: start, Current: start}
	return nil
}

// Update records the live pointer position and returns the movement since the
// previous update. It is a no-op when idle.
func (d *Drag) Update(pos model.Point) (model.Point, bool) {
	if !d.state.Active() {
		return model.Point{}, false
	}
	step := pos.Sub(d.state.Current)
	d.state.Current = pos
	return step, true
}

// End clears the drag and returns the state it had.
func (d *Drag) End() DragState {
	last := d.state
	d.state = DragState{}
	return last
}
