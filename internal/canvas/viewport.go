package canvas

import (
	"math"

	"github.com/sakif/canvaid/internal/model"
)

// ViewportPatch is a partial viewport update. Nil fields are left unchanged.
type ViewportPatch struct {
	Zoom *float64
	PanX *float64
	PanY *float64
}

// WheelEvent is one wheel/trackpad scroll step. Modifier is true when Ctrl or
// Cmd was held, which turns the gesture into a zoom.
type WheelEvent struct {
	DeltaX   float64
	DeltaY   float64
	Modifier bool
}

// KeyEvent is a key press with its modifier state. Key uses DOM key names
// ("+", "=", "-", "0", "Escape").
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
}

// KeyAction reports what a key press did.
type KeyAction int

const (
	KeyIgnored KeyAction = iota
	KeyZoomIn
	KeyZoomOut
	KeyReset
	// KeyClearSelection is returned for Escape. The viewport does not own the
	// selection, so the caller clears it.
	KeyClearSelection
)

// Viewport owns zoom and pan. Zoom is clamped on every mutation.
type Viewport struct {
	state model.Viewport
}

// NewViewport starts from vp, clamping its zoom.
func NewViewport(vp model.Viewport) *Viewport {
	v := &Viewport{state: vp}
	v.state.Zoom = model.ClampZoom(vp.Zoom)
	return v
}

// State returns the current viewport.
func (v *Viewport) State() model.Viewport { return v.state }

// Set merges the non-nil fields of p.
func (v *Viewport) Set(p ViewportPatch) {
	if p.Zoom != nil {
		v.state.Zoom = model.ClampZoom(*p.Zoom)
	}
	if p.PanX != nil {
		v.state.PanX = *p.PanX
	}
	if p.PanY != nil {
		v.state.PanY = *p.PanY
	}
}

// Replace overwrites the whole viewport, clamping zoom.
func (v *Viewport) Replace(vp model.Viewport) {
	v.state = vp
	v.state.Zoom = model.ClampZoom(vp.Zoom)
}

// ZoomIn raises the zoom by one step, clamped to MaxZoom.
func (v *Viewport) ZoomIn() { v.step(model.ZoomStep) }

// ZoomOut lowers the zoom by one step, clamped to MinZoom.
func (v *Viewport) ZoomOut() { v.step(-model.ZoomStep) }

// Reset restores zoom 1 and pan (0,0).
func (v *Viewport) Reset() {
	v.state = model.DefaultViewport()
}

// PanBy shifts the pan offset by (dx, dy) screen pixels.
func (v *Viewport) PanBy(dx, dy float64) {
	v.state.PanX += dx
	v.state.PanY += dy
}

// HandleWheel zooms when the modifier is held (scrolling up zooms in) and pans
// otherwise. Content follows the gesture: pan moves opposite to the delta.
func (v *Viewport) HandleWheel(e WheelEvent) {
	if e.Modifier {
		switch {
		case e.DeltaY > 0:
			v.ZoomOut()
		case e.DeltaY < 0:
			v.ZoomIn()
		}
		return
	}
	v.PanBy(-e.DeltaX, -e.DeltaY)
}

// HandleKey applies the zoom bindings and reports what happened.
func (v *Viewport) HandleKey(e KeyEvent) KeyAction {
	switch {
	case e.Key == "0" && (e.Ctrl || e.Meta):
		v.Reset()
		return KeyReset
	case e.Key == "+" || e.Key == "=":
		v.ZoomIn()
		return KeyZoomIn
	case e.Key == "-":
		v.ZoomOut()
		return KeyZoomOut
	case e.Key == "Escape":
		return KeyClearSelection
	}
	return KeyIgnored
}

func (v *Viewport) step(delta float64) {
	z := math.Round((v.state.Zoom+delta)*100) / 100
	v.state.Zoom = model.ClampZoom(z)
}
