// Package canvas holds the client-side state machinery of a board: the
// viewport controller, selection and drag tracking, the board aggregate and the
// connection layout. Nothing here performs I/O; persistence is driven by
// package workspace.
//
// KEY CONCEPTS:
//   - World space is where entities live. Screen space is pixels.
//   - screen = world*zoom + pan, world = (screen - pan)/zoom
//   - Renderers apply one translate+scale (Transform) to a world-space layer
//     so child coordinates never need converting individually.
package canvas

import (
	"fmt"

	"github.com/sakif/canvaid/internal/model"
)

// ToScreen maps a world-space point onto the screen.
func ToScreen(p model.Point, vp model.Viewport) model.Point {
	zoom := model.ClampZoom(vp.Zoom)
	return model.Point{
		X: p.X*zoom + vp.PanX,
		Y: p.Y*zoom + vp.PanY,
	}
}

// ToWorld maps a screen-space point back into world space.
func ToWorld(p model.Point, vp model.Viewport) model.Point {
	zoom := model.ClampZoom(vp.Zoom)
	return model.Point{
		X: (p.X - vp.PanX) / zoom,
		Y: (p.Y - vp.PanY) / zoom,
	}
}

// Transform is the combined translate+scale that positions the world layer.
type Transform struct {
	TranslateX float64
	TranslateY float64
	Scale      float64
}

// TransformOf derives the layer transform for a viewport.
func TransformOf(vp model.Viewport) Transform {
	return Transform{TranslateX: vp.PanX, TranslateY: vp.PanY, Scale: model.ClampZoom(vp.Zoom)}
}

// Apply maps p through the transform. Equivalent to ToScreen.
func (t Transform) Apply(p model.Point) model.Point {
	return model.Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Matrix returns the affine matrix [a b c d e f] in SVG/canvas order.
func (t Transform) Matrix() [6]float64 {
	return [6]float64{t.Scale, 0, 0, t.Scale, t.TranslateX, t.TranslateY}
}

// CSS renders the transform as a CSS transform value. Translation is applied
// first so that the scale origin stays at the layer's top-left corner.
func (t Transform) CSS() string {
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", t.TranslateX, t.TranslateY, t.Scale)
}
