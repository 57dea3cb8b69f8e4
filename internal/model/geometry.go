// Package model defines the data structures shared by the canvas library, the
// REST server and the persistence adapters.
//
// All positions are stored in WORLD space. Screen space only exists while
// rendering or handling pointer input; see package canvas for the mapping.
package model

import "math"

// Zoom limits. Every viewport mutation clamps into [MinZoom, MaxZoom].
const (
	MinZoom     = 0.25
	MaxZoom     = 3.0
	ZoomStep    = 0.1
	DefaultZoom = 1.0
)

// Point is an (x, y) pair in world or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both coordinates by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is an axis-aligned rectangle anchored at its top-left corner.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the top-left corner.
func (b Bounds) Origin() Point { return Point{X: b.X, Y: b.Y} }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains reports whether p lies inside b. Edges count as inside.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Union returns the smallest rectangle covering both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	minX := math.Min(b.X, o.X)
	minY := math.Min(b.Y, o.Y)
	maxX := math.Max(b.X+b.Width, o.X+o.Width)
	maxY := math.Max(b.Y+b.Height, o.Y+o.Height)
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Viewport is the zoom level and pan offset that maps world space onto the screen.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

// DefaultViewport is zoom 1 with no pan.
func DefaultViewport() Viewport {
	return Viewport{Zoom: DefaultZoom}
}

// Pan returns the pan offset as a point.
func (v Viewport) Pan() Point { return Point{X: v.PanX, Y: v.PanY} }

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN and zero fall back to DefaultZoom.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) || z == 0 {
		return DefaultZoom
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
