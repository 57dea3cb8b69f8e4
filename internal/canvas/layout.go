package canvas

import (
	"fmt"
	"math"

	"github.com/sakif/canvaid/internal/model"
)

// Bezier tuning: control points sit Curvature*distance away from each anchor,
// capped at MaxCurvature world units.
const (
	Curvature    = 0.4
	MaxCurvature = 100
)

// Route is the drawable geometry of one connection in world space.
type Route struct {
	Connection model.Connection
	From       model.Point
	To         model.Point
	Control1   model.Point
	Control2   model.Point
}

// Path renders the route as an SVG path: "M from C cp1, cp2, to".
func (r Route) Path() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		r.From.X, r.From.Y,
		r.Control1.X, r.Control1.Y,
		r.Control2.X, r.Control2.Y,
		r.To.X, r.To.Y)
}

// AnchorPoint is the centre of the named edge of a card at pos.
func AnchorPoint(pos model.Point, side model.Side) model.Point {
	switch side {
	case model.SideTop:
		return model.Point{X: pos.X + model.CardWidth/2, Y: pos.Y}
	case model.SideRight:
		return model.Point{X: pos.X + model.CardWidth, Y: pos.Y + model.CardHeight/2}
	case model.SideBottom:
		return model.Point{X: pos.X + model.CardWidth/2, Y: pos.Y + model.CardHeight}
	case model.SideLeft:
		return model.Point{X: pos.X, Y: pos.Y + model.CardHeight/2}
	}
	return pos
}

// Outward is the unit direction pointing away from the card on the given side.
func Outward(side model.Side) model.Point {
	switch side {
	case model.SideTop:
		return model.Point{Y: -1}
	case model.SideRight:
		return model.Point{X: 1}
	case model.SideBottom:
		return model.Point{Y: 1}
	case model.SideLeft:
		return model.Point{X: -1}
	}
	return model.Point{}
}

// CurvatureFor returns the control point offset for two anchors.
func CurvatureFor(from, to model.Point) float64 {
	return math.Min(from.Distance(to)*Curvature, MaxCurvature)
}

// RouteBetween computes the bezier between two card positions.
func RouteBetween(conn model.Connection, fromCard, toCard model.Point) Route {
	from := AnchorPoint(fromCard, conn.From.Side)
	to := AnchorPoint(toCard, conn.To.Side)
	c := CurvatureFor(from, to)
	return Route{
		Connection: conn,
		From:       from,
		To:         to,
		Control1:   from.Add(Outward(conn.From.Side).Scale(c)),
		Control2:   to.Add(Outward(conn.To.Side).Scale(c)),
	}
}

// Layout routes every connection of b whose endpoint cards both exist.
// Connections with a missing endpoint are left out.
func Layout(b *model.Board) []Route {
	positions := make(map[string]model.Point, len(b.Cards))
	for _, c := range b.Cards {
		positions[c.ID] = c.Position
	}
	routes := make([]Route, 0, len(b.Connections))
	for _, conn := range b.Connections {
		from, ok := positions[conn.From.CardID]
		if !ok {
			continue
		}
		to, ok := positions[conn.To.CardID]
		if !ok {
			continue
		}
		routes = append(routes, RouteBetween(conn, from, to))
	}
	return routes
}
