// Package render draws a board as a PNG image: sections as tinted frames,
// connections as bezier curves with arrowheads, cards as labelled boxes.
//
// KEY CONCEPTS:
//   - The image covers the board's extent plus padding. World coordinates
//     are scaled uniformly to fit, never stretched.
//   - Paint order is sections, then connections, then cards, so curves run
//     behind the cards they join.
//   - Cards inside a collapsed section are hidden, and so are connections
//     touching a hidden card.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/sakif/canvaid/internal/canvas"
	"github.com/sakif/canvaid/internal/model"
)

const (
	DefaultWidth   = 1200
	DefaultHeight  = 800
	DefaultPadding = 40
	MaxDimension   = 4096

	// Scale never exceeds this, so a single small card is not blown up to
	// fill the image.
	maxScale = 1.5

	sectionHeader = 32.0
	arrowSize     = 10.0
	arrowAngle    = 0.5
	baseFontSize  = 14.0
)

var (
	background    = color.RGBA{0xf8, 0xfa, 0xfc, 0xff}
	ink           = color.RGBA{0x1e, 0x29, 0x3b, 0xff}
	muted         = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	cardFill      = color.White
	defaultFrame  = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
	defaultLine   = color.RGBA{0x47, 0x55, 0x69, 0xff}
	defaultAccent = color.RGBA{0x63, 0x66, 0xf1, 0xff}
)

// Options sizes the output image.
type Options struct {
	Width   int
	Height  int
	Padding float64
}

func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, Padding: DefaultPadding}
}

// Validate rejects sizes that cannot produce an image.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("render: image size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.Width > MaxDimension || o.Height > MaxDimension {
		return fmt.Errorf("render: image size %dx%d exceeds %d", o.Width, o.Height, MaxDimension)
	}
	if o.Padding < 0 || 2*o.Padding >= float64(min(o.Width, o.Height)) {
		return fmt.Errorf("render: padding %g does not fit a %dx%d image", o.Padding, o.Width, o.Height)
	}
	return nil
}

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

func loadFont() (*truetype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Image draws b into a new image.
func Image(b *model.Board, opts Options) (image.Image, error) {
	dc, err := draw(b, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// PNG writes b as a PNG to w.
func PNG(w io.Writer, b *model.Board, opts Options) error {
	dc, err := draw(b, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG writes b as a PNG file at path.
func SavePNG(path string, b *model.Board, opts Options) error {
	dc, err := draw(b, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

// frame maps world coordinates onto the image.
type frame struct {
	scale  float64
	offset model.Point
}

func (f frame) point(p model.Point) (float64, float64) {
	return (p.X - f.offset.X) * f.scale, (p.Y - f.offset.Y) * f.scale
}

// fit centres ext in the padded image area.
func fit(ext model.Bounds, opts Options) frame {
	availW := float64(opts.Width) - 2*opts.Padding
	availH := float64(opts.Height) - 2*opts.Padding
	scale := maxScale
	if ext.Width > 0 {
		scale = math.Min(scale, availW/ext.Width)
	}
	if ext.Height > 0 {
		scale = math.Min(scale, availH/ext.Height)
	}
	// World point that lands on the image origin.
	marginX := (float64(opts.Width) - ext.Width*scale) / 2
	marginY := (float64(opts.Height) - ext.Height*scale) / 2
	return frame{
		scale:  scale,
		offset: model.Point{X: ext.X - marginX/scale, Y: ext.Y - marginY/scale},
	}
}

func draw(b *model.Board, opts Options) (*gg.Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ttf, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("render: parsing font: %w", err)
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(background)
	dc.Clear()

	ext, ok := b.Extent()
	if !ok {
		return dc, nil
	}
	f := fit(ext, opts)

	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    math.Max(6, baseFontSize*f.scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	dc.SetFontFace(face)

	collapsed := make(map[string]bool)
	for _, s := range b.Sections {
		drawSection(dc, f, s)
		if s.IsCollapsed {
			collapsed[s.ID] = true
		}
	}
	hidden := make(map[string]bool)
	for _, c := range b.Cards {
		if c.SectionID != nil && collapsed[*c.SectionID] {
			hidden[c.ID] = true
		}
	}

	for _, r := range canvas.Layout(b) {
		if hidden[r.Connection.From.CardID] || hidden[r.Connection.To.CardID] {
			continue
		}
		drawRoute(dc, f, r)
	}
	for _, c := range b.Cards {
		if !hidden[c.ID] {
			drawCard(dc, f, c)
		}
	}
	return dc, nil
}

func drawSection(dc *gg.Context, f frame, s model.Section) {
	stroke := parseColor(s.Color, defaultFrame)
	x, y := f.point(s.Position)
	w, h := s.Bounds.Width*f.scale, s.Bounds.Height*f.scale
	if s.IsCollapsed {
		h = math.Min(h, sectionHeader*f.scale)
	}

	tint := withAlpha(stroke, 0x22)
	dc.SetColor(tint)
	dc.DrawRoundedRectangle(x, y, w, h, 8*f.scale)
	dc.Fill()

	dc.SetColor(stroke)
	dc.SetLineWidth(math.Max(1, 2*f.scale))
	dc.DrawRoundedRectangle(x, y, w, h, 8*f.scale)
	dc.Stroke()

	dc.SetColor(ink)
	pad := 10 * f.scale
	dc.DrawStringAnchored(truncate(dc, s.Name, w-2*pad), x+pad, y+sectionHeader*f.scale/2, 0, 0.5)
}

func drawRoute(dc *gg.Context, f frame, r canvas.Route) {
	line := parseColor(r.Connection.Color, defaultLine)
	dc.SetColor(line)
	dc.SetLineWidth(math.Max(1, 2*f.scale))

	x0, y0 := f.point(r.From)
	x1, y1 := f.point(r.Control1)
	x2, y2 := f.point(r.Control2)
	x3, y3 := f.point(r.To)
	dc.MoveTo(x0, y0)
	dc.CubicTo(x1, y1, x2, y2, x3, y3)
	dc.Stroke()

	drawArrow(dc, x2, y2, x3, y3, arrowSize*math.Max(0.5, f.scale))

	if r.Connection.Label != "" {
		mid := bezierPoint(r, 0.5)
		mx, my := f.point(mid)
		dc.SetColor(muted)
		dc.DrawStringAnchored(r.Connection.Label, mx, my, 0.5, -0.5)
	}
}

// drawArrow fills a triangle pointing from (fx,fy) towards the tip (tx,ty).
func drawArrow(dc *gg.Context, fx, fy, tx, ty, size float64) {
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	dc.MoveTo(tx, ty)
	dc.LineTo(tx-size*dx+size*dy*arrowAngle, ty-size*dy-size*dx*arrowAngle)
	dc.LineTo(tx-size*dx-size*dy*arrowAngle, ty-size*dy+size*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}

func drawCard(dc *gg.Context, f frame, c model.Card) {
	x, y := f.point(c.Position)
	w, h := model.CardWidth*f.scale, model.CardHeight*f.scale
	radius := 6 * f.scale
	pad := 12 * f.scale

	dc.SetColor(cardFill)
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Fill()

	accent := defaultAccent
	var body string
	switch v := c.Content.(type) {
	case model.TextContent:
		accent = parseColor(v.AccentColor, defaultAccent)
		body = v.Content
	case model.MediaContent:
		body = v.Caption
		if body == "" {
			body = v.ImageURL
		}
	case model.LinkContent:
		body = v.URL
	}

	dc.SetColor(accent)
	dc.SetLineWidth(math.Max(1, 1.5*f.scale))
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Stroke()
	dc.DrawRectangle(x, y+radius, math.Max(2, 4*f.scale), h-2*radius)
	dc.Fill()

	heading := ""
	if c.Content != nil {
		heading = c.Content.Heading()
	}
	lineH := dc.FontHeight() * 1.4

	dc.SetColor(ink)
	dc.DrawString(truncate(dc, heading, w-2*pad), x+pad, y+pad+dc.FontHeight())

	dc.SetColor(muted)
	dc.DrawString(strings.ToUpper(string(c.Kind())), x+pad, y+h-pad)

	maxLines := int((h - 2*pad - 2*lineH) / lineH)
	for i, line := range dc.WordWrap(firstLine(body), w-2*pad) {
		if i >= maxLines {
			break
		}
		dc.DrawString(line, x+pad, y+pad+dc.FontHeight()+lineH*float64(i+1))
	}
}

// bezierPoint evaluates the route's cubic curve at t in [0,1].
func bezierPoint(r canvas.Route, t float64) model.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return model.Point{
		X: a*r.From.X + b*r.Control1.X + c*r.Control2.X + d*r.To.X,
		Y: a*r.From.Y + b*r.Control1.Y + c*r.Control2.Y + d*r.To.Y,
	}
}

// truncate shortens s with an ellipsis until it fits width.
func truncate(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// parseColor reads "#rgb" or "#rrggbb". Anything else yields fallback.
func parseColor(s string, fallback color.RGBA) color.RGBA {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// withAlpha returns c at the given opacity, premultiplied as color.RGBA requires.
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 0xff) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: a}
}
