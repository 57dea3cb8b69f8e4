package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/canvaid/internal/model"
)

func sampleBoard() *model.Board {
	section := model.NewSection("Inbox", model.Point{X: 0, Y: 0}, model.Size{Width: 400, Height: 300})
	section.ID = "s1"
	return &model.Board{
		ID:       "b1",
		Name:     "Plan",
		Sections: []model.Section{section},
		Cards: []model.Card{
			{ID: "c1", Position: model.Point{X: 20, Y: 60}, SectionID: model.StringPtr("s1"),
				Content: model.TextContent{Title: "Inside", Content: "body text", AccentColor: "#f00"}},
			{ID: "c2", Position: model.Point{X: 600, Y: 400},
				Content: model.LinkContent{Title: "Go", URL: "https://go.dev"}},
		},
		Connections: []model.Connection{{
			ID:    "k1",
			From:  model.Anchor{CardID: "c1", Side: model.SideRight},
			To:    model.Anchor{CardID: "c2", Side: model.SideLeft},
			Label: "next",
		}},
	}
}

func TestPNG_Dimensions(t *testing.T) {
	var buf bytes.Buffer
	err := PNG(&buf, sampleBoard(), Options{Width: 640, Height: 480, Padding: 20})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestImage_EmptyBoardIsBackground(t *testing.T) {
	img, err := Image(&model.Board{ID: "b"}, Options{Width: 50, Height: 40, Padding: 5})
	require.NoError(t, err)

	r, g, b, _ := img.At(25, 20).RGBA()
	wr, wg, wb, _ := background.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{r, g, b})
}

func TestImage_DrawsSomething(t *testing.T) {
	img, err := Image(sampleBoard(), DefaultOptions())
	require.NoError(t, err)

	painted := 0
	bounds := img.Bounds()
	br, bg, bb, _ := background.RGBA()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 4 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 4 {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != br || g != bg || b != bb {
				painted++
			}
		}
	}
	assert.Greater(t, painted, 100)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.png")
	require.NoError(t, SavePNG(path, sampleBoard(), DefaultOptions()))
	assert.FileExists(t, path)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero width", Options{Width: 0, Height: 10}, true},
		{"too large", Options{Width: MaxDimension + 1, Height: 10}, true},
		{"padding eats image", Options{Width: 100, Height: 100, Padding: 50}, true},
		{"negative padding", Options{Width: 100, Height: 100, Padding: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestFit_CentresExtent(t *testing.T) {
	ext := model.Bounds{X: 100, Y: 100, Width: 200, Height: 100}
	f := fit(ext, Options{Width: 500, Height: 500, Padding: 50})

	// 400px available, capped at maxScale.
	assert.Equal(t, maxScale, f.scale)
	x0, y0 := f.point(model.Point{X: 100, Y: 100})
	x1, y1 := f.point(model.Point{X: 300, Y: 200})
	assert.InDelta(t, 500-x1, x0, 1e-9)
	assert.InDelta(t, 500-y1, y0, 1e-9)
}

func TestParseColor(t *testing.T) {
	fallback := color.RGBA{1, 2, 3, 255}
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, parseColor("#f00", fallback))
	assert.Equal(t, color.RGBA{0x12, 0x34, 0x56, 0xff}, parseColor("123456", fallback))
	assert.Equal(t, fallback, parseColor("blue", fallback))
	assert.Equal(t, fallback, parseColor("", fallback))
}
