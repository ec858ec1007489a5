package slideimage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	bodySize     = 64
	categorySize = 36
)

// Renderer draws PNG cards with the embedded Go fonts. It is safe for
// concurrent use: faces carry a glyph cache, so each render builds its own.
type Renderer struct {
	body     *truetype.Font
	category *truetype.Font
}

func NewRenderer() (*Renderer, error) {
	body, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load body font: %w", err)
	}
	category, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load category font: %w", err)
	}
	return &Renderer{body: body, category: category}, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// RenderPNG draws the card at 1920x1080. Emoji are skipped since the
// embedded fonts have no color glyphs.
func (r *Renderer) RenderPNG(c Card) ([]byte, error) {
	bg, fg := c.colors()
	body := newFace(r.body, bodySize)
	defer body.Close()

	dc := gg.NewContext(Width, Height)
	dc.SetHexColor(bg)
	dc.Clear()

	const margin = 160.0
	maxWidth := float64(Width) - 2*margin

	dc.SetFontFace(body)
	lines := clampLines(dc.WordWrap(strings.Join(strings.Fields(c.Text), " "), maxWidth), maxLines)
	lineHeight := r.lineHeight(dc)
	top := float64(Height)/2 - float64(len(lines)-1)*lineHeight/2

	if c.Category != "" {
		category := newFace(r.category, categorySize)
		defer category.Close()
		dc.SetFontFace(category)
		dc.SetHexColor(fg)
		dc.DrawStringAnchored(strings.ToUpper(c.Category), float64(Width)/2, top-lineHeight*1.4, 0.5, 0.5)
	}

	dc.SetFontFace(body)
	dc.SetHexColor(fg)
	for i, line := range lines {
		dc.DrawStringAnchored(line, float64(Width)/2, top+float64(i)*lineHeight, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) lineHeight(dc *gg.Context) float64 {
	_, h := dc.MeasureString("Hg")
	return h * 1.5
}
