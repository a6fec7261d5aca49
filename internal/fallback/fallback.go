// Package fallback draws the placeholder image returned when no layout
// toolchain is available. It depends on nothing but the standard image
// packages and a bitmap font, so it cannot fail for lack of a toolchain.
package fallback

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/renderer"
)

// Fixed placeholder text
const (
	Title    = "Azure Architecture Diagram (Fallback Mode)"
	Caption  = "This is a fallback diagram."
	Notice   = "The full diagram generation requires the layout engine (Graphviz) to be installed."
	Heading  = "Description:"
	Ellipsis = "..."
)

// Wrapping limits
const (
	MaxColumns = 60
	MaxWords   = 100
	MaxLines   = 10
)

const (
	canvasWidth  = 1000
	canvasHeight = 600
	lineHeight   = 18
)

// WrapDescription greedily wraps the first MaxWords words of description to
// MaxColumns columns and keeps at most MaxLines lines. truncated reports
// whether any words or lines were dropped. A word longer than MaxColumns
// occupies a line of its own.
func WrapDescription(description string) (lines []string, truncated bool) {
	words := strings.Fields(description)
	if len(words) > MaxWords {
		words = words[:MaxWords]
		truncated = true
	}

	var current strings.Builder
	for _, w := range words {
		if current.Len() == 0 {
			current.WriteString(w)
			continue
		}
		if utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(w) > MaxColumns {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(w)
			continue
		}
		current.WriteByte(' ')
		current.WriteString(w)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	if len(lines) > MaxLines {
		lines = lines[:MaxLines]
		truncated = true
	}
	return lines, truncated
}

// Renderer produces fallback images
type Renderer struct{}

// New creates a fallback renderer
func New() *Renderer {
	return &Renderer{}
}

// Render draws the placeholder for description in the requested format
func (r *Renderer) Render(description string, format ir.Format) ([]byte, error) {
	lines, truncated := WrapDescription(description)
	if truncated {
		lines = append(lines, Ellipsis)
	}

	switch format {
	case ir.FormatPNG:
		return renderPNG(lines)
	case ir.FormatSVG:
		return renderSVG(lines), nil
	default:
		return nil, fmt.Errorf("fallback: unsupported format %q", format)
	}
}

// textLine is one positioned line, shared by the PNG and SVG writers
type textLine struct {
	text string
	y    int
	bold bool
}

func arrange(lines []string) []textLine {
	block := []textLine{
		{text: Title, y: 60, bold: true},
		{text: Caption, y: 180},
		{text: Notice, y: 210},
		{text: Heading, y: 260, bold: true},
	}
	y := 290
	for _, l := range lines {
		block = append(block, textLine{text: l, y: y})
		y += lineHeight
	}
	return block
}

var (
	borderColor = color.RGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0x4D}
	textColor   = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// renderPNG draws with basicfont.Face7x13, which covers ASCII only; other
// characters in the description come out as the font's replacement glyph.
func renderPNG(lines []string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	border := image.NewUniform(borderColor)
	for _, r := range []image.Rectangle{
		image.Rect(20, 20, canvasWidth-20, 22),
		image.Rect(20, canvasHeight-22, canvasWidth-20, canvasHeight-20),
		image.Rect(20, 20, 22, canvasHeight-20),
		image.Rect(canvasWidth-22, 20, canvasWidth-20, canvasHeight-20),
	} {
		draw.Draw(img, r, border, image.Point{}, draw.Over)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
	}
	for _, l := range arrange(lines) {
		x := fixed.I(canvasWidth/2) - d.MeasureString(l.text)/2
		strikes := 1
		if l.bold {
			strikes = 2
		}
		for s := 0; s < strikes; s++ {
			d.Dot = fixed.Point26_6{X: x + fixed.I(s), Y: fixed.I(l.y)}
			d.DrawString(l.text)
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("fallback: failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSVG(lines []string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="white"/>
<rect x="20" y="20" width="%d" height="%d" fill="none" stroke="#1E88E5" stroke-opacity="0.3" stroke-width="2"/>
`, canvasWidth, canvasHeight, canvasWidth, canvasHeight, canvasWidth-40, canvasHeight-40)

	for _, l := range arrange(lines) {
		size, weight := 12, "normal"
		if l.bold {
			size, weight = 16, "bold"
		}
		fmt.Fprintf(&buf, `<text x="%d" y="%d" font-family="Arial, sans-serif" font-size="%d" font-weight="%s" fill="#333333" text-anchor="middle">%s</text>
`, canvasWidth/2, l.y, size, weight, renderer.EscapeXML(l.text))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
