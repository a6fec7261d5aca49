package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGRenderer handles PNG generation
type PNGRenderer struct {
	img     *image.RGBA
	options RenderOptions
}

// NewPNGRenderer creates a new PNG renderer
func NewPNGRenderer(opts RenderOptions) *PNGRenderer {
	return &PNGRenderer{
		options: opts,
	}
}

// Render rasterizes the layout using the same geometry as SVGRenderer
func (r *PNGRenderer) Render(layout *Layout, title string) ([]byte, error) {
	width := int(math.Ceil(layout.Width + 2*canvasPadding))
	height := int(math.Ceil(layout.Height + 2*canvasPadding + titleHeight))
	offX, offY := canvasPadding, canvasPadding+titleHeight

	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	r.drawTitle(title, width)

	for _, cl := range layout.Clusters {
		r.renderCluster(cl, offX, offY)
	}
	for _, e := range layout.Edges {
		r.renderEdge(e, offX, offY)
	}
	for _, n := range layout.OrderedNodes() {
		r.renderNode(n, offX, offY)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, r.img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawTitle draws the diagram title with a faux-bold double strike
func (r *PNGRenderer) drawTitle(title string, width int) {
	col := parseColor(textColor)
	for dx := 0; dx < 2; dx++ {
		r.drawText(title, width/2+dx, int(canvasPadding), col)
	}
}

func (r *PNGRenderer) renderCluster(cl *ClusterLayout, offX, offY float64) {
	x := int(cl.Position.X + offX)
	y := int(cl.Position.Y + offY)
	w := int(cl.Width)
	h := int(cl.Height)

	r.fillRect(x, y, w, h, parseColor(clusterFill))
	r.drawDashedRect(x, y, w, h, parseColor(clusterStroke))

	label := truncate(cl.Cluster.Name, 40)
	d := r.drawer(parseColor(darkenColor(clusterStroke, 30)))
	d.Dot = fixed.P(x+10, y+16)
	d.DrawString(label)
}

// renderNode renders a node
func (r *PNGRenderer) renderNode(node *NodeLayout, offX, offY float64) {
	x := int(node.Position.X + offX)
	y := int(node.Position.Y + offY)
	w := int(node.Width)
	h := int(node.Height)

	fill := getNodeColor(node.Node)
	r.drawRoundedRect(x, y, w, h, 8, parseColor(fill), parseColor(darkenColor(fill, 25)))

	cx, cy := x+w/2, y+h/2
	if r.options.IncludeLabels {
		r.drawText(truncate(node.Node.ID, 24), cx, cy-4, color.White)
		r.drawText(truncate(node.Node.Kind.Label, 24), cx, cy+14, parseColor(lightenColor(fill, 75)))
		return
	}
	r.drawText(truncate(node.Node.ID, 24), cx, cy+4, color.White)
}

// renderEdge renders an edge between nodes
func (r *PNGRenderer) renderEdge(edge *EdgeLayout, offX, offY float64) {
	if len(edge.Points) < 2 {
		return
	}

	col := parseColor(edgeColor)
	for i := 0; i < len(edge.Points)-1; i++ {
		r.drawLine(
			int(edge.Points[i].X+offX), int(edge.Points[i].Y+offY),
			int(edge.Points[i+1].X+offX), int(edge.Points[i+1].Y+offY),
			col, 2)
	}

	last := len(edge.Points) - 1
	r.drawArrowhead(
		int(edge.Points[last-1].X+offX), int(edge.Points[last-1].Y+offY),
		int(edge.Points[last].X+offX), int(edge.Points[last].Y+offY),
		col)
}

func (r *PNGRenderer) fillRect(x, y, w, h int, col color.Color) {
	rect := image.Rect(x, y, x+w, y+h).Intersect(r.img.Bounds())
	draw.Draw(r.img, rect, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (r *PNGRenderer) drawDashedRect(x, y, w, h int, col color.Color) {
	const dash, gap = 6, 4
	on := func(i int) bool { return i%(dash+gap) < dash }
	for dx := 0; dx < w; dx++ {
		if on(dx) {
			r.setPixel(x+dx, y, col)
			r.setPixel(x+dx, y+h-1, col)
		}
	}
	for dy := 0; dy < h; dy++ {
		if on(dy) {
			r.setPixel(x, y+dy, col)
			r.setPixel(x+w-1, y+dy, col)
		}
	}
}

// drawRoundedRect draws a filled rectangle with rounded corners and a
// two-pixel border
func (r *PNGRenderer) drawRoundedRect(x, y, w, h, radius int, fillColor, strokeColor color.Color) {
	outside := func(dx, dy int) bool {
		var cx, cy int
		switch {
		case dx < radius && dy < radius:
			cx, cy = radius, radius
		case dx >= w-radius && dy < radius:
			cx, cy = w-radius, radius
		case dx < radius && dy >= h-radius:
			cx, cy = radius, h-radius
		case dx >= w-radius && dy >= h-radius:
			cx, cy = w-radius, h-radius
		default:
			return false
		}
		return (dx-cx)*(dx-cx)+(dy-cy)*(dy-cy) > radius*radius
	}

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if !outside(dx, dy) {
				r.setPixel(x+dx, y+dy, fillColor)
			}
		}
	}

	for i := 0; i < 2; i++ {
		for dx := radius; dx < w-radius; dx++ {
			r.setPixel(x+dx, y+i, strokeColor)
			r.setPixel(x+dx, y+h-1-i, strokeColor)
		}
		for dy := radius; dy < h-radius; dy++ {
			r.setPixel(x+i, y+dy, strokeColor)
			r.setPixel(x+w-1-i, y+dy, strokeColor)
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm
func (r *PNGRenderer) drawLine(x1, y1, x2, y2 int, col color.Color, thickness int) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := -1
	if x1 < x2 {
		sx = 1
	}
	sy := -1
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy

	for {
		for dt := -thickness / 2; dt <= thickness/2; dt++ {
			r.setPixel(x1+dt, y1, col)
			r.setPixel(x1, y1+dt, col)
		}

		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawArrowhead draws an arrowhead at the end of a line
func (r *PNGRenderer) drawArrowhead(x1, y1, x2, y2 int, col color.Color) {
	angle := math.Atan2(float64(y2-y1), float64(x2-x1))
	const size = 10.0

	for _, a := range []float64{angle + math.Pi*0.8, angle - math.Pi*0.8} {
		px := x2 + int(size*math.Cos(a))
		py := y2 + int(size*math.Sin(a))
		r.drawLine(x2, y2, px, py, col, 2)
	}
}

func (r *PNGRenderer) drawer(col color.Color) *font.Drawer {
	return &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
}

// drawText draws text horizontally centered on x with its baseline at y
func (r *PNGRenderer) drawText(text string, x, y int, col color.Color) {
	d := r.drawer(col)
	d.Dot = fixed.P(x, y)
	d.Dot.X -= d.MeasureString(text) / 2
	d.DrawString(text)
}

// setPixel sets a pixel with bounds checking
func (r *PNGRenderer) setPixel(x, y int, col color.Color) {
	if image.Pt(x, y).In(r.img.Bounds()) {
		r.img.Set(x, y, col)
	}
}

// abs returns the absolute value
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
