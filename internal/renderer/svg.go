package renderer

import (
	"bytes"
	"fmt"
	"strings"
)

// canvasPadding surrounds the layout; titleHeight is reserved above it
const (
	canvasPadding = 40.0
	titleHeight   = 40.0
)

// SVGRenderer handles SVG generation
type SVGRenderer struct {
	buf     *bytes.Buffer
	options RenderOptions
}

// NewSVGRenderer creates a new SVG renderer
func NewSVGRenderer(opts RenderOptions) *SVGRenderer {
	return &SVGRenderer{
		buf:     &bytes.Buffer{},
		options: opts,
	}
}

// Render generates SVG from the layout. Clusters are drawn first, then
// edges, then nodes, each in declaration order.
func (r *SVGRenderer) Render(layout *Layout, title string) ([]byte, error) {
	r.buf.Reset()

	width := layout.Width + 2*canvasPadding
	height := layout.Height + 2*canvasPadding + titleHeight
	offX, offY := canvasPadding, canvasPadding+titleHeight

	r.writeHeader(width, height)
	r.writeTitle(title, width)

	for _, cl := range layout.Clusters {
		r.renderCluster(cl, offX, offY)
	}
	for _, e := range layout.Edges {
		r.renderEdge(e, offX, offY)
	}
	for _, n := range layout.OrderedNodes() {
		r.renderNode(n, offX, offY)
	}

	r.buf.WriteString("</svg>\n")
	return r.buf.Bytes(), nil
}

// writeHeader writes the SVG header
func (r *SVGRenderer) writeHeader(width, height float64) {
	fmt.Fprintf(r.buf, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="%s"/>
  </marker>
</defs>
<rect width="100%%" height="100%%" fill="white"/>
`, width, height, width, height, edgeColor)
}

// writeTitle writes the diagram title
func (r *SVGRenderer) writeTitle(title string, width float64) {
	fmt.Fprintf(r.buf, `<text class="title" x="%.0f" y="%.0f" font-family="Arial, sans-serif" font-size="20" font-weight="bold" fill="%s" text-anchor="middle">%s</text>
`, width/2, canvasPadding, textColor, EscapeXML(title))
}

func (r *SVGRenderer) renderCluster(cl *ClusterLayout, offX, offY float64) {
	x := cl.Position.X + offX
	y := cl.Position.Y + offY
	fmt.Fprintf(r.buf, `<g class="cluster"><title>%s</title>
  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1.5" stroke-dasharray="6,4" rx="10"/>
  <text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="12" font-weight="bold" fill="%s">%s</text>
</g>
`, EscapeXML(cl.Cluster.Name), x, y, cl.Width, cl.Height, clusterFill, clusterStroke,
		x+10, y+16, darkenColor(clusterStroke, 30), EscapeXML(truncate(cl.Cluster.Name, 40)))
}

// renderNode renders a node as a colored box with its name and kind
func (r *SVGRenderer) renderNode(node *NodeLayout, offX, offY float64) {
	x := node.Position.X + offX
	y := node.Position.Y + offY
	fill := getNodeColor(node.Node)

	fmt.Fprintf(r.buf, `<g class="node"><title>%s</title>
  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="2" rx="8"/>
`, EscapeXML(node.Node.Type), x, y, node.Width, node.Height, fill, darkenColor(fill, 25))

	cx := x + node.Width/2
	cy := y + node.Height/2
	nameY := cy + 4
	if r.options.IncludeLabels {
		nameY = cy - 4
	}
	fmt.Fprintf(r.buf, `  <text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="13" font-weight="bold" fill="white" text-anchor="middle">%s</text>
`, cx, nameY, EscapeXML(truncate(node.Node.ID, 24)))

	if r.options.IncludeLabels {
		fmt.Fprintf(r.buf, `  <text x="%.2f" y="%.2f" font-family="Arial, sans-serif" font-size="10" fill="%s" text-anchor="middle">%s</text>
`, cx, cy+14, lightenColor(fill, 75), EscapeXML(truncate(node.Node.Kind.Label, 28)))
	}
	r.buf.WriteString("</g>\n")
}

// renderEdge renders an edge between nodes
func (r *SVGRenderer) renderEdge(edge *EdgeLayout, offX, offY float64) {
	if len(edge.Points) < 2 {
		return
	}

	var path strings.Builder
	for i, p := range edge.Points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s %.2f,%.2f ", cmd, p.X+offX, p.Y+offY)
	}

	fmt.Fprintf(r.buf, `<g class="edge"><title>%s</title>
  <path d="%s" stroke="%s" stroke-width="2" fill="none" marker-end="url(#arrowhead)"/>
</g>
`, EscapeXML(edge.Edge.From.ID+" -> "+edge.Edge.To.ID), strings.TrimSpace(path.String()), edgeColor)
}
