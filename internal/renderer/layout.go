package renderer

import (
	"math"
	"sort"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
)

// Point represents a 2D coordinate
type Point struct {
	X, Y float64
}

// NodeLayout represents the layout information for a node
type NodeLayout struct {
	Node     *graph.Node
	Position Point // top-left corner
	Width    float64
	Height   float64
	Layer    int // Hierarchical layer (0 = top/left)
}

func (n *NodeLayout) center() Point {
	return Point{X: n.Position.X + n.Width/2, Y: n.Position.Y + n.Height/2}
}

// EdgeLayout represents the layout information for an edge
type EdgeLayout struct {
	Edge   *graph.Edge
	Points []Point // polyline from source border to target border
}

// ClusterLayout is the box drawn around a cluster's members
type ClusterLayout struct {
	Cluster  *graph.Cluster
	Position Point
	Width    float64
	Height   float64
}

// Layout represents the complete graph layout
type Layout struct {
	Nodes     map[string]*NodeLayout
	Order     []string // node IDs in declaration order
	Edges     []*EdgeLayout
	Clusters  []*ClusterLayout
	Width     float64
	Height    float64
	Direction ir.Direction
}

// OrderedNodes returns node layouts in declaration order
func (l *Layout) OrderedNodes() []*NodeLayout {
	nodes := make([]*NodeLayout, 0, len(l.Order))
	for _, id := range l.Order {
		nodes = append(nodes, l.Nodes[id])
	}
	return nodes
}

// layoutMetrics holds the fixed sizes used by the native layout
type layoutMetrics struct {
	nodeWidth      float64
	nodeHeight     float64
	hSpacing       float64
	vSpacing       float64
	bandGap        float64
	clusterPadding float64
	clusterLabel   float64
}

var defaultMetrics = layoutMetrics{
	nodeWidth:      180,
	nodeHeight:     80,
	hSpacing:       40,
	vSpacing:       70,
	bandGap:        40,
	clusterPadding: 18,
	clusterLabel:   22,
}

// band is a strip of the cross axis reserved for one cluster (or for the
// unclustered nodes), so cluster boxes can never overlap each other or
// foreign nodes.
type band struct {
	cluster *graph.Cluster
	layers  map[int][]*graph.Node
	slots   int
	start   float64
	size    float64
}

// CalculateLayout performs a deterministic layered layout.
//
// Nodes are assigned to layers by longest path from the roots (cycles are
// broken in declaration order). The cross axis is split into bands, one per
// cluster in declaration order followed by one for unclustered nodes. Within
// a band and layer, nodes are ordered by the barycenter of their
// predecessors, then by declaration order.
func CalculateLayout(g *graph.Graph, direction ir.Direction) *Layout {
	return calculateLayout(g, direction, defaultMetrics)
}

func calculateLayout(g *graph.Graph, direction ir.Direction, m layoutMetrics) *Layout {
	layout := &Layout{
		Nodes:     make(map[string]*NodeLayout),
		Order:     append([]string(nil), g.Order...),
		Edges:     []*EdgeLayout{},
		Direction: direction,
	}

	if len(g.Nodes) == 0 {
		layout.Width = m.nodeWidth
		layout.Height = m.nodeHeight
		return layout
	}

	layers, layerCount := assignLayers(g)
	bands := buildBands(g, layers)

	horizontal := direction == ir.DirectionLR
	mainSize, mainGap := m.nodeHeight, m.vSpacing
	crossSize, crossGap := m.nodeWidth, m.hSpacing
	if horizontal {
		mainSize, mainGap = m.nodeWidth, m.hSpacing*2
		crossSize, crossGap = m.nodeHeight, m.vSpacing/2
	}

	// Size bands on the cross axis
	offset := 0.0
	for _, b := range bands {
		b.start = offset
		b.size = float64(b.slots)*crossSize + float64(b.slots-1)*crossGap
		if b.cluster != nil {
			b.size += 2 * m.clusterPadding
			if horizontal {
				b.size += m.clusterLabel
			}
		}
		offset += b.size + m.bandGap
	}

	// Leave room above/left of layer 0 for cluster padding and labels
	mainOffset := m.clusterPadding + m.clusterLabel

	cross := make(map[string]float64)
	for layer := 0; layer < layerCount; layer++ {
		for _, b := range bands {
			nodes := b.layers[layer]
			if len(nodes) == 0 {
				continue
			}
			orderByBarycenter(nodes, g, cross)

			inner := b.start
			innerSize := b.size
			if b.cluster != nil {
				inner += m.clusterPadding
				innerSize -= 2 * m.clusterPadding
				if horizontal {
					inner += m.clusterLabel
					innerSize -= m.clusterLabel
				}
			}
			used := float64(len(nodes))*crossSize + float64(len(nodes)-1)*crossGap
			first := inner + (innerSize-used)/2

			for i, n := range nodes {
				c := first + float64(i)*(crossSize+crossGap)
				mainPos := mainOffset + float64(layer)*(mainSize+mainGap)

				nl := &NodeLayout{
					Node:   n,
					Width:  m.nodeWidth,
					Height: m.nodeHeight,
					Layer:  layer,
				}
				if horizontal {
					nl.Position = Point{X: mainPos, Y: c}
				} else {
					nl.Position = Point{X: c, Y: mainPos}
				}
				layout.Nodes[n.ID] = nl
				cross[n.ID] = c + crossSize/2
			}
		}
	}

	layout.Clusters = clusterBoxes(g, layout, m)
	layout.Edges = routeEdges(g, layout)

	maxX, maxY := 0.0, 0.0
	for _, nl := range layout.Nodes {
		maxX = math.Max(maxX, nl.Position.X+nl.Width)
		maxY = math.Max(maxY, nl.Position.Y+nl.Height)
	}
	for _, cl := range layout.Clusters {
		maxX = math.Max(maxX, cl.Position.X+cl.Width)
		maxY = math.Max(maxY, cl.Position.Y+cl.Height)
	}
	layout.Width = maxX + m.clusterPadding
	layout.Height = maxY + m.clusterPadding

	return layout
}

// assignLayers computes longest-path layers. When every remaining node has
// an unplaced predecessor (a cycle), the earliest declared one is placed
// after its placed predecessors and the walk continues.
func assignLayers(g *graph.Graph) (map[string]int, int) {
	preds := make(map[string][]string)
	pending := make(map[string]int)
	for _, id := range g.Order {
		pending[id] = 0
	}
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		preds[e.To.ID] = append(preds[e.To.ID], e.From.ID)
		pending[e.To.ID]++
	}

	layer := make(map[string]int, len(g.Order))
	placed := make(map[string]bool, len(g.Order))

	place := func(id string) {
		l := 0
		for _, p := range preds[id] {
			if placed[p] && layer[p]+1 > l {
				l = layer[p] + 1
			}
		}
		layer[id] = l
		placed[id] = true
		for _, e := range g.Nodes[id].Edges {
			if e.To.ID != id {
				pending[e.To.ID]--
			}
		}
	}

	for len(placed) < len(g.Order) {
		progressed := false
		for _, id := range g.Order {
			if !placed[id] && pending[id] <= 0 {
				place(id)
				progressed = true
			}
		}
		if !progressed {
			for _, id := range g.Order {
				if !placed[id] {
					place(id)
					break
				}
			}
		}
	}

	count := 0
	for _, l := range layer {
		if l+1 > count {
			count = l + 1
		}
	}
	return layer, count
}

func buildBands(g *graph.Graph, layers map[string]int) []*band {
	var bands []*band

	addBand := func(cl *graph.Cluster, nodes []*graph.Node) {
		if len(nodes) == 0 {
			return
		}
		b := &band{cluster: cl, layers: make(map[int][]*graph.Node)}
		for _, n := range nodes {
			l := layers[n.ID]
			b.layers[l] = append(b.layers[l], n)
			if len(b.layers[l]) > b.slots {
				b.slots = len(b.layers[l])
			}
		}
		bands = append(bands, b)
	}

	addBand(nil, g.TopLevel())
	for _, cl := range g.Clusters {
		addBand(cl, cl.Members)
	}
	return bands
}

// orderByBarycenter sorts nodes of one band layer by the mean cross-axis
// position of their already placed predecessors. Nodes without placed
// predecessors keep declaration order ahead of the rest.
func orderByBarycenter(nodes []*graph.Node, g *graph.Graph, cross map[string]float64) {
	bary := make(map[string]float64, len(nodes))
	has := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		sum, count := 0.0, 0
		for _, e := range g.Edges {
			if e.To != n || e.From == n {
				continue
			}
			if c, ok := cross[e.From.ID]; ok {
				sum += c
				count++
			}
		}
		if count > 0 {
			bary[n.ID] = sum / float64(count)
			has[n.ID] = true
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if has[a.ID] != has[b.ID] {
			return !has[a.ID]
		}
		if has[a.ID] && bary[a.ID] != bary[b.ID] {
			return bary[a.ID] < bary[b.ID]
		}
		return a.Order < b.Order
	})
}

func clusterBoxes(g *graph.Graph, layout *Layout, m layoutMetrics) []*ClusterLayout {
	boxes := make([]*ClusterLayout, 0, len(g.Clusters))
	for _, cl := range g.Clusters {
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, n := range cl.Members {
			nl := layout.Nodes[n.ID]
			minX = math.Min(minX, nl.Position.X)
			minY = math.Min(minY, nl.Position.Y)
			maxX = math.Max(maxX, nl.Position.X+nl.Width)
			maxY = math.Max(maxY, nl.Position.Y+nl.Height)
		}
		boxes = append(boxes, &ClusterLayout{
			Cluster:  cl,
			Position: Point{X: minX - m.clusterPadding, Y: minY - m.clusterPadding - m.clusterLabel},
			Width:    maxX - minX + 2*m.clusterPadding,
			Height:   maxY - minY + 2*m.clusterPadding + m.clusterLabel,
		})
	}
	return boxes
}

// routeEdges draws each edge as a straight segment between node borders.
// Edges converging on one target are spread along its border so arrowheads
// do not stack.
func routeEdges(g *graph.Graph, layout *Layout) []*EdgeLayout {
	incoming := make(map[string][]*graph.Edge)
	for _, e := range g.Edges {
		if e.From != e.To {
			incoming[e.To.ID] = append(incoming[e.To.ID], e)
		}
	}

	edges := make([]*EdgeLayout, 0, len(g.Edges))
	for _, e := range g.Edges {
		from := layout.Nodes[e.From.ID]
		to := layout.Nodes[e.To.ID]

		if e.From == e.To {
			edges = append(edges, &EdgeLayout{Edge: e, Points: selfLoop(from)})
			continue
		}

		spread := 0.0
		if siblings := incoming[e.To.ID]; len(siblings) > 1 {
			for i, s := range siblings {
				if s == e {
					const spacing = 24.0
					spread = float64(i)*spacing - float64(len(siblings)-1)*spacing/2
					break
				}
			}
		}

		target := to.center()
		if layout.Direction == ir.DirectionLR {
			target.Y += clampSpread(spread, to.Height)
		} else {
			target.X += clampSpread(spread, to.Width)
		}
		source := from.center()

		edges = append(edges, &EdgeLayout{
			Edge: e,
			Points: []Point{
				clipToBox(from, source, target),
				clipToBox(to, target, source),
			},
		})
	}
	return edges
}

func clampSpread(spread, extent float64) float64 {
	limit := extent/2 - 10
	return math.Max(-limit, math.Min(limit, spread))
}

// clipToBox returns where the segment from inside (within n) towards other
// crosses n's border
func clipToBox(n *NodeLayout, inside, other Point) Point {
	dx := other.X - inside.X
	dy := other.Y - inside.Y
	if dx == 0 && dy == 0 {
		return inside
	}

	c := n.center()
	hw, hh := n.Width/2, n.Height/2
	t := math.Inf(1)
	if dx > 0 {
		t = math.Min(t, (c.X+hw-inside.X)/dx)
	} else if dx < 0 {
		t = math.Min(t, (c.X-hw-inside.X)/dx)
	}
	if dy > 0 {
		t = math.Min(t, (c.Y+hh-inside.Y)/dy)
	} else if dy < 0 {
		t = math.Min(t, (c.Y-hh-inside.Y)/dy)
	}
	return Point{X: inside.X + dx*t, Y: inside.Y + dy*t}
}

func selfLoop(n *NodeLayout) []Point {
	right := n.Position.X + n.Width
	top := n.Position.Y + n.Height/3
	bottom := n.Position.Y + 2*n.Height/3
	return []Point{
		{X: right, Y: top},
		{X: right + 30, Y: top},
		{X: right + 30, Y: bottom},
		{X: right, Y: bottom},
	}
}
