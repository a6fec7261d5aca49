// Package graph builds the render graph for an architecture IR: typed nodes,
// directed edges and cluster containers, in deterministic declaration order.
package graph

import (
	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/registry"
)

// Node represents one resource in the diagram
type Node struct {
	ID         string // resource name; unique within a graph
	Type       string // type identifier as written in the IR
	Kind       registry.NodeKind
	Attributes map[string]string
	Cluster    *Cluster // nil for top-level nodes
	Order      int      // declaration index, used as layout tie-break
	Edges      []*Edge  // outgoing
}

// Edge represents a directed connection between two nodes
type Edge struct {
	From         *Node
	To           *Node
	Relationship string // e.g. "connects_to", "reads_from"
}

// Cluster is a visual container grouping nodes
type Cluster struct {
	Name    string
	Order   int
	Members []*Node
}

// Graph represents the complete render graph
type Graph struct {
	Label    string
	Nodes    map[string]*Node
	Order    []string // node IDs in declaration order
	Edges    []*Edge
	Clusters []*Cluster // only clusters with at least one member
}

// OrderedNodes returns nodes in declaration order
func (g *Graph) OrderedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.Order))
	for _, id := range g.Order {
		nodes = append(nodes, g.Nodes[id])
	}
	return nodes
}

// TopLevel returns nodes that belong to no cluster, in declaration order
func (g *Graph) TopLevel() []*Node {
	var nodes []*Node
	for _, id := range g.Order {
		if n := g.Nodes[id]; n.Cluster == nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Build creates a graph from an IR.
//
// Clusters are resolved first and a resource listed by several clusters is
// placed in the last one. Resources become nodes in declaration order; when
// two resources share a name the later declaration replaces the earlier one's
// content but keeps its slot. Relationships whose source or target does not
// name a node are skipped.
func Build(a *ir.ArchitectureIR, reg *registry.Registry) *Graph {
	if reg == nil {
		reg = registry.Default()
	}

	g := &Graph{
		Label: a.Title(),
		Nodes: make(map[string]*Node),
		Order: make([]string, 0, len(a.Resources)),
		Edges: make([]*Edge, 0, len(a.Relationships)),
	}

	clusters := make(map[string]*Cluster)
	var clusterOrder []*Cluster
	for _, c := range a.Clusters {
		if _, ok := clusters[c.Name]; ok {
			continue
		}
		cl := &Cluster{Name: c.Name, Order: len(clusterOrder)}
		clusters[c.Name] = cl
		clusterOrder = append(clusterOrder, cl)
	}
	membership := a.ClusterAssignments()

	for _, res := range a.Resources {
		node, exists := g.Nodes[res.Name]
		if !exists {
			node = &Node{ID: res.Name, Order: len(g.Order)}
			g.Nodes[res.Name] = node
			g.Order = append(g.Order, res.Name)
		}
		node.Type = res.Type
		node.Kind = reg.Lookup(res.Type)
		node.Attributes = res.Attributes
		node.Cluster = clusters[membership[res.Name]]
	}

	for _, id := range g.Order {
		node := g.Nodes[id]
		if node.Cluster != nil {
			node.Cluster.Members = append(node.Cluster.Members, node)
		}
	}
	for _, cl := range clusterOrder {
		if len(cl.Members) > 0 {
			g.Clusters = append(g.Clusters, cl)
		}
	}

	for _, rel := range a.Relationships {
		from := g.Nodes[rel.Source]
		to := g.Nodes[rel.Target]
		if from == nil || to == nil {
			continue
		}
		g.addEdge(from, to, rel.Kind)
	}

	return g
}

func (g *Graph) addEdge(from, to *Node, relationship string) {
	edge := &Edge{
		From:         from,
		To:           to,
		Relationship: relationship,
	}
	g.Edges = append(g.Edges, edge)
	from.Edges = append(from.Edges, edge)
}
