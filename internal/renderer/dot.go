package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
)

// WriteDOT renders the graph as Graphviz DOT source. Node identifiers are
// derived from declaration order so resource names never need escaping in
// edge statements.
func WriteDOT(g *graph.Graph, opts RenderOptions) []byte {
	var buf bytes.Buffer

	rankdir := "TB"
	if opts.Direction == ir.DirectionLR {
		rankdir = "LR"
	}

	buf.WriteString("digraph architecture {\n")
	fmt.Fprintf(&buf, "  graph [label=%s, labelloc=\"t\", fontsize=20, fontname=\"Helvetica\", rankdir=%s, pad=0.5, nodesep=0.6, ranksep=0.75, compound=true];\n",
		dotQuote(g.Label), rankdir)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=11, fontcolor=\"#FFFFFF\", color=\"#333333\", width=1.8, height=0.9, fixedsize=false];\n")
	buf.WriteString("  edge [color=\"#555555\", arrowsize=0.8];\n")

	for i, cl := range g.Clusters {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%s;\n", dotQuote(cl.Name))
		buf.WriteString("    style=\"rounded,dashed\"; color=\"#90A4AE\"; bgcolor=\"#F5F8FA\"; fontname=\"Helvetica\"; fontsize=12;\n")
		for _, n := range cl.Members {
			buf.WriteString("    ")
			writeDOTNode(&buf, n, opts)
		}
		buf.WriteString("  }\n")
	}

	for _, n := range g.TopLevel() {
		buf.WriteString("  ")
		writeDOTNode(&buf, n, opts)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -> %s;\n", dotNodeID(e.From), dotNodeID(e.To))
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}

func writeDOTNode(buf *bytes.Buffer, n *graph.Node, opts RenderOptions) {
	label := dotEscape(n.ID)
	if opts.IncludeLabels {
		label += `\n` + dotEscape(n.Kind.Label)
	}
	fmt.Fprintf(buf, "%s [label=\"%s\", tooltip=%s, fillcolor=%q];\n",
		dotNodeID(n), label, dotQuote(n.Type), getNodeColor(n))
}

func dotNodeID(n *graph.Node) string {
	return fmt.Sprintf("n%d", n.Order)
}

// dotEscape escapes a string for use inside a double-quoted DOT ID
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func dotQuote(s string) string {
	return `"` + dotEscape(s) + `"`
}
