package renderer

import (
	"strings"
	"testing"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
)

func TestWriteDOT(t *testing.T) {
	g := graph.Build(ir.Demo(), nil)

	tests := []struct {
		name    string
		opts    RenderOptions
		want    []string
		notWant []string
	}{
		{
			name: "top to bottom with labels",
			opts: RenderOptions{Format: ir.FormatPNG, Direction: ir.DirectionTB, IncludeLabels: true},
			want: []string{
				"digraph architecture {",
				"rankdir=TB",
				`label="Sample Web App Architecture"`,
				"subgraph cluster_0 {",
				`label="Resource Group 1";`,
				`n0 [label="Web App\nApp Service"`,
				`n1 [label="SQL Database\nSQL Database"`,
				"n0 -> n1;",
			},
		},
		{
			name:    "left to right without labels",
			opts:    RenderOptions{Format: ir.FormatSVG, Direction: ir.DirectionLR},
			want:    []string{"rankdir=LR", `n0 [label="Web App",`},
			notWant: []string{"App Service"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := string(WriteDOT(g, tt.opts))
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("DOT missing %q\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("DOT unexpectedly contains %q", w)
				}
			}
		})
	}
}

func TestWriteDOTTopLevelAndEdges(t *testing.T) {
	a := &ir.ArchitectureIR{
		Resources: []ir.Resource{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Relationships: []ir.Relationship{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "B"},
			{Source: "B", Target: "Nope"},
		},
		Clusters: []ir.Cluster{{Name: "Group", Members: []string{"C"}}},
	}
	dot := string(WriteDOT(graph.Build(a, nil), RenderOptions{Direction: ir.DirectionTB}))

	if got := strings.Count(dot, "n0 -> n1;"); got != 2 {
		t.Errorf("edge count = %d, want 2", got)
	}
	if strings.Contains(dot, "Nope") {
		t.Errorf("unresolved target written to DOT")
	}
	if got := strings.Count(dot, "subgraph cluster_"); got != 1 {
		t.Errorf("cluster count = %d, want 1", got)
	}
}

func TestDOTEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: `say "hi"`, want: `say \"hi\"`},
		{in: `back\slash`, want: `back\\slash`},
		{in: "two\nlines\r", want: `two\nlines`},
	}

	for _, tt := range tests {
		if got := dotEscape(tt.in); got != tt.want {
			t.Errorf("dotEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
