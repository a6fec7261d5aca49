package renderer

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/registry"
)

type stubEngine struct {
	render func(ctx context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error)
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Render(ctx context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error) {
	return s.render(ctx, g, opts)
}

func TestNativeRenderSVG(t *testing.T) {
	tests := []struct {
		name         string
		arch         *ir.ArchitectureIR
		wantNodes    int
		wantEdges    int
		wantClusters int
		wantTitle    string
	}{
		{
			name:         "demo",
			arch:         ir.Demo(),
			wantNodes:    2,
			wantEdges:    1,
			wantClusters: 1,
			wantTitle:    "Sample Web App Architecture",
		},
		{
			name: "unresolved relationship and empty cluster",
			arch: &ir.ArchitectureIR{
				Label:         "Partial",
				Resources:     []ir.Resource{{Name: "Web", Type: "Azure.WebApp"}},
				Relationships: []ir.Relationship{{Source: "Web", Target: "Ghost"}},
				Clusters:      []ir.Cluster{{Name: "Nobody", Members: []string{"Ghost"}}},
			},
			wantNodes: 1,
			wantTitle: "Partial",
		},
		{
			name: "duplicate edges kept",
			arch: &ir.ArchitectureIR{
				Resources: []ir.Resource{{Name: "A"}, {Name: "B"}},
				Relationships: []ir.Relationship{
					{Source: "A", Target: "B", Kind: "reads"},
					{Source: "A", Target: "B", Kind: "writes"},
				},
			},
			wantNodes: 2,
			wantEdges: 2,
			wantTitle: ir.DefaultLabel,
		},
		{
			name:      "escapes markup",
			arch:      &ir.ArchitectureIR{Label: "<A & B>", Resources: []ir.Resource{{Name: "x<y"}}},
			wantNodes: 1,
			wantTitle: "&lt;A &amp; B&gt;",
		},
	}

	r := New(&NativeEngine{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(context.Background(), tt.arch, ir.FormatSVG, ir.DirectionTB)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			svg := string(out)

			if !strings.HasPrefix(svg, "<?xml") || !strings.Contains(svg, "</svg>") {
				t.Fatalf("output is not an SVG document")
			}
			if got := strings.Count(svg, `class="node"`); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := strings.Count(svg, `class="edge"`); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if got := strings.Count(svg, `class="cluster"`); got != tt.wantClusters {
				t.Errorf("clusters = %d, want %d", got, tt.wantClusters)
			}
			if !strings.Contains(svg, tt.wantTitle) {
				t.Errorf("title %q not found", tt.wantTitle)
			}
		})
	}
}

func TestNativeRenderDemoLabels(t *testing.T) {
	out, err := New(&NativeEngine{}, nil).Render(context.Background(), ir.Demo(), ir.FormatSVG, ir.DirectionTB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	svg := string(out)
	for _, want := range []string{"Web App", "SQL Database", "Resource Group 1", "App Service"} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if !strings.Contains(svg, categoryColor(registry.CategoryWeb)) {
		t.Errorf("SVG missing web category color")
	}
}

func TestNativeRenderWithoutLabels(t *testing.T) {
	out, err := New(&NativeEngine{}, nil, WithLabels(false)).Render(context.Background(), ir.Demo(), ir.FormatSVG, ir.DirectionTB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(out), "App Service") {
		t.Errorf("kind label rendered with labels disabled")
	}
}

func TestNativeRenderPNG(t *testing.T) {
	for _, dir := range []ir.Direction{ir.DirectionTB, ir.DirectionLR} {
		t.Run(string(dir), func(t *testing.T) {
			out, err := New(&NativeEngine{}, nil).Render(context.Background(), ir.Demo(), ir.FormatPNG, dir)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			img, err := png.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
				t.Errorf("empty image")
			}
		})
	}
}

func TestNativeRenderIdempotent(t *testing.T) {
	r := New(&NativeEngine{}, nil)
	a := ir.Demo()
	a.Resources = append(a.Resources,
		ir.Resource{Name: "Cache", Type: "Azure.RedisCache"},
		ir.Resource{Name: "Vault", Type: "Azure.KeyVault"},
	)
	a.Relationships = append(a.Relationships,
		ir.Relationship{Source: "Web App", Target: "Cache"},
		ir.Relationship{Source: "Web App", Target: "Vault"},
	)

	for _, format := range []ir.Format{ir.FormatSVG, ir.FormatPNG} {
		first, err := r.Render(context.Background(), a, format, ir.DirectionLR)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := r.Render(context.Background(), a, format, ir.DirectionLR)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.Equal(first, again) {
				t.Fatalf("%s output differs on run %d", format, i)
			}
		}
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name      string
		engine    Engine
		arch      *ir.ArchitectureIR
		format    ir.Format
		wantKind  ErrorKind
		toolchain bool
	}{
		{
			name:     "nil architecture",
			engine:   &NativeEngine{},
			format:   ir.FormatSVG,
			wantKind: KindInternal,
		},
		{
			name:     "unsupported format",
			engine:   &NativeEngine{},
			arch:     ir.Demo(),
			format:   ir.Format("gif"),
			wantKind: KindInternal,
		},
		{
			name: "panic recovered",
			engine: &stubEngine{render: func(context.Context, *graph.Graph, RenderOptions) ([]byte, error) {
				panic("boom")
			}},
			arch:     ir.Demo(),
			format:   ir.FormatPNG,
			wantKind: KindInternal,
		},
		{
			name: "plain error wrapped",
			engine: &stubEngine{render: func(context.Context, *graph.Graph, RenderOptions) ([]byte, error) {
				return nil, errors.New("disk full")
			}},
			arch:     ir.Demo(),
			format:   ir.FormatPNG,
			wantKind: KindInternal,
		},
		{
			name: "toolchain error preserved",
			engine: &stubEngine{render: func(context.Context, *graph.Graph, RenderOptions) ([]byte, error) {
				return nil, toolchainError("stub", "not installed", nil)
			}},
			arch:      ir.Demo(),
			format:    ir.FormatPNG,
			wantKind:  KindToolchainUnavailable,
			toolchain: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.engine, nil).Render(context.Background(), tt.arch, tt.format, ir.DirectionTB)
			if err == nil {
				t.Fatalf("Render() returned %d bytes, want error", len(out))
			}
			var re *RenderError
			if !errors.As(err, &re) {
				t.Fatalf("error %T is not a *RenderError", err)
			}
			if re.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", re.Kind, tt.wantKind)
			}
			if IsToolchainUnavailable(err) != tt.toolchain {
				t.Errorf("IsToolchainUnavailable() = %v, want %v", !tt.toolchain, tt.toolchain)
			}
		})
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&NativeEngine{}, nil).Render(ctx, ir.Demo(), ir.FormatSVG, ir.DirectionTB)
	if err == nil || IsToolchainUnavailable(err) {
		t.Fatalf("want internal error, got %v", err)
	}
}

func TestRendererPassesOptions(t *testing.T) {
	var got RenderOptions
	engine := &stubEngine{render: func(_ context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error) {
		got = opts
		if g.Label != "Sample Web App Architecture" {
			t.Errorf("graph label = %q", g.Label)
		}
		return []byte("ok"), nil
	}}

	r := New(engine, nil, WithLabels(false))
	if _, err := r.Render(context.Background(), ir.Demo(), ir.FormatSVG, ir.DirectionLR); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := RenderOptions{Format: ir.FormatSVG, Direction: ir.DirectionLR, IncludeLabels: false}
	if got != want {
		t.Errorf("options = %+v, want %+v", got, want)
	}
	if r.EngineName() != "stub" {
		t.Errorf("EngineName() = %q", r.EngineName())
	}
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: EngineGraphviz},
		{name: "graphviz", want: EngineGraphviz},
		{name: "native", want: EngineNative},
		{name: "d2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.name, "")
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewEngine(%q) expected error", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngine(%q) error = %v", tt.name, err)
			}
			if e.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", e.Name(), tt.want)
			}
		})
	}
}

func TestUnresolved(t *testing.T) {
	a := &ir.ArchitectureIR{
		Resources: []ir.Resource{
			{Name: "Web", Type: "Azure.WebApp"},
			{Name: "Mainframe", Type: "Onprem.Mainframe"},
			{Name: "Backup", Type: "Onprem.Mainframe"},
			{Name: "Queue", Type: "azure.servicebus"},
		},
		Relationships: []ir.Relationship{
			{Source: "Web", Target: "Mainframe"},
			{Source: "Web", Target: "Firewall"},
			{Source: "Ghost", Target: "Web"},
		},
	}

	unknown, dangling := unresolved(a, registry.Default())
	if len(unknown) != 1 || unknown[0] != "Onprem.Mainframe" {
		t.Errorf("unknown = %v, want [Onprem.Mainframe]", unknown)
	}
	if dangling != 2 {
		t.Errorf("dangling = %d, want 2", dangling)
	}

	unknown, dangling = unresolved(ir.Demo(), registry.Default())
	if len(unknown) != 0 || dangling != 0 {
		t.Errorf("demo should resolve fully, got %v / %d", unknown, dangling)
	}
}

func TestNativeRenderSVGIsWellFormedXML(t *testing.T) {
	a := &ir.ArchitectureIR{
		Label: "Shop\x01",
		Resources: []ir.Resource{
			{Name: "Web\x02App", Type: "Azure.WebApp"},
			{Name: "caf\xe9", Type: "Azure.SQLDatabase"},
		},
		Relationships: []ir.Relationship{{Source: "Web\x02App", Target: "caf\xe9"}},
		Clusters:      []ir.Cluster{{Name: "rg\x1b", Members: []string{"caf\xe9"}}},
	}

	out, err := New(&NativeEngine{}, nil).Render(context.Background(), a, ir.FormatSVG, ir.DirectionTB)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("SVG is not well-formed XML: %v", err)
		}
	}
}
