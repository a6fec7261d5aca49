package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankek/archdiagram/internal/fallback"
	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/renderer"
	"github.com/ankek/archdiagram/internal/telemetry"
	"github.com/ankek/archdiagram/internal/translator"
)

const scenario = "A web application with a SQL Database, protected by a firewall."

type stubTranslator struct {
	calls int
	arch  *ir.ArchitectureIR
	err   error
}

func (s *stubTranslator) Translate(context.Context, string) (*ir.ArchitectureIR, error) {
	s.calls++
	return s.arch, s.err
}

type failingEngine struct{ err error }

func (f *failingEngine) Name() string { return "failing" }

func (f *failingEngine) Render(context.Context, *graph.Graph, renderer.RenderOptions) ([]byte, error) {
	return nil, f.err
}

func missingGraphviz(t *testing.T) *renderer.Renderer {
	t.Helper()
	return renderer.New(&renderer.GraphvizEngine{DotPath: filepath.Join(t.TempDir(), "missing-dot")}, nil)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       ir.RenderRequest
		wantField string
	}{
		{name: "ok", req: ir.RenderRequest{Description: "x", Format: "png", Direction: "TB"}},
		{name: "case insensitive", req: ir.RenderRequest{Description: "x", Format: "SVG", Direction: "lr"}},
		{name: "blank description", req: ir.RenderRequest{Description: "  \n", Format: "png", Direction: "TB"}, wantField: "description"},
		{name: "bad format", req: ir.RenderRequest{Description: "x", Format: "gif", Direction: "TB"}, wantField: "format"},
		{name: "missing format", req: ir.RenderRequest{Description: "x", Direction: "TB"}, wantField: "format"},
		{name: "bad direction", req: ir.RenderRequest{Description: "x", Format: "png", Direction: "BT"}, wantField: "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Validate(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestGenerateValidationBeforeTranslation(t *testing.T) {
	tr := &stubTranslator{arch: ir.Demo()}
	p := New(tr, renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	_, err := p.Generate(context.Background(), ir.RenderRequest{Description: "x", Format: "jpeg", Direction: "TB"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, tr.calls)
}

func TestGenerateDemoScenario(t *testing.T) {
	p := New(translator.New(translator.Config{}), renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	res, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "svg", Direction: "TB"})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, ir.FormatSVG, res.Format)
	assert.Equal(t, ir.Demo(), res.IR)

	svg := string(res.Image)
	assert.Equal(t, 2, strings.Count(svg, `class="node"`))
	assert.Equal(t, 1, strings.Count(svg, `class="edge"`))
	assert.Equal(t, 1, strings.Count(svg, `class="cluster"`))
}

func TestGenerateUnresolvedRelationship(t *testing.T) {
	tr := &stubTranslator{arch: &ir.ArchitectureIR{
		Resources: []ir.Resource{{Name: "Web", Type: "Azure.WebApp"}, {Name: "DB", Type: "Azure.SQLDatabase"}},
		Relationships: []ir.Relationship{
			{Source: "Web", Target: "DB"},
			{Source: "Web", Target: "Firewall"},
		},
	}}
	p := New(tr, renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	res, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "svg", Direction: "LR"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(res.Image), `class="edge"`))
}

func TestGenerateFallbackOnMissingToolchain(t *testing.T) {
	for _, format := range []string{"png", "svg"} {
		t.Run(format, func(t *testing.T) {
			p := New(translator.New(translator.Config{}), missingGraphviz(t), fallback.New())

			res, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: format, Direction: "TB"})
			require.NoError(t, err)

			assert.True(t, res.Fallback)
			assert.Equal(t, ir.Format(format), res.Format)
			if format == "svg" {
				assert.Contains(t, string(res.Image), fallback.Title)
				assert.Contains(t, string(res.Image), "A web application with a SQL Database, protected by a")
			} else {
				_, err := png.Decode(bytes.NewReader(res.Image))
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateFallbackTruncatesLongDescription(t *testing.T) {
	p := New(translator.New(translator.Config{}), missingGraphviz(t), fallback.New())
	long := strings.Repeat("service ", 150)

	res, err := p.Generate(context.Background(), ir.RenderRequest{Description: long, Format: "svg", Direction: "TB"})
	require.NoError(t, err)
	assert.Contains(t, string(res.Image), ">"+fallback.Ellipsis+"<")
}

func TestGenerateInternalRenderErrorSurfaced(t *testing.T) {
	internal := &renderer.RenderError{Kind: renderer.KindInternal, Engine: "failing", Message: "layout fault"}
	p := New(&stubTranslator{arch: ir.Demo()}, renderer.New(&failingEngine{err: internal}, nil), fallback.New())

	res, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "png", Direction: "TB"})
	assert.Nil(t, res)

	var re *renderer.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, renderer.KindInternal, re.Kind)
}

func TestGenerateTranslationErrorPropagated(t *testing.T) {
	te := &translator.TranslationError{StatusCode: 502, Message: "upstream returned non-success status", Snippet: "bad gateway"}
	p := New(&stubTranslator{err: te}, renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	_, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "png", Direction: "TB"})

	var got *translator.TranslationError
	require.ErrorAs(t, err, &got)
	assert.Same(t, te, got)
}

type brokenFallback struct{}

func (brokenFallback) Render(string, ir.Format) ([]byte, error) {
	return nil, errors.New("canvas unavailable")
}

func TestGenerateFallbackFailure(t *testing.T) {
	p := New(&stubTranslator{arch: ir.Demo()}, missingGraphviz(t), brokenFallback{})

	_, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "png", Direction: "TB"})
	require.Error(t, err)
	assert.True(t, renderer.IsToolchainUnavailable(err))
	assert.Contains(t, err.Error(), "canvas unavailable")
}

func TestGenerateMetrics(t *testing.T) {
	m := telemetry.NewMetrics(prometheus.NewRegistry())
	p := New(translator.New(translator.Config{}), missingGraphviz(t), fallback.New(), WithMetrics(m))

	_, err := p.Generate(context.Background(), ir.RenderRequest{Description: scenario, Format: "png", Direction: "TB"})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), ir.RenderRequest{Description: "", Format: "png", Direction: "TB"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests().WithLabelValues(telemetry.OutcomeFallback, "png")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests().WithLabelValues(telemetry.OutcomeValidationError, "png")))
}

func TestGenerateFromIR(t *testing.T) {
	tr := &stubTranslator{}
	p := New(tr, renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	res, err := p.GenerateFromIR(context.Background(), ir.Demo(), "SVG", "lr")
	require.NoError(t, err)
	assert.Zero(t, tr.calls, "the translator is not consulted")
	assert.False(t, res.Fallback)
	assert.Equal(t, ir.FormatSVG, res.Format)
	assert.Contains(t, string(res.Image), "SQL Database")
}

func TestGenerateFromIRValidation(t *testing.T) {
	p := New(&stubTranslator{}, renderer.New(&renderer.NativeEngine{}, nil), fallback.New())

	tests := []struct {
		name      string
		arch      *ir.ArchitectureIR
		format    string
		wantField string
	}{
		{"nil", nil, "png", "architecture"},
		{"no resources", &ir.ArchitectureIR{Label: "x"}, "png", "architecture"},
		{"bad format", ir.Demo(), "bmp", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GenerateFromIR(context.Background(), tt.arch, tt.format, "TB")
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestGenerateFromIRFallbackListsResources(t *testing.T) {
	p := New(&stubTranslator{}, missingGraphviz(t), fallback.New())

	res, err := p.GenerateFromIR(context.Background(), ir.Demo(), "svg", "TB")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Contains(t, string(res.Image), "Web App is a Azure.WebApp.")
}
