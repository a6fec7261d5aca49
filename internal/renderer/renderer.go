// Package renderer lays out an architecture IR and serializes it to PNG or
// SVG. Rendering is delegated to an Engine: Graphviz (the dot binary) or the
// built-in native layout.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/registry"
)

// Engine names accepted by NewEngine
const (
	EngineGraphviz = "graphviz"
	EngineNative   = "native"
)

// RenderOptions contains per-request rendering configuration
type RenderOptions struct {
	Format        ir.Format
	Direction     ir.Direction
	IncludeLabels bool // print the node kind under each resource name
}

// Engine turns a render graph into image bytes
type Engine interface {
	Name() string
	Render(ctx context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error)
}

// Renderer resolves node kinds and drives an Engine
type Renderer struct {
	engine        Engine
	registry      *registry.Registry
	includeLabels bool
	logger        zerolog.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the renderer logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// WithLabels toggles node kind labels
func WithLabels(include bool) Option {
	return func(r *Renderer) { r.includeLabels = include }
}

// New creates a renderer. A nil registry means registry.Default().
func New(engine Engine, reg *registry.Registry, opts ...Option) *Renderer {
	if reg == nil {
		reg = registry.Default()
	}
	r := &Renderer{
		engine:        engine,
		registry:      reg,
		includeLabels: true,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EngineName returns the name of the configured engine
func (r *Renderer) EngineName() string {
	return r.engine.Name()
}

// Render lays out the IR and serializes it. Every failure is a *RenderError;
// only KindToolchainUnavailable means the engine could not run at all.
func (r *Renderer) Render(ctx context.Context, a *ir.ArchitectureIR, format ir.Format, direction ir.Direction) (out []byte, err error) {
	name := r.engine.Name()
	if a == nil {
		return nil, internalError(name, "nil architecture", nil)
	}

	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = internalError(name, "engine panicked", fmt.Errorf("%v", p))
		}
	}()

	start := time.Now()
	unknown, dangling := unresolved(a, r.registry)
	if len(unknown) > 0 || dangling > 0 {
		r.logger.Debug().
			Strs("unknown_types", unknown).
			Int("dangling_relationships", dangling).
			Msg("drawing unknown types as generic resources and skipping dangling relationships")
	}
	g := graph.Build(a, r.registry)

	data, err := r.engine.Render(ctx, g, RenderOptions{
		Format:        format,
		Direction:     direction,
		IncludeLabels: r.includeLabels,
	})
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			re = internalError(name, "engine failed", err)
		}
		return nil, re
	}

	r.logger.Debug().
		Str("engine", name).
		Str("format", string(format)).
		Int("nodes", len(g.Nodes)).
		Int("edges", len(g.Edges)).
		Int("clusters", len(g.Clusters)).
		Dur("duration", time.Since(start)).
		Msg("diagram rendered")

	return data, nil
}

// unresolved reports the resource types the registry does not know, in
// declaration order without repeats, and how many relationships name a
// resource that is not declared
func unresolved(a *ir.ArchitectureIR, reg *registry.Registry) (unknown []string, dangling int) {
	seen := make(map[string]bool)
	for _, res := range a.Resources {
		if !reg.Known(res.Type) && !seen[res.Type] {
			seen[res.Type] = true
			unknown = append(unknown, res.Type)
		}
	}
	names := a.ResourceNames()
	for _, rel := range a.Relationships {
		if !names[rel.Source] || !names[rel.Target] {
			dangling++
		}
	}
	return unknown, dangling
}

// NewEngine builds an engine by name
func NewEngine(name, dotPath string) (Engine, error) {
	switch name {
	case EngineGraphviz, "":
		return &GraphvizEngine{DotPath: dotPath}, nil
	case EngineNative:
		return &NativeEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", name)
	}
}
