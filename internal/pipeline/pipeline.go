// Package pipeline sequences translation, rendering and the fallback path
// behind a single Generate operation.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/renderer"
	"github.com/ankek/archdiagram/internal/telemetry"
	"github.com/ankek/archdiagram/internal/translator"
)

// Translator converts a description into an IR
type Translator interface {
	Translate(ctx context.Context, description string) (*ir.ArchitectureIR, error)
}

// Renderer draws an IR
type Renderer interface {
	Render(ctx context.Context, a *ir.ArchitectureIR, format ir.Format, direction ir.Direction) ([]byte, error)
	EngineName() string
}

// FallbackRenderer draws the placeholder image for a description
type FallbackRenderer interface {
	Render(description string, format ir.Format) ([]byte, error)
}

// Result is a generated diagram
type Result struct {
	Image    []byte
	Format   ir.Format
	Fallback bool               // true when the placeholder was drawn instead
	IR       *ir.ArchitectureIR // the translated architecture
}

// Pipeline is safe for concurrent use when its components are
type Pipeline struct {
	translator Translator
	renderer   Renderer
	fallback   FallbackRenderer
	metrics    *telemetry.Metrics
	logger     zerolog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics records request outcomes and durations
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a pipeline
func New(t Translator, r Renderer, f FallbackRenderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		translator: t,
		renderer:   r,
		fallback:   f,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate checks a request and returns its parsed format and direction
func Validate(req ir.RenderRequest) (ir.Format, ir.Direction, error) {
	if strings.TrimSpace(req.Description) == "" {
		return "", "", &ValidationError{Field: "description", Message: "must not be empty"}
	}
	format, err := ir.ParseFormat(req.Format)
	if err != nil {
		return "", "", &ValidationError{Field: "format", Message: err.Error()}
	}
	direction, err := ir.ParseDirection(req.Direction)
	if err != nil {
		return "", "", &ValidationError{Field: "direction", Message: err.Error()}
	}
	return format, direction, nil
}

// Generate turns a description into a diagram.
//
// Validation failures return *ValidationError before the translator is
// called. Translation failures are returned unchanged. A render failure
// caused by a missing layout toolchain is answered with the fallback image;
// every other render failure is returned.
func (p *Pipeline) Generate(ctx context.Context, req ir.RenderRequest) (*Result, error) {
	format, direction, err := Validate(req)
	if err != nil {
		p.metrics.ObserveRequest(telemetry.OutcomeValidationError, strings.ToLower(req.Format))
		return nil, err
	}

	log := p.logger.With().Str("format", string(format)).Str("direction", string(direction)).Logger()

	start := time.Now()
	arch, err := p.translator.Translate(ctx, req.Description)
	p.metrics.ObserveTranslate(time.Since(start))
	if err != nil {
		p.metrics.ObserveRequest(telemetry.OutcomeTranslationError, string(format))
		var te *translator.TranslationError
		if errors.As(err, &te) {
			log.Error().Err(err).Int("status", te.StatusCode).Msg("translation failed")
		} else {
			log.Error().Err(err).Msg("translation failed")
		}
		return nil, err
	}

	return p.render(ctx, arch, format, direction, req.Description, log)
}

// GenerateFromIR renders an architecture that did not come from the
// translator, such as one read from Terraform files. The fallback image
// lists the architecture's resources in place of a description.
func (p *Pipeline) GenerateFromIR(ctx context.Context, arch *ir.ArchitectureIR, format, direction string) (*Result, error) {
	if arch == nil || len(arch.Resources) == 0 {
		p.metrics.ObserveRequest(telemetry.OutcomeValidationError, strings.ToLower(format))
		return nil, &ValidationError{Field: "architecture", Message: "has no resources"}
	}
	f, d, err := Validate(ir.RenderRequest{Description: arch.Title(), Format: format, Direction: direction})
	if err != nil {
		p.metrics.ObserveRequest(telemetry.OutcomeValidationError, strings.ToLower(format))
		return nil, err
	}

	log := p.logger.With().Str("format", string(f)).Str("direction", string(d)).Str("source", "ir").Logger()
	return p.render(ctx, arch, f, d, arch.Summary(), log)
}

// render draws arch, substituting the fallback image for fallbackText when
// the layout toolchain is missing
func (p *Pipeline) render(ctx context.Context, arch *ir.ArchitectureIR, format ir.Format, direction ir.Direction, fallbackText string, log zerolog.Logger) (*Result, error) {
	engine := p.renderer.EngineName()
	start := time.Now()
	image, err := p.renderer.Render(ctx, arch, format, direction)
	p.metrics.ObserveRender(engine, time.Since(start))
	if err == nil {
		p.metrics.ObserveRequest(telemetry.OutcomeRendered, string(format))
		log.Info().Str("engine", engine).Int("bytes", len(image)).Msg("diagram generated")
		return &Result{Image: image, Format: format, IR: arch}, nil
	}

	if !renderer.IsToolchainUnavailable(err) {
		p.metrics.ObserveRequest(telemetry.OutcomeRenderError, string(format))
		log.Error().Err(err).Str("engine", engine).Msg("render failed")
		return nil, err
	}

	log.Warn().Err(err).Str("engine", engine).Msg("layout toolchain unavailable, rendering fallback")
	image, ferr := p.fallback.Render(fallbackText, format)
	if ferr != nil {
		p.metrics.ObserveRequest(telemetry.OutcomeRenderError, string(format))
		return nil, errors.Join(err, ferr)
	}

	p.metrics.ObserveRequest(telemetry.OutcomeFallback, string(format))
	return &Result{Image: image, Format: format, Fallback: true, IR: arch}, nil
}
