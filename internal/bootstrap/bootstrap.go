// Package bootstrap assembles a Pipeline from a Config
package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/config"
	"github.com/ankek/archdiagram/internal/fallback"
	"github.com/ankek/archdiagram/internal/pipeline"
	"github.com/ankek/archdiagram/internal/registry"
	"github.com/ankek/archdiagram/internal/renderer"
	"github.com/ankek/archdiagram/internal/telemetry"
	"github.com/ankek/archdiagram/internal/translator"
)

// Components are the pieces a Pipeline is built from, exposed for callers
// that need them individually (the CLI translate and kinds commands)
type Components struct {
	Registry   *registry.Registry
	Translator *translator.Client
	Renderer   *renderer.Renderer
	Fallback   *fallback.Renderer
	Pipeline   *pipeline.Pipeline
}

// Build wires every component. metrics may be nil.
func Build(cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics) (*Components, error) {
	reg := registry.Default()
	if cfg.Render.RegistryFile != "" {
		var err error
		reg, err = registry.LoadFile(cfg.Render.RegistryFile, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to load node kinds: %w", err)
		}
	}

	opts := []translator.Option{
		translator.WithLogger(logger.With().Str("component", "translator").Logger()),
	}
	if cfg.LLM.UseAzureAD {
		cred, err := translator.NewDefaultCredential()
		if err != nil {
			return nil, err
		}
		opts = append(opts, translator.WithCredential(cred))
	}
	tr := translator.New(translator.Config{
		Endpoint:   cfg.LLM.Endpoint,
		APIKey:     cfg.LLM.APIKey,
		Deployment: cfg.LLM.Deployment,
		APIVersion: cfg.LLM.APIVersion,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, opts...)

	engine, err := renderer.NewEngine(cfg.Render.Engine, cfg.Render.DotPath)
	if err != nil {
		return nil, err
	}
	if gv, ok := engine.(*renderer.GraphvizEngine); ok && !gv.Available() {
		logger.Warn().Str("dot_path", cfg.Render.DotPath).Msg("graphviz not found, diagrams will use the fallback renderer")
	}

	rd := renderer.New(engine, reg,
		renderer.WithLogger(logger.With().Str("component", "renderer").Logger()),
		renderer.WithLabels(cfg.Render.IncludeLabels),
	)
	fb := fallback.New()

	p := pipeline.New(tr, rd, fb,
		pipeline.WithLogger(logger.With().Str("component", "pipeline").Logger()),
		pipeline.WithMetrics(metrics),
	)

	return &Components{
		Registry:   reg,
		Translator: tr,
		Renderer:   rd,
		Fallback:   fb,
		Pipeline:   p,
	}, nil
}
