// Package provider implements the archdiagram Terraform provider. Its
// resource and data source render a diagram from a description, a
// Terraform configuration directory or a state file and write it to disk.
package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/parser"
	"github.com/ankek/archdiagram/internal/pipeline"
	"github.com/ankek/archdiagram/internal/validation"
)

// DefaultTitle labels diagrams of Terraform sources when no title is set
const DefaultTitle = "Terraform Architecture"

// Generator produces diagrams from descriptions or from an IR
type Generator interface {
	Generate(ctx context.Context, req ir.RenderRequest) (*pipeline.Result, error)
	GenerateFromIR(ctx context.Context, arch *ir.ArchitectureIR, format, direction string) (*pipeline.Result, error)
}

// DiagramGenerator is shared between the resource and the data source
type DiagramGenerator struct {
	generator Generator
}

// NewDiagramGenerator wraps a Generator
func NewDiagramGenerator(g Generator) *DiagramGenerator {
	return &DiagramGenerator{generator: g}
}

// DiagramConfig is one diagram request. Exactly one of Description,
// ConfigPath and StatePath is set.
type DiagramConfig struct {
	Description string
	ConfigPath  string
	StatePath   string
	OutputPath  string
	Format      string // inferred from OutputPath, then png, when empty
	Direction   string // TB when empty
	Title       string // Terraform sources only
}

// GenerateResult describes the written diagram
type GenerateResult struct {
	ResourceCount int64
	OutputPath    string
	Format        string
	Fallback      bool
	SHA256        string
}

var errNotConfigured = errors.New("the provider has not been configured")

// Generate validates paths, renders the diagram and writes it to
// OutputPath
func (g *DiagramGenerator) Generate(ctx context.Context, cfg DiagramConfig) (*GenerateResult, error) {
	if g == nil || g.generator == nil {
		return nil, errNotConfigured
	}
	if err := validation.ValidateOutputPath(cfg.OutputPath); err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	format := cfg.Format
	if format == "" {
		format = string(ir.FormatPNG)
		if f, ok := validation.FormatFromPath(cfg.OutputPath); ok {
			format = string(f)
		}
	}
	direction := cfg.Direction
	if direction == "" {
		direction = string(ir.DirectionTB)
	}

	res, err := g.render(ctx, cfg, format, direction)
	if err != nil {
		return nil, err
	}

	if err := validation.WriteImage(cfg.OutputPath, res.Image); err != nil {
		return nil, err
	}

	var count int64
	if res.IR != nil {
		count = int64(len(res.IR.Resources))
	}
	sum := sha256.Sum256(res.Image)

	tflog.Debug(ctx, "Wrote diagram", map[string]interface{}{
		"output_path": cfg.OutputPath,
		"format":      string(res.Format),
		"fallback":    res.Fallback,
		"resources":   count,
	})

	return &GenerateResult{
		ResourceCount: count,
		OutputPath:    cfg.OutputPath,
		Format:        string(res.Format),
		Fallback:      res.Fallback,
		SHA256:        hex.EncodeToString(sum[:]),
	}, nil
}

func (g *DiagramGenerator) render(ctx context.Context, cfg DiagramConfig, format, direction string) (*pipeline.Result, error) {
	source, err := terraformSource(cfg)
	if err != nil {
		return nil, err
	}

	if source == "" {
		return g.generator.Generate(ctx, ir.RenderRequest{
			Description: cfg.Description,
			Format:      format,
			Direction:   direction,
		})
	}

	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}
	arch, err := parser.LoadIR(ctx, source, title)
	if err != nil {
		return nil, err
	}
	tflog.Debug(ctx, "Parsed Terraform source", map[string]interface{}{
		"source":        source,
		"resources":     len(arch.Resources),
		"relationships": len(arch.Relationships),
	})
	return g.generator.GenerateFromIR(ctx, arch, format, direction)
}

// terraformSource returns the validated Terraform path, or "" for a
// description request
func terraformSource(cfg DiagramConfig) (string, error) {
	set := 0
	for _, v := range []string{cfg.Description, cfg.ConfigPath, cfg.StatePath} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of description, config_path or state_path must be provided")
	}

	switch {
	case cfg.ConfigPath != "":
		if err := validation.ValidateInputPath(cfg.ConfigPath, true); err != nil {
			return "", fmt.Errorf("invalid config path: %w", err)
		}
		return cfg.ConfigPath, nil
	case cfg.StatePath != "":
		if err := validation.ValidateInputPath(cfg.StatePath, false); err != nil {
			return "", fmt.Errorf("invalid state path: %w", err)
		}
		return cfg.StatePath, nil
	}
	return "", nil
}
