package renderer

import (
	"context"
	"fmt"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/ir"
)

// NativeEngine lays out diagrams in-process. It has no external
// dependencies and therefore never reports KindToolchainUnavailable.
type NativeEngine struct{}

func (e *NativeEngine) Name() string {
	return EngineNative
}

func (e *NativeEngine) Render(ctx context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, internalError(EngineNative, "cancelled before layout", ctx.Err())
	default:
	}

	layout := CalculateLayout(g, opts.Direction)

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case ir.FormatSVG:
		data, err = NewSVGRenderer(opts).Render(layout, g.Label)
	case ir.FormatPNG:
		data, err = NewPNGRenderer(opts).Render(layout, g.Label)
	default:
		return nil, internalError(EngineNative, fmt.Sprintf("unsupported format %q", opts.Format), nil)
	}
	if err != nil {
		return nil, internalError(EngineNative, "failed to serialize diagram", err)
	}
	return data, nil
}
