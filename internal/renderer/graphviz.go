package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ankek/archdiagram/internal/graph"
)

// GraphvizEngine lays out diagrams with the Graphviz dot binary. Each render
// runs in its own temporary directory, removed before Render returns.
type GraphvizEngine struct {
	DotPath string // binary name or path, defaults to "dot"
	TempDir string // parent for per-request directories, defaults to os.TempDir()
}

func (e *GraphvizEngine) Name() string {
	return EngineGraphviz
}

// Available reports whether the dot binary can be found
func (e *GraphvizEngine) Available() bool {
	_, err := exec.LookPath(e.dotPath())
	return err == nil
}

func (e *GraphvizEngine) dotPath() string {
	if e.DotPath == "" {
		return "dot"
	}
	return e.DotPath
}

func (e *GraphvizEngine) Render(ctx context.Context, g *graph.Graph, opts RenderOptions) ([]byte, error) {
	bin, err := exec.LookPath(e.dotPath())
	if err != nil {
		return nil, toolchainError(EngineGraphviz, fmt.Sprintf("graphviz binary %q not found", e.dotPath()), err)
	}

	select {
	case <-ctx.Done():
		return nil, internalError(EngineGraphviz, "cancelled before layout", ctx.Err())
	default:
	}

	dir, err := os.MkdirTemp(e.TempDir, "archdiagram-*")
	if err != nil {
		return nil, internalError(EngineGraphviz, "failed to create work directory", err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "diagram.dot")
	if err := writeFile(source, WriteDOT(g, opts)); err != nil {
		return nil, internalError(EngineGraphviz, "failed to write DOT source", err)
	}

	output := filepath.Join(dir, "diagram."+string(opts.Format))
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-T"+string(opts.Format), "-o", output, source)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() != nil {
			return nil, internalError(EngineGraphviz, "layout interrupted", ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) || isMissingRenderer(msg) {
			return nil, toolchainError(EngineGraphviz, truncate(msg, 200), err)
		}
		return nil, internalError(EngineGraphviz, fmt.Sprintf("dot failed: %s", truncate(msg, 200)), err)
	}

	data, err := readFile(output)
	if err != nil {
		return nil, internalError(EngineGraphviz, "dot produced no output", err)
	}
	return data, nil
}

// isMissingRenderer detects a dot installation that lacks the output plugin
// for the requested format (e.g. built without cairo)
func isMissingRenderer(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "not recognized") || strings.Contains(s, "no loadimage plugin") ||
		strings.Contains(s, "there is no layout engine support")
}
