package parser

import (
	"context"
	"fmt"
	"os"

	"github.com/ankek/archdiagram/internal/ir"
)

// Load parses a configuration directory or a state file, depending on
// what path names
func Load(ctx context.Context, path string) ([]Resource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return ParseConfigDirectory(ctx, path)
	}
	return ParseStateFile(ctx, path)
}

// LoadIR parses path and converts the result. It fails when nothing
// drawable was found.
func LoadIR(ctx context.Context, path, label string) (*ir.ArchitectureIR, error) {
	resources, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	arch := ToIR(resources, label)
	if len(arch.Resources) == 0 {
		return nil, fmt.Errorf("no resources found to diagram in %s", path)
	}
	return arch, nil
}
