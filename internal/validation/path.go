// Package validation checks user supplied file paths before diagrams are
// read from or written to them.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankek/archdiagram/internal/ir"
)

// writeProbe is created and removed to check that a directory is writable
const writeProbe = ".archdiagram_write_test"

// ValidateOutputPath rejects empty paths, paths with parent directory
// components, and paths whose directory is missing or not writable
func ValidateOutputPath(outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if hasParentRef(outputPath) {
		return fmt.Errorf("path traversal detected in output path: %s", outputPath)
	}

	absPath, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", absPath)
	}

	dir := filepath.Dir(absPath)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	probe := filepath.Join(dir, writeProbe)
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("output directory is not writable: %s: %w", dir, err)
	}
	f.Close()
	os.Remove(probe)

	return nil
}

// ValidateInputPath checks that a description, config or kinds file exists
// and has the expected type
func ValidateInputPath(inputPath string, mustBeDir bool) error {
	if strings.TrimSpace(inputPath) == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	cleanPath := filepath.Clean(inputPath)
	if !filepath.IsAbs(inputPath) && hasParentRef(inputPath) {
		return fmt.Errorf("potentially unsafe path detected: %s", inputPath)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input path does not exist: %s", cleanPath)
		}
		return fmt.Errorf("failed to access input path: %w", err)
	}
	if mustBeDir && !info.IsDir() {
		return fmt.Errorf("input path must be a directory: %s", cleanPath)
	}
	if !mustBeDir && info.IsDir() {
		return fmt.Errorf("input path must be a file: %s", cleanPath)
	}
	return nil
}

// WriteImage validates path and writes data through a temporary file in
// the same directory, so readers never observe a partial image
func WriteImage(path string, data []byte) error {
	if err := ValidateOutputPath(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".archdiagram-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// FormatFromPath infers the image format from the file extension
func FormatFromPath(path string) (ir.Format, bool) {
	f, err := ir.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return "", false
	}
	return f, true
}

func hasParentRef(p string) bool {
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if part == ".." {
			return true
		}
	}
	return false
}
