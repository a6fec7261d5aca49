package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ankek/archdiagram/internal/ir"
)

func TestValidateOutputPath(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
		setup   func() string
	}{
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
		},
		{
			name:    "blank path",
			path:    "   ",
			wantErr: true,
		},
		{
			name: "valid path in temp dir",
			setup: func() string {
				return filepath.Join(tmpDir, "diagram.png")
			},
		},
		{
			name:    "path traversal attempt with ..",
			path:    tmpDir + "/../../../etc/passwd",
			wantErr: true,
		},
		{
			name:    "relative traversal",
			path:    "../diagram.svg",
			wantErr: true,
		},
		{
			name:    "path in non-existent directory",
			path:    filepath.Join(tmpDir, "missing", "dir", "diagram.svg"),
			wantErr: true,
		},
		{
			name:    "path is a directory",
			path:    tmpDir,
			wantErr: true,
		},
		{
			name:    "parent is a file",
			wantErr: true,
			setup: func() string {
				f := filepath.Join(tmpDir, "plain")
				if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
				return filepath.Join(f, "diagram.svg")
			},
		},
		{
			name: "valid nested path",
			setup: func() string {
				nested := filepath.Join(tmpDir, "nested", "dir")
				if err := os.MkdirAll(nested, 0755); err != nil {
					t.Fatal(err)
				}
				return filepath.Join(nested, "diagram.svg")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.setup != nil {
				path = tt.setup()
			}

			err := ValidateOutputPath(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", path, err, tt.wantErr)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(tmpDir, writeProbe)); !os.IsNotExist(err) {
		t.Errorf("write probe left behind: %v", err)
	}
}

func TestValidateInputPath(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "description.txt")
	testDir := filepath.Join(tmpDir, "config")

	if err := os.WriteFile(testFile, []byte("a web app"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := os.MkdirAll(testDir, 0755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		mustBeDir bool
		wantErr   bool
	}{
		{"empty path", "", false, true},
		{"valid file", testFile, false, false},
		{"valid directory", testDir, true, false},
		{"file when directory expected", testFile, true, true},
		{"directory when file expected", testDir, false, true},
		{"non-existent path", filepath.Join(tmpDir, "nope.txt"), false, true},
		{"relative traversal", "../../description.txt", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.path, tt.mustBeDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.svg")

	if err := WriteImage(path, []byte("<svg/>")); err != nil {
		t.Fatalf("WriteImage() error = %v", err)
	}
	if err := WriteImage(path, []byte("<svg>2</svg>")); err != nil {
		t.Fatalf("WriteImage() overwrite error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<svg>2</svg>" {
		t.Errorf("content = %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the image in %s, found %d entries", dir, len(entries))
	}

	if err := WriteImage(filepath.Join(dir, "missing", "out.svg"), []byte("x")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   ir.Format
		wantOK bool
	}{
		{"diagram.png", ir.FormatPNG, true},
		{"out/diagram.SVG", ir.FormatSVG, true},
		{"diagram.jpg", "", false},
		{"diagram", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FormatFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
