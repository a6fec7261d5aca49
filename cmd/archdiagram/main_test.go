package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankek/archdiagram/internal/config"
	"github.com/ankek/archdiagram/internal/pipeline"
)

// isolate clears every setting a developer machine might carry and selects
// the native engine so no external tools are needed
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAPIKey, config.EnvEndpoint, config.EnvDeployment, config.EnvAPIVersion,
		config.EnvUseAzureAD, config.EnvTimeout, config.EnvMaxRetries, config.EnvDotPath,
		config.EnvRegistryFile, config.EnvAddr, config.EnvCORSOrigins, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvEngine, "native")
}

func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--console=false",
	}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "archdiagram version "+version+"\n", out)

	out, _, err = runCmd(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "archdiagram version "+version+"\n", out)
}

func TestGenerateWritesFile(t *testing.T) {
	isolate(t)
	output := filepath.Join(t.TempDir(), "arch.svg")

	_, stderr, err := runCmd(t, "", "generate", "a web app with a database", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, stderr, "diagram written")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<?xml"), "format inferred from extension")
	assert.Contains(t, svg, "Sample Web App Architecture")
	assert.Contains(t, svg, "SQL Database")
}

func TestGenerateFormatFlagWins(t *testing.T) {
	isolate(t)
	output := filepath.Join(t.TempDir(), "arch.svg")

	_, _, err := runCmd(t, "", "generate", "a web app", "--format", "png", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestGenerateStdinToStdout(t *testing.T) {
	isolate(t)

	out, _, err := runCmd(t, "a function app reading from storage", "generate", "--file", "-", "--format", "svg", "--output", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "</svg>")
}

func TestGenerateFromFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "arch.txt")
	require.NoError(t, os.WriteFile(input, []byte("a web app"), 0o644))

	out, _, err := runCmd(t, "", "generate", "-f", input, "--format", "SVG", "--direction", "lr", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
}

func TestGenerateErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no description", []string{"generate", "-o", "-"}, "description is required"},
		{"argument and file", []string{"generate", "x", "--file", "y", "-o", "-"}, "not both"},
		{"missing file", []string{"generate", "--file", filepath.Join(dir, "nope.txt")}, "does not exist"},
		{"bad output dir", []string{"generate", "x", "-o", filepath.Join(dir, "missing", "a.png")}, "does not exist"},
		{"bad format", []string{"generate", "x", "--format", "gif", "-o", "-"}, "invalid format"},
		{"bad direction", []string{"generate", "x", "--direction", "BT", "-o", "-"}, "invalid direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCmd(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerateBlankDescription(t *testing.T) {
	isolate(t)

	_, _, err := runCmd(t, "   \n", "generate", "--file", "-", "-o", "-")
	var verr *pipeline.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "description", verr.Field)
}

func TestTranslate(t *testing.T) {
	isolate(t)

	out, stderr, err := runCmd(t, "", "translate", "a web app")
	require.NoError(t, err)
	assert.Contains(t, out, `"diagram_label": "Sample Web App Architecture"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, stderr, "demo architecture")

	out, _, err = runCmd(t, "", "translate", "a web app", "--output-format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "diagram_label: Sample Web App Architecture")
	assert.Contains(t, out, "- name: Web App")

	_, _, err = runCmd(t, "", "translate", "a web app", "--output-format", "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toml")
}

func TestKinds(t *testing.T) {
	isolate(t)

	out, _, err := runCmd(t, "", "kinds")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.Contains(t, out, "Azure.WebApp")
	assert.Contains(t, out, "Azure.Firewall")

	out, _, err = runCmd(t, "", "kinds", "--category", "Security")
	require.NoError(t, err)
	assert.Contains(t, out, "Azure.Firewall")
	assert.NotContains(t, out, "Azure.WebApp")

	_, _, err = runCmd(t, "", "kinds", "--category", "nonsense")
	require.Error(t, err)
}

func TestKindsWithRegistryFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "kinds.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
node_kind "Azure.SignalR" {
  label    = "SignalR Service"
  category = "web"
}
`), 0o644))
	t.Setenv(config.EnvRegistryFile, path)

	out, _, err := runCmd(t, "", "kinds", "--category", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "Azure.SignalR")
	assert.Contains(t, out, "SignalR Service")
}

func TestConfigInitAndShow(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvAPIKey, "super-secret")
	path := filepath.Join(t.TempDir(), "archdiagram.hcl")

	out, _, err := runCmd(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, _, err = runCmd(t, "", "config", "init", path)
	require.Error(t, err, "existing files are never overwritten")

	out, _, err = runCmd(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `engine`)
	assert.Contains(t, out, `"native"`, "environment overrides the file")
	assert.NotContains(t, out, "super-secret")
}

func TestLoadConfigLogLevelFlag(t *testing.T) {
	isolate(t)

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "debug", "--env-file", filepath.Join(t.TempDir(), "x.env")}))
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestTerraform(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tf"), []byte(`
resource "azurerm_resource_group" "main" {
  name = "rg-shop"
}

resource "azurerm_linux_web_app" "storefront" {
  resource_group_name = azurerm_resource_group.main.name
  app_settings = {
    DB = azurerm_mssql_database.orders.id
  }
}

resource "azurerm_mssql_database" "orders" {
  resource_group_name = azurerm_resource_group.main.name
}
`), 0o644))

	out, _, err := runCmd(t, "", "terraform", dir, "--format", "svg", "-o", "-", "--label", "Shop")
	require.NoError(t, err)
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, "storefront")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "rg-shop")
	assert.Contains(t, out, `class="edge"`)

	_, _, err = runCmd(t, "", "terraform", filepath.Join(dir, "missing"), "-o", "-")
	require.Error(t, err)
}
