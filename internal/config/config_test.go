package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvAPIKey, EnvEndpoint, EnvDeployment, EnvAPIVersion, EnvUseAzureAD, EnvTimeout,
	EnvMaxRetries, EnvEngine, EnvDotPath, EnvRegistryFile, EnvAddr, EnvCORSOrigins, EnvLogLevel,
}

// clearEnv unsets every variable Load reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnv {
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v)
			require.NoError(t, os.Unsetenv(k))
		}
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Zero(t, cfg.LLM.MaxRetries)
	assert.Equal(t, "graphviz", cfg.Render.Engine)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_OPENAI_KEY", "from-env-function")

	path := writeTemp(t, "archdiagram.hcl", `
log_level = "debug"

llm {
  endpoint    = "https://contoso.openai.azure.com"
  api_key     = env("TEST_OPENAI_KEY")
  deployment  = "gpt-4o"
  timeout     = "45s"
  max_retries = 2
}

render {
  engine         = "native"
  include_labels = false
}

server {
  cors_origins = ["https://a.example", "https://b.example"]
}
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://contoso.openai.azure.com", cfg.LLM.Endpoint)
	assert.Equal(t, "from-env-function", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Deployment)
	assert.Equal(t, "2023-05-15", cfg.LLM.APIVersion, "unset attributes keep defaults")
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, "native", cfg.Render.Engine)
	assert.Equal(t, "dot", cfg.Render.DotPath)
	assert.False(t, cfg.Render.IncludeLabels)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEngine, "graphviz")
	t.Setenv(EnvTimeout, "10")
	t.Setenv(EnvCORSOrigins, "https://x.example, https://y.example")
	t.Setenv(EnvUseAzureAD, "true")

	path := writeTemp(t, "archdiagram.hcl", `
render {
  engine = "native"
}
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "graphviz", cfg.Render.Engine)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.LLM.UseAzureAD)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.Server.CORSOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDeployment, "process-wins")

	envFile := writeTemp(t, ".env", `
AZURE_OPENAI_ENDPOINT=https://dotenv.openai.azure.com
AZURE_OPENAI_API_KEY=dotenv-key
AZURE_OPENAI_DEPLOYMENT=dotenv-deployment
`)

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.openai.azure.com", cfg.LLM.Endpoint)
	assert.Equal(t, "dotenv-key", cfg.LLM.APIKey)
	assert.Equal(t, "process-wins", cfg.LLM.Deployment)

	_, set := os.LookupEnv(EnvAPIKey)
	assert.False(t, set, "dotenv values must not leak into the process environment")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown engine", env: map[string]string{EnvEngine: "d2"}},
		{name: "bad timeout", env: map[string]string{EnvTimeout: "soon"}},
		{name: "zero timeout", env: map[string]string{EnvTimeout: "0s"}},
		{name: "negative retries", env: map[string]string{EnvMaxRetries: "-1"}},
		{name: "bad retries", env: map[string]string{EnvMaxRetries: "many"}},
		{name: "bad bool", env: map[string]string{EnvUseAzureAD: "sometimes"}},
		{name: "syntax error", file: `llm {`},
		{name: "unknown attribute", file: `colour = "blue"`},
		{name: "wrong type", file: "llm {\n  max_retries = \"three\"\n}\n"},
		{name: "bad file timeout", file: "llm {\n  timeout = \"forever\"\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeTemp(t, "bad.hcl", tt.file)
			}
			_, err := Load(path, noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"), noEnvFile(t))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "secret-key")

	cfg := Default()
	cfg.LLM.Endpoint = "https://contoso.openai.azure.com"
	cfg.LLM.APIKey = "secret-key"
	cfg.LLM.MaxRetries = 1
	cfg.Render.Engine = "native"

	data := Encode(cfg)
	assert.NotContains(t, string(data), "secret-key")
	assert.Contains(t, string(data), `env("AZURE_OPENAI_API_KEY")`)

	path := filepath.Join(t.TempDir(), "archdiagram.hcl")
	require.NoError(t, WriteFile(path, cfg))
	assert.Error(t, WriteFile(path, cfg), "existing files are not overwritten")

	loaded, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "secret"
	assert.Equal(t, "****", cfg.Redacted().LLM.APIKey)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}
