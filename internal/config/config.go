// Package config loads archdiagram settings from defaults, an optional HCL
// file, an optional .env file and the process environment, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvAPIKey       = "AZURE_OPENAI_API_KEY"
	EnvEndpoint     = "AZURE_OPENAI_ENDPOINT"
	EnvDeployment   = "AZURE_OPENAI_DEPLOYMENT"
	EnvAPIVersion   = "AZURE_OPENAI_API_VERSION"
	EnvUseAzureAD   = "AZURE_OPENAI_USE_AAD"
	EnvTimeout      = "ARCHDIAGRAM_LLM_TIMEOUT"
	EnvMaxRetries   = "ARCHDIAGRAM_LLM_MAX_RETRIES"
	EnvEngine       = "ARCHDIAGRAM_RENDER_ENGINE"
	EnvDotPath      = "ARCHDIAGRAM_DOT_PATH"
	EnvRegistryFile = "ARCHDIAGRAM_REGISTRY_FILE"
	EnvAddr         = "ARCHDIAGRAM_ADDR"
	EnvCORSOrigins  = "ARCHDIAGRAM_CORS_ORIGINS"
	EnvLogLevel     = "LOG_LEVEL"
)

// DefaultEnvFile is read when no other .env path is given
const DefaultEnvFile = ".env"

// Config is the complete runtime configuration
type Config struct {
	LLM      LLMConfig
	Render   RenderConfig
	Server   ServerConfig
	LogLevel string
}

// LLMConfig configures the Azure OpenAI deployment used for translation
type LLMConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	UseAzureAD bool // authenticate with Entra ID instead of an API key
	Timeout    time.Duration
	MaxRetries int
}

// RenderConfig selects and tunes the layout engine
type RenderConfig struct {
	Engine        string // "graphviz" or "native"
	DotPath       string
	RegistryFile  string // optional HCL file of extra node kinds
	IncludeLabels bool
}

// ServerConfig configures the HTTP adapter
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Deployment: "gpt-4",
			APIVersion: "2023-05-15",
			Timeout:    30 * time.Second,
		},
		Render: RenderConfig{
			Engine:        "graphviz",
			DotPath:       "dot",
			IncludeLabels: true,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8000",
			CORSOrigins: []string{"*"},
		},
		LogLevel: "info",
	}
}

// lookupFunc resolves an environment variable
type lookupFunc func(key string) (string, bool)

// Load builds the configuration. path names an optional HCL file; envFile
// names an optional dotenv file (DefaultEnvFile when empty). A missing
// dotenv file is ignored, a missing HCL file is an error.
func Load(path, envFile string) (*Config, error) {
	lookup, err := envLookup(envFile)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg, lookup); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envLookup layers the process environment over the dotenv file. The
// process environment is never modified.
func envLookup(envFile string) (lookupFunc, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvEndpoint, &cfg.LLM.Endpoint)
	str(EnvAPIKey, &cfg.LLM.APIKey)
	str(EnvDeployment, &cfg.LLM.Deployment)
	str(EnvAPIVersion, &cfg.LLM.APIVersion)
	str(EnvEngine, &cfg.Render.Engine)
	str(EnvDotPath, &cfg.Render.DotPath)
	str(EnvRegistryFile, &cfg.Render.RegistryFile)
	str(EnvAddr, &cfg.Server.Addr)
	str(EnvLogLevel, &cfg.LogLevel)

	if v, ok := lookup(EnvUseAzureAD); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUseAzureAD, err)
		}
		cfg.LLM.UseAzureAD = b
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.LLM.Timeout = d
	}
	if v, ok := lookup(EnvMaxRetries); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRetries, err)
		}
		cfg.LLM.MaxRetries = n
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	return nil
}

// parseDuration accepts Go durations ("45s") and bare seconds ("45")
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	var errs []error
	switch c.Render.Engine {
	case "graphviz", "native":
	default:
		errs = append(errs, fmt.Errorf("render engine %q is not one of graphviz, native", c.Render.Engine))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm max_retries must not be negative, got %d", c.LLM.MaxRetries))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server addr must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to log
func (c *Config) Redacted() Config {
	out := *c
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = "****"
	}
	return out
}
