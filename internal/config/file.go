package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// fileConfig mirrors the HCL file layout. Pointer fields distinguish an
// absent attribute from a zero value so defaults survive partial files.
type fileConfig struct {
	LogLevel *string      `hcl:"log_level,optional"`
	LLM      *llmBlock    `hcl:"llm,block"`
	Render   *renderBlock `hcl:"render,block"`
	Server   *serverBlock `hcl:"server,block"`
}

type llmBlock struct {
	Endpoint   *string `hcl:"endpoint,optional"`
	APIKey     *string `hcl:"api_key,optional"`
	Deployment *string `hcl:"deployment,optional"`
	APIVersion *string `hcl:"api_version,optional"`
	UseAzureAD *bool   `hcl:"use_azure_ad,optional"`
	Timeout    *string `hcl:"timeout,optional"`
	MaxRetries *int    `hcl:"max_retries,optional"`
}

type renderBlock struct {
	Engine        *string `hcl:"engine,optional"`
	DotPath       *string `hcl:"dot_path,optional"`
	RegistryFile  *string `hcl:"registry_file,optional"`
	IncludeLabels *bool   `hcl:"include_labels,optional"`
}

type serverBlock struct {
	Addr        *string  `hcl:"addr,optional"`
	CORSOrigins []string `hcl:"cors_origins,optional"`
}

// evalContext exposes env("NAME") to configuration files, resolved through
// the same lookup as environment overrides
func evalContext(lookup lookupFunc) *hcl.EvalContext {
	env := function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			v, _ := lookup(args[0].AsString())
			return cty.StringVal(v), nil
		},
	})

	return &hcl.EvalContext{
		Functions: map[string]function.Function{"env": env},
	}
}

func decodeFile(path string, cfg *Config, lookup lookupFunc) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %s", path, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, evalContext(lookup), &fc); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %s", path, diags.Error())
	}

	set(&cfg.LogLevel, fc.LogLevel)

	if b := fc.LLM; b != nil {
		set(&cfg.LLM.Endpoint, b.Endpoint)
		set(&cfg.LLM.APIKey, b.APIKey)
		set(&cfg.LLM.Deployment, b.Deployment)
		set(&cfg.LLM.APIVersion, b.APIVersion)
		set(&cfg.LLM.UseAzureAD, b.UseAzureAD)
		set(&cfg.LLM.MaxRetries, b.MaxRetries)
		if b.Timeout != nil {
			d, err := parseDuration(*b.Timeout)
			if err != nil {
				return fmt.Errorf("%s: llm.timeout: %w", path, err)
			}
			cfg.LLM.Timeout = d
		}
	}

	if b := fc.Render; b != nil {
		set(&cfg.Render.Engine, b.Engine)
		set(&cfg.Render.DotPath, b.DotPath)
		set(&cfg.Render.RegistryFile, b.RegistryFile)
		set(&cfg.Render.IncludeLabels, b.IncludeLabels)
	}

	if b := fc.Server; b != nil {
		set(&cfg.Server.Addr, b.Addr)
		if b.CORSOrigins != nil {
			cfg.Server.CORSOrigins = b.CORSOrigins
		}
	}
	return nil
}

// set copies v into dst when the attribute was present. Empty strings count
// as absent so env("UNSET") leaves the default in place.
func set[T comparable](dst *T, v *T) {
	if v == nil {
		return
	}
	if s, ok := any(*v).(string); ok && s == "" {
		return
	}
	*dst = *v
}
