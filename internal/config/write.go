package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders cfg as an HCL configuration file. Secrets are never
// written: the API key is emitted as env("AZURE_OPENAI_API_KEY").
func Encode(cfg *Config) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("log_level", cty.StringVal(cfg.LogLevel))
	root.AppendNewline()

	llm := root.AppendNewBlock("llm", nil).Body()
	if cfg.LLM.Endpoint != "" {
		llm.SetAttributeValue("endpoint", cty.StringVal(cfg.LLM.Endpoint))
	} else {
		llm.SetAttributeRaw("endpoint", envCall(EnvEndpoint))
	}
	llm.SetAttributeRaw("api_key", envCall(EnvAPIKey))
	llm.SetAttributeValue("deployment", cty.StringVal(cfg.LLM.Deployment))
	llm.SetAttributeValue("api_version", cty.StringVal(cfg.LLM.APIVersion))
	llm.SetAttributeValue("use_azure_ad", cty.BoolVal(cfg.LLM.UseAzureAD))
	llm.SetAttributeValue("timeout", cty.StringVal(cfg.LLM.Timeout.String()))
	llm.SetAttributeValue("max_retries", cty.NumberIntVal(int64(cfg.LLM.MaxRetries)))
	root.AppendNewline()

	render := root.AppendNewBlock("render", nil).Body()
	render.SetAttributeValue("engine", cty.StringVal(cfg.Render.Engine))
	render.SetAttributeValue("dot_path", cty.StringVal(cfg.Render.DotPath))
	if cfg.Render.RegistryFile != "" {
		render.SetAttributeValue("registry_file", cty.StringVal(cfg.Render.RegistryFile))
	}
	render.SetAttributeValue("include_labels", cty.BoolVal(cfg.Render.IncludeLabels))
	root.AppendNewline()

	server := root.AppendNewBlock("server", nil).Body()
	server.SetAttributeValue("addr", cty.StringVal(cfg.Server.Addr))
	origins := make([]cty.Value, 0, len(cfg.Server.CORSOrigins))
	for _, o := range cfg.Server.CORSOrigins {
		origins = append(origins, cty.StringVal(o))
	}
	if len(origins) > 0 {
		server.SetAttributeValue("cors_origins", cty.ListVal(origins))
	}

	return f.Bytes()
}

func envCall(name string) hclwrite.Tokens {
	return hclwrite.TokensForFunctionCall("env", hclwrite.TokensForValue(cty.StringVal(name)))
}

// WriteFile writes Encode(cfg) to path, refusing to overwrite
func WriteFile(path string, cfg *Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(Encode(cfg)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
