package provider

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/ankek/archdiagram/internal/config"
)

func TestProviderMetadata(t *testing.T) {
	p := New("1.2.3")()

	var resp provider.MetadataResponse
	p.Metadata(context.Background(), provider.MetadataRequest{}, &resp)

	if resp.TypeName != "archdiagram" {
		t.Errorf("TypeName = %q, want archdiagram", resp.TypeName)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", resp.Version)
	}
}

func TestProviderSchema(t *testing.T) {
	var resp provider.SchemaResponse
	New("test")().Schema(context.Background(), provider.SchemaRequest{}, &resp)

	if resp.Diagnostics.HasError() {
		t.Fatalf("schema diagnostics: %v", resp.Diagnostics)
	}
	for _, name := range []string{"endpoint", "api_key", "deployment", "api_version", "use_azure_ad", "timeout", "render_engine", "dot_path", "registry_file", "include_labels"} {
		if _, ok := resp.Schema.Attributes[name]; !ok {
			t.Errorf("provider schema is missing %q", name)
		}
	}
	if !resp.Schema.Attributes["api_key"].IsSensitive() {
		t.Error("api_key must be sensitive")
	}
}

func TestDiagramSchemas(t *testing.T) {
	ctx := context.Background()
	want := []string{"id", "description", "config_path", "state_path", "output_path", "format", "direction", "title", "resource_count", "fallback", "sha256"}

	var dsMeta datasource.MetadataResponse
	NewDiagramDataSource().Metadata(ctx, datasource.MetadataRequest{ProviderTypeName: "archdiagram"}, &dsMeta)
	if dsMeta.TypeName != "archdiagram_diagram" {
		t.Errorf("data source TypeName = %q", dsMeta.TypeName)
	}
	var ds datasource.SchemaResponse
	NewDiagramDataSource().Schema(ctx, datasource.SchemaRequest{}, &ds)
	if ds.Diagnostics.HasError() {
		t.Fatalf("data source schema diagnostics: %v", ds.Diagnostics)
	}

	var rsMeta resource.MetadataResponse
	NewDiagramResource().Metadata(ctx, resource.MetadataRequest{ProviderTypeName: "archdiagram"}, &rsMeta)
	if rsMeta.TypeName != "archdiagram_diagram" {
		t.Errorf("resource TypeName = %q", rsMeta.TypeName)
	}
	var rs resource.SchemaResponse
	NewDiagramResource().Schema(ctx, resource.SchemaRequest{}, &rs)
	if rs.Diagnostics.HasError() {
		t.Fatalf("resource schema diagnostics: %v", rs.Diagnostics)
	}

	for _, name := range want {
		if _, ok := ds.Schema.Attributes[name]; !ok {
			t.Errorf("data source schema is missing %q", name)
		}
		if _, ok := rs.Schema.Attributes[name]; !ok {
			t.Errorf("resource schema is missing %q", name)
		}
	}
	if !rs.Schema.Attributes["output_path"].IsRequired() {
		t.Error("output_path must be required")
	}
}

func TestConfigureRejectsWrongProviderData(t *testing.T) {
	ds := &DiagramDataSource{}
	var dsResp datasource.ConfigureResponse
	ds.Configure(context.Background(), datasource.ConfigureRequest{ProviderData: "not a generator"}, &dsResp)
	if !dsResp.Diagnostics.HasError() {
		t.Error("data source accepted the wrong provider data type")
	}

	rs := &DiagramResource{}
	var rsResp resource.ConfigureResponse
	rs.Configure(context.Background(), resource.ConfigureRequest{ProviderData: newTestGenerator()}, &rsResp)
	if rsResp.Diagnostics.HasError() {
		t.Fatalf("unexpected diagnostics: %v", rsResp.Diagnostics)
	}
	if rs.generator == nil {
		t.Error("resource generator not set")
	}
}

func TestApplyModel(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Endpoint = "https://from-env.openai.azure.com"

	err := applyModel(cfg, ArchdiagramProviderModel{
		Endpoint:      types.StringNull(),
		APIKey:        types.StringValue("secret"),
		Deployment:    types.StringValue("gpt-4o"),
		APIVersion:    types.StringNull(),
		UseAzureAD:    types.BoolValue(true),
		Timeout:       types.StringValue("45s"),
		RenderEngine:  types.StringValue("native"),
		DotPath:       types.StringNull(),
		RegistryFile:  types.StringNull(),
		IncludeLabels: types.BoolValue(false),
	})
	if err != nil {
		t.Fatalf("applyModel() error = %v", err)
	}

	if cfg.LLM.Endpoint != "https://from-env.openai.azure.com" {
		t.Errorf("null endpoint overwrote the environment value: %q", cfg.LLM.Endpoint)
	}
	if cfg.LLM.APIKey != "secret" || cfg.LLM.Deployment != "gpt-4o" {
		t.Errorf("credentials not applied: %+v", cfg.Redacted().LLM)
	}
	if cfg.LLM.APIVersion != "2023-05-15" {
		t.Errorf("APIVersion = %q, want default", cfg.LLM.APIVersion)
	}
	if !cfg.LLM.UseAzureAD {
		t.Error("UseAzureAD not applied")
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.LLM.Timeout)
	}
	if cfg.Render.Engine != "native" || cfg.Render.IncludeLabels {
		t.Errorf("render settings not applied: %+v", cfg.Render)
	}
}

func TestApplyModelInvalidTimeout(t *testing.T) {
	err := applyModel(config.Default(), ArchdiagramProviderModel{Timeout: types.StringValue("soon")})
	if err == nil {
		t.Error("expected error for invalid timeout")
	}
}
