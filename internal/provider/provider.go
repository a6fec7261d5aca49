package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/bootstrap"
	"github.com/ankek/archdiagram/internal/config"
)

// Ensure ArchdiagramProvider satisfies various provider interfaces.
var _ provider.Provider = &ArchdiagramProvider{}

// ArchdiagramProvider defines the provider implementation.
type ArchdiagramProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// ArchdiagramProviderModel describes the provider data model. Unset
// attributes fall back to the environment variables the CLI reads.
type ArchdiagramProviderModel struct {
	Endpoint      types.String `tfsdk:"endpoint"`
	APIKey        types.String `tfsdk:"api_key"`
	Deployment    types.String `tfsdk:"deployment"`
	APIVersion    types.String `tfsdk:"api_version"`
	UseAzureAD    types.Bool   `tfsdk:"use_azure_ad"`
	Timeout       types.String `tfsdk:"timeout"`
	RenderEngine  types.String `tfsdk:"render_engine"`
	DotPath       types.String `tfsdk:"dot_path"`
	RegistryFile  types.String `tfsdk:"registry_file"`
	IncludeLabels types.Bool   `tfsdk:"include_labels"`
}

func (p *ArchdiagramProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "archdiagram"
	resp.Version = p.version
}

func (p *ArchdiagramProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "The archdiagram provider renders architecture diagrams from free-text descriptions, Terraform configuration or Terraform state.",
		Attributes: map[string]schema.Attribute{
			"endpoint": schema.StringAttribute{
				Description: "Azure OpenAI endpoint. Can also be set via AZURE_OPENAI_ENDPOINT. Without an endpoint and key, descriptions render a built-in demo architecture.",
				Optional:    true,
			},
			"api_key": schema.StringAttribute{
				Description: "Azure OpenAI API key. Can also be set via AZURE_OPENAI_API_KEY.",
				Optional:    true,
				Sensitive:   true,
			},
			"deployment": schema.StringAttribute{
				Description: "Chat deployment name. Defaults to gpt-4.",
				Optional:    true,
			},
			"api_version": schema.StringAttribute{
				Description: "Azure OpenAI API version. Defaults to 2023-05-15.",
				Optional:    true,
			},
			"use_azure_ad": schema.BoolAttribute{
				Description: "Authenticate with Entra ID (DefaultAzureCredential) instead of an API key.",
				Optional:    true,
			},
			"timeout": schema.StringAttribute{
				Description: "Language model request timeout as a duration, for example \"45s\". Defaults to 30s.",
				Optional:    true,
			},
			"render_engine": schema.StringAttribute{
				Description: "Layout engine: 'graphviz' (default) or 'native'. When Graphviz is not installed a placeholder image is written.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.OneOf("graphviz", "native"),
				},
			},
			"dot_path": schema.StringAttribute{
				Description: "Path to the Graphviz dot binary. Defaults to dot on PATH.",
				Optional:    true,
			},
			"registry_file": schema.StringAttribute{
				Description: "HCL file with additional node kinds.",
				Optional:    true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"include_labels": schema.BoolAttribute{
				Description: "Draw each resource's kind under its name. Default is true.",
				Optional:    true,
			},
		},
	}
}

func (p *ArchdiagramProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data ArchdiagramProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	cfg, err := config.Load("", "")
	if err != nil {
		resp.Diagnostics.AddError("Invalid environment configuration", err.Error())
		return
	}
	if err := applyModel(cfg, data); err != nil {
		resp.Diagnostics.AddAttributeError(path.Root("timeout"), "Invalid timeout", err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		resp.Diagnostics.AddError("Invalid provider configuration", err.Error())
		return
	}

	comps, err := bootstrap.Build(cfg, zerolog.Nop(), nil)
	if err != nil {
		resp.Diagnostics.AddError("Failed to initialize diagram pipeline", err.Error())
		return
	}

	ctx = tflog.SetField(ctx, "render_engine", comps.Renderer.EngineName())
	tflog.Info(ctx, "Configured archdiagram provider", map[string]interface{}{
		"llm_configured": comps.Translator.Configured(),
	})

	generator := &DiagramGenerator{generator: comps.Pipeline}
	resp.DataSourceData = generator
	resp.ResourceData = generator
}

// applyModel overlays the attributes set in the provider block
func applyModel(cfg *config.Config, data ArchdiagramProviderModel) error {
	str := func(v types.String, dst *string) {
		if !v.IsNull() && !v.IsUnknown() && v.ValueString() != "" {
			*dst = v.ValueString()
		}
	}
	str(data.Endpoint, &cfg.LLM.Endpoint)
	str(data.APIKey, &cfg.LLM.APIKey)
	str(data.Deployment, &cfg.LLM.Deployment)
	str(data.APIVersion, &cfg.LLM.APIVersion)
	str(data.RenderEngine, &cfg.Render.Engine)
	str(data.DotPath, &cfg.Render.DotPath)
	str(data.RegistryFile, &cfg.Render.RegistryFile)

	if !data.UseAzureAD.IsNull() && !data.UseAzureAD.IsUnknown() {
		cfg.LLM.UseAzureAD = data.UseAzureAD.ValueBool()
	}
	if !data.IncludeLabels.IsNull() && !data.IncludeLabels.IsUnknown() {
		cfg.Render.IncludeLabels = data.IncludeLabels.ValueBool()
	}
	if !data.Timeout.IsNull() && !data.Timeout.IsUnknown() && data.Timeout.ValueString() != "" {
		d, err := time.ParseDuration(data.Timeout.ValueString())
		if err != nil {
			return fmt.Errorf("timeout %q is not a duration: %w", data.Timeout.ValueString(), err)
		}
		cfg.LLM.Timeout = d
	}
	return nil
}

func (p *ArchdiagramProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewDiagramResource,
	}
}

func (p *ArchdiagramProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewDiagramDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &ArchdiagramProvider{
			version: version,
		}
	}
}
