package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &DiagramDataSource{}
var _ datasource.DataSourceWithConfigure = &DiagramDataSource{}

// DiagramDataSource renders a diagram on every read
type DiagramDataSource struct {
	generator *DiagramGenerator
}

func NewDiagramDataSource() datasource.DataSource {
	return &DiagramDataSource{}
}

// DiagramDataSourceModel describes the data source data model.
type DiagramDataSourceModel struct {
	ID            types.String `tfsdk:"id"`
	Description   types.String `tfsdk:"description"`
	ConfigPath    types.String `tfsdk:"config_path"`
	StatePath     types.String `tfsdk:"state_path"`
	OutputPath    types.String `tfsdk:"output_path"`
	Format        types.String `tfsdk:"format"`
	Direction     types.String `tfsdk:"direction"`
	Title         types.String `tfsdk:"title"`
	ResourceCount types.Int64  `tfsdk:"resource_count"`
	Fallback      types.Bool   `tfsdk:"fallback"`
	SHA256        types.String `tfsdk:"sha256"`
}

func (d *DiagramDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

func (d *DiagramDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	sources := path.Expressions{
		path.MatchRoot("description"),
		path.MatchRoot("config_path"),
		path.MatchRoot("state_path"),
	}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders an architecture diagram from a description, a Terraform configuration directory or a state file.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Data source identifier",
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Free-text architecture description, translated by the configured language model.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
					stringvalidator.ExactlyOneOf(sources...),
				},
			},
			"config_path": schema.StringAttribute{
				MarkdownDescription: "Directory of .tf files to draw.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"state_path": schema.StringAttribute{
				MarkdownDescription: "terraform.tfstate file, or `terraform show -json` output, to draw.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"output_path": schema.StringAttribute{
				MarkdownDescription: "Path where the diagram will be saved.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"format": schema.StringAttribute{
				MarkdownDescription: "Output format: 'png' or 'svg'. Defaults to the output_path extension, then 'png'.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.OneOfCaseInsensitive("png", "svg"),
				},
			},
			"direction": schema.StringAttribute{
				MarkdownDescription: "Diagram direction: 'TB' (top to bottom) or 'LR' (left to right). Default is 'TB'.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.OneOfCaseInsensitive("TB", "LR"),
				},
			},
			"title": schema.StringAttribute{
				MarkdownDescription: "Title for diagrams of Terraform sources. Descriptions are titled by the language model.",
				Optional:            true,
			},
			"resource_count": schema.Int64Attribute{
				MarkdownDescription: "Number of resources in the diagram.",
				Computed:            true,
			},
			"fallback": schema.BoolAttribute{
				MarkdownDescription: "True when Graphviz was unavailable and a placeholder image was written.",
				Computed:            true,
			},
			"sha256": schema.StringAttribute{
				MarkdownDescription: "SHA-256 of the written image.",
				Computed:            true,
			},
		},
	}
}

func (d *DiagramDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	generator, ok := req.ProviderData.(*DiagramGenerator)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *provider.DiagramGenerator, got: %T.", req.ProviderData),
		)
		return
	}
	d.generator = generator
}

func (d *DiagramDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data DiagramDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	result, err := d.generator.Generate(ctx, DiagramConfig{
		Description: data.Description.ValueString(),
		ConfigPath:  data.ConfigPath.ValueString(),
		StatePath:   data.StatePath.ValueString(),
		OutputPath:  data.OutputPath.ValueString(),
		Format:      data.Format.ValueString(),
		Direction:   data.Direction.ValueString(),
		Title:       data.Title.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError("Failed to generate diagram", err.Error())
		return
	}
	if result.Fallback {
		resp.Diagnostics.AddWarning("Placeholder diagram written",
			"Graphviz is not installed, so a placeholder image describing the architecture was written instead. Install Graphviz or set render_engine = \"native\".")
	}

	if data.Format.IsNull() {
		data.Format = types.StringValue(result.Format)
	}
	data.ResourceCount = types.Int64Value(result.ResourceCount)
	data.Fallback = types.BoolValue(result.Fallback)
	data.SHA256 = types.StringValue(result.SHA256)
	data.ID = types.StringValue(result.SHA256[:16])

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
