package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/boolplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &DiagramResource{}
var _ resource.ResourceWithConfigure = &DiagramResource{}

func NewDiagramResource() resource.Resource {
	return &DiagramResource{}
}

// DiagramResource owns a diagram file. Changing any input replaces it;
// editing or deleting the file outside Terraform recreates it.
type DiagramResource struct {
	generator *DiagramGenerator
}

// DiagramResourceModel describes the resource data model.
type DiagramResourceModel struct {
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

func (r *DiagramResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_diagram"
}

func (r *DiagramResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	sources := path.Expressions{
		path.MatchRoot("description"),
		path.MatchRoot("config_path"),
		path.MatchRoot("state_path"),
	}
	replace := []planmodifier.String{stringplanmodifier.RequiresReplace()}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Renders an architecture diagram from a description, a Terraform configuration directory or a state file and manages the written file.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Resource identifier",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Free-text architecture description, translated by the configured language model.",
				Optional:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
					stringvalidator.ExactlyOneOf(sources...),
				},
			},
			"config_path": schema.StringAttribute{
				MarkdownDescription: "Directory of .tf files to draw.",
				Optional:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"state_path": schema.StringAttribute{
				MarkdownDescription: "terraform.tfstate file, or `terraform show -json` output, to draw.",
				Optional:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"output_path": schema.StringAttribute{
				MarkdownDescription: "Path where the diagram will be saved.",
				Required:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"format": schema.StringAttribute{
				MarkdownDescription: "Output format: 'png' or 'svg'. Defaults to the output_path extension, then 'png'.",
				Optional:            true,
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplaceIfConfigured(),
					stringplanmodifier.UseStateForUnknown(),
				},
				Validators: []validator.String{
					stringvalidator.OneOfCaseInsensitive("png", "svg"),
				},
			},
			"direction": schema.StringAttribute{
				MarkdownDescription: "Diagram direction: 'TB' (top to bottom) or 'LR' (left to right). Default is 'TB'.",
				Optional:            true,
				PlanModifiers:       replace,
				Validators: []validator.String{
					stringvalidator.OneOfCaseInsensitive("TB", "LR"),
				},
			},
			"title": schema.StringAttribute{
				MarkdownDescription: "Title for diagrams of Terraform sources. Descriptions are titled by the language model.",
				Optional:            true,
				PlanModifiers:       replace,
			},
			"resource_count": schema.Int64Attribute{
				MarkdownDescription: "Number of resources in the diagram.",
				Computed:            true,
				PlanModifiers: []planmodifier.Int64{
					int64planmodifier.UseStateForUnknown(),
				},
			},
			"fallback": schema.BoolAttribute{
				MarkdownDescription: "True when Graphviz was unavailable and a placeholder image was written.",
				Computed:            true,
				PlanModifiers: []planmodifier.Bool{
					boolplanmodifier.UseStateForUnknown(),
				},
			},
			"sha256": schema.StringAttribute{
				MarkdownDescription: "SHA-256 of the written image.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *DiagramResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	generator, ok := req.ProviderData.(*DiagramGenerator)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *provider.DiagramGenerator, got: %T.", req.ProviderData),
		)
		return
	}
	r.generator = generator
}

func (r *DiagramResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	format := ""
	if !data.Format.IsUnknown() {
		format = data.Format.ValueString()
	}

	result, err := r.generator.Generate(ctx, DiagramConfig{
		Description: data.Description.ValueString(),
		ConfigPath:  data.ConfigPath.ValueString(),
		StatePath:   data.StatePath.ValueString(),
		OutputPath:  data.OutputPath.ValueString(),
		Format:      format,
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

	data.ID = types.StringValue(result.OutputPath)
	if data.Format.IsUnknown() {
		data.Format = types.StringValue(result.Format)
	}
	data.ResourceCount = types.Int64Value(result.ResourceCount)
	data.Fallback = types.BoolValue(result.Fallback)
	data.SHA256 = types.StringValue(result.SHA256)

	tflog.Trace(ctx, "Created diagram resource", map[string]interface{}{"id": result.OutputPath})
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	sum, err := fileSHA256(data.OutputPath.ValueString())
	if errors.Is(err, os.ErrNotExist) {
		tflog.Info(ctx, "Diagram file removed outside Terraform", map[string]interface{}{"output_path": data.OutputPath.ValueString()})
		resp.State.RemoveResource(ctx)
		return
	}
	if err != nil {
		resp.Diagnostics.AddError("Failed to read diagram", err.Error())
		return
	}
	if sum != data.SHA256.ValueString() {
		tflog.Info(ctx, "Diagram file changed outside Terraform", map[string]interface{}{"output_path": data.OutputPath.ValueString()})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// Update only sees changes to computed attributes, every input forces
// replacement
func (r *DiagramResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DiagramResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data DiagramResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := os.Remove(data.OutputPath.ValueString()); err != nil && !errors.Is(err, os.ErrNotExist) {
		resp.Diagnostics.AddError("Failed to remove diagram", err.Error())
	}
}

func fileSHA256(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
