package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/parser"
	"github.com/ankek/archdiagram/internal/validation"
)

const defaultTerraformLabel = "Terraform Architecture"

func newCmdTerraform() *cobra.Command {
	var (
		format    string
		direction string
		output    string
		label     string
	)

	cmd := &cobra.Command{
		Use:   "terraform <config-dir|state-file>",
		Short: "Render a diagram from Terraform configuration or state",
		Long: `Render a diagram from a directory of .tf files, a terraform.tfstate file or
the output of "terraform show -json". Resource groups become clusters and
references between resources become connections. No language model is used.`,
		Example: `  archdiagram terraform ./infra --output infra.svg
  archdiagram terraform terraform.tfstate --direction LR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && output != "" && output != "-" {
				if f, ok := validation.FormatFromPath(output); ok {
					format = string(f)
				}
			}
			if output == "" {
				output = defaultOutputBase + "." + strings.ToLower(format)
			}
			if output != "-" {
				if err := validation.ValidateOutputPath(output); err != nil {
					return err
				}
			}

			arch, err := parser.LoadIR(cmd.Context(), args[0], label)
			if err != nil {
				return err
			}

			comps, logger, err := build(cmd)
			if err != nil {
				return err
			}
			res, err := comps.Pipeline.GenerateFromIR(cmd.Context(), arch, format, direction)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(res.Image)
				return err
			}
			if err := validation.WriteImage(output, res.Image); err != nil {
				return err
			}
			logger.Info().
				Str("output", output).
				Int("resources", len(arch.Resources)).
				Int("relationships", len(arch.Relationships)).
				Bool("fallback", res.Fallback).
				Msg("diagram written")
			if res.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "Graphviz is unavailable, a fallback diagram was written to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(ir.FormatPNG), "Output format (png|svg), inferred from --output when unset")
	cmd.Flags().StringVar(&direction, "direction", string(ir.DirectionTB), "Layout direction (TB|LR)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout), default architecture_diagram.<format>")
	cmd.Flags().StringVar(&label, "label", defaultTerraformLabel, "Diagram title")
	return cmd
}
