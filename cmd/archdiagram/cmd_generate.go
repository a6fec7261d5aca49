package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/validation"
)

const defaultOutputBase = "architecture_diagram"

func newCmdGenerate() *cobra.Command {
	var (
		file      string
		format    string
		direction string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "generate [description]",
		Short: "Render a diagram from an architecture description",
		Example: `  archdiagram generate "A web app behind a load balancer with a SQL database"
  archdiagram generate --file arch.txt --format svg --output arch.svg
  echo "a function app reading from storage" | archdiagram generate --file - --output -`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := readDescription(cmd, args, file)
			if err != nil {
				return err
			}

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

			comps, logger, err := build(cmd)
			if err != nil {
				return err
			}

			res, err := comps.Pipeline.Generate(cmd.Context(), ir.RenderRequest{
				Description: description,
				Format:      format,
				Direction:   direction,
			})
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
				Str("format", string(res.Format)).
				Bool("fallback", res.Fallback).
				Int("bytes", len(res.Image)).
				Msg("diagram written")
			if res.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "Graphviz is unavailable, a fallback diagram was written to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the description from a file (- for stdin)")
	cmd.Flags().StringVar(&format, "format", string(ir.FormatPNG), "Output format (png|svg), inferred from --output when unset")
	cmd.Flags().StringVar(&direction, "direction", string(ir.DirectionTB), "Layout direction (TB|LR)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout), default architecture_diagram.<format>")
	return cmd
}

// readDescription takes the description from the arguments or from --file.
// Exactly one source must be given.
func readDescription(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", fmt.Errorf("give the description as an argument or with --file, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read description from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		if err := validation.ValidateInputPath(file, false); err != nil {
			return "", err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read description: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("an architecture description is required")
}
