package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/pipeline"
)

func newCmdTranslate() *cobra.Command {
	var (
		file         string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "translate [description]",
		Short: "Print the resource list the language model derives from a description",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			encode, err := irEncoder(outputFormat)
			if err != nil {
				return err
			}
			description, err := readDescription(cmd, args, file)
			if err != nil {
				return err
			}
			if strings.TrimSpace(description) == "" {
				return &pipeline.ValidationError{Field: "description", Message: "must not be empty"}
			}

			comps, logger, err := build(cmd)
			if err != nil {
				return err
			}
			if !comps.Translator.Configured() {
				logger.Warn().Msg("language model is not configured, printing the demo architecture")
			}

			arch, err := comps.Translator.Translate(cmd.Context(), description)
			if err != nil {
				return err
			}
			data, err := encode(arch)
			if err != nil {
				return err
			}
			if !bytes.HasSuffix(data, []byte("\n")) {
				data = append(data, '\n')
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the description from a file (- for stdin)")
	cmd.Flags().StringVar(&outputFormat, "output-format", "json", "Output encoding (json|yaml)")
	return cmd
}

func irEncoder(name string) (func(*ir.ArchitectureIR) ([]byte, error), error) {
	switch strings.ToLower(name) {
	case "json":
		return ir.EncodeJSON, nil
	case "yaml", "yml":
		return ir.EncodeYAML, nil
	}
	return nil, fmt.Errorf("unsupported output format %q (want json or yaml)", name)
}
