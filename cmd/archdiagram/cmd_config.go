package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/config"
)

const defaultConfigFile = "archdiagram.hcl"

func newCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCmdConfigInit())
	cmd.AddCommand(newCmdConfigShow())
	return cmd
}

func newCmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the built-in defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newCmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the effective configuration after files and environment are applied. The API key is never printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(config.Encode(cfg))
			return err
		},
	}
}
