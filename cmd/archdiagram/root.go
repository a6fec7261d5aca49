package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/bootstrap"
	"github.com/ankek/archdiagram/internal/config"
	"github.com/ankek/archdiagram/internal/telemetry"
)

const serviceName = "archdiagram"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archdiagram",
		Short: "Turn architecture descriptions into diagrams",
		Long: `archdiagram translates a free-text description of an Azure architecture
into a structured resource list with a language model and renders it as a
PNG or SVG diagram. Without language model credentials a built-in demo
architecture is rendered.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("archdiagram version {{.Version}}\n")

	cmd.PersistentFlags().String("config", "", "HCL configuration file")
	cmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "dotenv file (ignored when missing)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error), overrides LOG_LEVEL")
	cmd.PersistentFlags().Bool("console", true, "Human readable log output instead of JSON")

	cmd.AddCommand(newCmdGenerate())
	cmd.AddCommand(newCmdTranslate())
	cmd.AddCommand(newCmdTerraform())
	cmd.AddCommand(newCmdKinds())
	cmd.AddCommand(newCmdServe())
	cmd.AddCommand(newCmdConfig())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

// loadConfig reads the configuration named by the global flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(path, envFile)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// newLogger writes to the command's stderr so stdout stays usable for images
func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	console, _ := cmd.Flags().GetBool("console")
	return telemetry.NewLogger(serviceName, cfg.LogLevel, console, cmd.ErrOrStderr())
}

// build loads configuration and wires the components without metrics
func build(cmd *cobra.Command) (*bootstrap.Components, zerolog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cmd, cfg)
	comps, err := bootstrap.Build(cfg, logger, nil)
	if err != nil {
		return nil, logger, err
	}
	return comps, logger, nil
}
