package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/cmdutil"
	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the modrel configuration file",
		Long: `Validate the modrel configuration file against the internal schema.

The command validates the configuration file at ~/.modrel/config.yaml by default.
Use --config flag to specify a different location. After the file passes,
the environment and flags are applied and the result is checked as well.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runVet(c, cfg)
		},
	}
}

func runVet(c *cobra.Command, cfg *cmdtypes.GlobalConfig) error {
	path, err := configPath(cfg)
	if err != nil {
		return cmdutil.PrintError("config vet failed", err)
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return cmdutil.PrintError("config vet failed", fmt.Errorf("checking config file: %w", err))
	}
	if !exists {
		return cmdutil.PrintError("config vet failed", oerrors.NewConfigurationError(
			"config file not found", map[string]string{"File": path},
			"Create one with 'modrel config init'"))
	}

	validator, err := config.NewValidator()
	if err != nil {
		return cmdutil.PrintError("config vet failed", fmt.Errorf("creating validator: %w", err))
	}
	if err := validator.ValidateFile(path); err != nil {
		return cmdutil.PrintError("config vet failed", err)
	}

	out := c.OutOrStdout()
	fmt.Fprintln(out, output.FormatVetCheck("Config file found", path))
	fmt.Fprintln(out, output.FormatVetCheck("Schema validation passed", ""))

	// The file is valid; a remaining load error comes from the environment.
	if cfg.LoadErr != nil {
		return cmdutil.PrintError("config vet failed", cfg.LoadErr)
	}
	if cfg.Settings != nil {
		fmt.Fprintln(out, output.FormatVetCheck("Settings resolved", describeQueue(cfg.Settings)))
	}
	return nil
}

func describeQueue(s *config.Settings) string {
	if s.QueueDir == "" {
		return "no queue directory configured"
	}
	return "queue " + s.QueueDir
}
