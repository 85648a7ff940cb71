package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/cmdutil"
	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
)

const configHeader = `# modrel configuration
#
# Every key can be overridden by an environment variable named after it,
# e.g. queueDir is MODREL_QUEUE_DIR and localBuild.timeout is
# MODREL_LOCAL_BUILD_TIMEOUT. Command line flags override both.

`

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Create a new modrel configuration file",
		Long: `Create a new modrel configuration file with default values.

The configuration file is created at ~/.modrel/config.yaml by default.
Use --config flag to specify a different location.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runInit(c, cfg, force)
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return c
}

func runInit(c *cobra.Command, cfg *cmdtypes.GlobalConfig, force bool) error {
	path, err := configPath(cfg)
	if err != nil {
		return cmdutil.PrintError("config init failed", err)
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return cmdutil.PrintError("config init failed", fmt.Errorf("checking config file: %w", err))
	}
	if exists && !force {
		return cmdutil.PrintError("config init failed", &oerrors.DetailError{
			Type:     "config file already exists",
			Message:  "refusing to overwrite it",
			Location: path,
			Hint:     "Use --force to overwrite",
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cmdutil.PrintError("config init failed", fmt.Errorf("creating config directory: %w", err))
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return cmdutil.PrintError("config init failed", fmt.Errorf("marshaling config: %w", err))
	}
	data = append([]byte(configHeader), data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cmdutil.PrintError("config init failed", fmt.Errorf("writing config file: %w", err))
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Config file created: "+path))
	return nil
}

// configPath returns the expanded config path chosen at startup, resolving
// it again when the command runs without the root command.
func configPath(cfg *cmdtypes.GlobalConfig) (string, error) {
	path := cfg.ConfigPath
	if path == "" {
		res, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{})
		if err != nil {
			return "", fmt.Errorf("resolving config path: %w", err)
		}
		path = res.ConfigPath
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("expanding config path: %w", err)
	}
	return expanded, nil
}
