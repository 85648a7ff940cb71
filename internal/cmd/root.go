// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modrel/cli/internal/cmd/config"
	"github.com/modrel/cli/internal/cmdtypes"
	cfgpkg "github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/output"
)

// rootFlags holds the global flag values.
type rootFlags struct {
	config     string
	verbose    bool
	timestamps bool
	queueDir   string
}

// NewRootCmd creates the root command for the modrel CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cfg := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "modrel",
		Short: "Release modules and submit them to the build farm",
		Long: `modrel releases versioned modules from the shared repository.

It works out the next release version, checks the module's toolchain against
the build server's, optionally runs a local test build, tags the release and
submits a build job to the shared build queue.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return initializeGlobals(c, flags, cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "",
		"Path to config file (env: "+cfgpkg.EnvName("config")+")")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.timestamps, "timestamps", true,
		"Show timestamps in log output")
	rootCmd.PersistentFlags().StringVar(&flags.queueDir, "queue-dir", "",
		"Build queue directory (env: "+cfgpkg.EnvName("queueDir")+")")

	rootCmd.AddCommand(
		NewReleaseCmd(cfg),
		NewNextVersionCmd(cfg),
		NewTargetsCmd(cfg),
		config.NewConfigCmd(cfg),
		NewVersionCmd(),
	)

	return rootCmd
}

// initializeGlobals loads and resolves configuration, then sets up logging.
func initializeGlobals(c *cobra.Command, flags *rootFlags, cfg *cmdtypes.GlobalConfig) error {
	cfg.Verbose = flags.verbose

	pathResult, err := cfgpkg.ResolveConfigPath(cfgpkg.ResolveConfigPathOptions{FlagValue: flags.config})
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	cfg.ConfigPath = pathResult.ConfigPath
	cfg.ConfigSource = pathResult.Source

	// Load failures are recorded rather than returned so that commands
	// which do not need configuration, like config vet, still run.
	loaded, err := cfgpkg.NewLoader().Load(cfg.ConfigPath)
	if err != nil {
		cfg.LoadErr = configError("could not load "+cfg.ConfigPath, err)
		loaded = &cfgpkg.Config{}
	}
	cfg.Config = loaded

	var timestamps *bool
	if c.Flags().Changed("timestamps") {
		timestamps = output.BoolPtr(flags.timestamps)
	}

	settings, err := cfgpkg.Resolve(cfg.ConfigPath, loaded, cfgpkg.Flags{
		QueueDir:   flags.queueDir,
		Timestamps: timestamps,
	})
	if err != nil && cfg.LoadErr == nil {
		cfg.LoadErr = configError("could not resolve configuration", err)
	}
	cfg.Settings = settings

	logCfg := output.LogConfig{Verbose: flags.verbose, Timestamps: timestamps}
	if settings != nil {
		logCfg.Timestamps = settings.Timestamps
	}
	output.SetupLogging(logCfg)

	if cfg.LoadErr != nil {
		output.Debug("config load error", "error", cfg.LoadErr)
	}
	if flags.verbose {
		output.Debug("initializing CLI", "config", cfg.ConfigPath, "source", cfg.ConfigSource)
		if settings != nil {
			cfgpkg.LogResolvedValues(settings.Values)
		}
	}

	return nil
}

func configError(msg string, cause error) error {
	return &oerrors.DetailError{
		Type:    "invalid configuration",
		Message: msg,
		Hint:    "Check the file with 'modrel config vet'",
		Kind:    oerrors.ErrConfiguration,
		Cause:   cause,
	}
}
