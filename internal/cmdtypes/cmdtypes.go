// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and its sub-packages (internal/cmd/config).
package cmdtypes

import (
	"github.com/modrel/cli/internal/config"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// ConfigPath is the resolved --config path.
	ConfigPath string

	// ConfigSource records where ConfigPath came from.
	ConfigSource config.ConfigSource

	// Config is the file as loaded, before env and flags are applied.
	Config *config.Config

	// Settings is the fully resolved configuration.
	Settings *config.Settings

	// LoadErr is set when the config file could not be loaded or resolved.
	// Commands that need Settings report it; config vet does not.
	LoadErr error

	Verbose bool
}
