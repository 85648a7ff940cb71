package cmdutil

import (
	"github.com/modrel/cli/internal/cmdtypes"
	"github.com/modrel/cli/internal/config"
	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/identity"
	"github.com/modrel/cli/internal/output"
	"github.com/modrel/cli/internal/target"
	"github.com/modrel/cli/internal/vcs"
)

// RequireSettings returns the resolved settings, or the error that kept
// them from loading.
func RequireSettings(cfg *cmdtypes.GlobalConfig) (*config.Settings, error) {
	if cfg.LoadErr != nil {
		return nil, cfg.LoadErr
	}
	if cfg.Settings == nil {
		return &config.Settings{}, nil
	}
	return cfg.Settings, nil
}

// LoadCatalog returns the configured catalog, or the built-in one.
func LoadCatalog(s *config.Settings) (*target.Catalog, error) {
	if s == nil || s.Catalog == "" {
		return target.Default()
	}
	output.Debug("loading catalog", "path", s.Catalog)
	return target.Load(s.Catalog)
}

// DetectHost inspects this machine, taking its toolchain from config.
func DetectHost(s *config.Settings) target.Host {
	var toolchain string
	if s != nil {
		toolchain = s.Toolchain
	}
	host := target.DetectHost(nil, toolchain)
	output.Debug("detected host",
		"os", host.OS,
		"server", host.ServerName(),
		"toolchain", host.Toolchain,
	)
	return host
}

// NewVCS builds the configured VCS backend. Release tags are signed by
// tagger.
func NewVCS(s *config.Settings, tagger identity.Requester) (vcs.VCS, error) {
	cfg := vcs.Config{TaggerName: tagger.User, TaggerEmail: tagger.Email}
	if s != nil {
		cfg.Backend = s.VCS.Backend
		cfg.Server = s.VCS.Server
	}
	return vcs.New(cfg)
}

// RequireQueueDir fails with a configuration error when no queue directory
// is configured.
func RequireQueueDir(s *config.Settings) (string, error) {
	if s == nil || s.QueueDir == "" {
		return "", oerrors.NewConfigurationError("no build queue directory configured",
			nil, "Set queueDir in the config file, "+config.EnvName("queueDir")+", or pass --queue-dir")
	}
	return s.QueueDir, nil
}
