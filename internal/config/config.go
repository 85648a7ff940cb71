// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// VCSConfig selects the version control backend.
type VCSConfig struct {
	// Backend names the implementation. Only "git" exists.
	// Env: MODREL_VCS_BACKEND, Default: "git"
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Server is the repository server base URL. Module repositories live at
	// {server}/{area}/{module}.
	// Env: MODREL_VCS_SERVER
	Server string `json:"server,omitempty" yaml:"server,omitempty"`
}

// LocalBuildConfig controls local test builds.
type LocalBuildConfig struct {
	// TempDir is where test build workspaces are created.
	// Env: MODREL_LOCAL_BUILD_TEMP_DIR, Default: the system temp dir
	TempDir string `json:"tempDir,omitempty" yaml:"tempDir,omitempty"`

	// Timeout bounds a test build, e.g. "30m". "0" or empty waits forever.
	// Env: MODREL_LOCAL_BUILD_TIMEOUT
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// AllowEnv lists environment variables passed to the build script.
	// A trailing * matches a prefix. Default: ["SSH_*"]
	AllowEnv []string `json:"allowEnv,omitempty" yaml:"allowEnv,omitempty"`
}

// TimeoutDuration parses Timeout.
func (c LocalBuildConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("localBuild.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("localBuild.timeout: must not be negative")
	}
	return d, nil
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
}

// Config represents the modrel configuration.
// Loaded from ~/.modrel/config.yaml, validated against embedded CUE schema.
type Config struct {
	// QueueDir is the shared build job queue directory.
	// Env: MODREL_QUEUE_DIR
	QueueDir string `json:"queueDir,omitempty" yaml:"queueDir,omitempty"`

	// AuditLog is the per-user release log.
	// Env: MODREL_AUDIT_LOG, Default: ~/.modrel/release.log
	AuditLog string `json:"auditLog,omitempty" yaml:"auditLog,omitempty"`

	// Catalog is a build target catalog file replacing the built-in one.
	// Env: MODREL_CATALOG
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty"`

	// Email is where build results are sent.
	// Env: MODREL_EMAIL
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// EmailDomain builds user@domain when Email is unset.
	// Env: MODREL_EMAIL_DOMAIN
	EmailDomain string `json:"emailDomain,omitempty" yaml:"emailDomain,omitempty"`

	// Toolchain is the toolchain version of this host, e.g. "R7.0.7".
	// Env: MODREL_TOOLCHAIN
	Toolchain string `json:"toolchain,omitempty" yaml:"toolchain,omitempty"`

	VCS        VCSConfig        `json:"vcs,omitempty" yaml:"vcs,omitempty"`
	LocalBuild LocalBuildConfig `json:"localBuild,omitempty" yaml:"localBuild,omitempty"`
	Log        LogConfig        `json:"log,omitempty" yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `modrel config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		AuditLog: "~/.modrel/release.log",
		VCS: VCSConfig{
			Backend: "git",
		},
		LocalBuild: LocalBuildConfig{
			Timeout:  "0",
			AllowEnv: []string{"SSH_*"},
		},
	}
}
