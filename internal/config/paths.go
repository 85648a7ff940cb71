package config

import (
	"os"
	"path/filepath"
)

// Environment variable prefix for modrel configuration.
const envPrefix = "MODREL"

// Paths contains standard filesystem paths for modrel.
type Paths struct {
	// ConfigFile is the path to the config file (~/.modrel/config.yaml).
	ConfigFile string

	// AuditLog is the default release log (~/.modrel/release.log).
	AuditLog string

	// HomeDir is the modrel home directory (~/.modrel).
	HomeDir string
}

// DefaultPaths returns the default paths for modrel.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	modrelHome := filepath.Join(homeDir, ".modrel")

	return &Paths{
		ConfigFile: filepath.Join(modrelHome, "config.yaml"),
		AuditLog:   filepath.Join(modrelHome, "release.log"),
		HomeDir:    modrelHome,
	}, nil
}

// EnsureHomeDir creates the modrel home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}
	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
