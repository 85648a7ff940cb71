package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/modrel/cli/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue records how one configuration key was resolved.
type ResolvedValue struct {
	Key    string
	Value  string
	Source ConfigSource

	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// EnvName returns the environment variable for a config key, e.g.
// localBuild.tempDir becomes MODREL_LOCAL_BUILD_TEMP_DIR.
func EnvName(key string) string {
	var sb strings.Builder
	sb.WriteString(envPrefix)
	sb.WriteByte('_')
	for i, r := range key {
		switch {
		case r == '.':
			sb.WriteByte('_')
		case unicode.IsUpper(r) && i > 0 && key[i-1] != '.':
			sb.WriteByte('_')
			sb.WriteRune(r)
		default:
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// resolveString picks the first non-empty value in precedence order:
// flag > env > config > default.
func resolveString(key, flagValue, configValue, defaultValue string) ResolvedValue {
	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, flagValue},
		{SourceEnv, os.Getenv(EnvName(key))},
		{SourceConfig, configValue},
		{SourceDefault, defaultValue},
	}

	rv := ResolvedValue{Key: key, Shadowed: make(map[ConfigSource]string)}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if rv.Source == "" {
			rv.Value, rv.Source = c.value, c.source
			continue
		}
		rv.Shadowed[c.source] = c.value
	}
	return rv
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) MODREL_CONFIG env, (3) ~/.modrel/config.yaml default
func ResolveConfigPath(opts ResolveConfigPathOptions) (ResolveConfigPathResult, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return ResolveConfigPathResult{}, err
	}

	rv := resolveString("config", opts.FlagValue, "", paths.ConfigFile)
	return ResolveConfigPathResult{
		ConfigPath: rv.Value,
		Source:     rv.Source,
		Shadowed:   rv.Shadowed,
	}, nil
}

// Flags carries global flag values. Empty or nil means not given.
type Flags struct {
	QueueDir   string
	Timestamps *bool
}

// Settings is the fully resolved configuration.
type Settings struct {
	ConfigPath  string
	QueueDir    string
	AuditLog    string
	Catalog     string
	Email       string
	EmailDomain string
	Toolchain   string
	VCS         VCSConfig

	TempDir  string
	Timeout  time.Duration
	AllowEnv []string

	// Timestamps is nil when nothing set it.
	Timestamps *bool

	// Values records each key's resolution for --verbose.
	Values []ResolvedValue
}

// Resolve layers flags, environment, the loaded file and defaults.
func Resolve(configPath string, cfg *Config, flags Flags) (*Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	def := DefaultConfig()
	s := &Settings{ConfigPath: configPath}

	str := func(key, flagValue, configValue, defaultValue string) string {
		rv := resolveString(key, flagValue, configValue, defaultValue)
		if rv.Source != "" {
			s.Values = append(s.Values, rv)
		}
		return rv.Value
	}
	path := func(key, flagValue, configValue, defaultValue string) (string, error) {
		p, err := ExpandPath(str(key, flagValue, configValue, defaultValue))
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		return p, nil
	}

	var err error
	if s.QueueDir, err = path("queueDir", flags.QueueDir, cfg.QueueDir, def.QueueDir); err != nil {
		return nil, err
	}
	if s.AuditLog, err = path("auditLog", "", cfg.AuditLog, def.AuditLog); err != nil {
		return nil, err
	}
	if s.Catalog, err = path("catalog", "", cfg.Catalog, def.Catalog); err != nil {
		return nil, err
	}
	if s.TempDir, err = path("localBuild.tempDir", "", cfg.LocalBuild.TempDir, def.LocalBuild.TempDir); err != nil {
		return nil, err
	}

	s.Email = str("email", "", cfg.Email, def.Email)
	s.EmailDomain = str("emailDomain", "", cfg.EmailDomain, def.EmailDomain)
	s.Toolchain = str("toolchain", "", cfg.Toolchain, def.Toolchain)
	s.VCS.Backend = str("vcs.backend", "", cfg.VCS.Backend, def.VCS.Backend)
	s.VCS.Server = str("vcs.server", "", cfg.VCS.Server, def.VCS.Server)

	timeout := LocalBuildConfig{
		Timeout: str("localBuild.timeout", "", cfg.LocalBuild.Timeout, def.LocalBuild.Timeout),
	}
	if s.Timeout, err = timeout.TimeoutDuration(); err != nil {
		return nil, err
	}

	allow := str("localBuild.allowEnv", "",
		strings.Join(cfg.LocalBuild.AllowEnv, ","),
		strings.Join(def.LocalBuild.AllowEnv, ","))
	s.AllowEnv = splitList(allow)

	timestamps := str("log.timestamps", formatBool(flags.Timestamps), formatBool(cfg.Log.Timestamps), "")
	if timestamps != "" {
		b, err := strconv.ParseBool(timestamps)
		if err != nil {
			return nil, fmt.Errorf("log.timestamps: %w", err)
		}
		s.Timestamps = &b
	}

	return s, nil
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
