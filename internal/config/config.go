// ABOUTME: Shared configuration helpers for keepsake binaries
// ABOUTME: Environment variable expansion, config path resolution and logging settings

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Validate checks the level and format names.
func (l LoggingConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", l.Format)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// resolvePath picks the first config location that applies: the env
// override, then ./local if it exists, then the XDG config directory.
func resolvePath(envVar, local, name string) string {
	if p := os.Getenv(envVar); p != "" {
		return p
	}
	if local != "" {
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return local
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "keepsake", name)
}

// parseDuration parses raw into *dst when raw is set. field names the key in errors.
func parseDuration(field, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", field, raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %q", field, raw)
	}
	*dst = d
	return nil
}
