// ABOUTME: Command-line overrides shared by the console and storefront binaries
// ABOUTME: Registers pflag flags and applies them over the TOML file

package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ConsoleOverrides holds flag values that replace file settings when set.
type ConsoleOverrides struct {
	Path     string
	URL      string
	AnonKey  string
	Language string
	LogLevel string
}

// Register binds the overrides to fs.
func (o *ConsoleOverrides) Register(fs *pflag.FlagSet) {
	fs.StringVar(&o.Path, "config", "", "path to console.toml (default: $KEEPSAKE_CONSOLE_CONFIG or XDG config dir)")
	fs.StringVar(&o.URL, "url", "", "authority base URL")
	fs.StringVar(&o.AnonKey, "anon-key", "", "authority anon key")
	fs.StringVar(&o.Language, "lang", "", "interface language (en, zh-CN, zh-TW)")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Load reads the console config, applies the overrides and validates the
// result. A missing file is not an error when flags supply what it would.
func (o ConsoleOverrides) Load() (*ConsoleConfig, string, error) {
	path := o.Path
	if path == "" {
		path = ResolveConsolePath()
	}

	cfg, err := ReadConsole(path)
	if err != nil {
		return nil, path, err
	}
	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("validating config: %w", err)
	}
	return cfg, path, nil
}

func (o ConsoleOverrides) apply(cfg *ConsoleConfig) {
	if o.URL != "" {
		cfg.Authority.URL = o.URL
	}
	if o.AnonKey != "" {
		cfg.Authority.AnonKey = o.AnonKey
	}
	if o.Language != "" {
		cfg.Console.Language = o.Language
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
}
