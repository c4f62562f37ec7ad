// ABOUTME: Configuration for the operator console and storefront binaries
// ABOUTME: Loads TOML from the XDG path with environment variable expansion

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ConsoleConfigEnv overrides the console config location.
const ConsoleConfigEnv = "KEEPSAKE_CONSOLE_CONFIG"

type ConsoleConfig struct {
	Authority    AuthorityEndpoint  `toml:"authority"`
	Verification ClientVerification `toml:"verification"`
	Console      ConsoleSettings    `toml:"console"`
	Logging      LoggingConfig      `toml:"logging"`
}

// AuthorityEndpoint locates the remote authority. AnonKey is the public
// project key, not a secret.
type AuthorityEndpoint struct {
	URL     string `toml:"url"`
	AnonKey string `toml:"anon_key"`
}

type ClientVerification struct {
	SiteKey       string        `toml:"site_key"`
	TokenLifetime time.Duration `toml:"-"`

	TokenLifetimeRaw string `toml:"token_lifetime"`
}

type ConsoleSettings struct {
	Language             string        `toml:"language"`
	NotificationDuration time.Duration `toml:"-"`

	NotificationDurationRaw string `toml:"notification_duration"`
}

// ResolveConsolePath returns $KEEPSAKE_CONSOLE_CONFIG or the XDG location.
func ResolveConsolePath() string {
	return resolvePath(ConsoleConfigEnv, "", "console.toml")
}

// DefaultConsole returns the settings used when no file exists.
func DefaultConsole() *ConsoleConfig {
	return &ConsoleConfig{
		Verification: ClientVerification{TokenLifetime: 300 * time.Second},
		Console: ConsoleSettings{
			Language:             "en",
			NotificationDuration: 3 * time.Second,
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
	}
}

// LoadConsole reads config from the given path, expanding environment
// variables. Unset values keep DefaultConsole's.
func LoadConsole(path string) (*ConsoleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := decodeConsole(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ReadConsole is LoadConsole without validation, returning DefaultConsole
// when path does not exist. Callers apply flag overrides and then Validate.
func ReadConsole(path string) (*ConsoleConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConsole(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return decodeConsole(data)
}

func decodeConsole(data []byte) (*ConsoleConfig, error) {
	cfg := DefaultConsole()
	if _, err := toml.Decode(expandEnvVars(string(data)), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := parseDuration("verification.token_lifetime", cfg.Verification.TokenLifetimeRaw, &cfg.Verification.TokenLifetime); err != nil {
		return nil, err
	}
	if err := parseDuration("console.notification_duration", cfg.Console.NotificationDurationRaw, &cfg.Console.NotificationDuration); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required config fields are present and valid.
func (c *ConsoleConfig) Validate() error {
	if c.Authority.URL == "" {
		return fmt.Errorf("authority.url is required")
	}
	u, err := url.Parse(c.Authority.URL)
	if err != nil {
		return fmt.Errorf("authority.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("authority.url must use http or https scheme")
	}
	if c.Authority.AnonKey == "" {
		return fmt.Errorf("authority.anon_key is required")
	}
	return c.Logging.Validate()
}
