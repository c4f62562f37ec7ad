// ABOUTME: Configuration for keepsake-authority, the reference remote authority
// ABOUTME: YAML with environment variable expansion, raw duration strings and validation

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthorityConfigEnv overrides the authority config location.
const AuthorityConfigEnv = "KEEPSAKE_AUTHORITY_CONFIG"

// AuthorityConfig represents the complete keepsake-authority configuration
type AuthorityConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Verification VerificationConfig `yaml:"verification"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr       string   `yaml:"http_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the SQL driver and its data source
type DatabaseConfig struct {
	// Driver is sqlite (pure Go), sqlite3 (cgo) or pgx (PostgreSQL)
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig holds the secret that signs anon keys
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// VerificationConfig holds Turnstile redemption settings
type VerificationConfig struct {
	SecretKey     string        `yaml:"secret_key"`
	SiteVerifyURL string        `yaml:"siteverify_url"`
	Timeout       time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// MinSecretLength is the shortest accepted jwt_secret.
const MinSecretLength = 32

// ResolveAuthorityPath returns $KEEPSAKE_AUTHORITY_CONFIG, ./authority.yaml
// when present, or the XDG location.
func ResolveAuthorityPath() string {
	return resolvePath(AuthorityConfigEnv, "authority.yaml", "authority.yaml")
}

// LoadAuthority reads a configuration file from the given path and returns a parsed config.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadAuthority(path string) (*AuthorityConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg AuthorityConfig
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := parseDuration("verification.timeout", cfg.Verification.TimeoutRaw, &cfg.Verification.Timeout); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *AuthorityConfig) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Verification.Timeout == 0 {
		c.Verification.Timeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *AuthorityConfig) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3", "pgx":
	default:
		return fmt.Errorf("database.driver %q is not one of sqlite, sqlite3, pgx", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength)
	}
	if c.Verification.SecretKey == "" {
		return fmt.Errorf("verification.secret_key is required")
	}

	return c.Logging.Validate()
}
