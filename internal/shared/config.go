package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Google     GoogleConfig     `toml:"google"`
	Sync       SyncConfig       `toml:"sync"`
	Classifier ClassifierConfig `toml:"classifier"`
	Auth       AuthConfig       `toml:"auth"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Events     EventsConfig     `toml:"events"`
	Log        LogConfig        `toml:"log"`
}

// GoogleConfig contains OAuth client credentials for the token endpoint and Gmail API overrides.
type GoogleConfig struct {
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	TokenURL      string `toml:"token_url"`
	GmailEndpoint string `toml:"gmail_endpoint"` // empty uses the public API
}

// SyncConfig controls the mailbox query and reconciliation behavior.
type SyncConfig struct {
	Query         string  `toml:"query"`
	MaxCandidates int     `toml:"max_candidates"`
	MaxFetch      int     `toml:"max_fetch"`
	FetchRate     float64 `toml:"fetch_rate"`    // Per-message detail requests per second
	StatusPolicy  string  `toml:"status_policy"` // latest or monotonic
}

// ClassifierConfig overrides the built-in keyword tables when non-empty.
type ClassifierConfig struct {
	RelevanceKeywords  []string `toml:"relevance_keywords"`
	ConfidenceKeywords []string `toml:"confidence_keywords"`
	CompanyBlocklist   []string `toml:"company_blocklist"` // Sender domain labels never used as an employer
	ConsumerDomains    []string `toml:"consumer_domains"`  // Sender domains that do not raise confidence
}

// AuthConfig configures session JWT verification for the HTTP API.
//
// Either JWTSecret (HS256) or JWKSURL must be set to serve authenticated routes.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	JWKSURL   string `toml:"jwks_url"`
	Audience  string `toml:"audience"`
	Issuer    string `toml:"issuer"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// EventsConfig contains NATS JetStream settings. An empty URL disables publishing.
type EventsConfig struct {
	NATSURL       string `toml:"nats_url"`
	Stream        string `toml:"stream"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// LoadEnv reads KEY=VALUE pairs from the given dotenv files into the process environment.
//
// Missing files are ignored and variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets and connection settings from environment variables.
func (c *Config) ApplyEnv() {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Google.ClientID, "JOBTRAIL_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	set(&c.Google.ClientSecret, "JOBTRAIL_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	set(&c.Auth.JWTSecret, "JOBTRAIL_JWT_SECRET")
	set(&c.Auth.JWKSURL, "JOBTRAIL_JWKS_URL")
	set(&c.Database.Driver, "JOBTRAIL_DATABASE_DRIVER")
	set(&c.Database.DSN, "JOBTRAIL_DATABASE_URL", "DATABASE_URL")
	set(&c.Events.NATSURL, "NATS_URL")
	set(&c.Log.Level, "JOBTRAIL_LOG_LEVEL")
}

// Validate checks enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	if _, err := ParseDialect(c.Database.Driver); err != nil {
		return err
	}

	switch strings.ToLower(c.Sync.StatusPolicy) {
	case "", "latest", "monotonic":
	default:
		return fmt.Errorf("%w: sync.status_policy must be latest or monotonic, got %q", ErrInvalidConfig, c.Sync.StatusPolicy)
	}

	if c.Sync.MaxCandidates < 0 || c.Sync.MaxFetch < 0 {
		return fmt.Errorf("%w: sync caps must not be negative", ErrInvalidConfig)
	}
	if c.Sync.FetchRate < 0 {
		return fmt.Errorf("%w: sync.fetch_rate must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if d, _ := ParseDialect(c.Database.Driver); d == Postgres {
		return c.Database.DSN
	}
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return c.Database.Path
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
