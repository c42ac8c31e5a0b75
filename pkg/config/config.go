package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server" envconfig:"SERVER"`
	Storage        StorageConfig        `yaml:"storage" envconfig:"STORAGE"`
	Logging        LoggingConfig        `yaml:"logging" envconfig:"LOGGING"`
	Token          TokenConfig          `yaml:"token" envconfig:"TOKEN"`
	Sessions       SessionConfig        `yaml:"sessions" envconfig:"SESSIONS"`
	ACAPy          ACAPyConfig          `yaml:"acapy" envconfig:"ACAPY"`
	SessionCleanup SessionCleanupConfig `yaml:"session_cleanup" envconfig:"SESSION_CLEANUP"`
	Clients        []ClientConfig       `yaml:"clients"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host       string `yaml:"host" envconfig:"HOST"`
	Port       int    `yaml:"port" envconfig:"PORT"`
	AdminPort  int    `yaml:"admin_port" envconfig:"ADMIN_PORT"`   // Internal admin API port (0 to disable)
	AdminToken string `yaml:"admin_token" envconfig:"ADMIN_TOKEN"` // Bearer token for admin API (auto-generated if empty)
	// BaseURL is the public base URL of this service; it is embedded in
	// shortened deep links and used as the token issuer when Token.Issuer
	// is not set.
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Type    string        `yaml:"type" envconfig:"TYPE"` // memory, mongodb
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri" envconfig:"URI"`
	Database string `yaml:"database" envconfig:"DATABASE"`
	Timeout  int    `yaml:"timeout" envconfig:"TIMEOUT"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" envconfig:"FORMAT"` // json, text
}

// TokenConfig contains verification token configuration
type TokenConfig struct {
	Secret          string `yaml:"secret" envconfig:"SECRET"`
	Issuer          string `yaml:"issuer" envconfig:"ISSUER"`
	LifetimeSeconds int    `yaml:"lifetime_seconds" envconfig:"LIFETIME_SECONDS"`
}

// SessionConfig contains auth session configuration
type SessionConfig struct {
	// LifetimeSeconds is how long a session stays redeemable after the
	// authorize call
	LifetimeSeconds int `yaml:"lifetime_seconds" envconfig:"LIFETIME_SECONDS"`
	// Store is the session store type: "" (use Storage), or "redis"
	Store string `yaml:"store" envconfig:"STORE"`
	// Redis contains Redis-specific configuration
	Redis RedisConfig `yaml:"redis" envconfig:"REDIS"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Address   string `yaml:"address" envconfig:"ADDRESS"`
	Password  string `yaml:"password" envconfig:"PASSWORD"`
	DB        int    `yaml:"db" envconfig:"DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
}

// ACAPyConfig contains the credential-exchange agent admin API configuration
type ACAPyConfig struct {
	AdminURL string `yaml:"admin_url" envconfig:"ADMIN_URL"`
	APIKey   string `yaml:"api_key" envconfig:"API_KEY"`
	Timeout  int    `yaml:"timeout" envconfig:"TIMEOUT"` // seconds
}

// SessionCleanupConfig configures the expired-session sweep worker
type SessionCleanupConfig struct {
	Enabled         bool `yaml:"enabled" envconfig:"ENABLED"`
	IntervalSeconds int  `yaml:"interval_seconds" envconfig:"INTERVAL_SECONDS"`
}

// SetDefaults fills unset cleanup fields
func (c *SessionCleanupConfig) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 300
	}
}

// ClientConfig is a statically registered OIDC relying party
type ClientConfig struct {
	ID           string   `yaml:"id"`
	Secret       string   `yaml:"secret"`
	RedirectURIs []string `yaml:"redirect_uris"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("VCAUTHN", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set BaseURL if not provided
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Token.Issuer == "" {
		cfg.Token.Issuer = cfg.Server.BaseURL
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Type: "memory",
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "vcauthn",
				Timeout:  10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Token: TokenConfig{
			LifetimeSeconds: 10000,
		},
		Sessions: SessionConfig{
			LifetimeSeconds: 600,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "vcauthn:",
			},
		},
		ACAPy: ACAPyConfig{
			AdminURL: "http://localhost:8031",
			Timeout:  30,
		},
		SessionCleanup: SessionCleanupConfig{
			Enabled:         true,
			IntervalSeconds: 300,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Type != "memory" && c.Storage.Type != "mongodb" {
		return fmt.Errorf("invalid storage type: %s (must be memory or mongodb)", c.Storage.Type)
	}

	if c.Storage.Type == "mongodb" && c.Storage.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required when using mongodb storage")
	}

	if c.Sessions.Store != "" && c.Sessions.Store != "redis" {
		return fmt.Errorf("invalid session store type: %s", c.Sessions.Store)
	}

	if c.Sessions.LifetimeSeconds <= 0 {
		return fmt.Errorf("session lifetime must be positive")
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("token secret is required")
	}

	for _, client := range c.Clients {
		if client.ID == "" || client.Secret == "" {
			return fmt.Errorf("registered clients need both id and secret")
		}
	}

	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AdminAddress returns the admin server address
func (c *ServerConfig) AdminAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.AdminPort)
}
