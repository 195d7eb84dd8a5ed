// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotConfig selects and locates the snapshot backend.
type SnapshotConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the snapshot file or database path.
	Path string `yaml:"path"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Config holds the full server configuration.
type Config struct {
	Addr     string         `yaml:"addr"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Auth     AuthConfig     `yaml:"auth"`
	LogLevel string         `yaml:"log_level"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Addr: ":8080",
		Snapshot: SnapshotConfig{
			Backend: "file",
			Path:    "./data/holders.json",
		},
		Auth: AuthConfig{
			Secret:   "dev-secret-change-me",
			TokenTTL: 24 * time.Hour,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then environment variables. An empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.Addr = getEnv("MINIBANK_ADDR", cfg.Addr)
	cfg.Snapshot.Backend = getEnv("MINIBANK_SNAPSHOT_BACKEND", cfg.Snapshot.Backend)
	cfg.Snapshot.Path = getEnv("MINIBANK_SNAPSHOT_PATH", cfg.Snapshot.Path)
	cfg.Auth.Secret = getEnv("MINIBANK_AUTH_SECRET", cfg.Auth.Secret)
	cfg.LogLevel = getEnv("MINIBANK_LOG_LEVEL", cfg.LogLevel)
	if ttl := os.Getenv("MINIBANK_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("parsing MINIBANK_TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Snapshot.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot path must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
