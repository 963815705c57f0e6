// Package config loads layered application configuration:
// built-in defaults, then an optional YAML file, then environment
// variables with the TICKETEER_ prefix (highest priority).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Metadata MetadataConfig `koanf:"metadata"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

// AuthConfig holds credential verification settings.
type AuthConfig struct {
	JWTKey string `koanf:"jwt_key"`
}

// MetadataConfig holds external metadata provider and cache settings.
type MetadataConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	CacheCapacity  int           `koanf:"cache_capacity"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

const envPrefix = "TICKETEER_"

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Metadata: MetadataConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			CacheCapacity:  500,
			CacheTTL:       24 * time.Hour,
			RequestsPerSec: 4,
		},
	}
}

// Load reads configuration with precedence ENV > file > defaults.
// path may be empty; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// TICKETEER_SERVER_ADDR -> server.addr, TICKETEER_METADATA_API_KEY -> metadata.api_key
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.JWTKey == "" {
		return fmt.Errorf("auth.jwt_key is required")
	}
	if c.Metadata.CacheCapacity <= 0 {
		return fmt.Errorf("metadata.cache_capacity must be positive")
	}
	if c.Metadata.CacheTTL <= 0 {
		return fmt.Errorf("metadata.cache_ttl must be positive")
	}
	return nil
}
