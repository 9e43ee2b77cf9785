// Package config provides configuration loading for draftd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables with the DRAFTD_ prefix. Precedence (highest to lowest):
//
//  1. Environment variables (DRAFTD_SERVER_PORT, DRAFTD_LOGGING_LEVEL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/inkwell-labs/draftd/internal/logging"
)

const envPrefix = "DRAFTD_"

// maxConfigFileSize guards against loading a runaway file.
const maxConfigFileSize = 1024 * 1024

// Config holds the complete draftd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	Provider    ProviderConfig    `koanf:"provider"`
	Analysis    AnalysisConfig    `koanf:"analysis"`
	Persistence PersistenceConfig `koanf:"persistence"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ProviderConfig holds embedding/completion collaborator configuration.
// An empty model disables the AI paths; the engine then runs rule-based
// analysis and lexical search only.
type ProviderConfig struct {
	Model   string  `koanf:"model"`
	APIKey  Secret  `koanf:"api_key"`
	BaseURL string  `koanf:"base_url"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// AnalysisConfig holds analyzer tuning.
type AnalysisConfig struct {
	CacheCapacity int `koanf:"cache_capacity"`
	ChunkWords    int `koanf:"chunk_words"`
}

// PersistenceConfig holds snapshot storage configuration.
type PersistenceConfig struct {
	Dir string `koanf:"dir"`
}

// NewDefaultConfig returns the hardcoded defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8380,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: logging.NewDefaultConfig(),
		Provider: ProviderConfig{
			RPS:   5,
			Burst: 10,
		},
		Analysis: AnalysisConfig{
			CacheCapacity: 1000,
			ChunkWords:    200,
		},
		Persistence: PersistenceConfig{
			Dir: defaultPersistenceDir(),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Analysis.CacheCapacity < 0 {
		return fmt.Errorf("analysis cache capacity must be non-negative")
	}
	if c.Analysis.ChunkWords < 0 {
		return fmt.Errorf("analysis chunk words must be non-negative")
	}
	if c.Provider.RPS < 0 {
		return fmt.Errorf("provider rps must be non-negative")
	}
	if c.Persistence.Dir == "" {
		return fmt.Errorf("persistence dir is required")
	}
	return nil
}

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables. An empty configPath uses the default location; a
// missing file is not an error.
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		configPath = defaultConfigPath()
	}

	if info, err := os.Stat(configPath); err == nil {
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
		}
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	// DRAFTD_SERVER_PORT -> server.port, DRAFTD_ANALYSIS_CACHE_CAPACITY ->
	// analysis.cache_capacity: only the first underscore becomes a section
	// separator.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(s, "_", 2)
		return strings.Join(parts, ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "draftd.yaml"
	}
	return home + "/.config/draftd/config.yaml"
}

func defaultPersistenceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".draftd"
	}
	return home + "/.local/share/draftd"
}
