package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Volume is the initial volume level (0-100, default: 100)
	Volume int `koanf:"volume"`

	// PollIntervalMs is the progress sampling interval while playing (default: 1000)
	PollIntervalMs int `koanf:"poll_interval_ms"`

	Hydration HydrationConfig `koanf:"hydration"`
	Resolver  ResolverConfig  `koanf:"resolver"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// HydrationConfig tunes collection hydration.
type HydrationConfig struct {
	BatchSize      int `koanf:"batch_size"`       // concurrent lookups per batch (default: 10)
	ItemTimeoutS   int `koanf:"item_timeout_s"`   // per-lookup timeout in seconds (default: 5)
	CeilingS       int `koanf:"ceiling_s"`        // hard ceiling for the ID list in seconds (default: 10)
	PollIntervalMs int `koanf:"poll_interval_ms"` // ID list polling interval (default: 500)
}

// ResolverConfig holds metadata resolver settings.
type ResolverConfig struct {
	Endpoint     string `koanf:"endpoint"`       // oEmbed-style lookup endpoint
	CacheTTLDays int    `koanf:"cache_ttl_days"` // metadata cache TTL (default: 7)
}

// LoggingConfig controls the file logger.
type LoggingConfig struct {
	Write bool   `koanf:"write"` // enable logging to file (default: false)
	Level string `koanf:"level"` // logrus level name (default: "info")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Volume:         100,
		PollIntervalMs: 1000,
		Hydration: HydrationConfig{
			BatchSize:      10,
			ItemTimeoutS:   5,
			CeilingS:       10,
			PollIntervalMs: 500,
		},
		Resolver: ResolverConfig{
			CacheTTLDays: 7,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize resolver endpoint (remove trailing slash)
	cfg.Resolver.Endpoint = strings.TrimSuffix(cfg.Resolver.Endpoint, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadence/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadence", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}
