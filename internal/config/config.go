// Package config loads bot configuration from defaults, an optional YAML
// file, and TELEGRAB_-prefixed environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable prefix
const EnvPrefix = "TELEGRAB_"

// Default values
const (
	DefaultDownloadDir      = "downloads"
	DefaultStatePath        = "stats.json"
	DefaultMaxExtractions   = 10
	DefaultPayloadCeiling   = 50 * 1024 * 1024
	DefaultChunkBytes       = 49 * 1024 * 1024
	DefaultBroadcastWorkers = 8
	DefaultMetricsAddr      = ":9090"
	DefaultLogLevel         = "info"
)

// Config holds runtime settings for the bot.
//
// Fields:
//   - BotToken: Telegram Bot API token.
//   - OperatorID: seed admin identity; receives job and failure notices.
//   - DownloadDir: scoped working directory for extracted artifacts.
//   - StatePath: path of the persisted state file.
//   - MaxExtractions: global cap on concurrent extractions.
//   - PayloadCeilingBytes / ChunkBytes: transport payload limit and the
//     chunk size used when a file exceeds it.
//   - BroadcastWorkers: worker pool size for admin broadcasts.
//   - MetricsAddr: bind address for the Prometheus endpoint ("" disables).
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BotToken            string `koanf:"bot_token"`
	OperatorID          int64  `koanf:"operator_id"`
	DownloadDir         string `koanf:"download_dir"`
	StatePath           string `koanf:"state_path"`
	MaxExtractions      int64  `koanf:"max_extractions"`
	PayloadCeilingBytes int64  `koanf:"payload_ceiling_bytes"`
	ChunkBytes          int64  `koanf:"chunk_bytes"`
	BroadcastWorkers    int    `koanf:"broadcast_workers"`
	MetricsAddr         string `koanf:"metrics_addr"`
	LogLevel            string `koanf:"log_level"`
}

// Default returns a Config populated with development defaults. BotToken and
// OperatorID have no usable defaults and must come from file or environment.
func Default() Config {
	return Config{
		DownloadDir:         DefaultDownloadDir,
		StatePath:           DefaultStatePath,
		MaxExtractions:      DefaultMaxExtractions,
		PayloadCeilingBytes: DefaultPayloadCeiling,
		ChunkBytes:          DefaultChunkBytes,
		BroadcastWorkers:    DefaultBroadcastWorkers,
		MetricsAddr:         DefaultMetricsAddr,
		LogLevel:            DefaultLogLevel,
	}
}

// Load builds a Config by overlaying the YAML file at path (skipped when
// path is empty or the file is absent) and then the environment on top of
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required fields and numeric sanity.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("bot_token is required")
	}
	if c.OperatorID == 0 {
		return errors.New("operator_id is required")
	}
	if c.MaxExtractions < 1 {
		return fmt.Errorf("max_extractions must be at least 1, got %d", c.MaxExtractions)
	}
	if c.PayloadCeilingBytes < 1 {
		return fmt.Errorf("payload_ceiling_bytes must be positive, got %d", c.PayloadCeilingBytes)
	}
	if c.ChunkBytes < 1 || c.ChunkBytes >= c.PayloadCeilingBytes {
		return fmt.Errorf("chunk_bytes must be positive and below payload_ceiling_bytes, got %d", c.ChunkBytes)
	}
	if c.BroadcastWorkers < 1 {
		return fmt.Errorf("broadcast_workers must be at least 1, got %d", c.BroadcastWorkers)
	}
	return nil
}
