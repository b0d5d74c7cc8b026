// Package config implements the engine's ambient configuration
// document: a YAML file with typed sections, environment-agnostic
// defaults, and context propagation.
package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds the engine's tunable knobs.
type Config struct {
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	Decode DecodeConfig `yaml:"decode"`
	Render RenderConfig `yaml:"render"`
	Scrub  ScrubConfig  `yaml:"scrub"`
}

// DecodeConfig governs the decode pipeline's queue depths. Workers is
// stored in the document but not read; the pipeline runs one goroutine
// per stage.
type DecodeConfig struct {
	PacketQueueDepth int `yaml:"packet_queue_depth"`
	FrameQueueDepth  int `yaml:"frame_queue_depth"`
	Workers          int `yaml:"workers"`
}

// RenderConfig governs the frame cache and the size of scrub-cache
// thumbnails.
type RenderConfig struct {
	FrameCacheSize    int `yaml:"frame_cache_size"`
	FrameCacheLowWater int `yaml:"frame_cache_low_water"`
	ThumbnailMaxWidth  uint `yaml:"thumbnail_max_width"`
	ThumbnailMaxHeight uint `yaml:"thumbnail_max_height"`
}

// ScrubConfig holds scrubbing settings. CoalesceWindowMs is stored but
// not read: AsyncSeek coalesces only calls that arrive while a scrub
// step is already in flight.
type ScrubConfig struct {
	CoalesceWindowMs int `yaml:"coalesce_window_ms"`
}

// Load reads configuration from path, or from the first well-known
// candidate location, falling back to defaults when none exist.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir: "./work",
		TempDir: "./temp",
		Decode: DecodeConfig{
			PacketQueueDepth: 32,
			FrameQueueDepth:  16,
			Workers:          2,
		},
		Render: RenderConfig{
			FrameCacheSize:     64,
			FrameCacheLowWater: 48,
			ThumbnailMaxWidth:  160,
			ThumbnailMaxHeight: 90,
		},
		Scrub: ScrubConfig{
			CoalesceWindowMs: 80,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./mec.yaml",
		"./mec.yml",
		filepath.Join(os.Getenv("HOME"), ".mec", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves a Config from ctx, or defaults if none was
// stored.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
