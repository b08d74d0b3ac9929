// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package config implements the engine configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the settings of the engine programs.
type Config struct {
	// Paths
	ResourceDir string `toml:"resource_dir"`
	Scene       string `toml:"scene"`

	// Run settings
	Editor    bool   `toml:"editor"`
	Watch     bool   `toml:"watch"`
	Frames    int    `toml:"frames"`
	FrameRate int    `toml:"frame_rate"`
	LogLevel  string `toml:"log_level"`

	// Benchmark settings
	Entities int    `toml:"entities"`
	Profile  string `toml:"profile"`
}

// Default returns the configuration used when no file is
// given.
func Default() Config {
	return Config{
		ResourceDir: "assets",
		Frames:      1,
		FrameRate:   60,
		LogLevel:    "info",
		Entities:    1000,
		Profile:     "cpu",
	}
}

// Load reads a TOML config file.
// Fields not set in the file keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	// Relative paths are relative to the file.
	dir := filepath.Dir(path)
	if cfg.ResourceDir != "" && !filepath.IsAbs(cfg.ResourceDir) {
		cfg.ResourceDir = filepath.Join(dir, cfg.ResourceDir)
	}
	if cfg.Scene != "" && !filepath.IsAbs(cfg.Scene) {
		cfg.Scene = filepath.Join(dir, cfg.Scene)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file
// settings.
type Flags struct {
	ResourceDir string
	Scene       string
	Frames      int
	Entities    int
	LogLevel    string
	Editor      bool
	Watch       bool
}

// Resolve applies flags over c and fills in any settings
// left invalid with defaults.
// CLI flags take priority when non-zero/non-empty; they
// are matched to Config fields by name.
func (c *Config) Resolve(flags Flags) {
	if err := copier.CopyWithOption(c, &flags, copier.Option{IgnoreEmpty: true, CaseSensitive: true}); err != nil {
		slog.Warn("config: apply flags", "err", err)
	}

	def := Default()
	if c.Frames <= 0 {
		c.Frames = def.Frames
	}
	if c.FrameRate <= 0 {
		c.FrameRate = def.FrameRate
	}
	if c.Entities <= 0 {
		c.Entities = def.Entities
	}
	switch c.Profile {
	case "cpu", "mem", "none":
	default:
		c.Profile = def.Profile
	}
}

// FrameTime returns the duration of a frame.
func (c *Config) FrameTime() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / time.Duration(Default().FrameRate)
	}
	return time.Second / time.Duration(c.FrameRate)
}

// Level returns the slog level named by c.LogLevel.
// Unknown names mean slog.LevelInfo.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return l
}
