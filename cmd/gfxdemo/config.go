package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the demo configuration file.
type Config struct {
	Width          uint32     `toml:"width"`
	Height         uint32     `toml:"height"`
	Frames         int        `toml:"frames"`
	LogLevel       string     `toml:"log_level"`
	StateCacheSize int        `toml:"state_cache_size"`
	Tint           [4]float32 `toml:"tint"`

	// Threaded renders through a dispatch queue owned by its own goroutine.
	Threaded bool `toml:"threaded"`

	// Blend toggles alpha blending every BlendEvery frames, so later
	// frames reuse the cached pipelines.
	BlendEvery int `toml:"blend_every"`

	Camera Camera `toml:"camera"`
}

// Camera places the viewer looking at the origin.
type Camera struct {
	FOV      float32 `toml:"fov"`
	Distance float32 `toml:"distance"`
	Spin     float32 `toml:"spin"` // degrees per frame
}

func defaultConfig() Config {
	return Config{
		Width:          800,
		Height:         600,
		Frames:         120,
		LogLevel:       "info",
		StateCacheSize: 64,
		Tint:           [4]float32{1, 0.5, 0.2, 1},
		BlendEvery:     30,
		Camera:         Camera{FOV: 45, Distance: 3, Spin: 3},
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("gfxdemo: open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var missing *toml.StrictMissingError
		if errors.As(err, &missing) {
			return cfg, fmt.Errorf("gfxdemo: config %s: %s", path, missing.String())
		}
		return cfg, fmt.Errorf("gfxdemo: config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("gfxdemo: invalid size %dx%d", c.Width, c.Height)
	case c.Frames < 0:
		return fmt.Errorf("gfxdemo: negative frame count %d", c.Frames)
	}
	_, err := c.level()
	return err
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("gfxdemo: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
