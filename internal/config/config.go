// Package config holds the playback settings shared by the viewer and the
// server. Values come from built-in defaults, then an optional JSON file, then
// MAPF_* environment variables (a .env file is loaded first if present).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults match the original desktop visualizer.
const (
	DefaultSpeed     = 0.05 // seconds of plan time per frame
	DefaultSpeedStep = 0.01
	DefaultFPS       = 30
	DefaultAddr      = ":8080"
	MaxSpeed         = 0.5
)

// Config is the playback configuration.
type Config struct {
	Speed     float64 `json:"speed"`
	SpeedStep float64 `json:"speed_step"`
	FPS       int     `json:"fps"`
	Autoplay  bool    `json:"autoplay"`
	Loop      bool    `json:"loop"`

	// Addr is the HTTP listen address of cmd/server.
	Addr string `json:"addr,omitempty"`
	// DBPath enables the run history when set.
	DBPath string `json:"db_path,omitempty"`
	// RecordDir enables JSONL recordings when set.
	RecordDir string `json:"record_dir,omitempty"`
	// SnapshotDir is where snapshots are written.
	SnapshotDir string `json:"snapshot_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Speed:       DefaultSpeed,
		SpeedStep:   DefaultSpeedStep,
		FPS:         DefaultFPS,
		Autoplay:    true,
		Loop:        true,
		Addr:        DefaultAddr,
		SnapshotDir: ".",
	}
}

// Load builds a Config from defaults, the JSON file at path (if path is not
// empty), a .env file in the working directory (if present), and the
// environment, in that order of increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays the JSON file at path onto c. Fields omitted from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from MAPF_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	floatVar := func(key string, dst *float64) error {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
		return nil
	}
	boolVar := func(key string, dst *bool) error {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
		return nil
	}
	stringVar := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if err := floatVar("MAPF_SPEED", &c.Speed); err != nil {
		return err
	}
	if err := floatVar("MAPF_SPEED_STEP", &c.SpeedStep); err != nil {
		return err
	}
	if v, ok := lookup("MAPF_FPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAPF_FPS: %w", err)
		}
		c.FPS = n
	}
	if err := boolVar("MAPF_AUTOPLAY", &c.Autoplay); err != nil {
		return err
	}
	if err := boolVar("MAPF_LOOP", &c.Loop); err != nil {
		return err
	}
	stringVar("MAPF_ADDR", &c.Addr)
	stringVar("MAPF_DB", &c.DBPath)
	stringVar("MAPF_RECORD_DIR", &c.RecordDir)
	stringVar("MAPF_SNAPSHOT_DIR", &c.SnapshotDir)
	return nil
}

// Validate checks that the configuration values are usable.
func (c Config) Validate() error {
	if c.Speed < 0 || c.Speed > MaxSpeed {
		return fmt.Errorf("speed must be between 0 and %g, got %g", MaxSpeed, c.Speed)
	}
	if c.SpeedStep <= 0 || c.SpeedStep > MaxSpeed {
		return fmt.Errorf("speed_step must be in (0, %g], got %g", MaxSpeed, c.SpeedStep)
	}
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.FPS)
	}
	return nil
}

// ClampSpeed limits s to the valid speed range.
func ClampSpeed(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > MaxSpeed:
		return MaxSpeed
	}
	return s
}

// FrameInterval is the wall-clock time between autoplay steps.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
