// Package config loads reef.toml.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"reef/internal/trace"
)

// Config is the decoded reef.toml. Missing keys keep their defaults.
type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`

	Lower  LowerConfig  `toml:"lower"`
	Dump   DumpConfig   `toml:"dump"`
	Driver DriverConfig `toml:"driver"`
	Trace  TraceConfig  `toml:"trace"`
}

type LowerConfig struct {
	NormalizeStrings bool `toml:"normalize_strings"`
	WarnUnreachable  bool `toml:"warn_unreachable"`
	Simplify         bool `toml:"simplify"`
	// Output is the directory lowered modules are written to. Relative
	// paths are taken from the directory holding reef.toml.
	Output string `toml:"output"`
}

type DumpConfig struct {
	Color string `toml:"color"`
}

type DriverConfig struct {
	Jobs           int    `toml:"jobs"`
	Cache          bool   `toml:"cache"`
	CacheDir       string `toml:"cache_dir"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	UI             string `toml:"ui"`
}

type TraceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	RingSize  int    `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

// Default returns the configuration used without reef.toml.
func Default() Config {
	return Config{
		Lower:  LowerConfig{NormalizeStrings: true, WarnUnreachable: true},
		Dump:   DumpConfig{Color: "auto"},
		Driver: DriverConfig{Cache: true, UI: "auto"},
		Trace:  TraceConfig{Level: "off", Mode: "stream", RingSize: 4096},
	}
}

// Load reads reef.toml at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path

	root := filepath.Dir(path)
	if meta.IsDefined("lower", "output") && cfg.Lower.Output != "" && !filepath.IsAbs(cfg.Lower.Output) {
		cfg.Lower.Output = filepath.Join(root, cfg.Lower.Output)
	}
	if meta.IsDefined("driver", "cache_dir") && cfg.Driver.CacheDir != "" && !filepath.IsAbs(cfg.Driver.CacheDir) {
		cfg.Driver.CacheDir = filepath.Join(root, cfg.Driver.CacheDir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find loads the reef.toml nearest to startDir, or the defaults when there
// is none.
func Find(startDir string) (Config, error) {
	path, ok, err := FindFile(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	if err := checkMode("[dump].color", c.Dump.Color); err != nil {
		return err
	}
	if err := checkMode("[driver].ui", c.Driver.UI); err != nil {
		return err
	}
	if c.Driver.Jobs < 0 {
		return fmt.Errorf("[driver].jobs must not be negative, got %d", c.Driver.Jobs)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return err
	}
	return nil
}

// HeartbeatInterval parses [trace].heartbeat; empty means disabled.
func (c *Config) HeartbeatInterval() (time.Duration, error) {
	if c.Trace.Heartbeat == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Trace.Heartbeat)
	if err != nil {
		return 0, fmt.Errorf("[trace].heartbeat: %w", err)
	}
	return d, nil
}

func checkMode(key, v string) error {
	switch v {
	case "auto", "on", "off":
		return nil
	}
	return fmt.Errorf("%s must be auto|on|off, got %q", key, v)
}
