package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"reef/internal/config"
	"reef/internal/driver"
)

// loadConfig reads --config, or the nearest reef.toml above the working
// directory.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.Find(wd)
}

// applyGlobalFlags overrides cfg with the persistent flags given on the
// command line.
func applyGlobalFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	if flags.Changed("color") {
		if cfg.Dump.Color, err = flags.GetString("color"); err != nil {
			return err
		}
	}
	if flags.Changed("max-diagnostics") {
		if cfg.Driver.MaxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return err
		}
	}
	if flags.Changed("trace") {
		if cfg.Trace.Output, err = flags.GetString("trace"); err != nil {
			return err
		}
	}
	if flags.Changed("trace-level") {
		cfg.Trace.Level = flags.Lookup("trace-level").Value.String()
	}
	if flags.Changed("trace-mode") {
		if cfg.Trace.Mode, err = flags.GetString("trace-mode"); err != nil {
			return err
		}
	}
	if flags.Changed("trace-ring-size") {
		if cfg.Trace.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
			return err
		}
	}
	if flags.Changed("trace-heartbeat") {
		d, err := flags.GetDuration("trace-heartbeat")
		if err != nil {
			return err
		}
		cfg.Trace.Heartbeat = ""
		if d > 0 {
			cfg.Trace.Heartbeat = d.String()
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// lowerSettings is the effective configuration of one lower run.
type lowerSettings struct {
	opts     driver.Options
	output   string
	ui       uiMode
	useCache bool
	cacheDir string
	format   string
	dryRun   bool
}

func resolveLowerSettings(cfg *config.Config, flags *pflag.FlagSet) (lowerSettings, error) {
	s := lowerSettings{
		opts: driver.Options{
			Jobs:             cfg.Driver.Jobs,
			NormalizeStrings: cfg.Lower.NormalizeStrings,
			WarnUnreachable:  cfg.Lower.WarnUnreachable,
			Simplify:         cfg.Lower.Simplify,
			MaxDiagnostics:   cfg.Driver.MaxDiagnostics,
		},
		output:   cfg.Lower.Output,
		useCache: cfg.Driver.Cache,
		cacheDir: cfg.Driver.CacheDir,
	}
	var err error

	uiValue := cfg.Driver.UI
	if flags.Changed("ui") {
		if uiValue, err = flags.GetString("ui"); err != nil {
			return s, err
		}
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}

	if flags.Changed("output") {
		if s.output, err = flags.GetString("output"); err != nil {
			return s, err
		}
	}
	if flags.Changed("jobs") {
		if s.opts.Jobs, err = flags.GetInt("jobs"); err != nil {
			return s, err
		}
		if s.opts.Jobs < 0 {
			return s, fmt.Errorf("--jobs must not be negative, got %d", s.opts.Jobs)
		}
	}
	for name, dst := range map[string]*bool{
		"simplify":          &s.opts.Simplify,
		"normalize-strings": &s.opts.NormalizeStrings,
		"warn-unreachable":  &s.opts.WarnUnreachable,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return s, err
		}
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return s, err
	}
	if noCache {
		s.useCache = false
	}
	if s.dryRun, err = flags.GetBool("dry-run"); err != nil {
		return s, err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return s, err
	}
	s.format = strings.ToLower(strings.TrimSpace(format))
	switch s.format {
	case "pretty", "json", "short":
	default:
		return s, fmt.Errorf("unsupported format %q (must be pretty, json or short)", format)
	}
	return s, nil
}

// openCache opens the configured cache directory, or the per-user one.
func openCache(dir string) (*driver.DiskCache, error) {
	if dir != "" {
		return driver.NewDiskCache(dir)
	}
	return driver.OpenDiskCache("reef")
}
