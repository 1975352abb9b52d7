package main

import (
	"strings"
	"testing"

	"reef/internal/config"
)

func TestApplyGlobalFlags(t *testing.T) {
	root := newRootCmd(&cliApp{})
	flags := root.PersistentFlags()
	if err := flags.Parse([]string{"--color=off", "--trace-level=DETAIL", "--trace-mode=both", "--trace-heartbeat=250ms", "--max-diagnostics=3"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	if err := applyGlobalFlags(&cfg, flags); err != nil {
		t.Fatal(err)
	}
	if cfg.Dump.Color != "off" || cfg.Trace.Level != "detail" || cfg.Trace.Mode != "both" ||
		cfg.Trace.Heartbeat != "250ms" || cfg.Driver.MaxDiagnostics != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
	// untouched flags keep the config values
	if cfg.Trace.RingSize != config.Default().Trace.RingSize {
		t.Fatalf("ring size overwritten: %d", cfg.Trace.RingSize)
	}
}

func TestApplyGlobalFlagsRejectsBadValues(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--color=sometimes"}, "auto|on|off"},
		{[]string{"--trace-mode=file"}, "stream|ring|both"},
	}
	for _, tt := range tests {
		root := newRootCmd(&cliApp{})
		flags := root.PersistentFlags()
		if err := flags.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		cfg := config.Default()
		err := applyGlobalFlags(&cfg, flags)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: err = %v, want %q", tt.args, err, tt.want)
		}
	}

	root := newRootCmd(&cliApp{})
	if err := root.PersistentFlags().Parse([]string{"--trace-level=loud"}); err == nil {
		t.Fatal("invalid trace level accepted by the flag")
	}
}

func TestResolveLowerSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Lower.Simplify = true
	cfg.Lower.Output = "/cfg/out"
	cfg.Driver.Jobs = 4
	cfg.Driver.UI = "on"

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, s lowerSettings)
	}{
		{
			name: "config values",
			check: func(t *testing.T, s lowerSettings) {
				if !s.opts.Simplify || s.opts.Jobs != 4 || s.output != "/cfg/out" || s.ui != uiModeOn || !s.useCache || s.format != "pretty" {
					t.Fatalf("settings = %+v", s)
				}
			},
		},
		{
			name: "flags win",
			args: []string{"--simplify=false", "-j", "2", "-o", "/flag/out", "--ui", "off", "--no-cache", "--format", "JSON", "--warn-unreachable=false"},
			check: func(t *testing.T, s lowerSettings) {
				if s.opts.Simplify || s.opts.Jobs != 2 || s.output != "/flag/out" || s.ui != uiModeOff || s.useCache || s.format != "json" {
					t.Fatalf("settings = %+v", s)
				}
				if s.opts.WarnUnreachable || !s.opts.NormalizeStrings {
					t.Fatalf("lowering options = %+v", s.opts)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newLowerCmd(&cliApp{})
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			s, err := resolveLowerSettings(&cfg, cmd.Flags())
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, s)
		})
	}
}

func TestResolveLowerSettingsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--format", "xml"},
		{"--ui", "maybe"},
		{"--jobs=-1"},
	} {
		cfg := config.Default()
		cmd := newLowerCmd(&cliApp{})
		if err := cmd.Flags().Parse(args); err != nil {
			t.Fatal(err)
		}
		if _, err := resolveLowerSettings(&cfg, cmd.Flags()); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in   string
		want uiMode
		err  bool
	}{
		{"", uiModeAuto, false},
		{" Auto ", uiModeAuto, false},
		{"on", uiModeOn, false},
		{"OFF", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if shouldUseTUI(uiModeAuto, &strings.Builder{}) {
		t.Error("a buffer is not a terminal")
	}
}
