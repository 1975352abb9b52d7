package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[lower]
normalize_strings = false
output = "build"

[driver]
jobs = 3

[trace]
level = "detail"
heartbeat = "250ms"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cfg.Lower.NormalizeStrings {
		t.Errorf("normalize_strings not applied")
	}
	if !cfg.Lower.WarnUnreachable || !cfg.Driver.Cache || cfg.Dump.Color != "auto" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Driver.Jobs != 3 || cfg.Trace.Level != "detail" {
		t.Errorf("values not decoded: %+v", cfg)
	}
	if want := filepath.Join(filepath.Dir(cfg.Path), "build"); cfg.Lower.Output != want {
		t.Errorf("output = %q, want %q", cfg.Lower.Output, want)
	}
	if d, _ := cfg.HeartbeatInterval(); d != 250*time.Millisecond {
		t.Errorf("heartbeat = %v", d)
	}
}

func TestFindWithoutFile(t *testing.T) {
	cfg, err := Find(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[lower\n", "failed to parse TOML"},
		{"unknown key", "[lower]\nfast = true\n", "unknown keys: lower.fast"},
		{"color", "[dump]\ncolor = \"sometimes\"\n", "[dump].color"},
		{"jobs", "[driver]\njobs = -1\n", "[driver].jobs"},
		{"level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"heartbeat", "[trace]\nheartbeat = \"soon\"\n", "[trace].heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
