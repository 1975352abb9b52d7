package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestCollectDefaultsToDev(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "  "
	if got := Collect().Version; got != "dev" {
		t.Fatalf("Version = %q, want dev", got)
	}
	Version = "1.2.3"
	if got := Collect().Version; got != "1.2.3" {
		t.Fatalf("Version = %q", got)
	}
}

func TestColored(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = true
	tests := []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"dev", "dev"},
		{"1.2", "1.2"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	color.NoColor = false
	if got := Colored("1.2.3"); !strings.Contains(got, "\x1b[") {
		t.Errorf("expected escape codes, got %q", got)
	}
}

func TestRenderPretty(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	color.NoColor = true

	var buf bytes.Buffer
	RenderPretty(&buf, Info{Version: "1.2.3", GitCommit: "abc123"}, Options{ShowHash: true, ShowDate: true})
	want := "reef 1.2.3: " + tagline + "\ncommit: abc123\nbuilt:  unknown\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, Info{Version: "1.2.3", BuildDate: "2024-01-15"}, Options{ShowDate: true}); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["tool"] != "reef" || got["version"] != "1.2.3" || got["build_date"] != "2024-01-15" {
		t.Fatalf("payload = %v", got)
	}
	if _, ok := got["git_commit"]; ok {
		t.Fatalf("git_commit present without ShowHash: %v", got)
	}
}
