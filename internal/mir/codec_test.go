package mir_test

import (
	"bytes"
	"strings"
	"testing"

	"reef/internal/mir"
)

func TestCodecPreservesDump(t *testing.T) {
	m := lower(t, buildClosureProgram(), mir.Options{})

	var buf bytes.Buffer
	if err := mir.Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := mir.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := mir.Validate(back); err != nil {
		t.Fatalf("decoded module is invalid: %v", err)
	}

	var want, got strings.Builder
	if err := mir.DumpModule(&want, m, mir.DumpOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := mir.DumpModule(&got, back, mir.DumpOptions{}); err != nil {
		t.Fatal(err)
	}
	if got.String() != want.String() {
		t.Fatalf("dump changed across the codec:\n--- got\n%s--- want\n%s", got.String(), want.String())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := mir.Decode(strings.NewReader("not msgpack")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLowerReportsPhases(t *testing.T) {
	var phases []string
	lower(t, buildClosureProgram(), mir.Options{OnPhase: func(p string) { phases = append(phases, p) }})
	if strings.Join(phases, ",") != "resolve,lower" {
		t.Fatalf("phases = %v", phases)
	}
}
