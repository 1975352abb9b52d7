package trace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRingTracerKeepsLastEvents(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: name})
	}
	got := r.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s/%s: got %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), st)

	span := Begin(FromContext(ctx), ScopePass, "lower", 0)
	Point(FromContext(ctx), ScopeNode, "skipped", "", span.ID())
	span.End("ok")

	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected begin and end lines, got:\n%s", out)
	}
	if !strings.Contains(out, `"name":"lower"`) || !strings.Contains(out, `"detail":"ok"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFromContextDefaultsToNop(t *testing.T) {
	if FromContext(context.Background()).Enabled() {
		t.Fatalf("expected disabled tracer")
	}
}

func TestLevelFlagValue(t *testing.T) {
	var l Level
	if err := l.Set("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("Set(DETAIL) = %v, level %v", err, l)
	}
	if err := l.Set("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if l.String() != "detail" || l.Type() != "level" {
		t.Fatalf("String/Type = %q/%q", l.String(), l.Type())
	}
}

func TestParentRoundTrip(t *testing.T) {
	ctx := context.Background()
	if Parent(ctx) != 0 {
		t.Fatalf("root context has a parent")
	}
	if got := Parent(WithParent(ctx, 42)); got != 42 {
		t.Fatalf("Parent = %d, want 42", got)
	}
}

func TestHeartbeatEmitsUntilStopped(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	if r.Len() == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	if ev := r.Snapshot()[0]; ev.Kind != KindHeartbeat || ev.Detail != "#1" {
		t.Fatalf("first event = %+v", ev)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat started on a disabled tracer")
	}
}

func TestRingOf(t *testing.T) {
	ring := NewRingTracer(4, LevelPhase)
	both := NewMultiTracer(LevelPhase, NewStreamTracer(&bytes.Buffer{}, LevelPhase, FormatText), ring)
	if RingOf(ring) != ring || RingOf(both) != ring {
		t.Fatal("ring not found")
	}
	if RingOf(Nop) != nil {
		t.Fatal("nop tracer has no ring")
	}
}

func TestNewBuildsEachMode(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode StorageMode
		ring bool
	}{
		{ModeStream, false},
		{ModeRing, true},
		{ModeBoth, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			tr, err := New(Config{Level: LevelPhase, Mode: tt.mode, Output: &buf})
			if err != nil {
				t.Fatal(err)
			}
			if (RingOf(tr) != nil) != tt.ring {
				t.Fatalf("%T: ring = %v, want %v", tr, RingOf(tr) != nil, tt.ring)
			}
			if ring := RingOf(tr); ring != nil && ring.Cap() != DefaultRingSize {
				t.Fatalf("ring size = %d", ring.Cap())
			}
		})
	}

	if tr, err := New(Config{Level: LevelOff, Mode: ModeBoth}); err != nil || tr != Nop {
		t.Fatalf("off level: %v, %v", tr, err)
	}
	if _, err := New(Config{Level: LevelPhase, Mode: StorageMode(9)}); err == nil {
		t.Fatal("unknown mode accepted")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]StorageMode{"stream": ModeStream, " Ring ": ModeRing, "BOTH": ModeBoth} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("file"); err == nil || !strings.Contains(err.Error(), "stream|ring|both") {
		t.Errorf("err = %v", err)
	}
}

type failingTracer struct {
	Tracer
	err error
}

func (f failingTracer) Close() error { return f.err }

func TestMultiTracerClosesEveryTracer(t *testing.T) {
	ring := NewRingTracer(4, LevelPhase)
	first, second := errors.New("first"), errors.New("second")
	m := NewMultiTracer(LevelPhase, failingTracer{Tracer: ring, err: first}, failingTracer{Tracer: ring, err: second})
	err := m.Close()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("err = %v", err)
	}
}
