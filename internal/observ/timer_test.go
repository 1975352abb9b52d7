package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAggregatesConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Add("lower", time.Millisecond, "")
		}()
	}
	wg.Wait()
	tm.Add("validate", 2*time.Millisecond, "3 modules")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %+v", r.Phases)
	}
	if r.Phases[0].Name != "lower" || r.Phases[0].Count != 8 || r.Phases[0].DurationMS != 8 {
		t.Fatalf("lower phase = %+v", r.Phases[0])
	}
	if r.TotalMS != 10 {
		t.Fatalf("total = %v", r.TotalMS)
	}
	s := tm.Summary()
	for _, want := range []string{"lower", "x8", "// 3 modules", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary misses %q:\n%s", want, s)
		}
	}
}

func TestTimerBeginAndNil(t *testing.T) {
	tm := NewTimer()
	stop := tm.Begin("decode")
	stop("")
	if r := tm.Report(); len(r.Phases) != 1 || r.Phases[0].Count != 1 {
		t.Fatalf("report = %+v", r)
	}

	var none *Timer
	none.Begin("x")("")
	if r := none.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported %+v", r)
	}
}
