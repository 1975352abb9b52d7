package diag

import (
	"testing"

	"reef/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	ReportWarning(r, LowerUnreachableArm, source.Span{Start: 10, End: 12}, "late").Emit()
	ReportError(r, LowerICE, source.Span{Start: 1, End: 2}, "early").WithNote(source.Span{}, "n").Emit()
	ReportInfo(r, LowerInfo, source.Span{}, "dropped").Emit()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
	bag.Sort()
	if got := bag.Items()[0].Message; got != "early" {
		t.Fatalf("expected early first, got %q", got)
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("expected note to be kept")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportError(BagReporter{Bag: bag}, LowerICE, source.Span{}, "boom")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected single emission, got %d", bag.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 3, End: 4}
	r.Report(LowerUnreachableArm, SevWarning, sp, "unreachable", nil)
	r.Report(LowerUnreachableArm, SevWarning, sp, "unreachable", nil)
	r.Report(LowerUnreachableArm, SevWarning, sp, "other", nil)
	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LowerICE, "LOW7001"},
		{IODecodeError, "IO4002"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d: got %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestInternalError(t *testing.T) {
	sp := source.Span{Start: 3, End: 4}
	d := InternalError(sp, "Assign", "assignment target is not addressable")
	if d.Code != LowerICE || !d.IsError() || d.Message != "internal compiler error: assignment target is not addressable" {
		t.Fatalf("d = %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "while lowering Assign" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if bare := InternalError(sp, "", "boom"); len(bare.Notes) != 0 {
		t.Fatalf("unexpected notes: %+v", bare.Notes)
	}
}

func TestWithNoteKeepsOriginal(t *testing.T) {
	base := NewError(LowerICE, source.Span{}, "x").WithNote(source.Span{}, "a")
	base.Notes = append(make([]Note, 0, 4), base.Notes...)
	left := base.WithNote(source.Span{}, "left")
	right := base.WithNote(source.Span{}, "right")
	if len(base.Notes) != 1 || left.Notes[1].Msg != "left" || right.Notes[1].Msg != "right" {
		t.Fatalf("notes shared: base=%v left=%v right=%v", base.Notes, left.Notes, right.Notes)
	}
}

func TestSeverityNames(t *testing.T) {
	tests := []struct {
		sev          Severity
		upper, lower string
	}{
		{SevInfo, "INFO", "info"},
		{SevWarning, "WARNING", "warning"},
		{SevError, "ERROR", "error"},
		{Severity(7), "UNKNOWN", "info"},
	}
	for _, tt := range tests {
		if tt.sev.String() != tt.upper || tt.sev.Label() != tt.lower {
			t.Errorf("%d: %q/%q", tt.sev, tt.sev.String(), tt.sev.Label())
		}
	}
}
