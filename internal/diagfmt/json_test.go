package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"reef/internal/diag"
	"reef/internal/source"
)

func TestJSONPositions(t *testing.T) {
	fs := source.NewFileSet()
	bag := unreachableBag(fs)
	bag.Add(diag.NewError(diag.IODecodeError, source.Span{}, "bad unit"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, Origin: "u.rhir"}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "LOW7002" || first.Severity != "WARNING" {
		t.Fatalf("first = %+v", first)
	}
	want := LocationJSON{File: "src/main.reef", StartByte: 47, EndByte: 53, StartLine: 4, StartCol: 9, EndLine: 4, EndCol: 15}
	if first.Location != want {
		t.Fatalf("location = %+v, want %+v", first.Location, want)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location.StartLine != 3 {
		t.Fatalf("notes = %+v", first.Notes)
	}
	if loc := out.Diagnostics[1].Location; loc.File != "u.rhir" || loc.StartLine != 0 {
		t.Fatalf("unit-level location = %+v", loc)
	}
}

func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	bag := unreachableBag(fs)
	bag.Add(diag.NewError(diag.LowerICE, source.Span{}, "x"))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("out = %+v", out)
	}
}
