package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"reef/internal/diag"
	"reef/internal/source"
)

const matchSource = "fn f() {\n    match x {\n        _ => 1,\n        A => 2,\n    }\n}\n"

// armSpan covers "A => 2" on line 4.
func armSpan(id source.FileID) source.Span {
	return source.Span{File: id, Start: 47, End: 53}
}

func unreachableBag(fs *source.FileSet) *diag.Bag {
	id := fs.Add("src/main.reef", []byte(matchSource))
	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.LowerUnreachableArm, armSpan(id), "match arm follows a catch-all pattern")
	bag.Add(d.WithNote(source.Span{File: id, Start: 31, End: 32}, "catch-all is here"))
	return bag
}

func TestPrettySnippet(t *testing.T) {
	fs := source.NewFileSet()
	bag := unreachableBag(fs)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	want := "src/main.reef:4:9: WARNING LOW7002: match arm follows a catch-all pattern\n" +
		" 4 |         A => 2,\n" +
		"   |         ^~~~~~\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	bag := unreachableBag(fs)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true})
	out := buf.String()
	for _, want := range []string{
		" 3 |         _ => 1,\n",
		" 4 |         A => 2,\n",
		" 5 |     }\n",
		"  note: src/main.reef:3:9: catch-all is here\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrettyWithoutLocation(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.LowerICE, source.Span{}, "internal compiler error: boom"))

	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{Origin: "unit.rhir"})
	if got, want := buf.String(), "unit.rhir: ERROR LOW7001: internal compiler error: boom\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	bag := unreachableBag(fs)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape codes:\n%q", buf.String())
	}
}

func TestCaretCountsCells(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		start, end uint32
		pad, mark  string
	}{
		{"ascii", "let x = y", 5, 6, "    ", "^"},
		{"range", "let x = y", 1, 4, "", "^~~"},
		{"wide prefix", "日本 x", 8, 9, "     ", "^"},
		{"wide span", "a 日本", 3, 9, "  ", "^~~~"},
		{"tab", "\tx", 2, 3, "\t", "^"},
		{"empty span", "abc", 2, 2, " ", "^"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pad, mark := caret(tt.line, tt.start, tt.end)
			if pad != tt.pad || mark != tt.mark {
				t.Fatalf("caret = %q %q, want %q %q", pad, mark, tt.pad, tt.mark)
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	long := "/very/long/absolute/path/to/some/nested/directory/file.reef"
	tests := []struct {
		path string
		mode PathMode
		base string
		want string
	}{
		{"src/a.reef", PathModeAuto, "", "src/a.reef"},
		{long, PathModeAuto, "", "file.reef"},
		{"/home/u/p/src/a.reef", PathModeRelative, "/home/u/p", "src/a.reef"},
		{"/other/a.reef", PathModeRelative, "/home/u/p", "/other/a.reef"},
		{"/home/u/p/src/a.reef", PathModeBasename, "", "a.reef"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path, tt.mode, tt.base); got != tt.want {
			t.Errorf("formatPath(%q, %d) = %q, want %q", tt.path, tt.mode, got, tt.want)
		}
	}
}
