package source

import (
	"testing"
)

func TestFileSet_Resolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("main.reef", []byte("union U { A, B }\nvar a = U::B;\n"))

	start, end := fs.Resolve(Span{File: id, Start: 17, End: 22})
	if start != (LineCol{Line: 2, Col: 1}) {
		t.Errorf("start = %+v, want 2:1", start)
	}
	if end != (LineCol{Line: 2, Col: 6}) {
		t.Errorf("end = %+v, want 2:6", end)
	}
}

func TestFileSet_GetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("a.reef", []byte("first\r\nsecond\nthird"))
	f := fs.Get(id)

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestFileSet_LookupAndMissing(t *testing.T) {
	fs := NewFileSet()
	fs.Add("dir/../x.reef", nil)

	f, ok := fs.Lookup("x.reef")
	if !ok || f.Path != "x.reef" {
		t.Fatalf("Lookup(x.reef) = %v, %v", f, ok)
	}
	if fs.Get(5) != nil {
		t.Error("expected nil for unknown file id")
	}
	start, _ := fs.Resolve(Span{File: 9})
	if start != (LineCol{}) {
		t.Errorf("unknown file resolved to %+v", start)
	}
}
