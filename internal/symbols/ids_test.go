package symbols

import "testing"

func TestDefID_Derive(t *testing.T) {
	fn := NewDefID("main", "Outer__Inner")
	if got := fn.Derive("_Closure"); got.Name != "Outer__Inner_Closure" || got.Module != "main" {
		t.Errorf("Derive() = %v", got)
	}
	if got := fn.Short(); got != "Inner" {
		t.Errorf("Short() = %q, want Inner", got)
	}
	if got := NewDefID("main", "").Child("Outer"); got.Name != "Outer" {
		t.Errorf("Child() on empty = %v", got)
	}
	if got := fn.Child("x"); got.Name != "Outer__Inner__x" {
		t.Errorf("Child() = %v", got)
	}
}

func TestDefID_Compare(t *testing.T) {
	a := NewDefID("a", "z")
	b := NewDefID("b", "a")
	if Compare(a, b) >= 0 || Compare(b, a) <= 0 || Compare(a, a) != 0 {
		t.Error("Compare must order by module first")
	}
	if NoDefID.IsValid() {
		t.Error("NoDefID must be invalid")
	}
}

func TestIntInfo(t *testing.T) {
	tests := []struct {
		id     DefID
		size   uint8
		signed bool
	}{
		{Int32, 4, true},
		{Int64, 8, true},
		{UInt16, 2, false},
		{UInt8, 1, false},
	}
	for _, tt := range tests {
		size, signed, ok := IntInfo(tt.id)
		if !ok || size != tt.size || signed != tt.signed {
			t.Errorf("IntInfo(%v) = %d, %v, %v", tt.id, size, signed, ok)
		}
	}
	if _, _, ok := IntInfo(String); ok {
		t.Error("string is not an integer")
	}
	if FunctionObject(2).Name != "Function`2" || FunctionObjectCall(2).Name != "Function`2__Call" {
		t.Error("unexpected function object names")
	}
}
