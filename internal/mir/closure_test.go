package mir_test

import (
	"context"
	"strings"
	"testing"

	"reef/internal/hir"
	"reef/internal/mir"
	tk "reef/internal/testkit"
)

func dataTypeNamed(t *testing.T, m *mir.Module, name string) *mir.DataType {
	t.Helper()
	for _, dt := range m.DataTypes {
		if dt.Name == name {
			return dt
		}
	}
	t.Fatalf("type %s not in module", name)
	return nil
}

func fieldNames(dt *mir.DataType) []string {
	var out []string
	for _, f := range dt.Variants[0].Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestCaptureSingleLevel(t *testing.T) {
	pb := tk.NewProgram("test")
	outer := pb.Func("Outer", hir.UnitT, tk.Param("a", hir.StringT))
	inner := outer.Nested("Inner", hir.UnitT)
	b := inner.Local("b", hir.StringT)
	inner.Body(tk.Decl(b, inner.Outer(outer.ParamRef(0))))

	m := lower(t, pb.Program(), mir.Options{})

	locals := dataTypeNamed(t, m, "Outer_Locals")
	if got := strings.Join(fieldNames(locals), ","); got != "a" {
		t.Fatalf("Outer_Locals fields = %s", got)
	}
	if locals.Variants[0].Name != mir.ClassVariantName {
		t.Fatalf("Outer_Locals variant = %s", locals.Variants[0].Name)
	}
	closure := dataTypeNamed(t, m, "Outer__Inner_Closure")
	if got := strings.Join(fieldNames(closure), ","); got != "Outer_Locals" {
		t.Fatalf("Outer__Inner_Closure fields = %s", got)
	}

	expectDump(t, m, "Outer", `
fn Outer(_param0 a: string): Unit
  locals:
    _localsObject: Outer_Locals
  bb0:
    _localsObject = new Outer_Locals
    (_localsObject as _classVariant).a = copy _param0
    goto bb1
  bb1:
    return
`)
	expectDump(t, m, "Outer__Inner", `
fn Outer__Inner(_param0 closure: Outer__Inner_Closure): Unit
  locals:
    _local0 b: string
  bb0:
    _local0 = copy ((_param0 as _classVariant).Outer_Locals as _classVariant).a
    goto bb1
  bb1:
    return
`)
}

func TestCaptureChainForwardsEnvironments(t *testing.T) {
	m := lower(t, buildClosureProgram(), mir.Options{})

	inner := dataTypeNamed(t, m, "Outer__Mid__Inner_Closure")
	if got := strings.Join(fieldNames(inner), ","); got != "Outer_Locals,Outer__Mid_Locals" {
		t.Fatalf("inner closure fields = %s", got)
	}
	mid := dataTypeNamed(t, m, "Outer__Mid_Closure")
	if got := strings.Join(fieldNames(mid), ","); got != "Outer_Locals" {
		t.Fatalf("mid closure fields = %s", got)
	}
	for _, dt := range m.DataTypes {
		if strings.HasPrefix(dt.Name, "Plain_") || dt.Name == "Outer_Closure" || dt.Name == "Outer__Mid__Inner_Locals" {
			t.Errorf("unexpected environment type %s", dt.Name)
		}
	}

	expectDump(t, m, "Outer__Mid", `
fn Outer__Mid(_param0 closure: Outer__Mid_Closure, _param1 b: string): Unit
  locals:
    _localsObject: Outer__Mid_Locals
    _local1: Unit
    _local2: Outer__Mid__Inner_Closure
  bb0:
    _localsObject = new Outer__Mid_Locals
    (_localsObject as _classVariant).b = copy _param1
    _local2 = new Outer__Mid__Inner_Closure
    (_local2 as _classVariant).Outer_Locals = copy (_param0 as _classVariant).Outer_Locals
    (_local2 as _classVariant).Outer__Mid_Locals = copy _localsObject
    _local1 = call Outer__Mid__Inner(copy _local2) -> bb1
  bb1:
    return
`)
	expectDump(t, m, "Outer__Mid__Inner", `
fn Outer__Mid__Inner(_param0 closure: Outer__Mid__Inner_Closure): Unit
  locals:
    _local0 x: string
    _local1 y: string
  bb0:
    _local0 = copy ((_param0 as _classVariant).Outer_Locals as _classVariant).a
    _local1 = copy ((_param0 as _classVariant).Outer__Mid_Locals as _classVariant).b
    goto bb1
  bb1:
    return
`)
	expectDump(t, m, "Plain", `
fn Plain(_param0 z: i32): Unit
  bb0:
    return
`)
}

func TestCaptureReceiverInNestedFunction(t *testing.T) {
	pb := tk.NewProgram("test")
	c := pb.Class("Point", tk.Field("x", hir.I32T))
	pt := c.SelfType()
	method := pb.Method(c.Def, "M", false, hir.I32T)
	nested := method.Nested("N", hir.I32T)
	nested.Body(tk.Return(nested.Outer(tk.FieldRef(pt, "x", hir.I32T, false))))
	method.Body(tk.Return(nested.Call()))

	m := lower(t, pb.Program(), mir.Options{})
	closure := dataTypeNamed(t, m, "Point__M__N_Closure")
	if got := strings.Join(fieldNames(closure), ","); got != mir.ClosureThisField {
		t.Fatalf("closure fields = %s", got)
	}
	expectDump(t, m, "Point__M", `
fn Point__M(_param0 this: Point): i32
  locals:
    _local0: Point__M__N_Closure
  bb0:
    _local0 = new Point__M__N_Closure
    (_local0 as _classVariant).this = copy _param0
    _returnValue = call Point__M__N(copy _local0) -> bb1
  bb1:
    return
`)
	expectDump(t, m, "Point__M__N", `
fn Point__M__N(_param0 closure: Point__M__N_Closure): i32
  bb0:
    _returnValue = copy ((_param0 as _classVariant).this as _classVariant).x
    return
`)
}

func TestCaptureTopLevelLocals(t *testing.T) {
	pb := tk.NewProgram("test")
	main := pb.Main()
	a := main.Local("a", hir.I32T)
	f := main.Nested("F", hir.I32T)
	f.Body(tk.Return(f.Outer(main.LocalRef(a))))
	main.Body(tk.Decl(a, tk.Int(1, hir.I32T)))

	m := lower(t, pb.Program(), mir.Options{})
	if got := strings.Join(fieldNames(dataTypeNamed(t, m, "_Main_Locals")), ","); got != "a" {
		t.Fatalf("_Main_Locals fields = %s", got)
	}
	expectDump(t, m, "_Main", `
fn _Main(): Unit
  locals:
    _localsObject: _Main_Locals
  bb0:
    _localsObject = new _Main_Locals
    (_localsObject as _classVariant).a = 1i32
    goto bb1
  bb1:
    return
`)
	expectDump(t, m, "F", `
fn F(_param0 closure: F_Closure): i32
  bb0:
    _returnValue = copy ((_param0 as _classVariant)._Main_Locals as _classVariant).a
    return
`)
}

func TestCaptureFunctionValueCarriesClosure(t *testing.T) {
	pb := tk.NewProgram("test")
	outer := pb.Func("Outer", hir.UnitT, tk.Param("a", hir.I32T))
	inner := outer.Nested("Inner", hir.I32T)
	inner.Body(tk.Return(inner.Outer(outer.ParamRef(0))))
	fnT := hir.Function(hir.I32T)
	g := outer.Local("g", fnT)
	outer.Body(tk.Decl(g, inner.Ref(fnT)))

	m := lower(t, pb.Program(), mir.Options{})
	got := dumpFunc(t, m, "Outer")
	for _, want := range []string{
		"_local2 = new Outer__Inner_Closure",
		"(_local2 as _classVariant).Outer_Locals = copy _localsObject",
		"(_local1 as _classVariant).FunctionReference = fn Outer__Inner",
		"(_local1 as _classVariant).FunctionParameter = copy _local2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestCaptureErrorsAreICEs(t *testing.T) {
	tests := []struct {
		name  string
		build func(pb *tk.ProgramBuilder)
	}{
		{
			name: "variable of a function that does not enclose",
			build: func(pb *tk.ProgramBuilder) {
				other := pb.Func("Other", hir.UnitT, tk.Param("a", hir.StringT))
				inner := pb.Func("Outer", hir.UnitT).Nested("Inner", hir.UnitT)
				b := inner.Local("b", hir.StringT)
				inner.Body(tk.Decl(b, inner.Outer(other.ParamRef(0))))
			},
		},
		{
			name: "outer variable without owner",
			build: func(pb *tk.ProgramBuilder) {
				inner := pb.Func("Outer", hir.UnitT).Nested("Inner", hir.UnitT)
				inner.Fn.AccessedOuter = append(inner.Fn.AccessedOuter, hir.VarRef{Kind: hir.VarLocal, Name: "ghost"})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := tk.NewProgram("test")
			tt.build(pb)
			_, err := mir.LowerProgram(context.Background(), pb.Program(), mir.Options{})
			ice, ok := mir.AsICE(err)
			if !ok {
				t.Fatalf("expected an internal compiler error, got %v", err)
			}
			if ice.Construct != "closure" {
				t.Fatalf("construct = %q (%v)", ice.Construct, err)
			}
		})
	}
}
