package mir_test

import (
	"context"
	"strings"
	"testing"

	"reef/internal/diag"
	"reef/internal/hir"
	"reef/internal/mir"
	tk "reef/internal/testkit"
)

func lower(t *testing.T, prog *hir.Program, opts mir.Options) *mir.Module {
	t.Helper()
	m, err := mir.LowerProgram(context.Background(), prog, opts)
	if err != nil {
		t.Fatalf("LowerProgram: %v", err)
	}
	if err := mir.Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return m
}

// dumpFunc renders one method without the module header.
func dumpFunc(t *testing.T, m *mir.Module, name string) string {
	t.Helper()
	f, ok := m.Func(name)
	if !ok {
		t.Fatalf("method %s not found", name)
	}
	var sb strings.Builder
	if err := mir.DumpModule(&sb, &mir.Module{Name: m.Name, Funcs: []*mir.Func{f}}, mir.DumpOptions{}); err != nil {
		t.Fatalf("DumpModule: %v", err)
	}
	out := sb.String()
	return out[strings.Index(out, "\nfn ")+1:]
}

func expectDump(t *testing.T, m *mir.Module, name, want string) {
	t.Helper()
	got := dumpFunc(t, m, name)
	want = strings.TrimLeft(want, "\n")
	if got != want {
		t.Fatalf("%s:\n--- got\n%s--- want\n%s", name, got, want)
	}
}

func TestLowerUnitVariantInitializer(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.UnitVariant("A"), tk.UnitVariant("B"))
	main := pb.Main()
	a := main.Local("a", u.SelfType())
	main.Body(tk.Decl(a, tk.Variant(u.SelfType(), "B")))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "_Main", `
fn _Main(): Unit
  locals:
    _local0 a: U
  bb0:
    _local0 = new U
    (_local0 as B)._variantIdentifier = 1u16
    goto bb1
  bb1:
    return
`)
}

func TestLowerEmptyBodyReturns(t *testing.T) {
	pb := tk.NewProgram("test")
	pb.Func("Noop", hir.UnitT)

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "Noop", `
fn Noop(): Unit
  bb0:
    return
`)
}

func TestLowerIfJoinsOnce(t *testing.T) {
	pb := tk.NewProgram("test")
	f := pb.Func("Pick", hir.I32T, tk.Param("a", hir.I32T), tk.Param("x", hir.I32T), tk.Param("y", hir.I32T))
	f.Body(tk.Return(tk.If(
		tk.Binary(hir.BinaryGreater, f.ParamRef(0), tk.Int(2, hir.I32T)),
		f.ParamRef(1),
		f.ParamRef(2),
	)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "Pick", `
fn Pick(_param0 a: i32, _param1 x: i32, _param2 y: i32): i32
  locals:
    _local0: bool
  bb0:
    _local0 = GreaterThan(copy _param0, 2i32)
    switchInt copy _local0 [0: bb2] otherwise bb1
  bb1:
    _returnValue = copy _param1
    goto bb3
  bb2:
    _returnValue = copy _param2
    goto bb3
  bb3:
    return
`)
}

func TestLowerShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		op   hir.BinaryOp
		want string
	}{
		{
			name: "and",
			op:   hir.BinaryAnd,
			want: `
fn F(_param0 a: bool, _param1 b: bool): bool
  bb0:
    switchInt copy _param0 [0: bb2] otherwise bb1
  bb1:
    _returnValue = copy _param1
    goto bb3
  bb2:
    _returnValue = false
    goto bb3
  bb3:
    return
`,
		},
		{
			name: "or",
			op:   hir.BinaryOr,
			want: `
fn F(_param0 a: bool, _param1 b: bool): bool
  bb0:
    switchInt copy _param0 [0: bb2] otherwise bb1
  bb1:
    _returnValue = true
    goto bb3
  bb2:
    _returnValue = copy _param1
    goto bb3
  bb3:
    return
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := tk.NewProgram("test")
			f := pb.Func("F", hir.BoolT, tk.Param("a", hir.BoolT), tk.Param("b", hir.BoolT))
			f.Body(tk.Return(tk.Binary(tt.op, f.ParamRef(0), f.ParamRef(1))))
			expectDump(t, lower(t, pb.Program(), mir.Options{}), "F", tt.want)
		})
	}
}

func TestLowerWhileLoop(t *testing.T) {
	pb := tk.NewProgram("test")
	f := pb.Func("Count", hir.UnitT)
	i := f.Local("i", hir.I32T)
	f.Body(tk.While(
		tk.Binary(hir.BinaryLess, f.LocalRef(i), tk.Int(10, hir.I32T)),
		tk.Assign(f.LocalRef(i), tk.Binary(hir.BinaryAdd, f.LocalRef(i), tk.Int(1, hir.I32T))),
	))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "Count", `
fn Count(): Unit
  locals:
    _local0 i: i32
    _local1: bool
  bb0:
    goto bb1
  bb1:
    _local1 = LessThan(copy _local0, 10i32)
    switchInt copy _local1 [0: bb3] otherwise bb2
  bb2:
    _local0 = Add(copy _local0, 1i32)
    goto bb1
  bb3:
    return
`)
}

func TestLowerBreakAndContinue(t *testing.T) {
	pb := tk.NewProgram("test")
	f := pb.Func("Loop", hir.UnitT, tk.Param("c", hir.BoolT))
	f.Body(tk.While(tk.Bool(true), tk.Block(
		tk.If(f.ParamRef(0), tk.Break(), nil),
		tk.Continue(),
	)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "Loop", `
fn Loop(_param0 c: bool): Unit
  bb0:
    goto bb1
  bb1:
    switchInt true [0: bb5] otherwise bb2
  bb2:
    switchInt copy _param0 [0: bb4] otherwise bb3
  bb3:
    goto bb5
  bb4:
    goto bb1
  bb5:
    return
`)
}

func TestLowerFallout(t *testing.T) {
	pb := tk.NewProgram("test")
	res := hir.ResultT(hir.I32T, hir.StringT)
	h := pb.Func("H", res)
	f := pb.Func("F", res)
	a := f.Local("a", hir.I32T)
	f.Body(tk.Decl(a, tk.Fallout(h.Call())))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(): result::<i32, string>
  locals:
    _local0 a: i32
    _local1: result::<i32, string>
  bb0:
    _local1 = call H() -> bb1
  bb1:
    switchInt copy (_local1 as Ok)._variantIdentifier [0: bb3] otherwise bb2
  bb2:
    _returnValue = call result__Create__Error::<i32, string>(copy (_local1 as Error).Item0) -> bb4
  bb3:
    _local0 = copy (_local1 as Ok).Item0
    goto bb4
  bb4:
    return
`)

	create, ok := m.Func("result__Create__Error")
	if !ok {
		t.Fatal("result__Create__Error is not part of the module")
	}
	if len(create.Params) != 1 || len(create.Blocks) != 1 || len(create.Blocks[0].Instrs) != 3 {
		t.Fatalf("unexpected create method: %+v", create)
	}
	dt, ok := m.DataType(hir.ResultT(hir.I32T, hir.StringT).Def)
	if !ok || !dt.Builtin || !dt.IsUnion() {
		t.Fatalf("result type missing or malformed: %+v", dt)
	}
}

func TestLowerReturnCallContinuesAtReturnBlock(t *testing.T) {
	pb := tk.NewProgram("test")
	h := pb.Func("H", hir.I32T)
	f := pb.Func("F", hir.I32T, tk.Param("c", hir.BoolT))
	f.Body(
		tk.If(f.ParamRef(0), tk.Return(h.Call()), nil),
		tk.Return(tk.Int(0, hir.I32T)),
	)

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 c: bool): i32
  bb0:
    switchInt copy _param0 [0: bb2] otherwise bb1
  bb1:
    _returnValue = call H() -> bb3
  bb2:
    _returnValue = 0i32
    return
  bb3:
    return
`)
}

func TestLowerScenarioCMatch(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.TupleVariant("A", hir.I32T), tk.UnitVariant("B"))
	ut := u.SelfType()
	f := pb.Func("F", hir.I32T, tk.Param("x", ut))
	p := f.Local("p", hir.I32T)
	q := f.Local("q", hir.I32T)
	f.Body(tk.Return(tk.Match(f.ParamRef(0), hir.I32T,
		tk.Arm(tk.IsTuple(ut, "A", tk.Bind(p, hir.I32T)), f.LocalRef(p)),
		tk.Arm(tk.IsTuple(ut, "A", tk.Bind(q, hir.I32T)), f.LocalRef(q)),
		tk.Arm(tk.Discard(ut), tk.Int(0, hir.I32T)),
	)))

	bag := diag.NewBag(16)
	m := lower(t, pb.Program(), mir.Options{WarnUnreachable: true, Reporter: diag.BagReporter{Bag: bag}})
	expectDump(t, m, "F", `
fn F(_param0 x: U): i32
  locals:
    _local0 p: i32
    _local1 q: i32
  bb0:
    switchInt copy (_param0 as A)._variantIdentifier [0: bb1] otherwise bb2
  bb1:
    _local0 = copy (_param0 as A).Item0
    _returnValue = copy _local0
    goto bb3
  bb2:
    _returnValue = 0i32
    goto bb3
  bb3:
    return
`)
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.LowerUnreachableArm {
		t.Fatalf("expected one unreachable-arm warning, got %+v", items)
	}
}

func TestLowerNestedMatchSharesSwitches(t *testing.T) {
	pb := tk.NewProgram("test")
	inner := pb.Union("V", tk.UnitVariant("X"), tk.UnitVariant("Y"))
	vt := inner.SelfType()
	outer := pb.Union("U", tk.TupleVariant("A", vt), tk.UnitVariant("B"))
	ut := outer.SelfType()
	f := pb.Func("F", hir.I32T, tk.Param("u", ut))
	f.Body(tk.Return(tk.Match(f.ParamRef(0), hir.I32T,
		tk.Arm(tk.IsTuple(ut, "A", tk.Is(vt, "X")), tk.Int(1, hir.I32T)),
		tk.Arm(tk.IsTuple(ut, "A", tk.Is(vt, "Y")), tk.Int(2, hir.I32T)),
		tk.Arm(tk.Is(ut, "B"), tk.Int(3, hir.I32T)),
	)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 u: U): i32
  bb0:
    switchInt copy (_param0 as A)._variantIdentifier [0: bb1, 1: bb4] otherwise bb5
  bb1:
    switchInt copy ((_param0 as A).Item0 as X)._variantIdentifier [0: bb2, 1: bb3] otherwise bb5
  bb2:
    _returnValue = 1i32
    goto bb5
  bb3:
    _returnValue = 2i32
    goto bb5
  bb4:
    _returnValue = 3i32
    goto bb5
  bb5:
    return
`)
}

func TestLowerMatchMixesTupleAndUnitVariants(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.TupleVariant("A", hir.I32T), tk.UnitVariant("B"))
	ut := u.SelfType()
	f := pb.Func("F", hir.I32T, tk.Param("u", ut))
	f.Body(tk.Return(tk.Match(f.ParamRef(0), hir.I32T,
		tk.Arm(tk.IsTuple(ut, "A", tk.Discard(hir.I32T)), tk.Int(1, hir.I32T)),
		tk.Arm(tk.Is(ut, "B"), tk.Int(2, hir.I32T)),
	)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 u: U): i32
  bb0:
    switchInt copy (_param0 as A)._variantIdentifier [0: bb1, 1: bb2] otherwise bb3
  bb1:
    _returnValue = 1i32
    goto bb3
  bb2:
    _returnValue = 2i32
    goto bb3
  bb3:
    return
`)
}

func TestLowerMatchUnreachableFallback(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.UnitVariant("A"), tk.UnitVariant("B"))
	ut := u.SelfType()
	f := pb.Func("F", hir.UnitT, tk.Param("x", ut))
	f.Body(tk.Match(f.ParamRef(0), hir.UnitT,
		tk.Arm(tk.Is(ut, "A"), tk.Unit()),
		tk.Arm(tk.Is(ut, "B"), tk.Unit()),
		tk.Arm(tk.Discard(ut), tk.Unit()),
		tk.Arm(tk.Discard(ut), tk.Unit()),
	))

	bag := diag.NewBag(16)
	lower(t, pb.Program(), mir.Options{WarnUnreachable: true, Reporter: diag.BagReporter{Bag: bag}})
	if got := bag.Len(); got != 2 {
		t.Fatalf("expected 2 warnings (never selected, after catch-all), got %d: %+v", got, bag.Items())
	}

	quiet := diag.NewBag(16)
	lower(t, pb.Program(), mir.Options{Reporter: diag.BagReporter{Bag: quiet}})
	if quiet.Len() != 0 {
		t.Fatalf("warnings reported with WarnUnreachable off: %+v", quiet.Items())
	}
}

func TestLowerClassPatternBindings(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.UnitVariant("A"), tk.UnitVariant("B"))
	ut := u.SelfType()
	c := pb.Class("Pair", tk.Field("left", ut), tk.Field("n", hir.I32T))
	ct := c.SelfType()
	f := pb.Func("F", hir.I32T, tk.Param("p", ct))
	n := f.Local("n", hir.I32T)
	f.Body(tk.Return(tk.Match(f.ParamRef(0), hir.I32T,
		tk.Arm(tk.IsClass(ct, tk.On("left", tk.Is(ut, "A")), tk.On("n", tk.Bind(n, hir.I32T))), f.LocalRef(n)),
		tk.Arm(tk.Discard(ct), tk.Int(0, hir.I32T)),
	)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 p: Pair): i32
  locals:
    _local0 n: i32
  bb0:
    switchInt copy ((_param0 as _classVariant).left as A)._variantIdentifier [0: bb1] otherwise bb2
  bb1:
    _local0 = copy (_param0 as _classVariant).n
    _returnValue = copy _local0
    goto bb3
  bb2:
    _returnValue = 0i32
    goto bb3
  bb3:
    return
`)
}

func TestLowerMatches(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.TupleVariant("A", hir.I32T, hir.I32T), tk.UnitVariant("B"))
	ut := u.SelfType()
	f := pb.Func("F", hir.BoolT, tk.Param("x", ut))
	p := f.Local("p", hir.I32T)
	f.Body(tk.Return(tk.Matches(f.ParamRef(0), tk.IsTuple(ut, "A", tk.Discard(hir.I32T), tk.Bind(p, hir.I32T)))))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 x: U): bool
  locals:
    _local0 p: i32
  bb0:
    _returnValue = Equal(copy (_param0 as A)._variantIdentifier, 0u16)
    switchInt copy _returnValue [0: bb2] otherwise bb1
  bb1:
    _local0 = copy (_param0 as A).Item1
    _returnValue = true
    goto bb2
  bb2:
    return
`)
}

func TestLowerMatchesWildcardIsTrue(t *testing.T) {
	pb := tk.NewProgram("test")
	f := pb.Func("F", hir.BoolT, tk.Param("x", hir.I32T))
	f.Body(tk.Return(tk.Matches(f.ParamRef(0), tk.Discard(hir.I32T))))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", `
fn F(_param0 x: i32): bool
  bb0:
    _returnValue = true
    return
`)

	pb = tk.NewProgram("test")
	main := pb.Main()
	b := main.Local("b", hir.BoolT)
	main.Body(tk.Decl(b, tk.Matches(tk.Int(1, hir.I32T), tk.Discard(hir.I32T))))
	expectDump(t, lower(t, pb.Program(), mir.Options{}), "_Main", `
fn _Main(): Unit
  locals:
    _local0 b: bool
  bb0:
    _local0 = true
    goto bb1
  bb1:
    return
`)
}

func TestLowerTupleVariantConstructor(t *testing.T) {
	pb := tk.NewProgram("test")
	u := pb.Union("U", tk.TupleVariant("A", hir.I32T, hir.StringT))
	_ = u

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "U__Create__A", `
fn U__Create__A(_param0 Item0: i32, _param1 Item1: string): U
  bb0:
    _returnValue = new U
    (_returnValue as A)._variantIdentifier = 0u16
    (_returnValue as A).Item0 = copy _param0
    (_returnValue as A).Item1 = copy _param1
    return
`)
}

func TestLowerStaticFieldInitializer(t *testing.T) {
	pb := tk.NewProgram("test")
	pb.Class("Counter", tk.StaticField("start", hir.I32T, tk.Int(5, hir.I32T)), tk.Field("n", hir.I32T))

	m := lower(t, pb.Program(), mir.Options{})
	dt, ok := m.DataType(pb.Def("Counter"))
	if !ok {
		t.Fatal("Counter not in module")
	}
	if len(dt.Variants) != 1 || len(dt.Variants[0].Fields) != 1 || dt.Variants[0].Fields[0].Name != "n" {
		t.Fatalf("static field leaked into the instance layout: %+v", dt.Variants)
	}
	if len(dt.Static) != 1 {
		t.Fatalf("expected one static field, got %d", len(dt.Static))
	}
	init := dt.Static[0].Init
	if len(init.Blocks) != 1 || init.Blocks[0].Term.Kind != mir.TermReturn || len(init.Blocks[0].Instrs) != 1 {
		t.Fatalf("unexpected initializer body: %+v", init.Blocks)
	}
}

func TestLowerInstanceMethodFieldAccess(t *testing.T) {
	pb := tk.NewProgram("test")
	c := pb.Class("Point", tk.Field("x", hir.I32T))
	ct := c.SelfType()
	get := pb.Method(c.Def, "GetX", false, hir.I32T)
	get.Body(tk.Return(tk.FieldRef(ct, "x", hir.I32T, false)))

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "Point__GetX", `
fn Point__GetX(_param0 this: Point): i32
  bb0:
    _returnValue = copy (_param0 as _classVariant).x
    return
`)
}

func TestLowerFunctionObject(t *testing.T) {
	pb := tk.NewProgram("test")
	h := pb.Func("H", hir.I32T, tk.Param("x", hir.I32T))
	fnT := hir.Function(hir.I32T, hir.I32T)
	f := pb.Func("F", hir.UnitT)
	g := f.Local("g", fnT)
	r := f.Local("r", hir.I32T)
	f.Body(
		tk.Decl(g, tk.FuncValue(h.Fn.Def, fnT, nil)),
		tk.Decl(r, tk.CallValue(f.LocalRef(g), tk.Int(1, hir.I32T))),
	)

	m := lower(t, pb.Program(), mir.Options{})
	expectDump(t, m, "F", "\n"+strings.ReplaceAll(`
fn F(): Unit
  locals:
    _local0 g: Function#2::<i32, i32>
    _local1 r: i32
  bb0:
    _local0 = new Function#2::<i32, i32>
    (_local0 as _classVariant).FunctionReference = fn H
    _local1 = call Function#2__Call::<i32, i32>(copy _local0, 1i32) -> bb1
  bb1:
    return
`, "#", "`"))

	call, ok := m.Func("Function`2__Call")
	if !ok || !call.Builtin || len(call.Params) != 2 {
		t.Fatalf("unexpected invoke method: %+v", call)
	}
	var names []string
	for _, dt := range m.DataTypes {
		names = append(names, dt.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"Function`2", "RawPointer", "i32", "Unit"} {
		if !strings.Contains(joined, want) {
			t.Errorf("builtin %s missing from %s", want, joined)
		}
	}
}

func TestLowerTuple(t *testing.T) {
	pb := tk.NewProgram("test")
	main := pb.Main()
	tup := tk.Tuple(tk.Int(1, hir.I32T), tk.Str("a"))
	x := main.Local("x", tup.Type)
	main.Body(tk.Decl(x, tup))

	m := lower(t, pb.Program(), mir.Options{})
	got := dumpFunc(t, m, "_Main")
	for _, want := range []string{
		"_local0 = new Tuple`2::<i32, string>",
		"(_local0 as _classVariant).Item0 = 1i32",
		`(_local0 as _classVariant).Item1 = "a"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestLowerNormalizesStrings(t *testing.T) {
	tests := []struct {
		name      string
		normalize bool
		want      string
	}{
		{"off", false, "\"e\u0301\""},
		{"on", true, "\"\u00e9\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := tk.NewProgram("test")
			main := pb.Main()
			s := main.Local("s", hir.StringT)
			main.Body(tk.Decl(s, tk.Str("e\u0301")))
			got := dumpFunc(t, lower(t, pb.Program(), mir.Options{NormalizeStrings: tt.normalize}), "_Main")
			if !strings.Contains(got, "_local0 = "+tt.want) {
				t.Fatalf("expected %s in\n%s", tt.want, got)
			}
		})
	}
}

func buildClosureProgram() *hir.Program {
	pb := tk.NewProgram("test")
	outer := pb.Func("Outer", hir.UnitT, tk.Param("a", hir.StringT))
	mid := outer.Nested("Mid", hir.UnitT, tk.Param("b", hir.StringT))
	inner := mid.Nested("Inner", hir.UnitT)
	x := inner.Local("x", hir.StringT)
	y := inner.Local("y", hir.StringT)
	inner.Body(
		tk.Decl(x, inner.Outer(outer.ParamRef(0))),
		tk.Decl(y, inner.Outer(mid.ParamRef(0))),
	)
	mid.Body(inner.Call())
	pb.Func("Plain", hir.UnitT, tk.Param("z", hir.I32T))
	return pb.Program()
}

func TestLowerDeterministic(t *testing.T) {
	var dumps []string
	for range 2 {
		m := lower(t, buildClosureProgram(), mir.Options{})
		var sb strings.Builder
		if err := mir.DumpModule(&sb, m, mir.DumpOptions{}); err != nil {
			t.Fatalf("DumpModule: %v", err)
		}
		dumps = append(dumps, sb.String())
	}
	if dumps[0] != dumps[1] {
		t.Fatalf("lowering is not deterministic:\n%s\n---\n%s", dumps[0], dumps[1])
	}
}

func TestLowerErrorsAreICEs(t *testing.T) {
	tests := []struct {
		name      string
		build     func(pb *tk.ProgramBuilder)
		construct string
	}{
		{
			name: "assign to value",
			build: func(pb *tk.ProgramBuilder) {
				pb.Func("F", hir.UnitT).Body(tk.Assign(tk.Int(1, hir.I32T), tk.Int(2, hir.I32T)))
			},
			construct: "Assign",
		},
		{
			name: "break outside loop",
			build: func(pb *tk.ProgramBuilder) {
				pb.Func("F", hir.UnitT).Body(tk.Break())
			},
			construct: "Break",
		},
		{
			name: "fallout on non-result",
			build: func(pb *tk.ProgramBuilder) {
				f := pb.Func("F", hir.ResultT(hir.I32T, hir.StringT), tk.Param("x", hir.I32T))
				f.Body(&hir.Expr{Kind: hir.ExprFallout, Type: hir.I32T, Data: hir.FalloutData{Value: f.ParamRef(0)}})
			},
			construct: "Fallout",
		},
		{
			name: "incomparable patterns",
			build: func(pb *tk.ProgramBuilder) {
				u := pb.Union("U", tk.UnitVariant("A"))
				ut := u.SelfType()
				f := pb.Func("F", hir.UnitT, tk.Param("x", ut))
				f.Body(tk.Match(f.ParamRef(0), hir.UnitT,
					tk.Arm(tk.Is(ut, "A"), tk.Unit()),
					tk.Arm(tk.IsClass(ut), tk.Unit()),
				))
			},
			construct: "pattern",
		},
		{
			name: "unknown callee",
			build: func(pb *tk.ProgramBuilder) {
				pb.Func("F", hir.UnitT).Body(tk.Call(pb.Def("Missing"), hir.UnitT))
			},
			construct: "Call",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := tk.NewProgram("test")
			tt.build(pb)
			_, err := mir.LowerProgram(context.Background(), pb.Program(), mir.Options{})
			if err == nil {
				t.Fatal("expected an error")
			}
			ice, ok := mir.AsICE(err)
			if !ok {
				t.Fatalf("expected an internal compiler error, got %v", err)
			}
			if ice.Construct != tt.construct {
				t.Fatalf("construct = %q, want %q (%v)", ice.Construct, tt.construct, err)
			}
		})
	}
}

func TestLowerForeignCallsArePlain(t *testing.T) {
	pb := tk.NewProgram("test")
	other := tk.NewProgram("lib").Def("Helper")
	pb.Func("F", hir.UnitT).Body(tk.Call(other, hir.UnitT))

	m := lower(t, pb.Program(), mir.Options{})
	if got := dumpFunc(t, m, "F"); !strings.Contains(got, "call Helper() -> bb1") {
		t.Fatalf("unexpected call lowering:\n%s", got)
	}
}

func TestLowerOperandsLeftToRight(t *testing.T) {
	pb := tk.NewProgram("test")
	g := pb.Func("G", hir.I32T, tk.Param("a", hir.I32T), tk.Param("b", hir.I32T))
	g.Body(tk.Return(g.ParamRef(0)))

	tests := []struct {
		name string
		expr func(x, bump *hir.Expr) *hir.Expr
		want string
	}{
		{
			name: "binary",
			expr: func(x, bump *hir.Expr) *hir.Expr {
				return tk.Binary(hir.BinaryAdd, x, bump)
			},
			want: "    _local1 = copy _local0\n    _local0 = 5i32\n    _returnValue = Add(copy _local1, 1i32)\n",
		},
		{
			name: "call arguments",
			expr: func(x, bump *hir.Expr) *hir.Expr {
				return tk.Call(g.Fn.Def, hir.I32T, x, bump)
			},
			want: "    _local1 = copy _local0\n    _local0 = 5i32\n    _returnValue = call G(copy _local1, 1i32)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pb.Func("F_"+strings.ReplaceAll(tt.name, " ", "_"), hir.I32T)
			x := f.Local("x", hir.I32T)
			bump := tk.Block(tk.Assign(f.LocalRef(x), tk.Int(5, hir.I32T)), tk.Int(1, hir.I32T))
			f.Body(
				tk.Decl(x, tk.Int(1, hir.I32T)),
				tk.Return(tt.expr(f.LocalRef(x), bump)),
			)
			m := lower(t, pb.Program(), mir.Options{})
			if got := dumpFunc(t, m, f.Fn.Def.Name); !strings.Contains(got, tt.want) {
				t.Fatalf("x was read after the right operand ran:\n%s", got)
			}
		})
	}
}

func TestLowerPureOperandsAreNotCopied(t *testing.T) {
	pb := tk.NewProgram("test")
	f := pb.Func("F", hir.I32T)
	x := f.Local("x", hir.I32T)
	f.Body(
		tk.Decl(x, tk.Int(1, hir.I32T)),
		tk.Return(tk.Binary(hir.BinaryAdd, f.LocalRef(x), tk.Binary(hir.BinaryMul, f.LocalRef(x), tk.Int(2, hir.I32T)))),
	)
	m := lower(t, pb.Program(), mir.Options{})
	got := dumpFunc(t, m, "F")
	if !strings.Contains(got, "_returnValue = Add(copy _local0, copy _local1)") {
		t.Fatalf("unexpected lowering:\n%s", got)
	}
}
