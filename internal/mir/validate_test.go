package mir_test

import (
	"strings"
	"testing"

	"reef/internal/hir"
	"reef/internal/mir"
	"reef/internal/symbols"
	tk "reef/internal/testkit"
)

func TestValidateAcceptsLoweredModules(t *testing.T) {
	// lower validates every module it produces
	pb := tk.NewProgram("test")
	u := pb.GenericUnion("Option", []string{"T"}, tk.TupleVariant("Some", hir.Generic(pb.Def("Option"), "T")), tk.UnitVariant("None"))
	f := pb.Func("IsSome", hir.BoolT, tk.Param("x", hir.Instance("Option", u.Def, hir.I32T)))
	f.Body(tk.Return(tk.Matches(f.ParamRef(0), tk.Is(hir.Instance("Option", u.Def, hir.I32T), "None"))))
	m := lower(t, pb.Program(), mir.Options{})

	create, ok := m.Func("Option__Create__Some")
	if !ok {
		t.Fatal("constructor of Some missing")
	}
	if len(create.TypeParams) != 1 || create.TypeParams[0].Name != "T" {
		t.Fatalf("constructor type params = %v", create.TypeParams)
	}
	dt, ok := m.DataType(u.Def)
	if !ok || !dt.IsUnion() || len(dt.Variants) != 2 {
		t.Fatalf("Option layout = %+v", dt)
	}
	for _, v := range dt.Variants {
		if v.Fields[0].Name != mir.VariantIdentifierField || !v.Fields[0].Type.Equal(mir.UInt16Ref) {
			t.Fatalf("variant %s does not start with a u16 tag: %+v", v.Name, v.Fields)
		}
	}
}

func TestValidateReportsViolations(t *testing.T) {
	local := mir.LocalPlace
	i32 := mir.Concrete("i32", symbols.Int32)
	tests := []struct {
		name string
		mod  *mir.Module
		want []string
	}{
		{
			name: "union without tag",
			mod: &mir.Module{Name: "m", DataTypes: []*mir.DataType{{
				ID:       symbols.NewDefID("m", "U"),
				Name:     "U",
				Variants: []mir.Variant{{Name: "A", Fields: []mir.Field{{Name: "x", Type: i32}}}},
			}}},
			want: []string{"type U: variant A: first field is not _variantIdentifier"},
		},
		{
			name: "no variants",
			mod: &mir.Module{Name: "m", DataTypes: []*mir.DataType{
				{ID: symbols.NewDefID("m", "E"), Name: "E"},
			}},
			want: []string{"type E: no variants"},
		},
		{
			name: "broken body",
			mod: &mir.Module{Name: "m", Funcs: []*mir.Func{{
				Name: "F",
				Body: mir.Body{
					Result: mir.Local{Name: mir.ReturnLocalName, Type: mir.UnitRef},
					Blocks: []mir.Block{
						{ID: 0, Instrs: []mir.Instr{mir.Assign(local("_local7"), mir.Use(mir.IntConst(1, 4)))}, Term: mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: 3}}},
						{ID: 1},
						{ID: 5, Term: mir.Terminator{Kind: mir.TermReturn}},
					},
				},
			}}},
			want: []string{
				"function F: bb0: unknown local _local7",
				"function F: bb0: edge to missing block bb3",
				"function F: bb1: unterminated block",
				"function F: block 2 has id bb5",
			},
		},
		{
			name: "unknown callee and type",
			mod: &mir.Module{Name: "m", Funcs: []*mir.Func{{
				Name: "F",
				Body: mir.Body{
					Result: mir.Local{Name: mir.ReturnLocalName, Type: mir.UnitRef},
					Blocks: []mir.Block{
						{ID: 0, Instrs: []mir.Instr{mir.Assign(local(mir.ReturnLocalName), mir.CreateObject(mir.Concrete("G", symbols.NewDefID("m", "G"))))}, Term: mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
							Fn:   mir.FuncRef{ID: symbols.NewDefID("m", "Gone"), Name: "Gone"},
							Dst:  local(mir.ReturnLocalName),
							Next: 1,
						}}},
						{ID: 1, Term: mir.Terminator{Kind: mir.TermReturn}},
					},
				},
			}}},
			want: []string{
				"function F: bb0: creates unknown type G",
				"function F: bb0: call to unknown method Gone",
			},
		},
		{
			name: "static initializer",
			mod: &mir.Module{Name: "m", DataTypes: []*mir.DataType{{
				ID:       symbols.NewDefID("m", "C"),
				Name:     "C",
				Variants: []mir.Variant{{Name: mir.ClassVariantName}},
				Static: []mir.StaticField{{Name: "x", Type: i32, Init: mir.Body{
					Result: mir.Local{Name: mir.ReturnLocalName, Type: i32},
					Locals: []mir.Local{{Name: "_local0", Type: i32}, {Name: "_local0", Type: i32}},
				}}},
			}}},
			want: []string{
				"type C: static x: local _local0: declared twice",
				"type C: static x: no blocks",
			},
		},
		{
			name: "duplicates",
			mod: &mir.Module{Name: "m", Funcs: []*mir.Func{
				{Name: "F", Builtin: true},
				{Name: "F", Builtin: true},
			}},
			want: []string{"function F: declared twice"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mir.Validate(tt.mod)
			if err == nil {
				t.Fatal("expected validation errors")
			}
			for _, want := range tt.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("missing %q in:\n%v", want, err)
				}
			}
		})
	}
}

func TestValidateAcceptsForeignReferences(t *testing.T) {
	foreign := symbols.NewDefID("other", "Thing")
	m := &mir.Module{Name: "m", Funcs: []*mir.Func{{
		Name: "F",
		Body: mir.Body{
			Result: mir.Local{Name: mir.ReturnLocalName, Type: mir.UnitRef},
			Locals: []mir.Local{{Name: mir.LocalName(0), Type: mir.Concrete("Thing", foreign)}},
			Blocks: []mir.Block{
				{ID: 0, Instrs: []mir.Instr{mir.Assign(mir.LocalPlace(mir.LocalName(0)), mir.CreateObject(mir.Concrete("Thing", foreign)))}, Term: mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
					Fn:   mir.FuncRef{ID: symbols.NewDefID("other", "Run"), Name: "Run"},
					Args: []mir.Operand{mir.Copy(mir.LocalPlace(mir.LocalName(0)))},
					Dst:  mir.LocalPlace(mir.ReturnLocalName),
					Next: 1,
				}}},
				{ID: 1, Term: mir.Terminator{Kind: mir.TermReturn}},
			},
		},
	}}}
	if err := mir.Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
