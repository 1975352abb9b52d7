// Package testkit builds typed programs for tests without a front end.
package testkit

import (
	"slices"

	"reef/internal/hir"
	"reef/internal/symbols"
)

// ProgramBuilder assembles a hir.Program the way the type checker would
// hand it over: ids assigned, capture flags set, outer accesses recorded.
type ProgramBuilder struct {
	prog      *hir.Program
	funcs     map[symbols.DefID]*FuncBuilder
	nextLocal hir.LocalID
	main      *FuncBuilder
}

// NewProgram starts an empty unit named module.
func NewProgram(module string) *ProgramBuilder {
	return &ProgramBuilder{
		prog:  &hir.Program{Module: module},
		funcs: make(map[symbols.DefID]*FuncBuilder),
	}
}

// Program returns the program built so far.
func (b *ProgramBuilder) Program() *hir.Program { return b.prog }

// Def returns the id of a top-level declaration.
func (b *ProgramBuilder) Def(name string) symbols.DefID {
	return symbols.NewDefID(b.prog.Module, name)
}

// Union declares a union.
func (b *ProgramBuilder) Union(name string, variants ...hir.Variant) *hir.Union {
	u := &hir.Union{Def: b.Def(name), Name: name, Variants: variants}
	b.prog.Unions = append(b.prog.Unions, u)
	return u
}

// GenericUnion declares a union with type parameters.
func (b *ProgramBuilder) GenericUnion(name string, params []string, variants ...hir.Variant) *hir.Union {
	u := b.Union(name, variants...)
	for _, p := range params {
		u.TypeParams = append(u.TypeParams, hir.GenericParam{Owner: u.Def, Name: p})
	}
	return u
}

// UnitVariant describes a variant without payload.
func UnitVariant(name string) hir.Variant {
	return hir.Variant{Name: name, Kind: hir.VariantUnit}
}

// TupleVariant describes a variant with positional members.
func TupleVariant(name string, items ...hir.Type) hir.Variant {
	return hir.Variant{Name: name, Kind: hir.VariantTuple, Items: items}
}

// ClassVariant describes a variant with named fields.
func ClassVariant(name string, fields ...hir.Field) hir.Variant {
	return hir.Variant{Name: name, Kind: hir.VariantClass, Fields: fields}
}

// Field describes an instance field.
func Field(name string, t hir.Type) hir.Field {
	return hir.Field{Name: name, Type: t}
}

// StaticField describes a static field with its initializer.
func StaticField(name string, t hir.Type, init *hir.Expr, locals ...hir.Local) hir.Field {
	return hir.Field{Name: name, Type: t, Static: true, Init: init, InitLocals: locals}
}

// Class declares a class.
func (b *ProgramBuilder) Class(name string, fields ...hir.Field) *hir.Class {
	c := &hir.Class{Def: b.Def(name), Name: name, Fields: fields}
	b.prog.Classes = append(b.prog.Classes, c)
	return c
}

// Func declares a top-level function.
func (b *ProgramBuilder) Func(name string, result hir.Type, params ...hir.Param) *FuncBuilder {
	fb := b.newFunc(b.Def(name), name, result, params)
	b.prog.Funcs = append(b.prog.Funcs, fb.Fn)
	return fb
}

// Method declares a function of a class or union. Static methods have no
// receiver.
func (b *ProgramBuilder) Method(owner symbols.DefID, name string, static bool, result hir.Type, params ...hir.Param) *FuncBuilder {
	fb := b.newFunc(owner.Child(name), name, result, params)
	if static {
		fb.Fn.Flags |= hir.FuncStatic
	}
	fb.owner = owner
	for _, c := range b.prog.Classes {
		if c.Def == owner {
			c.Funcs = append(c.Funcs, fb.Fn)
		}
	}
	for _, u := range b.prog.Unions {
		if u.Def == owner {
			u.Funcs = append(u.Funcs, fb.Fn)
		}
	}
	return fb
}

// Main returns the builder of the top-level statements. Its function is
// synthesized by the lowering; the builder only records locals and body.
func (b *ProgramBuilder) Main() *FuncBuilder {
	if b.main == nil {
		def := symbols.NewDefID(b.prog.Module, "_Main")
		b.main = &FuncBuilder{pb: b, Fn: &hir.Func{Def: def, Name: "_Main", Flags: hir.FuncStatic | hir.FuncSynthetic}, top: true}
		b.funcs[def] = b.main
	}
	return b.main
}

func (b *ProgramBuilder) newFunc(def symbols.DefID, name string, result hir.Type, params []hir.Param) *FuncBuilder {
	fb := &FuncBuilder{pb: b, Fn: &hir.Func{Def: def, Name: name, Result: result, Params: params}}
	b.funcs[def] = fb
	return fb
}

// Param describes a parameter.
func Param(name string, t hir.Type) hir.Param {
	return hir.Param{Name: name, Type: t}
}

// FuncBuilder fills in one function.
type FuncBuilder struct {
	pb    *ProgramBuilder
	Fn    *hir.Func
	owner symbols.DefID
	top   bool
}

// Generic adds a type parameter and returns its placeholder type.
func (f *FuncBuilder) Generic(name string) hir.Type {
	p := hir.GenericParam{Owner: f.Fn.Def, Name: name}
	f.Fn.TypeParams = append(f.Fn.TypeParams, p)
	return p.Type()
}

// Nested declares a function nested in f. Functions nested in the top-level
// statements are top-level functions.
func (f *FuncBuilder) Nested(name string, result hir.Type, params ...hir.Param) *FuncBuilder {
	if f.top {
		return f.pb.Func(name, result, params...)
	}
	fb := f.pb.newFunc(f.Fn.Def.Child(name), name, result, params)
	fb.Fn.Flags |= hir.FuncStatic
	f.Fn.Nested = append(f.Fn.Nested, fb.Fn)
	return fb
}

// Local declares a local and returns its id.
func (f *FuncBuilder) Local(name string, t hir.Type) hir.LocalID {
	f.pb.nextLocal++
	id := f.pb.nextLocal
	f.Fn.Locals = append(f.Fn.Locals, hir.Local{ID: id, Name: name, Type: t})
	if f.top {
		f.pb.prog.TopLevelLocals = f.Fn.Locals
	}
	return id
}

// Body appends statements to the body.
func (f *FuncBuilder) Body(exprs ...*hir.Expr) *FuncBuilder {
	f.Fn.Body = append(f.Fn.Body, exprs...)
	if f.top {
		f.pb.prog.TopLevel = f.Fn.Body
	}
	return f
}

// LocalRef reads local id of f.
func (f *FuncBuilder) LocalRef(id hir.LocalID) *hir.Expr {
	loc, ok := f.Fn.Local(id)
	if !ok {
		panic("testkit: unknown local")
	}
	ref := hir.VarRef{Kind: hir.VarLocal, Name: loc.Name, Owner: f.Fn.Def, Local: id}
	return &hir.Expr{Kind: hir.ExprVarRef, Type: loc.Type, Data: hir.VarRefData{Var: ref}}
}

// ParamRef reads parameter i of f.
func (f *FuncBuilder) ParamRef(i int) *hir.Expr {
	p := f.Fn.Params[i]
	ref := hir.VarRef{Kind: hir.VarParam, Name: p.Name, Owner: f.Fn.Def, Param: i}
	return &hir.Expr{Kind: hir.ExprVarRef, Type: p.Type, Data: hir.VarRefData{Var: ref}}
}

// This reads the receiver of type t.
func This(t hir.Type) *hir.Expr {
	ref := hir.VarRef{Kind: hir.VarThis, Name: "this", Owner: t.Def}
	return &hir.Expr{Kind: hir.ExprVarRef, Type: t, Data: hir.VarRefData{Var: ref}}
}

// FieldRef reads an implicit field of the receiver of type owner.
func FieldRef(owner hir.Type, name string, t hir.Type, static bool) *hir.Expr {
	ref := hir.VarRef{Kind: hir.VarField, Name: name, Owner: owner.Def, Static: static}
	return &hir.Expr{Kind: hir.ExprVarRef, Type: t, Data: hir.VarRefData{Var: ref}}
}

// Outer records that f reads the variable of ref, which belongs to an
// enclosing function or the receiver, and marks it captured at its owner.
// It returns ref for use in the body of f.
func (f *FuncBuilder) Outer(ref *hir.Expr) *hir.Expr {
	d := ref.Data.(hir.VarRefData)
	if !slices.ContainsFunc(f.Fn.AccessedOuter, func(v hir.VarRef) bool { return v == d.Var }) {
		f.Fn.AccessedOuter = append(f.Fn.AccessedOuter, d.Var)
	}
	owner, ok := f.pb.funcs[d.Var.Owner]
	if !ok {
		return ref
	}
	switch d.Var.Kind {
	case hir.VarParam:
		owner.Fn.Params[d.Var.Param].Captured = true
	case hir.VarLocal:
		for i := range owner.Fn.Locals {
			if owner.Fn.Locals[i].ID == d.Var.Local {
				owner.Fn.Locals[i].Captured = true
			}
		}
		if owner.top {
			f.pb.prog.TopLevelLocals = owner.Fn.Locals
		}
	}
	return ref
}

// Ref takes f as a function value of type t.
func (f *FuncBuilder) Ref(t hir.Type) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprFuncRef, Type: t, Data: hir.FuncRefData{Fn: f.Fn.Def}}
}

// Call calls f.
func (f *FuncBuilder) Call(args ...*hir.Expr) *hir.Expr {
	return Call(f.Fn.Def, f.Fn.Result, args...)
}
