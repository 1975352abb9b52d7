package hir

import (
	"reef/internal/source"
	"reef/internal/symbols"
)

// FuncFlags represents function modifiers as a bitmask.
type FuncFlags uint32

const (
	// FuncStatic marks a function declared in a type without a receiver.
	FuncStatic FuncFlags = 1 << iota
	// FuncMutable marks an instance method that may mutate its receiver.
	FuncMutable
	// FuncSynthetic marks compiler-made functions such as _Main.
	FuncSynthetic
)

// HasFlag returns true if the given flag is set.
func (f FuncFlags) HasFlag(flag FuncFlags) bool {
	return f&flag != 0
}

// String returns a human-readable representation of flags.
func (f FuncFlags) String() string {
	s := ""
	if f.HasFlag(FuncStatic) {
		s += "static "
	}
	if f.HasFlag(FuncMutable) {
		s += "mut "
	}
	if f.HasFlag(FuncSynthetic) {
		s += "@synthetic "
	}
	return s
}

// GenericParam represents a generic type parameter.
type GenericParam struct {
	Owner symbols.DefID `msgpack:"o"`
	Name  string        `msgpack:"n"`
}

// Type returns the placeholder type of the parameter.
func (g GenericParam) Type() Type {
	return Generic(g.Owner, g.Name)
}

// Param represents a function parameter.
type Param struct {
	Name     string      `msgpack:"n"`
	Type     Type        `msgpack:"t"`
	Captured bool        `msgpack:"c,omitempty"` // read by a nested function
	Span     source.Span `msgpack:"s"`
}

// Local is a variable declared in a function body or bound by a pattern.
type Local struct {
	ID       LocalID     `msgpack:"i"`
	Name     string      `msgpack:"n"`
	Type     Type        `msgpack:"t"`
	Mutable  bool        `msgpack:"m,omitempty"`
	Captured bool        `msgpack:"c,omitempty"`
	Span     source.Span `msgpack:"s"`
}

// VarKind distinguishes what a variable reference resolves to.
type VarKind uint8

const (
	// VarLocal is a local of Owner.
	VarLocal VarKind = iota
	// VarParam is a declared parameter of Owner.
	VarParam
	// VarField is a field of the type Owner.
	VarField
	// VarThis is the receiver of an instance method of type Owner.
	VarThis
)

func (k VarKind) String() string {
	switch k {
	case VarLocal:
		return "local"
	case VarParam:
		return "param"
	case VarField:
		return "field"
	case VarThis:
		return "this"
	default:
		return "unknown"
	}
}

// VarRef is a resolved variable binding.
type VarRef struct {
	Kind   VarKind       `msgpack:"k"`
	Name   string        `msgpack:"n"`
	Owner  symbols.DefID `msgpack:"o"` // function for locals/params, type for fields/this
	Local  LocalID       `msgpack:"l,omitempty"`
	Param  int           `msgpack:"p,omitempty"`
	Static bool          `msgpack:"st,omitempty"`
}

// Func represents a function signature with its body.
type Func struct {
	Def        symbols.DefID  `msgpack:"d"`
	Name       string         `msgpack:"n"`
	Span       source.Span    `msgpack:"s"`
	Flags      FuncFlags      `msgpack:"f,omitempty"`
	TypeParams []GenericParam `msgpack:"tp,omitempty"`
	Params     []Param        `msgpack:"p,omitempty"`
	Result     Type           `msgpack:"r"`
	Locals     []Local        `msgpack:"l,omitempty"`
	Body       []*Expr        `msgpack:"b,omitempty"`
	Nested     []*Func        `msgpack:"nf,omitempty"`

	// AccessedOuter lists variables owned by enclosing functions or by the
	// receiver that this function reads or writes directly.
	AccessedOuter []VarRef `msgpack:"ao,omitempty"`

	// Filled by the capture resolver; zero means none.
	LocalsType  symbols.DefID `msgpack:"lt,omitempty"`
	ClosureType symbols.DefID `msgpack:"ct,omitempty"`
}

// IsStatic reports whether the function has no receiver.
func (f *Func) IsStatic() bool {
	return f.Flags.HasFlag(FuncStatic)
}

// Local returns the declared local with the given id.
func (f *Func) Local(id LocalID) (*Local, bool) {
	for i := range f.Locals {
		if f.Locals[i].ID == id {
			return &f.Locals[i], true
		}
	}
	return nil, false
}

// HasCaptures reports whether any parameter or local is read by a nested function.
func (f *Func) HasCaptures() bool {
	for _, p := range f.Params {
		if p.Captured {
			return true
		}
	}
	for _, l := range f.Locals {
		if l.Captured {
			return true
		}
	}
	return false
}
