package hir

import (
	"strings"

	"reef/internal/symbols"
)

// TypeKind distinguishes resolved type shapes.
type TypeKind uint8

const (
	// TypeInstance is a class, union or builtin, possibly instantiated.
	TypeInstance TypeKind = iota
	// TypeGeneric is a generic placeholder of a function or type.
	TypeGeneric
	// TypeFunction is the type of a function object.
	TypeFunction
)

// Type is a resolved type as produced by the checker.
type Type struct {
	Kind TypeKind `msgpack:"k"`
	Name string   `msgpack:"n,omitempty"`

	Def  symbols.DefID `msgpack:"d,omitempty"`
	Args []Type        `msgpack:"a,omitempty"`

	// Owner declares the placeholder (TypeGeneric).
	Owner symbols.DefID `msgpack:"o,omitempty"`

	// Params and Result describe TypeFunction.
	Params []Type `msgpack:"p,omitempty"`
	Result *Type  `msgpack:"r,omitempty"`
}

// Instance builds an instance type.
func Instance(name string, def symbols.DefID, args ...Type) Type {
	return Type{Kind: TypeInstance, Name: name, Def: def, Args: args}
}

// Generic builds a placeholder type declared by owner.
func Generic(owner symbols.DefID, name string) Type {
	return Type{Kind: TypeGeneric, Name: name, Owner: owner}
}

// Function builds a function object type.
func Function(result Type, params ...Type) Type {
	return Type{Kind: TypeFunction, Params: params, Result: &result}
}

func builtin(def symbols.DefID) Type {
	return Type{Kind: TypeInstance, Name: def.Name, Def: def}
}

var (
	I8T     = builtin(symbols.Int8)
	I16T    = builtin(symbols.Int16)
	I32T    = builtin(symbols.Int32)
	I64T    = builtin(symbols.Int64)
	U8T     = builtin(symbols.UInt8)
	U16T    = builtin(symbols.UInt16)
	U32T    = builtin(symbols.UInt32)
	U64T    = builtin(symbols.UInt64)
	StringT = builtin(symbols.String)
	BoolT   = builtin(symbols.Bool)
	UnitT   = builtin(symbols.Unit)
)

// ResultT builds result<value, err>.
func ResultT(value, err Type) Type {
	return Instance(symbols.Result.Name, symbols.Result, value, err)
}

// IsUnit reports whether t is the unit type (or unset).
func (t Type) IsUnit() bool {
	return t.Kind == TypeInstance && (t.Def == symbols.Unit || !t.Def.IsValid())
}

// Is reports whether t is an instance of def.
func (t Type) Is(def symbols.DefID) bool {
	return t.Kind == TypeInstance && t.Def == def
}

// Equal compares types structurally.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeGeneric:
		return t.Owner == o.Owner && t.Name == o.Name
	case TypeFunction:
		if len(t.Params) != len(o.Params) || (t.Result == nil) != (o.Result == nil) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return t.Result == nil || t.Result.Equal(*o.Result)
	default:
		if t.Def != o.Def || len(t.Args) != len(o.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return true
	}
}

func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.Kind {
	case TypeGeneric:
		sb.WriteString(t.Name)
	case TypeFunction:
		sb.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.write(sb)
		}
		sb.WriteString(")")
		if t.Result != nil {
			sb.WriteString(": ")
			t.Result.write(sb)
		}
	default:
		name := t.Name
		if name == "" {
			name = t.Def.Name
		}
		sb.WriteString(name)
		if len(t.Args) > 0 {
			sb.WriteString("::<")
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.write(sb)
			}
			sb.WriteString(">")
		}
	}
}
