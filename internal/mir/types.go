package mir

import (
	"fmt"
	"strings"

	"reef/internal/symbols"
)

type BlockID int32

const NoBlockID BlockID = -1

// deferredReturn marks an edge to the function's return block; it is
// rewritten once the whole body has been lowered.
const deferredReturn BlockID = -2

func (id BlockID) String() string {
	switch id {
	case NoBlockID:
		return "bb?"
	case deferredReturn:
		return "bb<return>"
	default:
		return fmt.Sprintf("bb%d", id)
	}
}

// Reserved local, field and variant names.
const (
	ReturnLocalName        = "_returnValue"
	LocalsObjectName       = "_localsObject"
	ClassVariantName       = "_classVariant"
	VariantIdentifierField = "_variantIdentifier"
	ClosureThisField       = "this"
	ThisParamName          = "this"
	ClosureParamName       = "closure"
	FunctionReferenceField = "FunctionReference"
	FunctionParameterField = "FunctionParameter"
)

// ParamName returns the compiler name of parameter i.
func ParamName(i int) string { return fmt.Sprintf("_param%d", i) }

// LocalName returns the compiler name of local i.
func LocalName(i int) string { return fmt.Sprintf("_local%d", i) }

// ItemField returns the field name of tuple member i.
func ItemField(i int) string { return fmt.Sprintf("Item%d", i) }

type TypeKind uint8

const (
	TypeConcrete TypeKind = iota
	TypeGeneric
	TypeFuncPtr
)

// TypeRef is a lowered type reference. Equality is structural.
type TypeRef struct {
	Kind TypeKind `msgpack:"k"`

	// TypeConcrete
	Name string        `msgpack:"n,omitempty"`
	Def  symbols.DefID `msgpack:"d,omitempty"`
	Args []TypeRef     `msgpack:"a,omitempty"`

	// TypeGeneric; Name holds the placeholder name.
	Owner symbols.DefID `msgpack:"o,omitempty"`

	// TypeFuncPtr
	Params []TypeRef `msgpack:"p,omitempty"`
	Result *TypeRef  `msgpack:"r,omitempty"`
}

func Concrete(name string, def symbols.DefID, args ...TypeRef) TypeRef {
	return TypeRef{Kind: TypeConcrete, Name: name, Def: def, Args: args}
}

func Generic(owner symbols.DefID, name string) TypeRef {
	return TypeRef{Kind: TypeGeneric, Name: name, Owner: owner}
}

func FuncPtr(params []TypeRef, result TypeRef) TypeRef {
	return TypeRef{Kind: TypeFuncPtr, Params: params, Result: &result}
}

func builtinRef(def symbols.DefID) TypeRef {
	return Concrete(def.Name, def)
}

var (
	UInt16Ref     = builtinRef(symbols.UInt16)
	BoolRef       = builtinRef(symbols.Bool)
	UnitRef       = builtinRef(symbols.Unit)
	StringRef     = builtinRef(symbols.String)
	RawPointerRef = builtinRef(symbols.RawPointer)
)

// Equal compares by definition and recursively by type arguments.
func (t TypeRef) Equal(o TypeRef) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeGeneric:
		return t.Owner == o.Owner && t.Name == o.Name
	case TypeFuncPtr:
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

func (t TypeRef) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t TypeRef) write(sb *strings.Builder) {
	switch t.Kind {
	case TypeGeneric:
		sb.WriteString(t.Name)
	case TypeFuncPtr:
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
		sb.WriteString(t.Name)
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

// Local is a method local. Name is the compiler-assigned identity; UserName
// keeps the source identifier for diagnostics.
type Local struct {
	Name     string  `msgpack:"n"`
	UserName string  `msgpack:"u,omitempty"`
	Type     TypeRef `msgpack:"t"`
}

type PlaceKind uint8

const (
	PlaceLocal PlaceKind = iota
	PlaceField
	PlaceStatic
)

// Place is an lvalue descriptor. It names storage, it does not own it.
type Place struct {
	Kind PlaceKind `msgpack:"k"`

	Local string `msgpack:"l,omitempty"`

	// PlaceField projects Field of Variant out of Base.
	Base    *Place `msgpack:"b,omitempty"`
	Field   string `msgpack:"f,omitempty"`
	Variant string `msgpack:"v,omitempty"`

	// PlaceStatic reads Field of Owner.
	Owner *TypeRef `msgpack:"o,omitempty"`
}

func LocalPlace(name string) Place {
	return Place{Kind: PlaceLocal, Local: name}
}

func StaticPlace(owner TypeRef, field string) Place {
	return Place{Kind: PlaceStatic, Owner: &owner, Field: field}
}

// Project returns the place of field in variant of p.
func (p Place) Project(field, variant string) Place {
	base := p
	return Place{Kind: PlaceField, Base: &base, Field: field, Variant: variant}
}

// Root returns the local the place is rooted at, if any.
func (p Place) Root() (string, bool) {
	for p.Kind == PlaceField {
		p = *p.Base
	}
	if p.Kind == PlaceLocal {
		return p.Local, true
	}
	return "", false
}

func (p Place) Equal(o Place) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PlaceLocal:
		return p.Local == o.Local
	case PlaceStatic:
		return p.Field == o.Field && p.Owner.Equal(*o.Owner)
	default:
		return p.Field == o.Field && p.Variant == o.Variant && p.Base.Equal(*o.Base)
	}
}

func (p Place) String() string {
	switch p.Kind {
	case PlaceLocal:
		return p.Local
	case PlaceStatic:
		return fmt.Sprintf("%s::%s", p.Owner, p.Field)
	default:
		return fmt.Sprintf("(%s as %s).%s", p.Base, p.Variant, p.Field)
	}
}
