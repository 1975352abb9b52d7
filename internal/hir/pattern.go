package hir

import "reef/internal/source"

// PatternKind enumerates pattern shapes.
type PatternKind uint8

const (
	// PatternDiscard is `_`.
	PatternDiscard PatternKind = iota
	// PatternVar is `var x`, binding the whole value.
	PatternVar
	// PatternType is `Type` or `Type var x`; it always matches.
	PatternType
	// PatternUnionVariant is `Union::Variant` without sub-patterns.
	PatternUnionVariant
	// PatternUnionTuple is `Union::Variant(p0, p1, ...)`.
	PatternUnionTuple
	// PatternUnionClass is `Union::Variant { field: p, ... }`.
	PatternUnionClass
	// PatternClass is `Class { field: p, ... }`.
	PatternClass
)

func (k PatternKind) String() string {
	switch k {
	case PatternDiscard:
		return "Discard"
	case PatternVar:
		return "Var"
	case PatternType:
		return "Type"
	case PatternUnionVariant:
		return "UnionVariant"
	case PatternUnionTuple:
		return "UnionTuple"
	case PatternUnionClass:
		return "UnionClass"
	case PatternClass:
		return "Class"
	default:
		return "Unknown"
	}
}

// FieldPattern matches one named field.
type FieldPattern struct {
	Name    string   `msgpack:"n"`
	Pattern *Pattern `msgpack:"p"`
}

// Pattern is a match pattern. Bind names a local that receives the matched
// value when set; for PatternVar it is mandatory.
type Pattern struct {
	Kind    PatternKind    `msgpack:"k"`
	Type    Type           `msgpack:"t"`
	Span    source.Span    `msgpack:"s"`
	Variant string         `msgpack:"v,omitempty"`
	Bind    LocalID        `msgpack:"b,omitempty"`
	Elems   []*Pattern     `msgpack:"e,omitempty"`
	Fields  []FieldPattern `msgpack:"f,omitempty"`
	// Rest marks `{ a, _ }`: fields not listed are discarded.
	Rest bool `msgpack:"r,omitempty"`
}

// IsWildcard reports whether the pattern accepts any value without testing it.
func (p *Pattern) IsWildcard() bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case PatternDiscard, PatternVar, PatternType:
		return true
	default:
		return false
	}
}
