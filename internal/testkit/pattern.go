package testkit

import "reef/internal/hir"

func Discard(t hir.Type) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternDiscard, Type: t}
}

// Bind is `var x` for local id.
func Bind(id hir.LocalID, t hir.Type) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternVar, Type: t, Bind: id}
}

// TypeOf is `Type`, or `Type var x` when id is valid.
func TypeOf(t hir.Type, id hir.LocalID) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternType, Type: t, Bind: id}
}

func Is(t hir.Type, variant string) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternUnionVariant, Type: t, Variant: variant}
}

func IsTuple(t hir.Type, variant string, elems ...*hir.Pattern) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternUnionTuple, Type: t, Variant: variant, Elems: elems}
}

func IsClassVariant(t hir.Type, variant string, fields ...hir.FieldPattern) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternUnionClass, Type: t, Variant: variant, Fields: fields}
}

func IsClass(t hir.Type, fields ...hir.FieldPattern) *hir.Pattern {
	return &hir.Pattern{Kind: hir.PatternClass, Type: t, Fields: fields}
}

func On(name string, p *hir.Pattern) hir.FieldPattern {
	return hir.FieldPattern{Name: name, Pattern: p}
}
