package mir

import (
	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
)

// newObject allocates an object of type ty, reusing dst when it is a local,
// and tags it with variant when the type is a union.
func (l *funcLowerer) newObject(ty hir.Type, variant, construct string, span source.Span, dst *Place) (Place, string, error) {
	t, err := l.l.concreteRef(ty, construct, span)
	if err != nil {
		return Place{}, "", err
	}
	out := l.destLocal(dst, t)
	l.assign(out, CreateObject(t))
	if variant == "" {
		return out, ClassVariantName, nil
	}
	u, ok := l.l.unions[ty.Def]
	if !ok {
		return Place{}, "", ice(construct, span, "%s is not a union", ty)
	}
	_, idx, ok := u.Variant(variant)
	if !ok {
		return Place{}, "", ice(construct, span, "union %s has no variant %s", u.Name, variant)
	}
	tag, err := variantTag(idx, variant)
	if err != nil {
		return Place{}, "", err
	}
	l.assign(out.Project(VariantIdentifierField, variant), Use(tag))
	return out, variant, nil
}

// finishObject copies a completed object into a destination that is not a
// plain local.
func (l *funcLowerer) finishObject(out Place, dst *Place) Operand {
	if dst != nil && !dst.Equal(out) {
		l.assign(*dst, Use(Copy(out)))
	}
	return Copy(out)
}

func (l *funcLowerer) lowerObjectInit(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.ObjectInitData](e)
	if err != nil {
		return Operand{}, err
	}
	out, variant, err := l.newObject(e.Type, d.Variant, "ObjectInit", e.Span, dst)
	if err != nil {
		return Operand{}, err
	}
	for _, f := range d.Fields {
		field := out.Project(f.Name, variant)
		if _, err := l.lowerExpr(f.Value, &field); err != nil {
			return Operand{}, err
		}
	}
	return l.finishObject(out, dst), nil
}

func (l *funcLowerer) lowerUnitVariant(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.UnitVariantData](e)
	if err != nil {
		return Operand{}, err
	}
	out, _, err := l.newObject(e.Type, d.Variant, "UnitVariant", e.Span, dst)
	if err != nil {
		return Operand{}, err
	}
	return l.finishObject(out, dst), nil
}

// lowerTuple builds a Tuple`N with one Item field per element.
func (l *funcLowerer) lowerTuple(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.TupleData](e)
	if err != nil {
		return Operand{}, err
	}
	ty := e.Type
	if !ty.Is(symbols.Tuple(len(d.Elems))) {
		ty = hir.Instance("", symbols.Tuple(len(d.Elems)))
		for _, el := range d.Elems {
			ty.Args = append(ty.Args, el.Type)
		}
	}
	out, variant, err := l.newObject(ty, "", "Tuple", e.Span, dst)
	if err != nil {
		return Operand{}, err
	}
	for i, el := range d.Elems {
		field := out.Project(ItemField(i), variant)
		if _, err := l.lowerExpr(el, &field); err != nil {
			return Operand{}, err
		}
	}
	return l.finishObject(out, dst), nil
}
