package mir

import (
	"reef/internal/hir"
)

// lowerMatches lowers `value matches pattern` into a chain of tests that
// leave a bool in the result. The first failing test jumps straight past the
// remaining ones.
func (l *funcLowerer) lowerMatches(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.MatchesData](e)
	if err != nil {
		return Operand{}, err
	}
	out, err := l.valueSlot(e, dst, true)
	if err != nil {
		return Operand{}, err
	}
	if out == nil {
		tmp := l.newTemp(l.l.ref(BoolRef))
		out = &tmp
	}
	if trivial(d.Pattern) {
		if err := l.lowerStmt(d.Value); err != nil {
			return Operand{}, err
		}
		l.assign(*out, Use(BoolConst(true)))
		return Copy(*out), nil
	}
	place, err := l.placeOrTemp(d.Value)
	if err != nil {
		return Operand{}, err
	}
	after := l.pending()
	if err := l.testPattern(d.Pattern, place, *out, after); err != nil {
		return Operand{}, err
	}
	l.gotoBlock(after)
	l.bindPending(after)
	return Copy(*out), nil
}

// guard continues in a fresh block when out holds true and jumps to after
// otherwise.
func (l *funcLowerer) guard(out Place, after BlockID) {
	next := l.newBlock()
	l.switchInt(Copy(out), []SwitchCase{{Value: 0, Target: after}}, next)
	l.startBlock(next)
}

// trivial reports whether p always matches and binds nothing.
func trivial(p *hir.Pattern) bool {
	return p.IsWildcard() && (p == nil || !p.Bind.IsValid())
}

// testPattern stores into out whether the value at place matches p.
func (l *funcLowerer) testPattern(p *hir.Pattern, place, out Place, after BlockID) error {
	if p.IsWildcard() {
		if p != nil && p.Bind.IsValid() {
			if err := l.bind(binding{local: p.Bind, place: place, span: p.Span}); err != nil {
				return err
			}
		}
		l.assign(out, Use(BoolConst(true)))
		return nil
	}

	var (
		subs   []*hir.Pattern
		places []Place
		tested bool
	)
	switch p.Kind {
	case hir.PatternUnionVariant, hir.PatternUnionTuple, hir.PatternUnionClass:
		u, ok := l.l.unions[p.Type.Def]
		if !ok || len(u.Variants) == 0 {
			return ice("matches", p.Span, "%s pattern on non-union type %s", p.Kind, p.Type)
		}
		v, idx, ok := u.Variant(p.Variant)
		if !ok {
			return ice("matches", p.Span, "union %s has no variant %s", u.Name, p.Variant)
		}
		tag, err := variantTag(idx, v.Name)
		if err != nil {
			return err
		}
		l.node("tag", p.Variant)
		l.assign(out, Binary(BinEq, Copy(place.Project(VariantIdentifierField, u.Variants[0].Name)), tag))
		tested = true
		switch p.Kind {
		case hir.PatternUnionTuple:
			if len(p.Elems) != len(v.Items) {
				return ice("matches", p.Span, "variant %s has %d items, pattern has %d", v.Name, len(v.Items), len(p.Elems))
			}
			for i, el := range p.Elems {
				subs = append(subs, el)
				places = append(places, place.Project(ItemField(i), v.Name))
			}
		case hir.PatternUnionClass:
			for _, f := range p.Fields {
				subs = append(subs, f.Pattern)
				places = append(places, place.Project(f.Name, v.Name))
			}
		}
	case hir.PatternClass:
		for _, f := range p.Fields {
			subs = append(subs, f.Pattern)
			places = append(places, place.Project(f.Name, ClassVariantName))
		}
	default:
		return ice("matches", p.Span, "unknown pattern kind %s", p.Kind)
	}

	for i, sub := range subs {
		if trivial(sub) {
			continue
		}
		if tested {
			l.guard(out, after)
		}
		if err := l.testPattern(sub, places[i], out, after); err != nil {
			return err
		}
		tested = true
	}
	if p.Bind.IsValid() {
		if tested {
			l.guard(out, after)
		}
		if err := l.bind(binding{local: p.Bind, place: place, span: p.Span}); err != nil {
			return err
		}
	}
	if !tested {
		l.assign(out, Use(BoolConst(true)))
	}
	return nil
}
