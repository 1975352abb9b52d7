package mir

import (
	"fmt"
	"slices"

	"reef/internal/diag"
	"reef/internal/hir"
	"reef/internal/source"
)

// binding copies the value at place into a local declared by a pattern.
type binding struct {
	local hir.LocalID
	place Place
	span  source.Span
}

// armState tracks one arm through decision-tree construction. block stays
// NoBlockID until some path reaches the arm.
type armState struct {
	index int
	arm   *hir.MatchArm
	block BlockID
	binds []binding
}

// matchRow is one row of the clause matrix: the patterns still to test, one
// per column, and the bindings collected on the way.
type matchRow struct {
	pats  []*hir.Pattern
	arm   *armState
	binds []binding
}

type matchCompiler struct {
	l    *funcLowerer
	join BlockID
	arms []*armState
}

// lowerMatch compiles a match into a decision tree of tag switches. Rows are
// tried in source order, so the first arm whose patterns accept the value
// wins.
func (l *funcLowerer) lowerMatch(e *hir.Expr, dst *Place, want bool) (Operand, error) {
	d, err := payload[hir.MatchData](e)
	if err != nil {
		return Operand{}, err
	}
	arms, err := l.reachableArms(d.Arms)
	if err != nil {
		return Operand{}, err
	}
	out, err := l.valueSlot(e, dst, want)
	if err != nil {
		return Operand{}, err
	}
	place, err := l.placeOrTemp(d.Scrutinee)
	if err != nil {
		return Operand{}, err
	}

	mc := &matchCompiler{l: l, join: l.pending(), arms: arms}
	rows := make([]matchRow, 0, len(arms))
	for _, a := range arms {
		rows = append(rows, matchRow{pats: []*hir.Pattern{a.arm.Pattern}, arm: a})
	}
	l.ensureBlock()
	entry, err := mc.node(rows, []Place{place}, true)
	if err != nil {
		return Operand{}, err
	}
	l.gotoBlock(entry)

	reached := make([]*armState, 0, len(arms))
	for _, a := range arms {
		if a.block != NoBlockID {
			reached = append(reached, a)
		} else if l.l.opts.WarnUnreachable {
			l.l.warn(diag.LowerUnreachableArm, a.arm.Span, "match arm is never selected")
		}
	}
	slices.SortFunc(reached, func(a, b *armState) int { return int(a.block) - int(b.block) })

	l.depth++
	for _, a := range reached {
		l.startBlock(a.block)
		for _, b := range a.binds {
			if err := l.bind(b); err != nil {
				return Operand{}, err
			}
		}
		if err := l.lowerArm(a.arm.Body, out); err != nil {
			return Operand{}, err
		}
		l.gotoBlock(mc.join)
	}
	l.depth--

	l.bindPending(mc.join)
	return slotValue(out), nil
}

// reachableArms drops arms that follow a catch-all pattern and arms whose
// pattern is equivalent to an earlier one.
func (l *funcLowerer) reachableArms(arms []hir.MatchArm) ([]*armState, error) {
	out := make([]*armState, 0, len(arms))
	caught := false
	for i := range arms {
		a := &arms[i]
		if caught {
			l.unreachable(a, "match arm follows a catch-all pattern")
			continue
		}
		dup := false
		for _, prev := range out {
			eq, err := equivalent(prev.arm.Pattern, a.Pattern)
			if err != nil {
				return nil, err
			}
			if eq {
				dup = true
				break
			}
		}
		if dup {
			l.unreachable(a, "match arm repeats an earlier pattern")
			continue
		}
		out = append(out, &armState{index: i, arm: a, block: NoBlockID})
		caught = a.Pattern.IsWildcard()
	}
	return out, nil
}

func (l *funcLowerer) unreachable(a *hir.MatchArm, msg string) {
	if l.l.opts.WarnUnreachable {
		l.l.warn(diag.LowerUnreachableArm, a.Span, msg)
	}
}

// equivalent reports whether two patterns accept exactly the same values
// with the same shape. Discards and bindings count as the same wildcard.
func equivalent(a, b *hir.Pattern) (bool, error) {
	aw, bw := a.IsWildcard(), b.IsWildcard()
	if aw || bw {
		return aw && bw, nil
	}
	if !a.Type.Equal(b.Type) {
		return false, nil
	}
	if a.Variant != b.Variant {
		return false, nil
	}
	if a.Kind != b.Kind {
		return false, ice("pattern", b.Span, "cannot compare %s pattern with %s pattern of type %s", a.Kind, b.Kind, a.Type)
	}
	switch a.Kind {
	case hir.PatternUnionVariant:
		return true, nil
	case hir.PatternUnionTuple:
		if len(a.Elems) != len(b.Elems) {
			return false, nil
		}
		for i := range a.Elems {
			if eq, err := equivalent(a.Elems[i], b.Elems[i]); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case hir.PatternUnionClass, hir.PatternClass:
		names := make([]string, 0, len(a.Fields)+len(b.Fields))
		for _, f := range a.Fields {
			names = append(names, f.Name)
		}
		for _, f := range b.Fields {
			names = append(names, f.Name)
		}
		slices.Sort(names)
		for _, name := range slices.Compact(names) {
			if eq, err := equivalent(fieldPattern(a, name), fieldPattern(b, name)); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	default:
		return false, ice("pattern", a.Span, "unknown pattern kind %s", a.Kind)
	}
}

func fieldPattern(p *hir.Pattern, name string) *hir.Pattern {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Pattern
		}
	}
	return nil
}

func patternBinds(p *hir.Pattern, place Place) []binding {
	if p == nil || !p.Bind.IsValid() {
		return nil
	}
	return []binding{{local: p.Bind, place: place, span: p.Span}}
}

func (l *funcLowerer) bind(b binding) error {
	dst, err := l.localPlace(b.local, b.span)
	if err != nil {
		return err
	}
	l.assign(dst, Use(Copy(b.place)))
	return nil
}

// node returns the block that dispatches rows over the values at cols. The
// root node switches in the current block.
func (mc *matchCompiler) node(rows []matchRow, cols []Place, root bool) (BlockID, error) {
	if len(rows) == 0 {
		mc.l.node("exhausted", "")
		return mc.join, nil
	}
	c := slices.IndexFunc(rows[0].pats, func(p *hir.Pattern) bool { return !p.IsWildcard() })
	if c < 0 {
		return mc.leaf(rows[0], cols), nil
	}
	if rows[0].pats[c].Kind == hir.PatternClass {
		rows, cols, err := mc.expandClass(rows, cols, c)
		if err != nil {
			return NoBlockID, err
		}
		return mc.node(rows, cols, root)
	}
	return mc.switchNode(rows, cols, c, root)
}

func (mc *matchCompiler) leaf(row matchRow, cols []Place) BlockID {
	a := row.arm
	if a.block == NoBlockID {
		a.block = mc.l.newBlock()
		a.binds = slices.Clone(row.binds)
		for i, p := range row.pats {
			a.binds = append(a.binds, patternBinds(p, cols[i])...)
		}
		mc.l.node("leaf", fmt.Sprintf("arm %d -> %s", a.index, a.block))
	}
	return a.block
}

func (mc *matchCompiler) switchNode(rows []matchRow, cols []Place, c int, root bool) (BlockID, error) {
	l := mc.l
	head := rows[0].pats[c]
	u, ok := l.l.unions[head.Type.Def]
	if !ok || len(u.Variants) == 0 {
		return NoBlockID, ice("match", head.Span, "%s pattern on non-union type %s", head.Kind, head.Type)
	}
	block := l.cur
	if !root {
		block = l.newBlock()
	}
	l.node("switch", fmt.Sprintf("%s on %s in %s", u.Name, cols[c], block))

	var cases []SwitchCase
	for idx := range u.Variants {
		v := &u.Variants[idx]
		if !slices.ContainsFunc(rows, func(r matchRow) bool {
			p := r.pats[c]
			return !p.IsWildcard() && p.Variant == v.Name
		}) {
			continue
		}
		sub, subCols, err := specializeVariant(rows, cols, c, v)
		if err != nil {
			return NoBlockID, err
		}
		target, err := mc.node(sub, subCols, false)
		if err != nil {
			return NoBlockID, err
		}
		cases = append(cases, SwitchCase{Value: uint64(idx), Target: target})
	}

	otherwise := mc.join
	if len(cases) < len(u.Variants) {
		var rest []matchRow
		for _, r := range rows {
			if p := r.pats[c]; p.IsWildcard() {
				rest = append(rest, dropColumn(r, c, cols[c]))
			}
		}
		target, err := mc.node(rest, slices.Delete(slices.Clone(cols), c, c+1), false)
		if err != nil {
			return NoBlockID, err
		}
		otherwise = target
	}

	tag := Copy(cols[c].Project(VariantIdentifierField, u.Variants[0].Name))
	l.setTermAt(block, &Terminator{Kind: TermSwitchInt, SwitchInt: SwitchIntTerm{Value: tag, Cases: cases, Otherwise: otherwise}})
	return block, nil
}

// dropColumn removes a wildcard column from r, keeping its binding.
func dropColumn(r matchRow, c int, place Place) matchRow {
	return matchRow{
		pats:  slices.Delete(slices.Clone(r.pats), c, c+1),
		arm:   r.arm,
		binds: append(slices.Clone(r.binds), patternBinds(r.pats[c], place)...),
	}
}

// specializeVariant keeps the rows that accept variant v at column c and
// replaces that column with the variant's members.
func specializeVariant(rows []matchRow, cols []Place, c int, v *hir.Variant) ([]matchRow, []Place, error) {
	var members []Place
	switch v.Kind {
	case hir.VariantTuple:
		for i := range v.Items {
			members = append(members, cols[c].Project(ItemField(i), v.Name))
		}
	case hir.VariantClass:
		for _, f := range v.Fields {
			members = append(members, cols[c].Project(f.Name, v.Name))
		}
	}

	var out []matchRow
	for _, r := range rows {
		p := r.pats[c]
		if !p.IsWildcard() && p.Variant != v.Name {
			continue
		}
		subs := make([]*hir.Pattern, len(members))
		if !p.IsWildcard() {
			switch p.Kind {
			case hir.PatternUnionVariant:
			case hir.PatternUnionTuple:
				if len(p.Elems) != len(members) {
					return nil, nil, ice("match", p.Span, "variant %s has %d items, pattern has %d", v.Name, len(members), len(p.Elems))
				}
				copy(subs, p.Elems)
			case hir.PatternUnionClass:
				for _, f := range p.Fields {
					i := slices.IndexFunc(v.Fields, func(vf hir.Field) bool { return vf.Name == f.Name })
					if i < 0 {
						return nil, nil, ice("match", p.Span, "variant %s has no field %s", v.Name, f.Name)
					}
					subs[i] = f.Pattern
				}
			default:
				return nil, nil, ice("match", p.Span, "%s pattern used as a union variant", p.Kind)
			}
		}
		out = append(out, replaceColumn(r, c, subs, cols[c]))
	}
	return out, spliceColumns(cols, c, members), nil
}

// expandClass replaces the class-typed column c by one column per instance
// field of the class.
func (mc *matchCompiler) expandClass(rows []matchRow, cols []Place, c int) ([]matchRow, []Place, error) {
	head := rows[0].pats[c]
	cls, ok := mc.l.l.classes[head.Type.Def]
	if !ok {
		return nil, nil, ice("match", head.Span, "class pattern on non-class type %s", head.Type)
	}
	var names []string
	var members []Place
	for _, f := range cls.Fields {
		if f.Static {
			continue
		}
		names = append(names, f.Name)
		members = append(members, cols[c].Project(f.Name, ClassVariantName))
	}
	mc.l.node("class", fmt.Sprintf("%s on %s", cls.Name, cols[c]))

	out := make([]matchRow, 0, len(rows))
	for _, r := range rows {
		p := r.pats[c]
		subs := make([]*hir.Pattern, len(members))
		if !p.IsWildcard() {
			if p.Kind != hir.PatternClass || !p.Type.Equal(head.Type) {
				return nil, nil, ice("match", p.Span, "%s pattern of type %s where %s is expected", p.Kind, p.Type, head.Type)
			}
			for _, f := range p.Fields {
				i := slices.Index(names, f.Name)
				if i < 0 {
					return nil, nil, ice("match", p.Span, "class %s has no field %s", cls.Name, f.Name)
				}
				subs[i] = f.Pattern
			}
		}
		out = append(out, replaceColumn(r, c, subs, cols[c]))
	}
	return out, spliceColumns(cols, c, members), nil
}

func replaceColumn(r matchRow, c int, subs []*hir.Pattern, place Place) matchRow {
	pats := make([]*hir.Pattern, 0, len(r.pats)-1+len(subs))
	pats = append(pats, r.pats[:c]...)
	pats = append(pats, subs...)
	pats = append(pats, r.pats[c+1:]...)
	return matchRow{
		pats:  pats,
		arm:   r.arm,
		binds: append(slices.Clone(r.binds), patternBinds(r.pats[c], place)...),
	}
}

func spliceColumns(cols []Place, c int, members []Place) []Place {
	out := make([]Place, 0, len(cols)-1+len(members))
	out = append(out, cols[:c]...)
	out = append(out, members...)
	return append(out, cols[c+1:]...)
}
