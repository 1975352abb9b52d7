package mir

import (
	"slices"

	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
	"reef/internal/trace"
)

const (
	localsSuffix  = "_Locals"
	closureSuffix = "_Closure"
)

// funcInfo is the lowering view of one function and its environment.
type funcInfo struct {
	fn       *hir.Func
	parent   *funcInfo
	children []*funcInfo
	owner    symbols.DefID // declaring class or union of a method
	depth    int

	// refs lists the functions the body calls or takes as values.
	refs []*funcInfo
	// needs holds the owners (ancestor functions, or the receiver type) of
	// every variable the function has to reach through its closure.
	needs map[symbols.DefID]bool

	localsType  *DataType
	closureType *DataType
	captures    []capture
}

// capture is one field of a Closure type.
type capture struct {
	field string
	owner symbols.DefID
	this  bool
	typ   TypeRef
	depth int
}

func (fi *funcInfo) instance() bool {
	return fi.owner.IsValid() && !fi.fn.IsStatic()
}

func (fi *funcInfo) owns(def symbols.DefID) bool {
	return def == fi.fn.Def || (fi.instance() && def == fi.owner)
}

func (fi *funcInfo) root() *funcInfo {
	for fi.parent != nil {
		fi = fi.parent
	}
	return fi
}

func (fi *funcInfo) ancestor(def symbols.DefID) *funcInfo {
	for p := fi.parent; p != nil; p = p.parent {
		if p.fn.Def == def {
			return p
		}
	}
	return nil
}

func (fi *funcInfo) captureOf(owner symbols.DefID) (capture, bool) {
	for _, c := range fi.captures {
		if c.owner == owner {
			return c, true
		}
	}
	return capture{}, false
}

// implicitParam is the user name of the leading implicit parameter, if any.
func (fi *funcInfo) implicitParam() string {
	switch {
	case fi.instance():
		return ThisParamName
	case fi.closureType != nil:
		return ClosureParamName
	default:
		return ""
	}
}

func (fi *funcInfo) paramShift() int {
	if fi.implicitParam() != "" {
		return 1
	}
	return 0
}

func (fi *funcInfo) absorb(other *funcInfo) bool {
	changed := false
	for def := range other.needs {
		if fi.owns(def) || fi.needs[def] {
			continue
		}
		fi.needs[def] = true
		changed = true
	}
	return changed
}

// resolveEnvironments synthesizes the Locals and Closure types of every
// function. A function's needs are the owners of the outer variables it
// touches, the needs of its nested functions (it forwards their ancestors)
// and the needs of every function whose closure it builds.
func (l *lowerer) resolveEnvironments() error {
	span := trace.Begin(l.tracer, trace.ScopePass, "resolve", l.parent)
	defer span.End("")

	for _, fi := range l.order {
		fi.needs = make(map[symbols.DefID]bool)
		for _, ref := range fi.fn.AccessedOuter {
			if ref.Kind == hir.VarField && ref.Static {
				continue
			}
			if !ref.Owner.IsValid() {
				return ice("closure", fi.fn.Span, "%s: outer variable %q has no owner", fi.fn.Def.Name, ref.Name)
			}
			if !fi.owns(ref.Owner) {
				fi.needs[ref.Owner] = true
			}
		}
		fi.refs = l.referencedFuncs(fi)
	}

	for changed := true; changed; {
		changed = false
		for _, fi := range l.order {
			for _, c := range fi.children {
				changed = fi.absorb(c) || changed
			}
			for _, r := range fi.refs {
				if r != fi {
					changed = fi.absorb(r) || changed
				}
			}
		}
	}

	for _, fi := range l.order {
		if err := l.resolveFunc(fi); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) referencedFuncs(fi *funcInfo) []*funcInfo {
	var out []*funcInfo
	seen := make(map[*funcInfo]bool)
	hir.WalkFunc(fi.fn, func(e *hir.Expr) bool {
		var def symbols.DefID
		switch d := e.Data.(type) {
		case hir.CallData:
			def = d.Fn
		case hir.FuncRefData:
			def = d.Fn
		default:
			return true
		}
		if target, ok := l.funcs[def]; ok && !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
		return true
	})
	return out
}

// resolveFunc registers the Locals type and then the Closure type of fi.
// Functions are visited outer before inner, so every ancestor's Locals type
// already exists.
func (l *lowerer) resolveFunc(fi *funcInfo) error {
	fn := fi.fn
	owners := make([]symbols.DefID, 0, len(fi.needs))
	for owner := range fi.needs {
		owners = append(owners, owner)
	}
	slices.SortFunc(owners, symbols.Compare)

	caps := make([]capture, 0, len(owners))
	for _, owner := range owners {
		if anc := fi.ancestor(owner); anc != nil {
			if !anc.fn.HasCaptures() {
				return ice("closure", fn.Span, "%s reaches into %s, which has no captured variables", fn.Def.Name, anc.fn.Def.Name)
			}
			lt, ok := l.types[owner.Derive(localsSuffix)]
			if !ok {
				return ice("closure", fn.Span, "%s references the environment of %s before it was registered", fn.Def.Name, anc.fn.Def.Name)
			}
			caps = append(caps, capture{field: lt.Name, owner: owner, typ: lt.SelfRef(), depth: anc.depth})
			continue
		}
		if root := fi.root(); root.instance() && root.owner == owner {
			t, err := l.selfRef(owner)
			if err != nil {
				return err
			}
			caps = append(caps, capture{field: ClosureThisField, owner: owner, this: true, typ: t, depth: -1})
			continue
		}
		return ice("closure", fn.Span, "%s captures a variable of %s, which does not enclose it", fn.Def.Name, owner.Name)
	}
	slices.SortFunc(caps, func(a, b capture) int {
		if a.depth != b.depth {
			return a.depth - b.depth
		}
		return symbols.Compare(a.owner, b.owner)
	})

	if fn.HasCaptures() {
		variant := Variant{Name: ClassVariantName}
		for _, p := range fn.Params {
			if !p.Captured {
				continue
			}
			t, err := l.typeRef(p.Type)
			if err != nil {
				return err
			}
			variant.Fields = append(variant.Fields, Field{Name: p.Name, Type: t})
		}
		for _, loc := range fn.Locals {
			if !loc.Captured {
				continue
			}
			t, err := l.typeRef(loc.Type)
			if err != nil {
				return err
			}
			variant.Fields = append(variant.Fields, Field{Name: loc.Name, Type: t})
		}
		dt, err := l.synthesize(fi, localsSuffix, variant)
		if err != nil {
			return err
		}
		fi.localsType = dt
		fn.LocalsType = dt.ID
	}

	if len(caps) > 0 {
		if fi.instance() {
			return ice("closure", fn.Span, "%s cannot take both a receiver and a closure", fn.Def.Name)
		}
		variant := Variant{Name: ClassVariantName}
		for _, c := range caps {
			variant.Fields = append(variant.Fields, Field{Name: c.field, Type: c.typ})
		}
		dt, err := l.synthesize(fi, closureSuffix, variant)
		if err != nil {
			return err
		}
		fi.closureType = dt
		fi.captures = caps
		fn.ClosureType = dt.ID
	}
	return nil
}

func (l *lowerer) synthesize(fi *funcInfo, suffix string, variant Variant) (*DataType, error) {
	id := fi.fn.Def.Derive(suffix)
	if _, dup := l.types[id]; dup {
		return nil, ice("closure", fi.fn.Span, "type %s is already registered", id.Name)
	}
	dt := &DataType{
		ID:         id,
		Name:       id.Name,
		TypeParams: l.chainTypeParams(fi),
		Variants:   []Variant{variant},
	}
	l.register(dt)
	l.synthTypes = append(l.synthTypes, dt)
	return dt, nil
}

// chainTypeParams collects the placeholders in scope inside fi: those of the
// declaring type, then of each enclosing function from the outside in.
func (l *lowerer) chainTypeParams(fi *funcInfo) []TypeRef {
	var chain []*funcInfo
	for p := fi; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	slices.Reverse(chain)

	var out []TypeRef
	if owner := chain[0].owner; owner.IsValid() {
		if c, ok := l.classes[owner]; ok {
			out = append(out, l.genericRefs(c.TypeParams)...)
		} else if u, ok := l.unions[owner]; ok {
			out = append(out, l.genericRefs(u.TypeParams)...)
		}
	}
	for _, p := range chain {
		out = append(out, l.genericRefs(p.fn.TypeParams)...)
	}
	return out
}

// varPlace resolves a variable reference to the place that stores it.
func (l *funcLowerer) varPlace(ref hir.VarRef, span source.Span) (Place, error) {
	switch ref.Kind {
	case hir.VarLocal, hir.VarParam:
		if ref.Owner == l.self {
			return l.ownPlace(ref, span)
		}
		return l.outerPlace(ref.Owner, ref.Name, span)
	case hir.VarThis:
		return l.thisPlace(ref.Owner, span)
	case hir.VarField:
		if ref.Static {
			owner, err := l.l.selfRef(ref.Owner)
			if err != nil {
				return Place{}, err
			}
			return StaticPlace(owner, ref.Name), nil
		}
		this, err := l.thisPlace(ref.Owner, span)
		if err != nil {
			return Place{}, err
		}
		return this.Project(ref.Name, ClassVariantName), nil
	default:
		return Place{}, ice("variable", span, "unknown reference kind %s", ref.Kind)
	}
}

func (l *funcLowerer) ownPlace(ref hir.VarRef, span source.Span) (Place, error) {
	if ref.Kind == hir.VarParam {
		if ref.Param < 0 || ref.Param >= len(l.fn.Params) {
			return Place{}, ice("variable", span, "parameter %d of %s is out of range", ref.Param, l.fn.Def.Name)
		}
		p := l.fn.Params[ref.Param]
		if p.Captured {
			return l.localsField(p.Name, span)
		}
		return LocalPlace(ParamName(ref.Param + l.shift)), nil
	}
	return l.localPlace(ref.Local, span)
}

// localPlace is where a declared local of the current function lives.
func (l *funcLowerer) localPlace(id hir.LocalID, span source.Span) (Place, error) {
	loc, ok := l.fn.Local(id)
	if !ok {
		return Place{}, ice("variable", span, "local %d is not declared in %s", id, l.fn.Def.Name)
	}
	if loc.Captured {
		return l.localsField(loc.Name, span)
	}
	return LocalPlace(l.slots[id]), nil
}

func (l *funcLowerer) localsField(name string, span source.Span) (Place, error) {
	if l.info == nil || l.info.localsType == nil {
		return Place{}, ice("variable", span, "captured variable %q has no environment in %s", name, l.fn.Def.Name)
	}
	return LocalPlace(LocalsObjectName).Project(name, ClassVariantName), nil
}

// outerPlace reaches a variable of an ancestor through the closure parameter.
func (l *funcLowerer) outerPlace(owner symbols.DefID, name string, span source.Span) (Place, error) {
	if l.info == nil {
		return Place{}, ice("variable", span, "%q of %s is not reachable here", name, owner.Name)
	}
	c, ok := l.info.captureOf(owner)
	if !ok || c.this {
		return Place{}, ice("variable", span, "%q of %s is not reachable from %s", name, owner.Name, l.fn.Def.Name)
	}
	return LocalPlace(ParamName(0)).Project(c.field, ClassVariantName).Project(name, ClassVariantName), nil
}

// thisPlace is the receiver of type owner: the this parameter of a method or
// the this field of a closure nested in one.
func (l *funcLowerer) thisPlace(owner symbols.DefID, span source.Span) (Place, error) {
	if l.info != nil {
		if l.info.instance() && l.info.owner == owner {
			return LocalPlace(ParamName(0)), nil
		}
		if c, ok := l.info.captureOf(owner); ok && c.this {
			return LocalPlace(ParamName(0)).Project(ClosureThisField, ClassVariantName), nil
		}
	}
	return Place{}, ice("this", span, "no receiver of type %s in %s", owner.Name, l.fn.Def.Name)
}

// closureSource is where the current function finds the value of a field of
// another function's closure.
func (l *funcLowerer) closureSource(c capture, span source.Span) (Place, error) {
	switch {
	case c.this:
		return l.thisPlace(c.owner, span)
	case c.owner == l.self:
		if l.info == nil || l.info.localsType == nil {
			return Place{}, ice("closure", span, "%s has no environment to share", l.fn.Def.Name)
		}
		return LocalPlace(LocalsObjectName), nil
	default:
		if l.info == nil {
			return Place{}, ice("closure", span, "environment of %s is not reachable", c.owner.Name)
		}
		own, ok := l.info.captureOf(c.owner)
		if !ok {
			return Place{}, ice("closure", span, "environment of %s is not reachable from %s", c.owner.Name, l.fn.Def.Name)
		}
		return LocalPlace(ParamName(0)).Project(own.field, ClassVariantName), nil
	}
}

// buildClosure materializes the Closure object of target in a fresh local.
func (l *funcLowerer) buildClosure(target *funcInfo, span source.Span) (Place, error) {
	ct := target.closureType.SelfRef()
	tmp := l.newTemp(ct)
	l.assign(tmp, CreateObject(ct))
	for _, c := range target.captures {
		src, err := l.closureSource(c, span)
		if err != nil {
			return Place{}, err
		}
		l.assign(tmp.Project(c.field, ClassVariantName), Use(Copy(src)))
	}
	return tmp, nil
}
