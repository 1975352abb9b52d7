package mir

import (
	"fortio.org/safecast"

	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
)

// typeRef converts a checked type. Builtin definitions it mentions are
// recorded so their layouts end up in the module.
func (l *lowerer) typeRef(t hir.Type) (TypeRef, error) {
	switch t.Kind {
	case hir.TypeInstance:
		if !t.Def.IsValid() {
			return l.ref(UnitRef), nil
		}
		args, err := l.typeRefs(t.Args)
		if err != nil {
			return TypeRef{}, err
		}
		return l.ref(Concrete(t.Def.Name, t.Def, args...)), nil
	case hir.TypeGeneric:
		return Generic(t.Owner, t.Name), nil
	case hir.TypeFunction:
		if t.Result == nil {
			return TypeRef{}, ice("type", noSpan, "function type %s has no result", t)
		}
		args, err := l.typeRefs(t.Params)
		if err != nil {
			return TypeRef{}, err
		}
		res, err := l.typeRef(*t.Result)
		if err != nil {
			return TypeRef{}, err
		}
		args = append(args, res)
		def := symbols.FunctionObject(len(args))
		return l.ref(Concrete(def.Name, def, args...)), nil
	default:
		return TypeRef{}, ice("type", noSpan, "unknown type kind %d", t.Kind)
	}
}

func (l *lowerer) typeRefs(ts []hir.Type) ([]TypeRef, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]TypeRef, 0, len(ts))
	for _, t := range ts {
		r, err := l.typeRef(t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// concreteRef is typeRef for positions that need an instantiable type, such
// as the operand of CreateObject.
func (l *lowerer) concreteRef(t hir.Type, construct string, span source.Span) (TypeRef, error) {
	if t.Kind == hir.TypeGeneric {
		return TypeRef{}, ice(construct, span, "expected a concrete type, found placeholder %s", t.Name)
	}
	return l.typeRef(t)
}

// ref records the builtin definitions mentioned by t and returns t.
func (l *lowerer) ref(t TypeRef) TypeRef {
	switch t.Kind {
	case TypeConcrete:
		if symbols.IsBuiltin(t.Def) {
			l.useBuiltin(t.Def)
		}
		for _, a := range t.Args {
			l.ref(a)
		}
	case TypeFuncPtr:
		for _, p := range t.Params {
			l.ref(p)
		}
		if t.Result != nil {
			l.ref(*t.Result)
		}
	}
	return t
}

func (l *lowerer) genericRefs(params []hir.GenericParam) []TypeRef {
	if len(params) == 0 {
		return nil
	}
	out := make([]TypeRef, 0, len(params))
	for _, p := range params {
		out = append(out, Generic(p.Owner, p.Name))
	}
	return out
}

// selfRef references the class or union def instantiated with its own
// placeholders; it is the type of `this` in its methods.
func (l *lowerer) selfRef(def symbols.DefID) (TypeRef, error) {
	if c, ok := l.classes[def]; ok {
		return l.typeRef(c.SelfType())
	}
	if u, ok := l.unions[def]; ok {
		return l.typeRef(u.SelfType())
	}
	return TypeRef{}, ice("type", noSpan, "unknown type %s", def)
}

// variantTag is the _variantIdentifier constant of the variant at idx.
func variantTag(idx int, variant string) (Operand, error) {
	tag, err := safecast.Conv[uint16](idx)
	if err != nil {
		return Operand{}, ice("variant", noSpan, "variant %s: ordinal %d does not fit the tag field", variant, idx)
	}
	return UIntConst(uint64(tag), 2), nil
}
