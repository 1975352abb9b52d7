package mir

import (
	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
)

// callee describes a call target.
type callee struct {
	name string
	info *funcInfo // nil for synthesized, builtin and foreign methods
}

func (l *lowerer) callee(def symbols.DefID, construct string, span source.Span) (callee, error) {
	if fi, ok := l.funcs[def]; ok {
		return callee{name: def.Name, info: fi}, nil
	}
	if f, ok := l.creates[def]; ok {
		return callee{name: f.Name}, nil
	}
	if symbols.IsBuiltin(def) {
		f, err := l.builtinMethod(def)
		if err != nil {
			return callee{}, ice(construct, span, "%v", err)
		}
		return callee{name: f.Name}, nil
	}
	if def.IsValid() && def.Module != l.prog.Module {
		return callee{name: def.Name}, nil
	}
	return callee{}, ice(construct, span, "unknown function %s", def)
}

// implicitArg computes the leading argument of a call to, or a function
// object of, c: the receiver of an instance method or a fresh closure.
func (l *funcLowerer) implicitArg(c callee, receiver *hir.Expr, span source.Span) (*Operand, error) {
	switch {
	case c.info == nil:
		return nil, nil
	case c.info.instance():
		if receiver != nil {
			op, err := l.lowerExpr(receiver, nil)
			return &op, err
		}
		this, err := l.thisPlace(c.info.owner, span)
		if err != nil {
			return nil, err
		}
		op := Copy(this)
		return &op, nil
	case c.info.closureType != nil:
		clo, err := l.buildClosure(c.info, span)
		if err != nil {
			return nil, err
		}
		op := Copy(clo)
		return &op, nil
	default:
		return nil, nil
	}
}

// lowerCall ends the current block with a Call. The continuation is next,
// or a fresh block that lowering continues in when next is NoBlockID.
func (l *funcLowerer) lowerCall(e *hir.Expr, dst *Place, next BlockID) (Operand, error) {
	d, err := payload[hir.CallData](e)
	if err != nil {
		return Operand{}, err
	}
	var out Place
	if dst != nil {
		out = *dst
	} else {
		t, err := l.l.typeRef(e.Type)
		if err != nil {
			return Operand{}, err
		}
		out = l.newTemp(t)
	}

	var (
		fn    FuncRef
		args  []Operand
		exprs []*hir.Expr
	)
	if d.Callee != nil {
		fn, err = l.l.functionObjectCall(d.Callee.Type, e.Span)
		if err != nil {
			return Operand{}, err
		}
		exprs = append(exprs, d.Callee)
	} else {
		c, err := l.l.callee(d.Fn, "Call", e.Span)
		if err != nil {
			return Operand{}, err
		}
		typeArgs, err := l.l.typeRefs(d.TypeArgs)
		if err != nil {
			return Operand{}, err
		}
		fn = FuncRef{ID: d.Fn, Name: c.name, TypeArgs: typeArgs}
		if c.info != nil && c.info.instance() && d.Receiver != nil {
			exprs = append(exprs, d.Receiver)
		} else {
			first, err := l.implicitArg(c, d.Receiver, e.Span)
			if err != nil {
				return Operand{}, err
			}
			if first != nil {
				args = append(args, *first)
			}
		}
	}
	ops, err := l.operands(append(exprs, d.Args...)...)
	if err != nil {
		return Operand{}, err
	}
	args = append(args, ops...)

	l.ensureBlock()
	cont := next
	if cont == NoBlockID {
		cont = l.newBlock()
	}
	l.setTerm(&Terminator{Kind: TermCall, Call: CallTerm{Fn: fn, Args: args, Dst: out, Next: cont}})
	if next == NoBlockID {
		l.startBlock(cont)
	}
	return Copy(out), nil
}

// functionObjectCall is the invoke method of the function object type t.
func (l *lowerer) functionObjectCall(t hir.Type, span source.Span) (FuncRef, error) {
	if t.Kind != hir.TypeFunction || t.Result == nil {
		return FuncRef{}, ice("Call", span, "callee of type %s is not a function", t)
	}
	ref, err := l.typeRef(t)
	if err != nil {
		return FuncRef{}, err
	}
	f, err := l.builtinMethod(symbols.FunctionObjectCall(len(ref.Args)))
	if err != nil {
		return FuncRef{}, ice("Call", span, "%v", err)
	}
	return FuncRef{ID: f.ID, Name: f.Name, TypeArgs: ref.Args}, nil
}

// lowerFuncRef builds a Function`N object for a function used as a value.
func (l *funcLowerer) lowerFuncRef(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.FuncRefData](e)
	if err != nil {
		return Operand{}, err
	}
	if e.Type.Kind != hir.TypeFunction {
		return Operand{}, ice("FuncRef", e.Span, "function value of non-function type %s", e.Type)
	}
	t, err := l.l.typeRef(e.Type)
	if err != nil {
		return Operand{}, err
	}
	c, err := l.l.callee(d.Fn, "FuncRef", e.Span)
	if err != nil {
		return Operand{}, err
	}
	typeArgs, err := l.l.typeRefs(d.TypeArgs)
	if err != nil {
		return Operand{}, err
	}

	out := l.destLocal(dst, t)
	param, err := l.implicitArg(c, d.Receiver, e.Span)
	if err != nil {
		return Operand{}, err
	}
	l.assign(out, CreateObject(t))
	fn := FuncRef{ID: d.Fn, Name: c.name, TypeArgs: typeArgs}
	l.assign(out.Project(FunctionReferenceField, ClassVariantName), Use(FnConst(fn)))
	if param != nil {
		l.assign(out.Project(FunctionParameterField, ClassVariantName), Use(*param))
	}
	if dst != nil && dst.Kind != PlaceLocal {
		l.assign(*dst, Use(Copy(out)))
	}
	return Copy(out), nil
}
