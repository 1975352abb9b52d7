package mir

import (
	"reef/internal/hir"
	"reef/internal/symbols"
)

// branch lowers `if cond { then } else { els }`. The then block is taken
// when cond is non-zero; els may be nil. Both arms continue at a join block
// allocated after them.
func (l *funcLowerer) branch(cond Operand, then, els func() error) error {
	join := l.pending()
	thenBB := l.newBlock()
	elseTarget := join
	elseBB := NoBlockID
	if els != nil {
		elseBB = l.newBlock()
		elseTarget = elseBB
	}
	l.switchInt(cond, []SwitchCase{{Value: 0, Target: elseTarget}}, thenBB)

	l.depth++
	l.startBlock(thenBB)
	if err := then(); err != nil {
		return err
	}
	l.gotoBlock(join)
	if els != nil {
		l.startBlock(elseBB)
		if err := els(); err != nil {
			return err
		}
		l.gotoBlock(join)
	}
	l.depth--

	l.bindPending(join)
	return nil
}

// valueSlot picks where a branching expression leaves its value: dst, a
// fresh local when the value is used, or nowhere.
func (l *funcLowerer) valueSlot(e *hir.Expr, dst *Place, want bool) (*Place, error) {
	if dst != nil {
		return dst, nil
	}
	if !want || e.Type.IsUnit() {
		return nil, nil
	}
	t, err := l.l.typeRef(e.Type)
	if err != nil {
		return nil, err
	}
	tmp := l.newTemp(t)
	return &tmp, nil
}

func (l *funcLowerer) lowerArm(e *hir.Expr, out *Place) error {
	if out == nil {
		return l.lowerStmt(e)
	}
	_, err := l.lowerExpr(e, out)
	return err
}

func slotValue(out *Place) Operand {
	if out == nil {
		return UnitConst()
	}
	return Copy(*out)
}

func (l *funcLowerer) lowerIf(e *hir.Expr, dst *Place, want bool) (Operand, error) {
	d, err := payload[hir.IfData](e)
	if err != nil {
		return Operand{}, err
	}
	out, err := l.valueSlot(e, dst, want)
	if err != nil {
		return Operand{}, err
	}
	cond, err := l.lowerExpr(d.Cond, nil)
	if err != nil {
		return Operand{}, err
	}
	var els func() error
	if d.Else != nil {
		els = func() error { return l.lowerArm(d.Else, out) }
	}
	if err := l.branch(cond, func() error { return l.lowerArm(d.Then, out) }, els); err != nil {
		return Operand{}, err
	}
	return slotValue(out), nil
}

// lowerShortCircuit lowers `a && b` as `if a { b } else { false }` and
// `a || b` as `if a { true } else { b }`.
func (l *funcLowerer) lowerShortCircuit(e *hir.Expr, d hir.BinaryData, dst *Place) (Operand, error) {
	out, err := l.valueSlot(e, dst, true)
	if err != nil {
		return Operand{}, err
	}
	if out == nil {
		tmp := l.newTemp(l.l.ref(BoolRef))
		out = &tmp
	}
	cond, err := l.lowerExpr(d.Left, nil)
	if err != nil {
		return Operand{}, err
	}
	right := func() error {
		_, err := l.lowerExpr(d.Right, out)
		return err
	}
	constant := func(v bool) func() error {
		return func() error {
			l.assign(*out, Use(BoolConst(v)))
			return nil
		}
	}
	if d.Op == hir.BinaryAnd {
		err = l.branch(cond, right, constant(false))
	} else {
		err = l.branch(cond, constant(true), right)
	}
	if err != nil {
		return Operand{}, err
	}
	return Copy(*out), nil
}

func (l *funcLowerer) lowerWhile(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.WhileData](e)
	if err != nil {
		return Operand{}, err
	}
	l.ensureBlock()
	condBB := l.newBlock()
	l.gotoBlock(condBB)
	l.startBlock(condBB)
	cond, err := l.lowerExpr(d.Cond, nil)
	if err != nil {
		return Operand{}, err
	}
	exit := l.pending()
	bodyBB := l.newBlock()
	l.switchInt(cond, []SwitchCase{{Value: 0, Target: exit}}, bodyBB)

	l.pushLoop(loopCtx{breakTarget: exit, continueTarget: condBB})
	l.depth++
	l.startBlock(bodyBB)
	if err := l.lowerStmt(d.Body); err != nil {
		return Operand{}, err
	}
	l.gotoBlock(condBB)
	l.depth--
	l.popLoop()

	l.bindPending(exit)
	return l.unit(dst), nil
}

func (l *funcLowerer) lowerLoopJump(e *hir.Expr) (Operand, error) {
	loop, err := l.currentLoop(e.Span, e.Kind.String())
	if err != nil {
		return Operand{}, err
	}
	if e.Kind == hir.ExprBreak {
		l.gotoBlock(loop.breakTarget)
	} else {
		l.gotoBlock(loop.continueTarget)
	}
	return UnitConst(), nil
}

// lowerReturn stores the value into _returnValue. At the top level of the
// body the block returns directly; inside open control flow it jumps to the
// shared return block. A returned call always continues there.
func (l *funcLowerer) lowerReturn(e *hir.Expr) (Operand, error) {
	d, err := payload[hir.ReturnData](e)
	if err != nil {
		return Operand{}, err
	}
	ret := LocalPlace(ReturnLocalName)
	if d.Value != nil && d.Value.Kind == hir.ExprCall {
		_, err := l.lowerCall(d.Value, &ret, deferredReturn)
		return UnitConst(), err
	}
	if d.Value != nil {
		if _, err := l.lowerExpr(d.Value, &ret); err != nil {
			return Operand{}, err
		}
	}
	l.ensureBlock()
	if l.depth == 0 {
		l.setTerm(&Terminator{Kind: TermReturn})
	} else {
		l.gotoBlock(deferredReturn)
	}
	return UnitConst(), nil
}

// lowerFallout lowers `value?`: an Error result returns a new Error built
// from its payload, an Ok result continues with its payload.
func (l *funcLowerer) lowerFallout(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.FalloutData](e)
	if err != nil {
		return Operand{}, err
	}
	if d.Value == nil || !d.Value.Type.Is(symbols.Result) {
		return Operand{}, ice("Fallout", e.Span, "operand is not a result")
	}
	if !l.fn.Result.Is(symbols.Result) {
		return Operand{}, ice("Fallout", e.Span, "%s does not return a result", l.fn.Def.Name)
	}
	t, err := l.l.typeRef(d.Value.Type)
	if err != nil {
		return Operand{}, err
	}
	tmp := l.newTemp(t)
	if _, err := l.lowerExpr(d.Value, &tmp); err != nil {
		return Operand{}, err
	}

	errBB := l.newBlock()
	okBB := l.newBlock()
	tag := Copy(tmp.Project(VariantIdentifierField, resultOk))
	l.switchInt(tag, []SwitchCase{{Value: 0, Target: okBB}}, errBB)

	l.startBlock(errBB)
	create, err := l.l.builtinMethod(symbols.ResultCreate(resultError))
	if err != nil {
		return Operand{}, ice("Fallout", e.Span, "%v", err)
	}
	typeArgs, err := l.l.typeRefs(l.fn.Result.Args)
	if err != nil {
		return Operand{}, err
	}
	l.setTerm(&Terminator{Kind: TermCall, Call: CallTerm{
		Fn:   create.Ref(typeArgs...),
		Args: []Operand{Copy(tmp.Project(ItemField(0), resultError))},
		Dst:  LocalPlace(ReturnLocalName),
		Next: deferredReturn,
	}})

	l.startBlock(okBB)
	return l.use(Copy(tmp.Project(ItemField(0), resultOk)), dst), nil
}
