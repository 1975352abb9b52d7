package mir

import (
	"slices"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"reef/internal/hir"
	"reef/internal/symbols"
)

// lowerStmt lowers e for its effects; the value is dropped.
func (l *funcLowerer) lowerStmt(e *hir.Expr) error {
	if e == nil {
		return nil
	}
	var err error
	switch e.Kind {
	case hir.ExprLiteral, hir.ExprVarRef, hir.ExprStaticField:
	case hir.ExprIf:
		_, err = l.lowerIf(e, nil, false)
	case hir.ExprMatch:
		_, err = l.lowerMatch(e, nil, false)
	case hir.ExprBlock:
		_, err = l.lowerBlock(e, nil, false)
	default:
		_, err = l.lowerExpr(e, nil)
	}
	return err
}

// lowerExpr lowers e and returns an operand holding its value. When dst is
// set the value is stored there first.
func (l *funcLowerer) lowerExpr(e *hir.Expr, dst *Place) (Operand, error) {
	if e == nil {
		return Operand{}, ice("expression", noSpan, "missing expression in %s", l.fn.Def.Name)
	}
	switch e.Kind {
	case hir.ExprLiteral:
		return l.lowerLiteral(e, dst)
	case hir.ExprVarRef:
		return l.lowerVarRef(e, dst)
	case hir.ExprFuncRef:
		return l.lowerFuncRef(e, dst)
	case hir.ExprUnaryOp:
		return l.lowerUnary(e, dst)
	case hir.ExprBinaryOp:
		return l.lowerBinary(e, dst)
	case hir.ExprAssign:
		return l.lowerAssign(e, dst)
	case hir.ExprVarDecl:
		return l.lowerVarDecl(e, dst)
	case hir.ExprCall:
		return l.lowerCall(e, dst, NoBlockID)
	case hir.ExprFieldAccess, hir.ExprStaticField:
		place, _, err := l.lowerPlace(e)
		if err != nil {
			return Operand{}, err
		}
		return l.use(Copy(place), dst), nil
	case hir.ExprObjectInit:
		return l.lowerObjectInit(e, dst)
	case hir.ExprUnitVariant:
		return l.lowerUnitVariant(e, dst)
	case hir.ExprTuple:
		return l.lowerTuple(e, dst)
	case hir.ExprBlock:
		return l.lowerBlock(e, dst, true)
	case hir.ExprIf:
		return l.lowerIf(e, dst, true)
	case hir.ExprWhile:
		return l.lowerWhile(e, dst)
	case hir.ExprBreak, hir.ExprContinue:
		return l.lowerLoopJump(e)
	case hir.ExprMatch:
		return l.lowerMatch(e, dst, true)
	case hir.ExprMatches:
		return l.lowerMatches(e, dst)
	case hir.ExprReturn:
		return l.lowerReturn(e)
	case hir.ExprFallout:
		return l.lowerFallout(e, dst)
	default:
		return Operand{}, ice(e.Kind.String(), e.Span, "unsupported expression kind %d", e.Kind)
	}
}

func payload[T hir.ExprData](e *hir.Expr) (T, error) {
	d, ok := e.Data.(T)
	if !ok {
		var zero T
		return zero, ice(e.Kind.String(), e.Span, "unexpected payload %T", e.Data)
	}
	return d, nil
}

// use stores op into dst when given.
func (l *funcLowerer) use(op Operand, dst *Place) Operand {
	if dst == nil {
		return op
	}
	l.assign(*dst, Use(op))
	return Copy(*dst)
}

func (l *funcLowerer) unit(dst *Place) Operand {
	return l.use(UnitConst(), dst)
}

func (l *funcLowerer) lowerLiteral(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.LiteralData](e)
	if err != nil {
		return Operand{}, err
	}
	switch d.Kind {
	case hir.LiteralInt:
		size, signed, ok := symbols.IntInfo(e.Type.Def)
		if !ok {
			return Operand{}, ice("Literal", e.Span, "integer literal of non-integer type %s", e.Type)
		}
		if signed {
			return l.use(IntConst(d.Int, size), dst), nil
		}
		v, err := safecast.Conv[uint64](d.Int)
		if err != nil {
			return Operand{}, ice("Literal", e.Span, "negative literal %d of unsigned type %s", d.Int, e.Type)
		}
		return l.use(UIntConst(v, size), dst), nil
	case hir.LiteralString:
		s := d.String
		if l.l.opts.NormalizeStrings {
			s = norm.NFC.String(s)
		}
		return l.use(StringConst(s), dst), nil
	case hir.LiteralBool:
		return l.use(BoolConst(d.Bool), dst), nil
	case hir.LiteralUnit:
		return l.unit(dst), nil
	default:
		return Operand{}, ice("Literal", e.Span, "unknown literal kind %d", d.Kind)
	}
}

func (l *funcLowerer) lowerVarRef(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.VarRefData](e)
	if err != nil {
		return Operand{}, err
	}
	place, err := l.varPlace(d.Var, e.Span)
	if err != nil {
		return Operand{}, err
	}
	return l.use(Copy(place), dst), nil
}

func (l *funcLowerer) lowerUnary(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.UnaryData](e)
	if err != nil {
		return Operand{}, err
	}
	x, err := l.lowerExpr(d.Operand, nil)
	if err != nil {
		return Operand{}, err
	}
	op := UnNot
	if d.Op == hir.UnaryNegate {
		op = UnNegate
	}
	t, err := l.l.typeRef(e.Type)
	if err != nil {
		return Operand{}, err
	}
	return l.result(Unary(op, x), t, dst), nil
}

var binOps = map[hir.BinaryOp]BinOp{
	hir.BinaryAdd:       BinAdd,
	hir.BinarySub:       BinSub,
	hir.BinaryMul:       BinMul,
	hir.BinaryDiv:       BinDiv,
	hir.BinaryLess:      BinLess,
	hir.BinaryLessEq:    BinLessEq,
	hir.BinaryGreater:   BinGreater,
	hir.BinaryGreaterEq: BinGreaterEq,
	hir.BinaryEq:        BinEq,
	hir.BinaryNotEq:     BinNotEq,
}

func (l *funcLowerer) lowerBinary(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.BinaryData](e)
	if err != nil {
		return Operand{}, err
	}
	if d.Op.ShortCircuit() {
		return l.lowerShortCircuit(e, d, dst)
	}
	op, ok := binOps[d.Op]
	if !ok {
		return Operand{}, ice("BinaryOp", e.Span, "unknown operator %s", d.Op)
	}
	ops, err := l.operands(d.Left, d.Right)
	if err != nil {
		return Operand{}, err
	}
	t, err := l.l.typeRef(e.Type)
	if err != nil {
		return Operand{}, err
	}
	return l.result(Binary(op, ops[0], ops[1]), t, dst), nil
}

// operands lowers exprs left to right. A value read from a place is copied
// into a temp first when a later expression may write that place.
func (l *funcLowerer) operands(exprs ...*hir.Expr) ([]Operand, error) {
	ops := make([]Operand, 0, len(exprs))
	for i, e := range exprs {
		op, err := l.lowerExpr(e, nil)
		if err != nil {
			return nil, err
		}
		if op.Kind == OperandCopy && !freshValue(e) && slices.ContainsFunc(exprs[i+1:], writes) {
			t, err := l.l.typeRef(e.Type)
			if err != nil {
				return nil, err
			}
			tmp := l.newTemp(t)
			l.assign(tmp, Use(op))
			op = Copy(tmp)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// freshValue reports whether lowering e without a destination always yields
// a temp nothing else writes.
func freshValue(e *hir.Expr) bool {
	switch e.Kind {
	case hir.ExprLiteral, hir.ExprFuncRef, hir.ExprUnaryOp, hir.ExprBinaryOp, hir.ExprCall,
		hir.ExprObjectInit, hir.ExprTuple, hir.ExprUnitVariant, hir.ExprMatches:
		return true
	}
	return false
}

// writes reports whether evaluating e may store to a variable or field.
func writes(e *hir.Expr) bool {
	if e == nil {
		return false
	}
	switch d := e.Data.(type) {
	case hir.LiteralData, hir.VarRefData, hir.StaticFieldData:
		return false
	case hir.FuncRefData:
		return writes(d.Receiver)
	case hir.FieldAccessData:
		return writes(d.Object)
	case hir.UnaryData:
		return writes(d.Operand)
	case hir.BinaryData:
		return writes(d.Left) || writes(d.Right)
	}
	return true
}

func (l *funcLowerer) lowerAssign(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.AssignData](e)
	if err != nil {
		return Operand{}, err
	}
	target, ok, err := l.lowerPlace(d.Target)
	if err != nil {
		return Operand{}, err
	}
	if !ok {
		return Operand{}, ice("Assign", e.Span, "assignment target is not addressable")
	}
	if _, err := l.lowerExpr(d.Value, &target); err != nil {
		return Operand{}, err
	}
	return l.unit(dst), nil
}

func (l *funcLowerer) lowerVarDecl(e *hir.Expr, dst *Place) (Operand, error) {
	d, err := payload[hir.VarDeclData](e)
	if err != nil {
		return Operand{}, err
	}
	place, err := l.localPlace(d.Local, e.Span)
	if err != nil {
		return Operand{}, err
	}
	if d.Value != nil {
		if _, err := l.lowerExpr(d.Value, &place); err != nil {
			return Operand{}, err
		}
	}
	return l.unit(dst), nil
}

// lowerPlace lowers an addressable expression to its place. ok is false for
// expressions that only produce values.
func (l *funcLowerer) lowerPlace(e *hir.Expr) (Place, bool, error) {
	if e == nil {
		return Place{}, false, ice("expression", noSpan, "missing expression in %s", l.fn.Def.Name)
	}
	switch e.Kind {
	case hir.ExprVarRef:
		d, err := payload[hir.VarRefData](e)
		if err != nil {
			return Place{}, false, err
		}
		place, err := l.varPlace(d.Var, e.Span)
		return place, err == nil, err
	case hir.ExprFieldAccess:
		d, err := payload[hir.FieldAccessData](e)
		if err != nil {
			return Place{}, false, err
		}
		base, err := l.placeOrTemp(d.Object)
		if err != nil {
			return Place{}, false, err
		}
		return base.Project(d.Field, ClassVariantName), true, nil
	case hir.ExprStaticField:
		d, err := payload[hir.StaticFieldData](e)
		if err != nil {
			return Place{}, false, err
		}
		owner, err := l.l.typeRef(d.Owner)
		if err != nil {
			return Place{}, false, err
		}
		return StaticPlace(owner, d.Field), true, nil
	default:
		return Place{}, false, nil
	}
}

// placeOrTemp reuses the place of an addressable expression and otherwise
// materializes the value into a fresh local.
func (l *funcLowerer) placeOrTemp(e *hir.Expr) (Place, error) {
	if e == nil {
		return Place{}, ice("expression", noSpan, "missing expression in %s", l.fn.Def.Name)
	}
	place, ok, err := l.lowerPlace(e)
	if err != nil || ok {
		return place, err
	}
	t, err := l.l.typeRef(e.Type)
	if err != nil {
		return Place{}, err
	}
	tmp := l.newTemp(t)
	if _, err := l.lowerExpr(e, &tmp); err != nil {
		return Place{}, err
	}
	return tmp, nil
}

func (l *funcLowerer) lowerBlock(e *hir.Expr, dst *Place, want bool) (Operand, error) {
	d, err := payload[hir.BlockData](e)
	if err != nil {
		return Operand{}, err
	}
	if len(d.Exprs) == 0 {
		return l.unit(dst), nil
	}
	last := len(d.Exprs) - 1
	for _, x := range d.Exprs[:last] {
		if err := l.lowerStmt(x); err != nil {
			return Operand{}, err
		}
	}
	if !want && dst == nil {
		return UnitConst(), l.lowerStmt(d.Exprs[last])
	}
	return l.lowerExpr(d.Exprs[last], dst)
}
