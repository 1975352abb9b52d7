package hir

// Walk calls visit for e and, while visit returns true, for each of its
// subexpressions in evaluation order. Bodies of nested functions are not part
// of the tree and are not visited.
func Walk(e *Expr, visit func(*Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range children(e) {
		Walk(c, visit)
	}
}

// WalkFunc walks every expression in the body of fn.
func WalkFunc(fn *Func, visit func(*Expr) bool) {
	if fn == nil {
		return
	}
	for _, e := range fn.Body {
		Walk(e, visit)
	}
}

func children(e *Expr) []*Expr {
	switch d := e.Data.(type) {
	case FuncRefData:
		return []*Expr{d.Receiver}
	case UnaryData:
		return []*Expr{d.Operand}
	case BinaryData:
		return []*Expr{d.Left, d.Right}
	case AssignData:
		return []*Expr{d.Target, d.Value}
	case VarDeclData:
		return []*Expr{d.Value}
	case CallData:
		out := make([]*Expr, 0, len(d.Args)+2)
		out = append(out, d.Receiver, d.Callee)
		return append(out, d.Args...)
	case FieldAccessData:
		return []*Expr{d.Object}
	case ObjectInitData:
		out := make([]*Expr, 0, len(d.Fields))
		for _, f := range d.Fields {
			out = append(out, f.Value)
		}
		return out
	case TupleData:
		return d.Elems
	case BlockData:
		return d.Exprs
	case IfData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case WhileData:
		return []*Expr{d.Cond, d.Body}
	case MatchData:
		out := make([]*Expr, 0, len(d.Arms)+1)
		out = append(out, d.Scrutinee)
		for _, arm := range d.Arms {
			out = append(out, arm.Body)
		}
		return out
	case MatchesData:
		return []*Expr{d.Value}
	case ReturnData:
		return []*Expr{d.Value}
	case FalloutData:
		return []*Expr{d.Value}
	default:
		return nil
	}
}
