package testkit

import (
	"reef/internal/hir"
	"reef/internal/symbols"
)

func expr(kind hir.ExprKind, t hir.Type, d hir.ExprData) *hir.Expr {
	return &hir.Expr{Kind: kind, Type: t, Data: d}
}

func Int(v int64, t hir.Type) *hir.Expr {
	return expr(hir.ExprLiteral, t, hir.LiteralData{Kind: hir.LiteralInt, Int: v})
}

func Str(s string) *hir.Expr {
	return expr(hir.ExprLiteral, hir.StringT, hir.LiteralData{Kind: hir.LiteralString, String: s})
}

func Bool(b bool) *hir.Expr {
	return expr(hir.ExprLiteral, hir.BoolT, hir.LiteralData{Kind: hir.LiteralBool, Bool: b})
}

func Unit() *hir.Expr {
	return expr(hir.ExprLiteral, hir.UnitT, hir.LiteralData{Kind: hir.LiteralUnit})
}

func Unary(op hir.UnaryOp, x *hir.Expr) *hir.Expr {
	return expr(hir.ExprUnaryOp, x.Type, hir.UnaryData{Op: op, Operand: x})
}

// Binary builds a binary operation; comparisons and && / || are bool typed.
func Binary(op hir.BinaryOp, left, right *hir.Expr) *hir.Expr {
	t := left.Type
	switch op {
	case hir.BinaryAdd, hir.BinarySub, hir.BinaryMul, hir.BinaryDiv:
	default:
		t = hir.BoolT
	}
	return expr(hir.ExprBinaryOp, t, hir.BinaryData{Op: op, Left: left, Right: right})
}

func Assign(target, value *hir.Expr) *hir.Expr {
	return expr(hir.ExprAssign, hir.UnitT, hir.AssignData{Target: target, Value: value})
}

// Decl declares local id, optionally initialized.
func Decl(id hir.LocalID, value *hir.Expr) *hir.Expr {
	return expr(hir.ExprVarDecl, hir.UnitT, hir.VarDeclData{Local: id, Value: value})
}

// Call calls fn directly.
func Call(fn symbols.DefID, result hir.Type, args ...*hir.Expr) *hir.Expr {
	return expr(hir.ExprCall, result, hir.CallData{Fn: fn, Args: args})
}

// CallGeneric calls fn with explicit type arguments.
func CallGeneric(fn symbols.DefID, typeArgs []hir.Type, result hir.Type, args ...*hir.Expr) *hir.Expr {
	return expr(hir.ExprCall, result, hir.CallData{Fn: fn, TypeArgs: typeArgs, Args: args})
}

// CallMethod calls an instance method on recv.
func CallMethod(fn symbols.DefID, recv *hir.Expr, result hir.Type, args ...*hir.Expr) *hir.Expr {
	return expr(hir.ExprCall, result, hir.CallData{Fn: fn, Receiver: recv, Args: args})
}

// CallValue calls a function object.
func CallValue(callee *hir.Expr, args ...*hir.Expr) *hir.Expr {
	return expr(hir.ExprCall, *callee.Type.Result, hir.CallData{Callee: callee, Args: args})
}

// FuncValue takes fn as a value, bound to recv for instance methods.
func FuncValue(fn symbols.DefID, t hir.Type, recv *hir.Expr) *hir.Expr {
	return expr(hir.ExprFuncRef, t, hir.FuncRefData{Fn: fn, Receiver: recv})
}

func FieldOf(obj *hir.Expr, name string, t hir.Type) *hir.Expr {
	return expr(hir.ExprFieldAccess, t, hir.FieldAccessData{Object: obj, Field: name})
}

func Static(owner hir.Type, name string, t hir.Type) *hir.Expr {
	return expr(hir.ExprStaticField, t, hir.StaticFieldData{Owner: owner, Field: name})
}

// New builds a class object, or a class variant when variant is set.
func New(t hir.Type, variant string, fields ...hir.FieldInit) *hir.Expr {
	return expr(hir.ExprObjectInit, t, hir.ObjectInitData{Variant: variant, Fields: fields})
}

func Init(name string, value *hir.Expr) hir.FieldInit {
	return hir.FieldInit{Name: name, Value: value}
}

// Variant builds a unit variant value.
func Variant(t hir.Type, name string) *hir.Expr {
	return expr(hir.ExprUnitVariant, t, hir.UnitVariantData{Variant: name})
}

func Tuple(elems ...*hir.Expr) *hir.Expr {
	t := hir.Instance("", symbols.Tuple(len(elems)))
	for _, e := range elems {
		t.Args = append(t.Args, e.Type)
	}
	return expr(hir.ExprTuple, t, hir.TupleData{Elems: elems})
}

// Block builds a block whose value is its last expression.
func Block(exprs ...*hir.Expr) *hir.Expr {
	t := hir.UnitT
	if len(exprs) > 0 {
		t = exprs[len(exprs)-1].Type
	}
	return expr(hir.ExprBlock, t, hir.BlockData{Exprs: exprs})
}

func If(cond, then, els *hir.Expr) *hir.Expr {
	t := hir.UnitT
	if els != nil {
		t = then.Type
	}
	return expr(hir.ExprIf, t, hir.IfData{Cond: cond, Then: then, Else: els})
}

func While(cond, body *hir.Expr) *hir.Expr {
	return expr(hir.ExprWhile, hir.UnitT, hir.WhileData{Cond: cond, Body: body})
}

func Break() *hir.Expr {
	return expr(hir.ExprBreak, hir.UnitT, hir.BreakData{})
}

func Continue() *hir.Expr {
	return expr(hir.ExprContinue, hir.UnitT, hir.ContinueData{})
}

// Match builds a match of type t.
func Match(scrutinee *hir.Expr, t hir.Type, arms ...hir.MatchArm) *hir.Expr {
	return expr(hir.ExprMatch, t, hir.MatchData{Scrutinee: scrutinee, Arms: arms})
}

func Arm(p *hir.Pattern, body *hir.Expr) hir.MatchArm {
	return hir.MatchArm{Pattern: p, Body: body}
}

func Matches(value *hir.Expr, p *hir.Pattern) *hir.Expr {
	return expr(hir.ExprMatches, hir.BoolT, hir.MatchesData{Value: value, Pattern: p})
}

func Return(value *hir.Expr) *hir.Expr {
	return expr(hir.ExprReturn, hir.UnitT, hir.ReturnData{Value: value})
}

// Fallout applies ? to a result value.
func Fallout(value *hir.Expr) *hir.Expr {
	return expr(hir.ExprFallout, value.Type.Args[0], hir.FalloutData{Value: value})
}
