package hir

import (
	"reef/internal/source"
	"reef/internal/symbols"
)

// ExprKind enumerates typed expression kinds. The set is closed: the lowering
// switch over it is total.
type ExprKind uint8

const (
	// ExprLiteral represents int, string, bool and unit literals.
	ExprLiteral ExprKind = iota
	// ExprVarRef represents a variable read.
	ExprVarRef
	// ExprFuncRef represents a function used as a value.
	ExprFuncRef
	// ExprUnaryOp represents ! and unary -.
	ExprUnaryOp
	// ExprBinaryOp represents arithmetic, comparison and && / ||.
	ExprBinaryOp
	// ExprAssign represents `target = value`.
	ExprAssign
	// ExprVarDecl represents `var x = value`.
	ExprVarDecl
	// ExprCall represents direct calls and calls through function objects.
	ExprCall
	// ExprFieldAccess represents instance field access (expr.field).
	ExprFieldAccess
	// ExprStaticField represents Type::field.
	ExprStaticField
	// ExprObjectInit represents `new Class { f = v }` and `Union::Variant { f = v }`.
	ExprObjectInit
	// ExprUnitVariant represents `Union::Variant` for a unit variant.
	ExprUnitVariant
	// ExprTuple represents (a, b, ...).
	ExprTuple
	// ExprBlock represents { ... }.
	ExprBlock
	// ExprIf represents if / else if / else.
	ExprIf
	// ExprWhile represents while loops.
	ExprWhile
	// ExprBreak represents break.
	ExprBreak
	// ExprContinue represents continue.
	ExprContinue
	// ExprMatch represents match scrutinee { arms }.
	ExprMatch
	// ExprMatches represents `value matches pattern`.
	ExprMatches
	// ExprReturn represents return.
	ExprReturn
	// ExprFallout represents the postfix ? operator on result values.
	ExprFallout
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprFuncRef:
		return "FuncRef"
	case ExprUnaryOp:
		return "UnaryOp"
	case ExprBinaryOp:
		return "BinaryOp"
	case ExprAssign:
		return "Assign"
	case ExprVarDecl:
		return "VarDecl"
	case ExprCall:
		return "Call"
	case ExprFieldAccess:
		return "FieldAccess"
	case ExprStaticField:
		return "StaticField"
	case ExprObjectInit:
		return "ObjectInit"
	case ExprUnitVariant:
		return "UnitVariant"
	case ExprTuple:
		return "Tuple"
	case ExprBlock:
		return "Block"
	case ExprIf:
		return "If"
	case ExprWhile:
		return "While"
	case ExprBreak:
		return "Break"
	case ExprContinue:
		return "Continue"
	case ExprMatch:
		return "Match"
	case ExprMatches:
		return "Matches"
	case ExprReturn:
		return "Return"
	case ExprFallout:
		return "Fallout"
	default:
		return "Unknown"
	}
}

// Expr represents a typed expression.
type Expr struct {
	Kind ExprKind
	Type Type
	Span source.Span
	Data ExprData
}

// ExprData is the kind-specific payload of an Expr.
type ExprData interface {
	exprData()
}

// LiteralKind distinguishes literal values.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralUnit
)

// LiteralData is the payload of ExprLiteral. Integer width and signedness
// come from Expr.Type.
type LiteralData struct {
	Kind   LiteralKind `msgpack:"k"`
	Int    int64       `msgpack:"i,omitempty"`
	String string      `msgpack:"s,omitempty"`
	Bool   bool        `msgpack:"b,omitempty"`
}

// VarRefData is the payload of ExprVarRef.
type VarRefData struct {
	Var VarRef `msgpack:"v"`
}

// FuncRefData is the payload of ExprFuncRef. Receiver is set when an
// instance method is taken as a value.
type FuncRefData struct {
	Fn       symbols.DefID `msgpack:"f"`
	TypeArgs []Type        `msgpack:"ta,omitempty"`
	Receiver *Expr         `msgpack:"r,omitempty"`
}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnaryNot UnaryOp = iota
	UnaryNegate
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "!"
	}
	return "-"
}

// UnaryData is the payload of ExprUnaryOp.
type UnaryData struct {
	Op      UnaryOp `msgpack:"o"`
	Operand *Expr   `msgpack:"x"`
}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryLess
	BinaryLessEq
	BinaryGreater
	BinaryGreaterEq
	BinaryEq
	BinaryNotEq
	BinaryAnd
	BinaryOr
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryAdd:
		return "+"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	case BinaryDiv:
		return "/"
	case BinaryLess:
		return "<"
	case BinaryLessEq:
		return "<="
	case BinaryGreater:
		return ">"
	case BinaryGreaterEq:
		return ">="
	case BinaryEq:
		return "=="
	case BinaryNotEq:
		return "!="
	case BinaryAnd:
		return "&&"
	case BinaryOr:
		return "||"
	default:
		return "?"
	}
}

// ShortCircuit reports whether the right operand is evaluated conditionally.
func (op BinaryOp) ShortCircuit() bool {
	return op == BinaryAnd || op == BinaryOr
}

// BinaryData is the payload of ExprBinaryOp.
type BinaryData struct {
	Op    BinaryOp `msgpack:"o"`
	Left  *Expr    `msgpack:"l"`
	Right *Expr    `msgpack:"r"`
}

// AssignData is the payload of ExprAssign.
type AssignData struct {
	Target *Expr `msgpack:"t"`
	Value  *Expr `msgpack:"v"`
}

// VarDeclData is the payload of ExprVarDecl.
type VarDeclData struct {
	Local LocalID `msgpack:"l"`
	Value *Expr   `msgpack:"v,omitempty"`
}

// CallData is the payload of ExprCall. A direct call names Fn; a call
// through a function object sets Callee instead.
type CallData struct {
	Fn       symbols.DefID `msgpack:"f,omitempty"`
	TypeArgs []Type        `msgpack:"ta,omitempty"`
	Receiver *Expr         `msgpack:"r,omitempty"`
	Callee   *Expr         `msgpack:"c,omitempty"`
	Args     []*Expr       `msgpack:"a,omitempty"`
}

// FieldAccessData is the payload of ExprFieldAccess.
type FieldAccessData struct {
	Object *Expr  `msgpack:"o"`
	Field  string `msgpack:"f"`
}

// StaticFieldData is the payload of ExprStaticField.
type StaticFieldData struct {
	Owner Type   `msgpack:"o"`
	Field string `msgpack:"f"`
}

// FieldInit is one `name = value` initializer.
type FieldInit struct {
	Name  string `msgpack:"n"`
	Value *Expr  `msgpack:"v"`
}

// ObjectInitData is the payload of ExprObjectInit. Variant is empty for
// class instances.
type ObjectInitData struct {
	Variant string      `msgpack:"v,omitempty"`
	Fields  []FieldInit `msgpack:"f,omitempty"`
}

// UnitVariantData is the payload of ExprUnitVariant.
type UnitVariantData struct {
	Variant string `msgpack:"v"`
}

// TupleData is the payload of ExprTuple.
type TupleData struct {
	Elems []*Expr `msgpack:"e"`
}

// BlockData is the payload of ExprBlock. The block's value is its last
// expression.
type BlockData struct {
	Exprs []*Expr `msgpack:"e,omitempty"`
}

// IfData is the payload of ExprIf; else-if chains nest in Else.
type IfData struct {
	Cond *Expr `msgpack:"c"`
	Then *Expr `msgpack:"t"`
	Else *Expr `msgpack:"e,omitempty"`
}

// WhileData is the payload of ExprWhile.
type WhileData struct {
	Cond *Expr `msgpack:"c"`
	Body *Expr `msgpack:"b"`
}

// BreakData is the payload of ExprBreak.
type BreakData struct{}

// ContinueData is the payload of ExprContinue.
type ContinueData struct{}

// MatchArm is one arm of a match.
type MatchArm struct {
	Pattern *Pattern    `msgpack:"p"`
	Body    *Expr       `msgpack:"b"`
	Span    source.Span `msgpack:"s"`
}

// MatchData is the payload of ExprMatch.
type MatchData struct {
	Scrutinee *Expr      `msgpack:"s"`
	Arms      []MatchArm `msgpack:"a"`
}

// MatchesData is the payload of ExprMatches.
type MatchesData struct {
	Value   *Expr    `msgpack:"v"`
	Pattern *Pattern `msgpack:"p"`
}

// ReturnData is the payload of ExprReturn.
type ReturnData struct {
	Value *Expr `msgpack:"v,omitempty"`
}

// FalloutData is the payload of ExprFallout.
type FalloutData struct {
	Value *Expr `msgpack:"v"`
}

func (LiteralData) exprData()     {}
func (VarRefData) exprData()      {}
func (FuncRefData) exprData()     {}
func (UnaryData) exprData()       {}
func (BinaryData) exprData()      {}
func (AssignData) exprData()      {}
func (VarDeclData) exprData()     {}
func (CallData) exprData()        {}
func (FieldAccessData) exprData() {}
func (StaticFieldData) exprData() {}
func (ObjectInitData) exprData()  {}
func (UnitVariantData) exprData() {}
func (TupleData) exprData()       {}
func (BlockData) exprData()       {}
func (IfData) exprData()          {}
func (WhileData) exprData()       {}
func (BreakData) exprData()       {}
func (ContinueData) exprData()    {}
func (MatchData) exprData()       {}
func (MatchesData) exprData()     {}
func (ReturnData) exprData()      {}
func (FalloutData) exprData()     {}
