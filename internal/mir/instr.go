package mir

import (
	"reef/internal/symbols"
)

// InstrKind enumerates statement kinds.
type InstrKind uint8

const (
	// InstrAssign stores an rvalue into a place.
	InstrAssign InstrKind = iota
)

// Instr represents a statement inside a basic block.
type Instr struct {
	Kind   InstrKind   `msgpack:"k"`
	Assign AssignInstr `msgpack:"a"`
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst Place  `msgpack:"d"`
	Src RValue `msgpack:"s"`
}

// Assign builds an assignment statement.
func Assign(dst Place, src RValue) Instr {
	return Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: src}}
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandCopy reads a place.
	OperandCopy OperandKind = iota
	// OperandConst is a literal constant.
	OperandConst
)

// Operand represents an rvalue leaf.
type Operand struct {
	Kind  OperandKind `msgpack:"k"`
	Place Place       `msgpack:"p,omitempty"`
	Const Const       `msgpack:"c,omitempty"`
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstUInt
	ConstString
	ConstBool
	ConstUnit
	ConstFn
)

// Const represents a literal constant. Size is the byte width of integers.
type Const struct {
	Kind   ConstKind `msgpack:"k"`
	Int    int64     `msgpack:"i,omitempty"`
	UInt   uint64    `msgpack:"u,omitempty"`
	Size   uint8     `msgpack:"z,omitempty"`
	String string    `msgpack:"s,omitempty"`
	Bool   bool      `msgpack:"b,omitempty"`
	Fn     FuncRef   `msgpack:"f,omitempty"`
}

// FuncRef names a method together with its type arguments.
type FuncRef struct {
	ID       symbols.DefID `msgpack:"d"`
	Name     string        `msgpack:"n"`
	TypeArgs []TypeRef     `msgpack:"a,omitempty"`
}

func Copy(p Place) Operand {
	return Operand{Kind: OperandCopy, Place: p}
}

func IntConst(v int64, size uint8) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstInt, Int: v, Size: size}}
}

func UIntConst(v uint64, size uint8) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstUInt, UInt: v, Size: size}}
}

func StringConst(s string) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstString, String: s}}
}

func BoolConst(b bool) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstBool, Bool: b}}
}

func UnitConst() Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstUnit}}
}

func FnConst(fn FuncRef) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstFn, Fn: fn}}
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of an operand.
	RValueUse RValueKind = iota
	// RValueBinaryOp represents a binary operation.
	RValueBinaryOp
	// RValueUnaryOp represents a unary operation.
	RValueUnaryOp
	// RValueCreateObject allocates an object of a data type.
	RValueCreateObject
)

// RValue represents a right-hand value.
type RValue struct {
	Kind   RValueKind `msgpack:"k"`
	Use    Operand    `msgpack:"u,omitempty"`
	Binary BinaryOp   `msgpack:"b,omitempty"`
	Unary  UnaryOp    `msgpack:"n,omitempty"`
	Create TypeRef    `msgpack:"c,omitempty"`
}

func Use(op Operand) RValue {
	return RValue{Kind: RValueUse, Use: op}
}

func CreateObject(t TypeRef) RValue {
	return RValue{Kind: RValueCreateObject, Create: t}
}

// BinOp enumerates non-short-circuit binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinLess
	BinLessEq
	BinGreater
	BinGreaterEq
	BinEq
	BinNotEq
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "Add"
	case BinSub:
		return "Subtract"
	case BinMul:
		return "Multiply"
	case BinDiv:
		return "Divide"
	case BinLess:
		return "LessThan"
	case BinLessEq:
		return "LessThanOrEqual"
	case BinGreater:
		return "GreaterThan"
	case BinGreaterEq:
		return "GreaterThanOrEqual"
	case BinEq:
		return "Equal"
	case BinNotEq:
		return "NotEqual"
	default:
		return "Unknown"
	}
}

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Op    BinOp   `msgpack:"o"`
	Left  Operand `msgpack:"l"`
	Right Operand `msgpack:"r"`
}

func Binary(op BinOp, left, right Operand) RValue {
	return RValue{Kind: RValueBinaryOp, Binary: BinaryOp{Op: op, Left: left, Right: right}}
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnNot UnOp = iota
	UnNegate
)

// UnaryOp represents a unary operation.
type UnaryOp struct {
	Op      UnOp    `msgpack:"o"`
	Operand Operand `msgpack:"x"`
}

func Unary(op UnOp, x Operand) RValue {
	return RValue{Kind: RValueUnaryOp, Unary: UnaryOp{Op: op, Operand: x}}
}

func (op UnOp) String() string {
	switch op {
	case UnNot:
		return "Not"
	case UnNegate:
		return "Negate"
	default:
		return "Unknown"
	}
}
