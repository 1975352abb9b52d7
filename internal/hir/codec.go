package hir

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"reef/internal/source"
)

// FormatVersion is written ahead of every encoded program.
const FormatVersion uint16 = 1

var errUnknownExprKind = errors.New("hir: unknown expression kind")

// EncodeMsgpack writes an expression as [kind, type, span, payload].
func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(e.Kind)); err != nil {
		return err
	}
	if err := enc.Encode(&e.Type); err != nil {
		return err
	}
	if err := enc.Encode(&e.Span); err != nil {
		return err
	}
	return enc.Encode(e.Data)
}

// DecodeMsgpack reads an expression written by EncodeMsgpack.
func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("hir: expression array has %d elements, want 4", n)
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	e.Kind = ExprKind(kind)
	if err := dec.Decode(&e.Type); err != nil {
		return err
	}
	var span source.Span
	if err := dec.Decode(&span); err != nil {
		return err
	}
	e.Span = span
	e.Data, err = decodeExprData(dec, e.Kind)
	return err
}

func decodeExprData(dec *msgpack.Decoder, kind ExprKind) (ExprData, error) {
	switch kind {
	case ExprLiteral:
		return decodeInto[LiteralData](dec)
	case ExprVarRef:
		return decodeInto[VarRefData](dec)
	case ExprFuncRef:
		return decodeInto[FuncRefData](dec)
	case ExprUnaryOp:
		return decodeInto[UnaryData](dec)
	case ExprBinaryOp:
		return decodeInto[BinaryData](dec)
	case ExprAssign:
		return decodeInto[AssignData](dec)
	case ExprVarDecl:
		return decodeInto[VarDeclData](dec)
	case ExprCall:
		return decodeInto[CallData](dec)
	case ExprFieldAccess:
		return decodeInto[FieldAccessData](dec)
	case ExprStaticField:
		return decodeInto[StaticFieldData](dec)
	case ExprObjectInit:
		return decodeInto[ObjectInitData](dec)
	case ExprUnitVariant:
		return decodeInto[UnitVariantData](dec)
	case ExprTuple:
		return decodeInto[TupleData](dec)
	case ExprBlock:
		return decodeInto[BlockData](dec)
	case ExprIf:
		return decodeInto[IfData](dec)
	case ExprWhile:
		return decodeInto[WhileData](dec)
	case ExprBreak:
		return decodeInto[BreakData](dec)
	case ExprContinue:
		return decodeInto[ContinueData](dec)
	case ExprMatch:
		return decodeInto[MatchData](dec)
	case ExprMatches:
		return decodeInto[MatchesData](dec)
	case ExprReturn:
		return decodeInto[ReturnData](dec)
	case ExprFallout:
		return decodeInto[FalloutData](dec)
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownExprKind, kind)
	}
}

func decodeInto[T ExprData](dec *msgpack.Decoder) (ExprData, error) {
	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type programEnvelope struct {
	Version uint16   `msgpack:"v"`
	Program *Program `msgpack:"p"`
}

// Encode writes a program in the unit file format.
func Encode(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(&programEnvelope{Version: FormatVersion, Program: p}); err != nil {
		return fmt.Errorf("hir: encode %s: %w", p.Module, err)
	}
	return bw.Flush()
}

// Decode reads a program written by Encode.
func Decode(r io.Reader) (*Program, error) {
	var env programEnvelope
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&env); err != nil {
		return nil, fmt.Errorf("hir: decode: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("hir: unsupported format version %d (want %d)", env.Version, FormatVersion)
	}
	if env.Program == nil {
		return nil, errors.New("hir: empty unit")
	}
	return env.Program, nil
}
