package mir

import (
	"errors"
	"fmt"

	"reef/internal/symbols"
)

// Validate checks MIR module invariants. Every violation is reported; the
// returned error joins them.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	types := make(map[symbols.DefID]*DataType, len(m.DataTypes))
	names := make(map[string]bool, len(m.DataTypes))
	for _, dt := range m.DataTypes {
		if dt == nil {
			errs = append(errs, errors.New("nil data type"))
			continue
		}
		if names[dt.Name] {
			errs = append(errs, fmt.Errorf("type %s: declared twice", dt.Name))
		}
		names[dt.Name] = true
		types[dt.ID] = dt
	}
	funcs := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		if f == nil {
			errs = append(errs, errors.New("nil function"))
			continue
		}
		if funcs[f.Name] {
			errs = append(errs, fmt.Errorf("function %s: declared twice", f.Name))
		}
		funcs[f.Name] = true
	}

	v := &validator{module: m.Name, types: types, funcs: funcs}
	for _, dt := range m.DataTypes {
		if dt == nil {
			continue
		}
		if err := v.dataType(dt); err != nil {
			errs = append(errs, prefixed("type "+dt.Name, err)...)
		}
	}
	for _, f := range m.Funcs {
		if f == nil || f.Builtin {
			continue
		}
		if err := v.body(&f.Body, f.Params); err != nil {
			errs = append(errs, prefixed("function "+f.Name, err)...)
		}
	}
	return errors.Join(errs...)
}

// prefixed puts prefix in front of every violation joined in err.
func prefixed(prefix string, err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{fmt.Errorf("%s: %w", prefix, err)}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, prefixed(prefix, e)...)
	}
	return out
}

type validator struct {
	module string
	types  map[symbols.DefID]*DataType
	funcs  map[string]bool
}

func (v *validator) dataType(dt *DataType) error {
	var errs []error
	if len(dt.Variants) == 0 {
		errs = append(errs, errors.New("no variants"))
	}
	if dt.IsUnion() {
		for i := range dt.Variants {
			vt := &dt.Variants[i]
			if len(vt.Fields) == 0 || vt.Fields[0].Name != VariantIdentifierField {
				errs = append(errs, fmt.Errorf("variant %s: first field is not %s", vt.Name, VariantIdentifierField))
			}
		}
	}
	for i := range dt.Static {
		s := &dt.Static[i]
		if err := v.body(&s.Init, nil); err != nil {
			errs = append(errs, prefixed("static "+s.Name, err)...)
		}
	}
	return errors.Join(errs...)
}

// body checks that blocks are numbered in order and terminated, that every
// edge lands on a block, that places are rooted at declared locals, and that
// calls and allocations name known definitions.
func (v *validator) body(b *Body, params []Local) error {
	var errs []error
	locals := make(map[string]bool, len(b.Locals)+len(params)+1)
	locals[b.Result.Name] = true
	for _, l := range params {
		locals[l.Name] = true
	}
	for _, l := range b.Locals {
		if locals[l.Name] {
			errs = append(errs, fmt.Errorf("local %s: declared twice", l.Name))
		}
		locals[l.Name] = true
	}
	if len(b.Blocks) == 0 {
		errs = append(errs, errors.New("no blocks"))
	}

	checkPlace := func(bb BlockID, p Place) {
		if root, ok := p.Root(); ok && !locals[root] {
			errs = append(errs, fmt.Errorf("%s: unknown local %s", bb, root))
		}
	}
	checkOperand := func(bb BlockID, op *Operand) {
		switch op.Kind {
		case OperandCopy:
			checkPlace(bb, op.Place)
		case OperandConst:
			if op.Const.Kind == ConstFn {
				if err := v.callee(op.Const.Fn); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", bb, err))
				}
			}
		}
	}

	for i := range b.Blocks {
		bb := &b.Blocks[i]
		if int(bb.ID) != i {
			errs = append(errs, fmt.Errorf("block %d has id %s", i, bb.ID))
		}
		for j := range bb.Instrs {
			a := &bb.Instrs[j].Assign
			checkPlace(bb.ID, a.Dst)
			switch a.Src.Kind {
			case RValueUse:
				checkOperand(bb.ID, &a.Src.Use)
			case RValueUnaryOp:
				checkOperand(bb.ID, &a.Src.Unary.Operand)
			case RValueBinaryOp:
				checkOperand(bb.ID, &a.Src.Binary.Left)
				checkOperand(bb.ID, &a.Src.Binary.Right)
			case RValueCreateObject:
				if !v.knownType(a.Src.Create) {
					errs = append(errs, fmt.Errorf("%s: creates unknown type %s", bb.ID, a.Src.Create))
				}
			}
		}

		t := &bb.Term
		switch t.Kind {
		case TermNone:
			errs = append(errs, fmt.Errorf("%s: unterminated block", bb.ID))
		case TermSwitchInt:
			checkOperand(bb.ID, &t.SwitchInt.Value)
		case TermCall:
			if err := v.callee(t.Call.Fn); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", bb.ID, err))
			}
			for k := range t.Call.Args {
				checkOperand(bb.ID, &t.Call.Args[k])
			}
			checkPlace(bb.ID, t.Call.Dst)
		}
		for _, s := range t.Successors() {
			if s < 0 || int(s) >= len(b.Blocks) {
				errs = append(errs, fmt.Errorf("%s: edge to missing block %s", bb.ID, s))
			}
		}
	}
	return errors.Join(errs...)
}

func (v *validator) knownType(t TypeRef) bool {
	if t.Kind != TypeConcrete {
		return false
	}
	if _, ok := v.types[t.Def]; ok {
		return true
	}
	return t.Def.IsValid() && t.Def.Module != v.module && !symbols.IsBuiltin(t.Def)
}

// callee accepts methods of the module and definitions of other modules.
func (v *validator) callee(fn FuncRef) error {
	if v.funcs[fn.Name] {
		return nil
	}
	if fn.ID.IsValid() && fn.ID.Module != v.module && !symbols.IsBuiltin(fn.ID) {
		return nil
	}
	return fmt.Errorf("call to unknown method %s", fn.Name)
}
