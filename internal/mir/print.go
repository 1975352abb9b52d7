package mir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// DumpOptions configures MIR module dumping.
type DumpOptions struct {
	// Color highlights keywords and block labels with ANSI escapes.
	Color bool
}

type printer struct {
	w     io.Writer
	err   error
	kw    *color.Color
	label *color.Color
	name  *color.Color
}

func newPrinter(w io.Writer, opts DumpOptions) *printer {
	p := &printer{
		w:     w,
		kw:    color.New(color.FgBlue, color.Bold),
		label: color.New(color.FgYellow),
		name:  color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.kw, p.label, p.name} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// DumpModule writes a human-readable representation of a MIR module. The
// output is stable for a given module and is meant for debugging and
// snapshot tests.
func DumpModule(w io.Writer, m *Module, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	p := newPrinter(w, opts)
	p.printf("%s %s\n", p.kw.Sprint("module"), m.Name)
	p.printf("types=%d\n", len(m.DataTypes))
	for _, dt := range m.DataTypes {
		p.dataType(dt)
	}
	p.printf("funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		p.fn(f)
	}
	return p.err
}

func typeParams(params []TypeRef) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, t := range params {
		parts = append(parts, t.String())
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (p *printer) dataType(dt *DataType) {
	if dt == nil {
		return
	}
	kind := "type"
	if dt.Builtin {
		kind = "builtin type"
	}
	p.printf("\n%s %s%s\n", p.kw.Sprint(kind), p.name.Sprint(dt.Name), typeParams(dt.TypeParams))
	for i := range dt.Variants {
		v := &dt.Variants[i]
		fields := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			fields = append(fields, f.Name+": "+f.Type.String())
		}
		p.printf("  %s %s { %s }\n", p.kw.Sprint("variant"), v.Name, strings.Join(fields, ", "))
	}
	for i := range dt.Static {
		s := &dt.Static[i]
		p.printf("  %s %s: %s\n", p.kw.Sprint("static"), s.Name, s.Type)
		p.body(&s.Init, "    ")
	}
}

func (p *printer) fn(f *Func) {
	if f == nil {
		return
	}
	params := make([]string, 0, len(f.Params))
	for _, l := range f.Params {
		params = append(params, local(l))
	}
	kw := "fn"
	if f.Builtin {
		kw = "builtin fn"
	}
	p.printf("\n%s %s%s(%s): %s\n", p.kw.Sprint(kw), p.name.Sprint(f.Name), typeParams(f.TypeParams),
		strings.Join(params, ", "), f.Result.Type)
	if f.Builtin {
		return
	}
	p.body(&f.Body, "  ")
}

func local(l Local) string {
	if l.UserName != "" {
		return fmt.Sprintf("%s %s: %s", l.Name, l.UserName, l.Type)
	}
	return fmt.Sprintf("%s: %s", l.Name, l.Type)
}

func (p *printer) body(b *Body, indent string) {
	if len(b.Locals) > 0 {
		p.printf("%slocals:\n", indent)
		for _, l := range b.Locals {
			p.printf("%s  %s\n", indent, local(l))
		}
	}
	for i := range b.Blocks {
		bb := &b.Blocks[i]
		p.printf("%s%s:\n", indent, p.label.Sprint(bb.ID))
		for j := range bb.Instrs {
			p.printf("%s  %s\n", indent, formatInstr(&bb.Instrs[j]))
		}
		p.printf("%s  %s\n", indent, p.term(&bb.Term))
	}
}

func formatInstr(ins *Instr) string {
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("%s = %s", ins.Assign.Dst, formatRValue(&ins.Assign.Src))
	default:
		return fmt.Sprintf("<instr %d>", ins.Kind)
	}
}

func (p *printer) term(t *Terminator) string {
	switch t.Kind {
	case TermNone:
		return p.kw.Sprint("<unterminated>")
	case TermReturn:
		return p.kw.Sprint("return")
	case TermGoto:
		return fmt.Sprintf("%s %s", p.kw.Sprint("goto"), p.label.Sprint(t.Goto.Target))
	case TermSwitchInt:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %s [", p.kw.Sprint("switchInt"), formatOperand(&t.SwitchInt.Value))
		for i, c := range t.SwitchInt.Cases {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d: %s", c.Value, p.label.Sprint(c.Target))
		}
		fmt.Fprintf(&sb, "] otherwise %s", p.label.Sprint(t.SwitchInt.Otherwise))
		return sb.String()
	case TermCall:
		c := &t.Call
		return fmt.Sprintf("%s = %s %s(%s) -> %s", c.Dst, p.kw.Sprint("call"), formatFuncRef(c.Fn),
			formatOperands(c.Args), p.label.Sprint(c.Next))
	default:
		return fmt.Sprintf("<term %d>", t.Kind)
	}
}

func formatFuncRef(fn FuncRef) string {
	return fn.Name + typeArgs(fn.TypeArgs)
}

func typeArgs(args []TypeRef) string {
	if len(args) == 0 {
		return ""
	}
	return "::" + typeParams(args)
}

func formatOperands(ops []Operand) string {
	parts := make([]string, 0, len(ops))
	for i := range ops {
		parts = append(parts, formatOperand(&ops[i]))
	}
	return strings.Join(parts, ", ")
}

func formatOperand(op *Operand) string {
	switch op.Kind {
	case OperandCopy:
		return "copy " + op.Place.String()
	case OperandConst:
		return formatConst(&op.Const)
	default:
		return fmt.Sprintf("<operand %d>", op.Kind)
	}
}

func formatConst(c *Const) string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%di%d", c.Int, int(c.Size)*8)
	case ConstUInt:
		return fmt.Sprintf("%du%d", c.UInt, int(c.Size)*8)
	case ConstString:
		return strconv.Quote(c.String)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstUnit:
		return "()"
	case ConstFn:
		return "fn " + formatFuncRef(c.Fn)
	default:
		return fmt.Sprintf("<const %d>", c.Kind)
	}
}

func formatRValue(rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return formatOperand(&rv.Use)
	case RValueUnaryOp:
		return fmt.Sprintf("%s(%s)", rv.Unary.Op, formatOperand(&rv.Unary.Operand))
	case RValueBinaryOp:
		return fmt.Sprintf("%s(%s, %s)", rv.Binary.Op, formatOperand(&rv.Binary.Left), formatOperand(&rv.Binary.Right))
	case RValueCreateObject:
		return "new " + rv.Create.String()
	default:
		return fmt.Sprintf("<rvalue %d>", rv.Kind)
	}
}
