//nolint:errcheck // Type assertions are checked by construction
package hir

import (
	"fmt"
	"io"
)

// Printer is used to dump a typed program to text format.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new printer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Dump writes the program to the writer.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	return NewPrinter(w).PrintProgram(p)
}

// PrintProgram prints a complete program.
func (p *Printer) PrintProgram(prog *Program) error {
	p.printf("module %s\n", prog.Module)
	for _, u := range prog.Unions {
		p.printf("\nunion %s%s {\n", u.Name, genericList(u.TypeParams))
		p.indent++
		for i := range u.Variants {
			v := &u.Variants[i]
			p.printIndent()
			switch v.Kind {
			case VariantTuple:
				p.printf("%s(", v.Name)
				for j, it := range v.Items {
					if j > 0 {
						p.printf(", ")
					}
					p.printf("%s", it)
				}
				p.printf(")\n")
			case VariantClass:
				p.printf("%s {", v.Name)
				for j, f := range v.Fields {
					if j > 0 {
						p.printf(",")
					}
					p.printf(" %s: %s", f.Name, f.Type)
				}
				p.printf(" }\n")
			default:
				p.printf("%s\n", v.Name)
			}
		}
		for _, f := range u.Funcs {
			p.printIndent()
			p.PrintFunc(f)
		}
		p.indent--
		p.printf("}\n")
	}
	for _, c := range prog.Classes {
		p.printf("\nclass %s%s {\n", c.Name, genericList(c.TypeParams))
		p.indent++
		for _, f := range c.Fields {
			p.printIndent()
			if f.Static {
				p.printf("static ")
			}
			p.printf("field %s: %s", f.Name, f.Type)
			if f.Init != nil {
				p.printf(" = ")
				p.printExpr(f.Init)
			}
			p.printf("\n")
		}
		for _, f := range c.Funcs {
			p.printIndent()
			p.PrintFunc(f)
		}
		p.indent--
		p.printf("}\n")
	}
	for _, f := range prog.Funcs {
		p.printf("\n")
		p.PrintFunc(f)
	}
	if len(prog.TopLevel) > 0 {
		p.printf("\n")
		for _, e := range prog.TopLevel {
			p.printExpr(e)
			p.printf(";\n")
		}
	}
	return nil
}

// PrintFunc prints a function and its nested functions.
func (p *Printer) PrintFunc(f *Func) error {
	p.printf("%sfn %s%s(", f.Flags, f.Name, genericList(f.TypeParams))
	for i, param := range f.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s: %s", param.Name, param.Type)
		if param.Captured {
			p.printf(" [captured]")
		}
	}
	p.printf("): %s", f.Result)
	if len(f.AccessedOuter) > 0 {
		p.printf(" uses(")
		for i, v := range f.AccessedOuter {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s %s", v.Kind, v.Name)
		}
		p.printf(")")
	}
	p.printf(" {\n")
	p.indent++
	for _, l := range f.Locals {
		p.printIndent()
		p.printf("local %s: %s", l.Name, l.Type)
		if l.Captured {
			p.printf(" [captured]")
		}
		p.printf("\n")
	}
	for _, e := range f.Body {
		p.printIndent()
		p.printExpr(e)
		p.printf(";\n")
	}
	for _, nested := range f.Nested {
		p.printIndent()
		p.PrintFunc(nested)
	}
	p.indent--
	p.printIndent()
	p.printf("}\n")
	return nil
}

func (p *Printer) printExpr(e *Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}
	switch e.Kind {
	case ExprLiteral:
		data := e.Data.(LiteralData)
		switch data.Kind {
		case LiteralInt:
			p.printf("%d", data.Int)
		case LiteralString:
			p.printf("%q", data.String)
		case LiteralBool:
			p.printf("%t", data.Bool)
		default:
			p.printf("()")
		}
	case ExprVarRef:
		p.printf("%s", e.Data.(VarRefData).Var.Name)
	case ExprFuncRef:
		data := e.Data.(FuncRefData)
		if data.Receiver != nil {
			p.printExpr(data.Receiver)
			p.printf(".")
		}
		p.printf("%s%s", data.Fn.Name, typeArgList(data.TypeArgs))
	case ExprUnaryOp:
		data := e.Data.(UnaryData)
		p.printf("%s", data.Op)
		p.printExpr(data.Operand)
	case ExprBinaryOp:
		data := e.Data.(BinaryData)
		p.printf("(")
		p.printExpr(data.Left)
		p.printf(" %s ", data.Op)
		p.printExpr(data.Right)
		p.printf(")")
	case ExprAssign:
		data := e.Data.(AssignData)
		p.printExpr(data.Target)
		p.printf(" = ")
		p.printExpr(data.Value)
	case ExprVarDecl:
		data := e.Data.(VarDeclData)
		p.printf("var #%d", data.Local)
		if data.Value != nil {
			p.printf(" = ")
			p.printExpr(data.Value)
		}
	case ExprCall:
		data := e.Data.(CallData)
		switch {
		case data.Callee != nil:
			p.printExpr(data.Callee)
		case data.Receiver != nil:
			p.printExpr(data.Receiver)
			p.printf(".%s%s", data.Fn.Short(), typeArgList(data.TypeArgs))
		default:
			p.printf("%s%s", data.Fn.Name, typeArgList(data.TypeArgs))
		}
		p.printf("(")
		for i, a := range data.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(a)
		}
		p.printf(")")
	case ExprFieldAccess:
		data := e.Data.(FieldAccessData)
		p.printExpr(data.Object)
		p.printf(".%s", data.Field)
	case ExprStaticField:
		data := e.Data.(StaticFieldData)
		p.printf("%s::%s", data.Owner, data.Field)
	case ExprObjectInit:
		data := e.Data.(ObjectInitData)
		if data.Variant != "" {
			p.printf("%s::%s {", e.Type, data.Variant)
		} else {
			p.printf("new %s {", e.Type)
		}
		for i, f := range data.Fields {
			if i > 0 {
				p.printf(",")
			}
			p.printf(" %s = ", f.Name)
			p.printExpr(f.Value)
		}
		p.printf(" }")
	case ExprUnitVariant:
		p.printf("%s::%s", e.Type, e.Data.(UnitVariantData).Variant)
	case ExprTuple:
		data := e.Data.(TupleData)
		p.printf("(")
		for i, el := range data.Elems {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(el)
		}
		p.printf(")")
	case ExprBlock:
		data := e.Data.(BlockData)
		p.printf("{\n")
		p.indent++
		for _, inner := range data.Exprs {
			p.printIndent()
			p.printExpr(inner)
			p.printf(";\n")
		}
		p.indent--
		p.printIndent()
		p.printf("}")
	case ExprIf:
		data := e.Data.(IfData)
		p.printf("if ")
		p.printExpr(data.Cond)
		p.printf(" ")
		p.printExpr(data.Then)
		if data.Else != nil {
			p.printf(" else ")
			p.printExpr(data.Else)
		}
	case ExprWhile:
		data := e.Data.(WhileData)
		p.printf("while ")
		p.printExpr(data.Cond)
		p.printf(" ")
		p.printExpr(data.Body)
	case ExprBreak:
		p.printf("break")
	case ExprContinue:
		p.printf("continue")
	case ExprMatch:
		data := e.Data.(MatchData)
		p.printf("match ")
		p.printExpr(data.Scrutinee)
		p.printf(" {\n")
		p.indent++
		for _, arm := range data.Arms {
			p.printIndent()
			p.printPattern(arm.Pattern)
			p.printf(" => ")
			p.printExpr(arm.Body)
			p.printf(",\n")
		}
		p.indent--
		p.printIndent()
		p.printf("}")
	case ExprMatches:
		data := e.Data.(MatchesData)
		p.printExpr(data.Value)
		p.printf(" matches ")
		p.printPattern(data.Pattern)
	case ExprReturn:
		data := e.Data.(ReturnData)
		p.printf("return")
		if data.Value != nil {
			p.printf(" ")
			p.printExpr(data.Value)
		}
	case ExprFallout:
		p.printExpr(e.Data.(FalloutData).Value)
		p.printf("?")
	default:
		p.printf("<%s>", e.Kind)
	}
}

func (p *Printer) printPattern(pat *Pattern) {
	if pat == nil {
		p.printf("_")
		return
	}
	switch pat.Kind {
	case PatternDiscard:
		p.printf("_")
	case PatternVar:
		p.printf("var #%d", pat.Bind)
	case PatternType:
		p.printf("%s", pat.Type)
	case PatternUnionVariant:
		p.printf("%s::%s", pat.Type, pat.Variant)
	case PatternUnionTuple:
		p.printf("%s::%s(", pat.Type, pat.Variant)
		for i, el := range pat.Elems {
			if i > 0 {
				p.printf(", ")
			}
			p.printPattern(el)
		}
		p.printf(")")
	case PatternUnionClass, PatternClass:
		if pat.Kind == PatternUnionClass {
			p.printf("%s::%s {", pat.Type, pat.Variant)
		} else {
			p.printf("%s {", pat.Type)
		}
		for i, f := range pat.Fields {
			if i > 0 {
				p.printf(",")
			}
			p.printf(" %s: ", f.Name)
			p.printPattern(f.Pattern)
		}
		if pat.Rest {
			p.printf(", _")
		}
		p.printf(" }")
	}
	if pat.Bind.IsValid() && pat.Kind != PatternVar {
		p.printf(" var #%d", pat.Bind)
	}
}

func genericList(params []GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	s := "<"
	for i, gp := range params {
		if i > 0 {
			s += ", "
		}
		s += gp.Name
	}
	return s + ">"
}

func typeArgList(args []Type) string {
	if len(args) == 0 {
		return ""
	}
	s := "::<"
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

func (p *Printer) printIndent() {
	for range p.indent {
		p.printf("  ")
	}
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}
