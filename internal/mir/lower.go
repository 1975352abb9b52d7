package mir

import (
	"context"
	"errors"
	"fmt"

	"reef/internal/diag"
	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
	"reef/internal/trace"
)

// Options configures LowerProgram.
type Options struct {
	// NormalizeStrings rewrites string constants to Unicode NFC.
	NormalizeStrings bool
	// WarnUnreachable reports match arms that can never be selected.
	WarnUnreachable bool
	// Reporter receives warnings. Nil discards them.
	Reporter diag.Reporter
	// OnPhase is told when environment resolution ("resolve") and method
	// lowering ("lower") begin.
	OnPhase func(phase string)
}

// LowerProgram converts a type-checked unit into a self-contained module.
// Lowering stops at the first internal compiler error, which is returned
// wrapped; use AsICE to recover it.
func LowerProgram(ctx context.Context, prog *hir.Program, opts Options) (*Module, error) {
	if prog == nil {
		return nil, errors.New("mir: nil program")
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	l := newLowerer(ctx, prog, opts)
	span := trace.Begin(l.tracer, trace.ScopePass, "lower", trace.Parent(ctx))
	span.WithExtra("module", prog.Module)
	l.parent = span.ID()

	m, err := l.run()
	if err != nil {
		span.End("error")
		return nil, fmt.Errorf("mir: lower %s: %w", prog.Module, err)
	}
	span.WithExtra("types", fmt.Sprint(len(m.DataTypes))).WithExtra("methods", fmt.Sprint(len(m.Funcs)))
	span.End("")
	return m, nil
}

type lowerer struct {
	prog   *hir.Program
	opts   Options
	tracer trace.Tracer
	parent uint64

	classes map[symbols.DefID]*hir.Class
	unions  map[symbols.DefID]*hir.Union

	// funcs holds every user function including nested ones and _Main;
	// order is the resolution order (outer before inner).
	funcs map[symbols.DefID]*funcInfo
	order []*funcInfo
	main  *funcInfo

	types      map[symbols.DefID]*DataType
	userTypes  []*DataType
	synthTypes []*DataType

	// creates maps a tuple-variant constructor id to its method.
	creates map[symbols.DefID]*Func

	used     map[symbols.DefID]bool
	builtins map[symbols.DefID]*Func
}

func newLowerer(ctx context.Context, prog *hir.Program, opts Options) *lowerer {
	return &lowerer{
		prog:     prog,
		opts:     opts,
		tracer:   trace.FromContext(ctx),
		classes:  make(map[symbols.DefID]*hir.Class, len(prog.Classes)),
		unions:   make(map[symbols.DefID]*hir.Union, len(prog.Unions)+1),
		funcs:    make(map[symbols.DefID]*funcInfo),
		types:    make(map[symbols.DefID]*DataType),
		creates:  make(map[symbols.DefID]*Func),
		used:     make(map[symbols.DefID]bool),
		builtins: make(map[symbols.DefID]*Func),
	}
}

func (l *lowerer) phase(name string) {
	if l.opts.OnPhase != nil {
		l.opts.OnPhase(name)
	}
}

func (l *lowerer) run() (*Module, error) {
	if err := l.collect(); err != nil {
		return nil, err
	}
	if err := l.registerTypes(); err != nil {
		return nil, err
	}
	l.phase("resolve")
	if err := l.resolveEnvironments(); err != nil {
		return nil, err
	}
	l.phase("lower")

	out := &Module{Name: l.prog.Module}
	for _, u := range l.prog.Unions {
		for i := range u.Variants {
			v := &u.Variants[i]
			if v.Kind != hir.VariantTuple {
				continue
			}
			out.Funcs = append(out.Funcs, l.creates[u.CreateDef(v.Name)])
		}
		for _, fn := range u.Funcs {
			if err := l.lowerTree(out, l.funcs[fn.Def]); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range l.prog.Classes {
		if err := l.lowerStatics(c); err != nil {
			return nil, err
		}
		for _, fn := range c.Funcs {
			if err := l.lowerTree(out, l.funcs[fn.Def]); err != nil {
				return nil, err
			}
		}
	}
	if l.main != nil {
		if err := l.lowerTree(out, l.main); err != nil {
			return nil, err
		}
	}
	for _, fn := range l.prog.Funcs {
		if err := l.lowerTree(out, l.funcs[fn.Def]); err != nil {
			return nil, err
		}
	}

	out.DataTypes = append(out.DataTypes, l.userTypes...)
	out.DataTypes = append(out.DataTypes, l.synthTypes...)
	types, methods, err := l.builtinOutput()
	if err != nil {
		return nil, err
	}
	out.DataTypes = append(out.DataTypes, types...)
	out.Funcs = append(out.Funcs, methods...)
	return out, nil
}

// collect indexes declarations and builds the function tree.
func (l *lowerer) collect() error {
	for _, u := range l.prog.Unions {
		l.unions[u.Def] = u
	}
	for _, c := range l.prog.Classes {
		l.classes[c.Def] = c
	}
	l.unions[symbols.Result] = resultUnion()

	for _, u := range l.prog.Unions {
		for _, fn := range u.Funcs {
			if err := l.addFunc(fn, nil, u.Def); err != nil {
				return err
			}
		}
	}
	for _, c := range l.prog.Classes {
		for _, fn := range c.Funcs {
			if err := l.addFunc(fn, nil, c.Def); err != nil {
				return err
			}
		}
	}
	if len(l.prog.TopLevel) > 0 {
		mainFn := &hir.Func{
			Def:    l.prog.MainDef(),
			Name:   "_Main",
			Span:   l.prog.TopLevel[0].Span,
			Flags:  hir.FuncStatic | hir.FuncSynthetic,
			Result: hir.UnitT,
			Locals: l.prog.TopLevelLocals,
			Body:   l.prog.TopLevel,
		}
		if err := l.addFunc(mainFn, nil, symbols.NoDefID); err != nil {
			return err
		}
		l.main = l.funcs[mainFn.Def]
	}
	for _, fn := range l.prog.Funcs {
		if err := l.addFunc(fn, l.main, symbols.NoDefID); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) addFunc(fn *hir.Func, parent *funcInfo, owner symbols.DefID) error {
	if fn == nil {
		return ice("function", noSpan, "nil function")
	}
	if !fn.Def.IsValid() {
		return ice("function", fn.Span, "function %q has no definition id", fn.Name)
	}
	if _, dup := l.funcs[fn.Def]; dup {
		return ice("function", fn.Span, "duplicate definition %s", fn.Def)
	}
	fi := &funcInfo{fn: fn, parent: parent, owner: owner}
	if parent != nil {
		fi.depth = parent.depth + 1
		// top-level functions see _Main as their parent but are not nested in it.
		if parent != l.main {
			parent.children = append(parent.children, fi)
		}
	}
	l.funcs[fn.Def] = fi
	l.order = append(l.order, fi)
	for _, nested := range fn.Nested {
		if err := l.addFunc(nested, fi, symbols.NoDefID); err != nil {
			return err
		}
	}
	return nil
}

// registerTypes builds the layouts of declared unions and classes and the
// constructors of tuple variants.
func (l *lowerer) registerTypes() error {
	for _, u := range l.prog.Unions {
		dt, err := l.unionType(u)
		if err != nil {
			return err
		}
		l.register(dt)
		l.userTypes = append(l.userTypes, dt)
		for i := range u.Variants {
			if u.Variants[i].Kind != hir.VariantTuple {
				continue
			}
			fn, err := l.createMethod(u, dt, i)
			if err != nil {
				return err
			}
			l.creates[fn.ID] = fn
		}
	}
	for _, c := range l.prog.Classes {
		dt, err := l.classType(c)
		if err != nil {
			return err
		}
		l.register(dt)
		l.userTypes = append(l.userTypes, dt)
	}
	return nil
}

func (l *lowerer) register(dt *DataType) {
	l.types[dt.ID] = dt
	span := trace.Begin(l.tracer, trace.ScopeModule, "type:"+dt.Name, l.parent)
	span.End("")
}

func (l *lowerer) unionType(u *hir.Union) (*DataType, error) {
	dt := &DataType{ID: u.Def, Name: u.Def.Name, TypeParams: l.genericRefs(u.TypeParams)}
	for i := range u.Variants {
		v := &u.Variants[i]
		variant := Variant{Name: v.Name, Fields: []Field{{Name: VariantIdentifierField, Type: l.ref(UInt16Ref)}}}
		switch v.Kind {
		case hir.VariantTuple:
			for j, item := range v.Items {
				t, err := l.typeRef(item)
				if err != nil {
					return nil, err
				}
				variant.Fields = append(variant.Fields, Field{Name: ItemField(j), Type: t})
			}
		case hir.VariantClass:
			for _, f := range v.Fields {
				t, err := l.typeRef(f.Type)
				if err != nil {
					return nil, err
				}
				variant.Fields = append(variant.Fields, Field{Name: f.Name, Type: t})
			}
		}
		dt.Variants = append(dt.Variants, variant)
	}
	return dt, nil
}

func (l *lowerer) classType(c *hir.Class) (*DataType, error) {
	dt := &DataType{ID: c.Def, Name: c.Def.Name, TypeParams: l.genericRefs(c.TypeParams)}
	variant := Variant{Name: ClassVariantName}
	for _, f := range c.Fields {
		t, err := l.typeRef(f.Type)
		if err != nil {
			return nil, err
		}
		if f.Static {
			dt.Static = append(dt.Static, StaticField{Name: f.Name, Type: t})
			continue
		}
		variant.Fields = append(variant.Fields, Field{Name: f.Name, Type: t})
	}
	dt.Variants = []Variant{variant}
	return dt, nil
}

// createMethod synthesizes `<Union>__Create__<Variant>` for a tuple variant:
// allocate the union, set the tag and copy each parameter into its item.
func (l *lowerer) createMethod(u *hir.Union, dt *DataType, idx int) (*Func, error) {
	v := &u.Variants[idx]
	def := u.CreateDef(v.Name)
	fn := &Func{
		ID:         def,
		Name:       def.Name,
		Span:       v.Span,
		TypeParams: dt.TypeParams,
		Body:       Body{Result: Local{Name: ReturnLocalName, Type: dt.SelfRef()}},
	}
	for i, item := range v.Items {
		t, err := l.typeRef(item)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, Local{Name: ParamName(i), UserName: ItemField(i), Type: t})
	}
	instrs, err := l.constructVariant(LocalPlace(ReturnLocalName), dt, idx, fn.Params)
	if err != nil {
		return nil, err
	}
	fn.Blocks = []Block{{ID: 0, Instrs: instrs, Term: Terminator{Kind: TermReturn}}}
	return fn, nil
}

func (l *lowerer) constructVariant(dst Place, dt *DataType, idx int, params []Local) ([]Instr, error) {
	tag, err := variantTag(idx, dt.Variants[idx].Name)
	if err != nil {
		return nil, err
	}
	name := dt.Variants[idx].Name
	instrs := []Instr{
		Assign(dst, CreateObject(dt.SelfRef())),
		Assign(dst.Project(VariantIdentifierField, name), Use(tag)),
	}
	for i, p := range params {
		instrs = append(instrs, Assign(dst.Project(ItemField(i), name), Use(Copy(LocalPlace(p.Name)))))
	}
	return instrs, nil
}

// lowerStatics lowers the initializer of every static field of c.
func (l *lowerer) lowerStatics(c *hir.Class) error {
	dt := l.types[c.Def]
	n := 0
	for i := range c.Fields {
		f := &c.Fields[i]
		if !f.Static {
			continue
		}
		body, err := l.lowerStaticInit(c, f)
		if err != nil {
			return err
		}
		dt.Static[n].Init = *body
		n++
	}
	return nil
}

// lowerTree lowers fi and its nested functions in pre-order.
func (l *lowerer) lowerTree(out *Module, fi *funcInfo) error {
	if fi == nil {
		return ice("function", noSpan, "function missing from the function table")
	}
	f, err := l.lowerMethod(fi)
	if err != nil {
		return err
	}
	out.Funcs = append(out.Funcs, f)
	for _, child := range fi.children {
		if err := l.lowerTree(out, child); err != nil {
			return err
		}
	}
	return nil
}

var noSpan source.Span

func (l *lowerer) warn(code diag.Code, span source.Span, msg string) {
	diag.ReportWarning(l.opts.Reporter, code, span, msg).Emit()
}
