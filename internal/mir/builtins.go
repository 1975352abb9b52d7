package mir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"reef/internal/hir"
	"reef/internal/symbols"
)

const (
	resultOk    = "Ok"
	resultError = "Error"

	functionPrefix = "Function`"
	tuplePrefix    = "Tuple`"
	callSuffix     = "__Call"
)

var primitiveTypes = []symbols.DefID{
	symbols.Int8, symbols.Int16, symbols.Int32, symbols.Int64,
	symbols.UInt8, symbols.UInt16, symbols.UInt32, symbols.UInt64,
	symbols.String, symbols.Bool, symbols.Unit, symbols.RawPointer,
}

// resultUnion describes the builtin result<TValue, TError> union so that
// patterns and constructors can treat it like a declared one.
func resultUnion() *hir.Union {
	value := hir.GenericParam{Owner: symbols.Result, Name: "TValue"}
	errT := hir.GenericParam{Owner: symbols.Result, Name: "TError"}
	return &hir.Union{
		Def:        symbols.Result,
		Name:       symbols.Result.Name,
		TypeParams: []hir.GenericParam{value, errT},
		Variants: []hir.Variant{
			{Name: resultOk, Kind: hir.VariantTuple, Items: []hir.Type{value.Type()}},
			{Name: resultError, Kind: hir.VariantTuple, Items: []hir.Type{errT.Type()}},
		},
	}
}

// useBuiltin records that the module refers to def, together with the
// builtins its layout needs.
func (l *lowerer) useBuiltin(def symbols.DefID) {
	if l.used[def] {
		return
	}
	l.used[def] = true
	switch {
	case def == symbols.Result:
		l.used[symbols.UInt16] = true
	case strings.HasPrefix(def.Name, functionPrefix):
		l.used[symbols.RawPointer] = true
	}
}

func arity(name, prefix, suffix string) (int, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return 0, false
	}
	if suffix != "" {
		if rest, ok = strings.CutSuffix(rest, suffix); !ok {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// builtinMethod returns the compiler-provided method def, creating it on
// first use.
func (l *lowerer) builtinMethod(def symbols.DefID) (*Func, error) {
	if f, ok := l.builtins[def]; ok {
		return f, nil
	}
	var (
		f   *Func
		err error
	)
	switch def {
	case symbols.ResultCreate(resultOk):
		f, err = l.resultCreate(0)
	case symbols.ResultCreate(resultError):
		f, err = l.resultCreate(1)
	default:
		n, ok := arity(def.Name, functionPrefix, callSuffix)
		if !ok || n < 1 {
			return nil, fmt.Errorf("unknown builtin method %s", def.Name)
		}
		f = functionCall(def, n)
		l.useBuiltin(symbols.FunctionObject(n))
	}
	if err != nil {
		return nil, err
	}
	l.builtins[def] = f
	return f, nil
}

func (l *lowerer) resultCreate(idx int) (*Func, error) {
	dt, err := l.unionType(l.unions[symbols.Result])
	if err != nil {
		return nil, err
	}
	l.useBuiltin(symbols.Result)
	v := &dt.Variants[idx]
	def := symbols.ResultCreate(v.Name)
	fn := &Func{
		ID:         def,
		Name:       def.Name,
		TypeParams: dt.TypeParams,
		Params:     []Local{{Name: ParamName(0), UserName: ItemField(0), Type: v.Fields[1].Type}},
		Body:       Body{Result: Local{Name: ReturnLocalName, Type: dt.SelfRef()}},
	}
	instrs, err := l.constructVariant(LocalPlace(ReturnLocalName), dt, idx, fn.Params)
	if err != nil {
		return nil, err
	}
	fn.Blocks = []Block{{ID: 0, Instrs: instrs, Term: Terminator{Kind: TermReturn}}}
	return fn, nil
}

// functionParams returns the placeholders of Function`n: one per parameter
// followed by TReturn.
func functionParams(obj symbols.DefID, n int) []TypeRef {
	out := make([]TypeRef, 0, n)
	for i := range n - 1 {
		out = append(out, Generic(obj, "T"+strconv.Itoa(i)))
	}
	return append(out, Generic(obj, "TReturn"))
}

// functionCall is the invoke method of Function`n. Its body belongs to the
// runtime.
func functionCall(def symbols.DefID, n int) *Func {
	obj := symbols.FunctionObject(n)
	tps := functionParams(obj, n)
	fn := &Func{
		ID:         def,
		Name:       def.Name,
		TypeParams: tps,
		Builtin:    true,
		Params:     []Local{{Name: ParamName(0), UserName: ThisParamName, Type: Concrete(obj.Name, obj, tps...)}},
		Body:       Body{Result: Local{Name: ReturnLocalName, Type: tps[n-1]}},
	}
	for i, t := range tps[:n-1] {
		fn.Params = append(fn.Params, Local{Name: ParamName(i + 1), Type: t})
	}
	return fn
}

// builtinType builds the layout of a builtin data type.
func (l *lowerer) builtinType(def symbols.DefID) (*DataType, error) {
	if slices.Contains(primitiveTypes, def) {
		return &DataType{ID: def, Name: def.Name, Builtin: true, Variants: []Variant{{Name: ClassVariantName}}}, nil
	}
	if def == symbols.Result {
		dt, err := l.unionType(l.unions[symbols.Result])
		if err != nil {
			return nil, err
		}
		dt.Builtin = true
		return dt, nil
	}
	if n, ok := arity(def.Name, functionPrefix, ""); ok && n >= 1 {
		tps := functionParams(def, n)
		return &DataType{
			ID:         def,
			Name:       def.Name,
			TypeParams: tps,
			Builtin:    true,
			Variants: []Variant{{Name: ClassVariantName, Fields: []Field{
				{Name: FunctionReferenceField, Type: FuncPtr(tps[:n-1], tps[n-1])},
				{Name: FunctionParameterField, Type: RawPointerRef},
			}}},
		}, nil
	}
	if n, ok := arity(def.Name, tuplePrefix, ""); ok {
		dt := &DataType{ID: def, Name: def.Name, Builtin: true}
		variant := Variant{Name: ClassVariantName}
		for i := range n {
			t := Generic(def, "T"+strconv.Itoa(i))
			dt.TypeParams = append(dt.TypeParams, t)
			variant.Fields = append(variant.Fields, Field{Name: ItemField(i), Type: t})
		}
		dt.Variants = []Variant{variant}
		return dt, nil
	}
	return nil, ice("type", noSpan, "unknown builtin type %s", def.Name)
}

// builtinOutput lists the builtin data types and methods the module uses,
// each sorted by name.
func (l *lowerer) builtinOutput() ([]*DataType, []*Func, error) {
	defs := make([]symbols.DefID, 0, len(l.used))
	for def := range l.used {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, symbols.Compare)
	types := make([]*DataType, 0, len(defs))
	for _, def := range defs {
		dt, err := l.builtinType(def)
		if err != nil {
			return nil, nil, err
		}
		types = append(types, dt)
	}

	methods := make([]*Func, 0, len(l.builtins))
	for _, f := range l.builtins {
		methods = append(methods, f)
	}
	slices.SortFunc(methods, func(a, b *Func) int { return strings.Compare(a.Name, b.Name) })
	return types, methods, nil
}
