package mir

import (
	"fmt"

	"fortio.org/safecast"

	"reef/internal/hir"
	"reef/internal/source"
	"reef/internal/symbols"
	"reef/internal/trace"
)

type loopCtx struct {
	breakTarget    BlockID
	continueTarget BlockID
}

// funcLowerer builds the CFG of one body. cur is the open block that
// statements go to, or NoBlockID after a terminator; the next emitted
// statement then opens a fresh (unreachable) block.
type funcLowerer struct {
	l    *lowerer
	info *funcInfo // nil for static initializers
	fn   *hir.Func
	self symbols.DefID
	body *Body

	shift int
	slots map[hir.LocalID]string

	cur        BlockID
	depth      int
	pendingSeq BlockID
	loopStack  []loopCtx
	span       uint64
}

func (l *lowerer) newFuncLowerer(info *funcInfo, fn *hir.Func, body *Body, span uint64) *funcLowerer {
	fl := &funcLowerer{
		l:          l,
		info:       info,
		fn:         fn,
		self:       fn.Def,
		body:       body,
		slots:      make(map[hir.LocalID]string, len(fn.Locals)),
		cur:        NoBlockID,
		pendingSeq: deferredReturn,
		span:       span,
	}
	if info != nil {
		fl.shift = info.paramShift()
	}
	return fl
}

// lowerMethod lowers one user function into a method.
func (l *lowerer) lowerMethod(fi *funcInfo) (*Func, error) {
	fn := fi.fn
	span := trace.Begin(l.tracer, trace.ScopeModule, "method:"+fn.Def.Name, l.parent)
	defer span.End("")

	result, err := l.typeRef(fn.Result)
	if err != nil {
		return nil, err
	}
	f := &Func{
		ID:         fn.Def,
		Name:       fn.Def.Name,
		Span:       fn.Span,
		TypeParams: l.chainTypeParams(fi),
		Body:       Body{Result: Local{Name: ReturnLocalName, Type: result}},
	}
	switch fi.implicitParam() {
	case ThisParamName:
		t, err := l.selfRef(fi.owner)
		if err != nil {
			return nil, err
		}
		f.Params = append(f.Params, Local{Name: ParamName(0), UserName: ThisParamName, Type: t})
	case ClosureParamName:
		f.Params = append(f.Params, Local{Name: ParamName(0), UserName: ClosureParamName, Type: fi.closureType.SelfRef()})
	}
	shift := len(f.Params)
	for i, p := range fn.Params {
		t, err := l.typeRef(p.Type)
		if err != nil {
			return nil, err
		}
		f.Params = append(f.Params, Local{Name: ParamName(i + shift), UserName: p.Name, Type: t})
	}

	fl := l.newFuncLowerer(fi, fn, &f.Body, span.ID())
	if err := fl.allocLocals(fn.Locals); err != nil {
		return nil, err
	}
	fl.startBlock(fl.newBlock())
	if err := fl.prologue(); err != nil {
		return nil, err
	}
	for _, e := range fn.Body {
		if err := fl.lowerStmt(e); err != nil {
			return nil, err
		}
	}
	fl.finish()
	return f, nil
}

// lowerStaticInit lowers the initializer of a static field into its own body
// whose result is the field value.
func (l *lowerer) lowerStaticInit(c *hir.Class, field *hir.Field) (*Body, error) {
	span := trace.Begin(l.tracer, trace.ScopeModule, "static:"+c.Def.Name+"::"+field.Name, l.parent)
	defer span.End("")

	t, err := l.typeRef(field.Type)
	if err != nil {
		return nil, err
	}
	body := &Body{Result: Local{Name: ReturnLocalName, Type: t}}
	fn := &hir.Func{
		Def:    field.InitDef(c.Def),
		Name:   field.Name,
		Span:   field.Span,
		Flags:  hir.FuncStatic | hir.FuncSynthetic,
		Result: field.Type,
		Locals: field.InitLocals,
	}
	fl := l.newFuncLowerer(nil, fn, body, span.ID())
	if err := fl.allocLocals(fn.Locals); err != nil {
		return nil, err
	}
	fl.startBlock(fl.newBlock())
	if field.Init != nil {
		ret := LocalPlace(ReturnLocalName)
		if _, err := fl.lowerExpr(field.Init, &ret); err != nil {
			return nil, err
		}
	}
	fl.setTerm(&Terminator{Kind: TermReturn})
	fl.finish()
	return body, nil
}

// allocLocals reserves _localsObject and one local per declared variable
// that is not stored in the environment.
func (l *funcLowerer) allocLocals(locals []hir.Local) error {
	if l.info != nil && l.info.localsType != nil {
		l.body.Locals = append(l.body.Locals, Local{Name: LocalsObjectName, Type: l.info.localsType.SelfRef()})
	}
	for _, loc := range locals {
		if loc.Captured {
			continue
		}
		if !loc.ID.IsValid() {
			return ice("local", loc.Span, "local %q of %s has no id", loc.Name, l.fn.Def.Name)
		}
		t, err := l.l.typeRef(loc.Type)
		if err != nil {
			return err
		}
		name := LocalName(len(l.body.Locals))
		l.body.Locals = append(l.body.Locals, Local{Name: name, UserName: loc.Name, Type: t})
		l.slots[loc.ID] = name
	}
	return nil
}

// prologue creates the environment object and moves captured parameters
// into it.
func (l *funcLowerer) prologue() error {
	if l.info == nil || l.info.localsType == nil {
		return nil
	}
	obj := LocalPlace(LocalsObjectName)
	l.assign(obj, CreateObject(l.info.localsType.SelfRef()))
	for i, p := range l.fn.Params {
		if !p.Captured {
			continue
		}
		l.assign(obj.Project(p.Name, ClassVariantName), Use(Copy(LocalPlace(ParamName(i+l.shift)))))
	}
	return nil
}

// finish closes the body: the fallthrough path and every deferred return
// edge end in one empty Return block.
func (l *funcLowerer) finish() {
	ret := NoBlockID
	if b := l.curBlock(); b != nil && b.empty() {
		b.Term = Terminator{Kind: TermReturn}
		ret = l.cur
		l.cur = NoBlockID
	}
	returnBlock := func() BlockID {
		if ret == NoBlockID {
			ret = l.newBlock()
			l.body.Blocks[ret].Term = Terminator{Kind: TermReturn}
		}
		return ret
	}
	if l.cur != NoBlockID {
		l.setTerm(&Terminator{Kind: TermGoto, Goto: GotoTerm{Target: returnBlock()}})
	}
	for i := range l.body.Blocks {
		if l.body.Blocks[i].Term.Kind == TermNone {
			l.body.Blocks[i].Term = Terminator{Kind: TermGoto, Goto: GotoTerm{Target: returnBlock()}}
		}
	}
	if l.hasEdge(deferredReturn) {
		l.retarget(deferredReturn, returnBlock())
	}
}

func (l *funcLowerer) curBlock() *Block {
	if l == nil || l.body == nil {
		return nil
	}
	idx := int(l.cur)
	if idx < 0 || idx >= len(l.body.Blocks) {
		return nil
	}
	return &l.body.Blocks[idx]
}

func (l *funcLowerer) newBlock() BlockID {
	raw, err := safecast.Conv[int32](len(l.body.Blocks))
	if err != nil {
		panic(fmt.Errorf("mir: block id overflow: %w", err))
	}
	id := BlockID(raw)
	l.body.Blocks = append(l.body.Blocks, Block{ID: id, Term: Terminator{Kind: TermNone}})
	return id
}

func (l *funcLowerer) startBlock(id BlockID) {
	l.cur = id
}

// ensureBlock opens a block when the current path was terminated.
func (l *funcLowerer) ensureBlock() BlockID {
	if l.cur == NoBlockID {
		l.startBlock(l.newBlock())
	}
	return l.cur
}

// setTerm terminates the current block and leaves no block open.
func (l *funcLowerer) setTerm(t *Terminator) {
	b := l.curBlock()
	if b == nil || t == nil {
		return
	}
	if !b.Terminated() {
		b.Term = *t
	}
	l.cur = NoBlockID
}

func (l *funcLowerer) setTermAt(id BlockID, t *Terminator) {
	if id < 0 || int(id) >= len(l.body.Blocks) {
		return
	}
	l.body.Blocks[id].Term = *t
	if id == l.cur {
		l.cur = NoBlockID
	}
}

func (l *funcLowerer) emit(ins *Instr) {
	l.ensureBlock()
	b := l.curBlock()
	if b.Terminated() || ins == nil {
		return
	}
	b.Instrs = append(b.Instrs, *ins)
}

func (l *funcLowerer) assign(dst Place, src RValue) {
	ins := Assign(dst, src)
	l.emit(&ins)
}

func (l *funcLowerer) gotoBlock(target BlockID) {
	if l.cur == NoBlockID {
		return
	}
	l.setTerm(&Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}})
}

func (l *funcLowerer) switchInt(value Operand, cases []SwitchCase, otherwise BlockID) {
	l.ensureBlock()
	l.setTerm(&Terminator{Kind: TermSwitchInt, SwitchInt: SwitchIntTerm{Value: value, Cases: cases, Otherwise: otherwise}})
}

// pending returns a placeholder target for a block that is allocated only
// after everything branching to it has been lowered.
func (l *funcLowerer) pending() BlockID {
	l.pendingSeq--
	return l.pendingSeq
}

// bindPending allocates the block for p and continues there. When nothing
// branches to p the current path stays closed.
func (l *funcLowerer) bindPending(p BlockID) {
	if !l.hasEdge(p) {
		l.cur = NoBlockID
		return
	}
	id := l.newBlock()
	l.retarget(p, id)
	l.startBlock(id)
}

func (l *funcLowerer) hasEdge(target BlockID) bool {
	for i := range l.body.Blocks {
		for _, s := range l.body.Blocks[i].Term.Successors() {
			if s == target {
				return true
			}
		}
	}
	return false
}

func (l *funcLowerer) retarget(from, to BlockID) {
	for i := range l.body.Blocks {
		l.body.Blocks[i].Term.retarget(from, to)
	}
}

func (l *funcLowerer) newTemp(t TypeRef) Place {
	name := LocalName(len(l.body.Locals))
	l.body.Locals = append(l.body.Locals, Local{Name: name, Type: l.l.ref(t)})
	return LocalPlace(name)
}

// destLocal returns dst when it is a plain local, otherwise a fresh temp.
func (l *funcLowerer) destLocal(dst *Place, t TypeRef) Place {
	if dst != nil && dst.Kind == PlaceLocal {
		return *dst
	}
	return l.newTemp(t)
}

// result stores rv: into dst when given, else directly as an operand for
// uses, else through a fresh temp of type t.
func (l *funcLowerer) result(rv RValue, t TypeRef, dst *Place) Operand {
	if dst != nil {
		l.assign(*dst, rv)
		return Copy(*dst)
	}
	if rv.Kind == RValueUse {
		return rv.Use
	}
	tmp := l.newTemp(t)
	l.assign(tmp, rv)
	return Copy(tmp)
}

func (l *funcLowerer) pushLoop(ctx loopCtx) {
	l.loopStack = append(l.loopStack, ctx)
}

func (l *funcLowerer) popLoop() {
	l.loopStack = l.loopStack[:len(l.loopStack)-1]
}

func (l *funcLowerer) currentLoop(span source.Span, construct string) (loopCtx, error) {
	if len(l.loopStack) == 0 {
		return loopCtx{}, ice(construct, span, "%s outside of a loop", construct)
	}
	return l.loopStack[len(l.loopStack)-1], nil
}

// node emits a debug-level trace point for decision-tree construction.
func (l *funcLowerer) node(name, detail string) {
	trace.Point(l.l.tracer, trace.ScopeNode, name, detail, l.span)
}
