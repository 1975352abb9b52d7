package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"reef/internal/diag"
	"reef/internal/hir"
	"reef/internal/mir"
	"reef/internal/trace"
)

// CompileRequest configures lowering of one unit.
type CompileRequest struct {
	// File names the unit in progress events.
	File string
	// Data holds the encoded typed program.
	Data []byte

	NormalizeStrings bool
	WarnUnreachable  bool
	// Simplify folds goto chains after validation.
	Simplify bool

	Reporter diag.Reporter
	Progress ProgressSink
}

// CompileResult captures the artefacts and stage timings of one unit.
type CompileResult struct {
	Program *hir.Program
	Module  *mir.Module
	// Output is the encoded module.
	Output  []byte
	Timings Timings
}

// Compile runs decode, resolve, lower, validate and encode over one unit.
// Failures are returned as *StageError; the error wraps a *mir.ICE when
// lowering hit one.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, errors.New("missing compile request")
	}
	p := &pipeline{ctx: ctx, req: req, tracer: trace.FromContext(ctx)}

	unitSpan := trace.Begin(p.tracer, trace.ScopeDriver, "unit", trace.Parent(ctx))
	unitSpan.WithExtra("file", req.File)
	p.parent = unitSpan.ID()
	defer func() { unitSpan.End(string(p.stage)) }()

	prog, err := p.decode()
	if err != nil {
		return result, p.fail(err)
	}
	result.Program = prog

	m, err := p.lower(prog)
	if err != nil {
		return result, p.fail(err)
	}
	result.Module = m

	if err := p.validate(m); err != nil {
		return result, p.fail(err)
	}
	if req.Simplify {
		mir.SimplifyModule(m)
	}

	out, err := p.encode(m)
	if err != nil {
		return result, p.fail(err)
	}
	result.Output = out
	result.Timings = p.timings
	p.stage = ""
	emit(req.Progress, Event{File: req.File, Stage: StageEncode, Status: StatusDone, Elapsed: p.timings.Sum(Stages...)})
	return result, nil
}

type pipeline struct {
	ctx     context.Context
	req     *CompileRequest
	tracer  trace.Tracer
	parent  uint64
	stage   Stage
	started time.Time
	timings Timings
}

// enter closes the running stage and opens the next one.
func (p *pipeline) enter(stage Stage) {
	now := time.Now()
	if p.stage != "" {
		p.timings.Set(p.stage, now.Sub(p.started))
	}
	p.stage, p.started = stage, now
	emit(p.req.Progress, Event{File: p.req.File, Stage: stage, Status: StatusWorking})
}

func (p *pipeline) leave() {
	if p.stage != "" {
		p.timings.Set(p.stage, time.Since(p.started))
	}
}

func (p *pipeline) fail(err error) error {
	p.leave()
	emit(p.req.Progress, Event{File: p.req.File, Stage: p.stage, Status: StatusError, Err: err, Elapsed: p.timings.Duration(p.stage)})
	return &StageError{File: p.req.File, Stage: p.stage, Err: err}
}

// StageError reports the stage a unit failed in.
type StageError struct {
	File  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (p *pipeline) decode() (*hir.Program, error) {
	p.enter(StageDecode)
	span := trace.Begin(p.tracer, trace.ScopePass, "decode", p.parent)
	defer span.End("")
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}
	return hir.Decode(bytes.NewReader(p.req.Data))
}

func (p *pipeline) lower(prog *hir.Program) (*mir.Module, error) {
	if err := p.ctx.Err(); err != nil {
		p.enter(StageResolve)
		return nil, err
	}
	ctx := trace.WithParent(p.ctx, p.parent)
	var reporter diag.Reporter
	if p.req.Reporter != nil {
		reporter = diag.NewDedupReporter(p.req.Reporter)
	}
	m, err := mir.LowerProgram(ctx, prog, mir.Options{
		NormalizeStrings: p.req.NormalizeStrings,
		WarnUnreachable:  p.req.WarnUnreachable,
		Reporter:         reporter,
		OnPhase: func(phase string) {
			switch phase {
			case "resolve":
				p.enter(StageResolve)
			case "lower":
				p.enter(StageLower)
			}
		},
	})
	if p.stage == StageDecode {
		// LowerProgram failed before resolution started.
		p.enter(StageResolve)
	}
	return m, err
}

func (p *pipeline) validate(m *mir.Module) error {
	p.enter(StageValidate)
	span := trace.Begin(p.tracer, trace.ScopePass, "validate", p.parent)
	defer span.End("")
	return mir.Validate(m)
}

func (p *pipeline) encode(m *mir.Module) ([]byte, error) {
	p.enter(StageEncode)
	span := trace.Begin(p.tracer, trace.ScopePass, "encode", p.parent)
	defer span.End("")
	var buf bytes.Buffer
	if err := mir.Encode(&buf, m); err != nil {
		return nil, err
	}
	p.leave()
	return buf.Bytes(), nil
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// EmitQueued reports every file as queued ahead of a run.
func EmitQueued(sink ProgressSink, files []string) {
	for _, file := range files {
		emit(sink, Event{File: file, Stage: StageDecode, Status: StatusQueued})
	}
}

// EmitCached reports a unit served from the cache.
func EmitCached(sink ProgressSink, file string) {
	emit(sink, Event{File: file, Stage: StageEncode, Status: StatusCached})
}
