package driver

import (
	"bytes"
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"reef/internal/buildpipeline"
	"reef/internal/diag"
	"reef/internal/hir"
	"reef/internal/mir"
	"reef/internal/observ"
	"reef/internal/source"
	"reef/internal/trace"
)

// DefaultMaxDiagnostics bounds the diagnostics kept per unit when Options
// leaves it zero.
const DefaultMaxDiagnostics = 256

// Options configures LowerUnits.
type Options struct {
	// Jobs bounds the units lowered at once; 0 means GOMAXPROCS.
	Jobs int

	NormalizeStrings bool
	WarnUnreachable  bool
	Simplify         bool

	MaxDiagnostics int

	// Cache, when set, serves unchanged units without lowering them.
	Cache *DiskCache
	// Progress receives per-unit stage events.
	Progress buildpipeline.ProgressSink
	// Timer accumulates stage durations across units.
	Timer *observ.Timer
}

// UnitResult is the outcome of one unit. A unit that failed has an error
// diagnostic in Bag and no Output.
type UnitResult struct {
	Path string
	// Module is nil for cache hits; DecodeModule recovers it from Output.
	Module *mir.Module
	Output []byte
	Bag    *diag.Bag
	Files  *source.FileSet
	Cached bool
}

// Failed reports whether the unit produced no module.
func (r *UnitResult) Failed() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

// LowerUnits lowers independent units concurrently. Each unit runs the whole
// pipeline sequentially on one goroutine. Results keep the order of units.
// A failing unit does not stop the others; only cancellation of ctx is
// returned as an error.
func LowerUnits(ctx context.Context, units []Unit, opts Options) ([]UnitResult, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics == 0 {
		opts.MaxDiagnostics = DefaultMaxDiagnostics
	}
	results := make([]UnitResult, len(units))
	if len(units) == 0 {
		return results, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "lower-units", trace.Parent(ctx))
	defer span.End("")
	ctx = trace.WithParent(ctx, span.ID())

	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = u.Path
	}
	buildpipeline.EmitQueued(opts.Progress, paths)

	fp := fingerprint(&opts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, len(units)))
	for i := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns results[i].
			return lowerUnit(gctx, &units[i], &opts, fp, &results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func lowerUnit(ctx context.Context, u *Unit, opts *Options, fp string, out *UnitResult) error {
	out.Path = u.Path
	out.Bag = diag.NewBag(opts.MaxDiagnostics)

	key := unitKey(u.Data, fp)
	if opts.Cache != nil {
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache-corrupt", u.Path+": "+err.Error(), trace.Parent(ctx))
		}
		if hit {
			out.Cached = true
			out.Output = payload.Output
			out.Files = filesOf(payload.Files)
			for _, d := range payload.Diagnostics {
				out.Bag.Add(d)
			}
			buildpipeline.EmitCached(opts.Progress, u.Path)
			return nil
		}
	}

	res, err := buildpipeline.Compile(ctx, &buildpipeline.CompileRequest{
		File:             u.Path,
		Data:             u.Data,
		NormalizeStrings: opts.NormalizeStrings,
		WarnUnreachable:  opts.WarnUnreachable,
		Simplify:         opts.Simplify,
		Reporter:         diag.BagReporter{Bag: out.Bag},
		Progress:         opts.Progress,
	})
	recordTimings(opts.Timer, res.Timings)
	if res.Program != nil {
		out.Files = res.Program.FileSet()
	} else {
		out.Files = source.NewFileSet()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		out.Bag.Add(FailureDiagnostic(err))
		return nil
	}
	out.Module = res.Module
	out.Output = res.Output

	if opts.Cache != nil {
		payload := &CachePayload{
			Module:      res.Module.Name,
			Output:      res.Output,
			Diagnostics: out.Bag.Items(),
			Files:       res.Program.Files,
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache-write-failed", u.Path+": "+err.Error(), trace.Parent(ctx))
		}
	}
	return nil
}

func filesOf(files []hir.SourceFile) *source.FileSet {
	p := hir.Program{Files: files}
	return p.FileSet()
}

// DecodeModule returns the lowered module, decoding Output for cache hits.
func (r *UnitResult) DecodeModule() (*mir.Module, error) {
	if r.Module != nil {
		return r.Module, nil
	}
	if len(r.Output) == 0 {
		return nil, errors.New("driver: unit has no output")
	}
	m, err := mir.Decode(bytes.NewReader(r.Output))
	if err != nil {
		return nil, err
	}
	r.Module = m
	return m, nil
}
