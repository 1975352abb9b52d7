package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"reef/internal/buildpipeline"
	"reef/internal/diag"
	"reef/internal/diagfmt"
	"reef/internal/driver"
	"reef/internal/observ"
	"reef/internal/trace"
	"reef/internal/ui"
)

func newLowerCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower [flags] <unit.rhir|dir>...",
		Short: "Lower HIR units to MIR modules",
		Long: `Lower decodes every .rhir unit, lowers it to MIR, validates the result
and writes it next to the unit as .rmir (or into --output). Directories
are searched recursively. Units are independent and lowered in parallel;
one failing unit does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(cmd, app, args)
		},
	}
	f := cmd.Flags()
	f.StringP("output", "o", "", "directory for .rmir files (default: next to each unit)")
	f.String("ui", "", "progress UI (auto|on|off)")
	f.IntP("jobs", "j", 0, "max parallel units (0=GOMAXPROCS)")
	f.Bool("no-cache", false, "lower every unit even when a cached module exists")
	f.Bool("simplify", false, "simplify control-flow graphs after validation")
	f.Bool("normalize-strings", true, "NFC-normalize string literals")
	f.Bool("warn-unreachable", true, "warn about match arms that can never be taken")
	f.String("format", "pretty", "diagnostics format (pretty|json|short)")
	f.Bool("dry-run", false, "lower and report without writing modules")
	return cmd
}

// unitReport is one unit in the JSON report.
type unitReport struct {
	Unit   string `json:"unit"`
	Cached bool   `json:"cached"`
	Failed bool   `json:"failed"`
	Output string `json:"output,omitempty"`
	diagfmt.DiagnosticsOutput
}

type lowerReport struct {
	Units   []unitReport   `json:"units"`
	Timings *observ.Report `json:"timings,omitempty"`
}

func runLower(cmd *cobra.Command, app *cliApp, args []string) error {
	settings, err := resolveLowerSettings(&app.cfg, cmd.Flags())
	if err != nil {
		return err
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	var timer *observ.Timer
	if app.timings(cmd) {
		timer = observ.NewTimer()
	}

	stopLoad := timer.Begin("load")
	paths, err := driver.ListUnits(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s units found", driver.UnitExt)
	}
	units, err := driver.LoadUnits(paths)
	if err != nil {
		return err
	}
	stopLoad(fmt.Sprintf("%d units", len(units)))

	opts := settings.opts
	opts.Timer = timer
	if settings.useCache {
		cache, err := openCache(settings.cacheDir)
		if err != nil {
			// lowering works without a cache
			fmt.Fprintf(stderr, "warning: cache disabled: %v\n", err)
		} else {
			opts.Cache = cache
		}
	}

	results, err := lowerWithProgress(cmd.Context(), stdout, settings.ui, units, paths, opts)
	if err != nil {
		return err
	}

	var written []string
	if !settings.dryRun {
		stopWrite := timer.Begin("write")
		written, err = driver.WriteOutputs(results, settings.output)
		stopWrite("")
		if err != nil {
			return err
		}
	}

	failed := 0
	for i := range results {
		if results[i].Failed() {
			failed++
		}
	}

	switch settings.format {
	case "json":
		if err := writeLowerReport(stdout, results, settings.output, settings.dryRun, timer); err != nil {
			return err
		}
	case "short":
		printShortDiagnostics(stdout, results)
	default:
		printDiagnostics(stderr, results, app.colorFor(stderr))
		if !app.quiet(cmd) {
			printLowerSummary(stdout, results, written, failed)
		}
		if timer != nil {
			fmt.Fprint(stderr, timer.Summary())
		}
	}

	if failed > 0 {
		dumpRingOnICE(stderr, app.tracer, results)
		return errReported
	}
	return nil
}

// lowerWithProgress runs the driver, behind the progress view when the
// output is interactive.
func lowerWithProgress(ctx context.Context, out io.Writer, mode uiMode, units []driver.Unit, paths []string, opts driver.Options) ([]driver.UnitResult, error) {
	if !shouldUseTUI(mode, out) {
		return driver.LowerUnits(ctx, units, opts)
	}
	return ui.Run(out, "lowering", paths, func(sink buildpipeline.ProgressSink) ([]driver.UnitResult, error) {
		o := opts
		o.Progress = sink
		return driver.LowerUnits(ctx, units, o)
	})
}

func printDiagnostics(w io.Writer, results []driver.UnitResult, colorOn bool) {
	first := true
	for i := range results {
		r := &results[i]
		if r.Bag == nil || r.Bag.Len() == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		r.Bag.Sort()
		diagfmt.Pretty(w, r.Bag, r.Files, diagfmt.PrettyOpts{
			Color:     colorOn,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			Origin:    r.Path,
			ShowNotes: true,
		})
	}
}

// printShortDiagnostics writes one line per diagnostic, unit by unit.
func printShortDiagnostics(w io.Writer, results []driver.UnitResult) {
	for i := range results {
		r := &results[i]
		if r.Bag == nil || r.Bag.Len() == 0 {
			continue
		}
		items := r.Bag.Items()
		ptrs := make([]*diag.Diagnostic, len(items))
		for j := range items {
			ptrs[j] = &items[j]
		}
		fmt.Fprintln(w, diag.FormatShortDiagnostics(ptrs, r.Files, r.Path, true))
	}
}

func printLowerSummary(w io.Writer, results []driver.UnitResult, written []string, failed int) {
	cached := 0
	for i := range results {
		if results[i].Cached {
			cached++
		}
	}
	fmt.Fprintf(w, "lowered %d units (%d cached, %d failed)", len(results), cached, failed)
	if len(written) > 0 {
		fmt.Fprintf(w, ", wrote %d modules", len(written))
	}
	fmt.Fprintln(w)
}

func writeLowerReport(w io.Writer, results []driver.UnitResult, dir string, dryRun bool, timer *observ.Timer) error {
	report := lowerReport{Units: make([]unitReport, 0, len(results))}
	for i := range results {
		r := &results[i]
		if r.Bag != nil {
			r.Bag.Sort()
		}
		u := unitReport{
			Unit:   r.Path,
			Cached: r.Cached,
			Failed: r.Failed(),
			DiagnosticsOutput: diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				Origin:           r.Path,
			}),
		}
		if !u.Failed && !dryRun {
			u.Output = driver.OutputPath(r.Path, dir)
		}
		report.Units = append(report.Units, u)
	}
	if timer != nil {
		t := timer.Report()
		report.Timings = &t
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// dumpRingOnICE prints the trace ring when a unit hit an internal compiler
// error, so the events leading up to it are not lost.
func dumpRingOnICE(w io.Writer, tracer trace.Tracer, results []driver.UnitResult) {
	if anyICE(results) {
		dumpRing(w, tracer)
	}
}

func dumpRing(w io.Writer, tracer trace.Tracer) {
	ring := trace.RingOf(tracer)
	if ring == nil || ring.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "\ntrace ring, last %d events at %s:\n", ring.Len(), time.Now().Format(time.RFC3339))
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}

func anyICE(results []driver.UnitResult) bool {
	for i := range results {
		if results[i].Bag == nil {
			continue
		}
		for _, d := range results[i].Bag.Items() {
			if d.Code == diag.LowerICE {
				return true
			}
		}
	}
	return false
}
