package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reef/internal/config"
	"reef/internal/trace"
	"reef/internal/version"
)

// errReported means the failure was already printed as diagnostics.
var errReported = errors.New("diagnostics reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &cliApp{}
	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	app.close()
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return 1
}

// cliApp carries the state shared by every subcommand of one invocation.
type cliApp struct {
	cfg        config.Config
	traceLevel trace.Level
	tracer     trace.Tracer
	cleanups   []func()
}

func newRootCmd(app *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:   "reef",
		Short: "Lower typed HIR units to MIR",
		Long: `reef resolves closure environments, builds control-flow graphs and
compiles match expressions into decision trees, turning typed HIR
units (.rhir) into validated MIR modules (.rmir).`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to reef.toml (default: nearest one above the working directory)")
	pf.String("color", "", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics kept per unit")

	pf.String("trace", "", "write compiler trace to file (- for stderr)")
	pf.Var(&app.traceLevel, "trace-level", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 0, "events kept by the trace ring")
	pf.Duration("trace-heartbeat", 0, "emit a trace heartbeat at this interval (0 disables)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(newLowerCmd(app))
	root.AddCommand(newDumpCmd(app))
	root.AddCommand(newCacheCmd(app))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads reef.toml, applies the global flag overrides and starts
// profiling and tracing.
func (a *cliApp) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := applyGlobalFlags(&cfg, flags); err != nil {
		return err
	}
	a.cfg = cfg

	switch cfg.Dump.Color {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.cleanups = append(a.cleanups, stopProfiling)

	tracer, stopTracing, err := setupTracing(cmd, &a.cfg)
	if err != nil {
		return err
	}
	a.tracer = tracer
	a.cleanups = append(a.cleanups, stopTracing)
	return nil
}

func (a *cliApp) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

func (a *cliApp) quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}

func (a *cliApp) timings(cmd *cobra.Command) bool {
	t, err := cmd.Root().PersistentFlags().GetBool("timings")
	return err == nil && t
}

// colorFor resolves the color mode for output written to w.
func (a *cliApp) colorFor(w io.Writer) bool {
	switch a.cfg.Dump.Color {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(w) && !color.NoColor
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
