package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reef/internal/buildpipeline"
	"reef/internal/diag"
	"reef/internal/diagfmt"
	"reef/internal/driver"
	"reef/internal/hir"
	"reef/internal/mir"
	"reef/internal/source"
)

func newDumpCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [flags] <unit.rhir|module.rmir>",
		Short: "Print a unit as HIR or lowered MIR",
		Long: `Dump lowers one .rhir unit and prints the MIR module as text. With
--hir the decoded typed tree is printed instead. A .rmir file is decoded
and printed as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, app, args[0])
		},
	}
	f := cmd.Flags()
	f.Bool("hir", false, "print the decoded HIR instead of lowering it")
	f.Bool("simplify", false, "simplify control-flow graphs before printing")
	return cmd
}

func runDump(cmd *cobra.Command, app *cliApp, path string) error {
	showHIR, err := cmd.Flags().GetBool("hir")
	if err != nil {
		return err
	}
	simplify := app.cfg.Lower.Simplify
	if cmd.Flags().Changed("simplify") {
		if simplify, err = cmd.Flags().GetBool("simplify"); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dumpOpts := mir.DumpOptions{Color: app.colorFor(out)}

	if filepath.Ext(path) == driver.OutputExt {
		m, err := mir.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if simplify {
			mir.SimplifyModule(m)
		}
		return mir.DumpModule(out, m, dumpOpts)
	}

	if showHIR {
		prog, err := hir.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return hir.Dump(out, prog)
	}

	maxDiags := app.cfg.Driver.MaxDiagnostics
	if maxDiags == 0 {
		maxDiags = driver.DefaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)
	res, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{
		File:             path,
		Data:             data,
		NormalizeStrings: app.cfg.Lower.NormalizeStrings,
		WarnUnreachable:  app.cfg.Lower.WarnUnreachable,
		Simplify:         simplify,
		Reporter:         diag.BagReporter{Bag: bag},
	})

	if err != nil {
		if !errors.As(err, new(*buildpipeline.StageError)) {
			return err
		}
		bag.Add(driver.FailureDiagnostic(err))
	}

	stderr := cmd.ErrOrStderr()
	if bag.Len() > 0 {
		var fs *source.FileSet
		if res.Program != nil {
			fs = res.Program.FileSet()
		}
		bag.Sort()
		diagfmt.Pretty(stderr, bag, fs, diagfmt.PrettyOpts{
			Color:     app.colorFor(stderr),
			Context:   1,
			Origin:    path,
			ShowNotes: true,
		})
	}
	if err != nil {
		if _, ok := mir.AsICE(err); ok {
			dumpRing(stderr, app.tracer)
		}
		return errReported
	}
	return mir.DumpModule(out, res.Module, dumpOpts)
}
