package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"reef/internal/hir"
	"reef/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a typed program:
// 1) every span points at a file of the program
// 2) spans are ordered (Start <= End)
// 3) spans into files that carry content stay within it
func CheckSpanInvariants(prog *hir.Program) error {
	if prog == nil {
		return errors.New("nil program")
	}
	sizes := make([]uint32, len(prog.Files))
	for i, f := range prog.Files {
		n, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			return fmt.Errorf("file %s: len content overflow: %w", f.Path, err)
		}
		sizes[i] = n
	}

	var errs []error
	check := func(what string, sp source.Span) {
		if sp == (source.Span{}) {
			return
		}
		if int(sp.File) >= len(sizes) {
			errs = append(errs, fmt.Errorf("%s: span %s points to unknown file", what, sp))
			return
		}
		if sp.End < sp.Start {
			errs = append(errs, fmt.Errorf("%s: span %s ends before it starts", what, sp))
		}
		if len(prog.Files[sp.File].Content) > 0 && sp.End > sizes[sp.File] {
			errs = append(errs, fmt.Errorf("%s: span %s beyond content (%d bytes)", what, sp, sizes[sp.File]))
		}
	}
	var walk func(fn *hir.Func)
	walk = func(fn *hir.Func) {
		check(fn.Def.Name, fn.Span)
		hir.WalkFunc(fn, func(e *hir.Expr) bool {
			check(fn.Def.Name+": "+e.Kind.String(), e.Span)
			return true
		})
		for _, n := range fn.Nested {
			walk(n)
		}
	}
	for _, fn := range prog.Funcs {
		walk(fn)
	}
	for _, c := range prog.Classes {
		check(c.Def.Name, c.Span)
		for _, fn := range c.Funcs {
			walk(fn)
		}
	}
	for _, u := range prog.Unions {
		check(u.Def.Name, u.Span)
		for _, fn := range u.Funcs {
			walk(fn)
		}
	}
	for _, e := range prog.TopLevel {
		hir.Walk(e, func(x *hir.Expr) bool {
			check("top level: "+x.Kind.String(), x.Span)
			return true
		})
	}
	return errors.Join(errs...)
}
