package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"reef/internal/diag"
	"reef/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgGreen),
		gutter: color.New(color.FgBlue),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics in bag order (call bag.Sort first for a stable
// layout). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined ^~~~ and, with
// ShowNotes, its notes in the same form.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	if fs == nil {
		fs = source.NewFileSet()
	}
	r := prettyRenderer{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		r.diagnostic(&d)
	}
}

type prettyRenderer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

func (r *prettyRenderer) diagnostic(d *diag.Diagnostic) {
	sev := r.pal.severity(d.Severity)
	fmt.Fprintf(r.w, "%s: %s %s: %s\n",
		r.location(d.Primary), sev.Sprint(d.Severity.String()), r.pal.bold.Sprint(d.Code.ID()), d.Message)
	r.snippet(d.Primary, sev)
	if !r.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		fmt.Fprintf(r.w, "  %s %s: %s\n", r.pal.note.Sprint("note:"), r.location(n.Span), n.Msg)
		r.snippet(n.Span, r.pal.note)
	}
}

func hasLocation(span source.Span) bool {
	return span != source.Span{}
}

func (r *prettyRenderer) location(span source.Span) string {
	f := r.fs.Get(span.File)
	if !hasLocation(span) || f == nil {
		if r.opts.Origin != "" {
			return r.opts.Origin
		}
		return "<unknown>"
	}
	path := formatPath(f.Path, r.opts.PathMode, r.opts.BaseDir)
	if len(f.Content) == 0 {
		return path
	}
	start, _ := r.fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func (r *prettyRenderer) snippet(span source.Span, c *color.Color) {
	f := r.fs.Get(span.File)
	if !hasLocation(span) || f == nil || len(f.Content) == 0 {
		return
	}
	start, end := r.fs.Resolve(span)
	ctx := uint32(max(r.opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := max(min(start.Line+ctx, lineCount(f)), start.Line)
	gutterWidth := len(fmt.Sprint(last))

	for line := first; line <= last; line++ {
		text := f.GetLine(line)
		fmt.Fprintf(r.w, " %s %s %s\n", r.pal.gutter.Sprintf("%*d", gutterWidth, line), r.pal.gutter.Sprint("|"), r.clip(text))
		if line != start.Line {
			continue
		}
		endCol := end.Col
		if end.Line != start.Line {
			endCol = uint32(len(text)) + 1 //nolint:gosec // a line is shorter than the file
		}
		pad, mark := caret(text, start.Col, endCol)
		fmt.Fprintf(r.w, " %s %s %s%s\n", strings.Repeat(" ", gutterWidth), r.pal.gutter.Sprint("|"), pad, c.Sprint(mark))
	}
}

func (r *prettyRenderer) clip(line string) string {
	if r.opts.Width == 0 || runewidth.StringWidth(line) <= int(r.opts.Width) {
		return line
	}
	return runewidth.Truncate(line, int(r.opts.Width), "…")
}

// caret returns the padding up to byte column startCol and the ^~~~ marker
// reaching byte column endCol, both measured in terminal cells.
func caret(line string, startCol, endCol uint32) (pad, mark string) {
	s := min(max(int(startCol)-1, 0), len(line))
	e := min(max(int(endCol)-1, s), len(line))
	var b strings.Builder
	for _, r := range line[:s] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[s:e]), 1)
	return b.String(), "^" + strings.Repeat("~", width-1)
}

func lineCount(f *source.File) uint32 {
	n := uint32(len(f.LineIdx)) //nolint:gosec // bounded by the file size
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}
