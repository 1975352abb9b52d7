package diag

import (
	"slices"

	"reef/internal/source"
)

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// InternalError reports a unit that lowering gave up on. The note names the
// construct that broke, when known.
func InternalError(primary source.Span, construct, msg string) Diagnostic {
	d := NewError(LowerICE, primary, "internal compiler error: "+msg)
	if construct != "" {
		d = d.WithNote(primary, "while lowering "+construct)
	}
	return d
}

// WithNote returns a copy of d with one more note; d keeps its own notes.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(slices.Clip(d.Notes), Note{Span: sp, Msg: msg})
	return d
}
